package cache

import "github.com/tindervale/babelglass/internal/metrics"

// TwoLevel composes L1 (memory) and L2 (disk), checking L1 first, then L2
// (and on an L2 hit, populating L1 so the next lookup is fast), reporting
// hit/miss outcomes to the metrics registry and Prometheus exporter.
type TwoLevel struct {
	l1      *L1
	l2      *L2
	metrics *metrics.Registry
}

// NewTwoLevel composes an already-open L1/L2 pair.
func NewTwoLevel(l1 *L1, l2 *L2, reg *metrics.Registry) *TwoLevel {
	return &TwoLevel{l1: l1, l2: l2, metrics: reg}
}

// Lookup checks L1, then L2, returning the cached translation and whether
// either tier had it; which tier served it is only recorded in metrics.
func (c *TwoLevel) Lookup(key string) (value string, hit bool) {
	if v, ok := c.l1.Get(key); ok {
		c.record("l1", "hit")
		return v, true
	}
	if v, ok := c.l2.Get(key); ok {
		c.l1.Put(key, v)
		c.record("l2", "hit")
		return v, true
	}
	c.record("l2", "miss")
	return "", false
}

// Store writes through to both tiers.
func (c *TwoLevel) Store(key, value string) error {
	c.l1.Put(key, value)
	return c.l2.Put(key, value)
}

func (c *TwoLevel) record(level, result string) {
	metrics.CacheResultsTotal.WithLabelValues(level, result).Inc()
	if c.metrics == nil {
		return
	}
	switch {
	case level == "l1" && result == "hit":
		c.metrics.Record(metrics.MetricCacheHitL1, 1)
	case level == "l2" && result == "hit":
		c.metrics.Record(metrics.MetricCacheHitL2, 1)
	default:
		c.metrics.Record(metrics.MetricCacheMiss, 1)
	}
}

// Close releases L2's resources (L1 is purely in-memory, nothing to close).
func (c *TwoLevel) Close() error {
	return c.l2.Close()
}
