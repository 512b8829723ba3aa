package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus counters/gauges/histograms for the long-horizon /metrics
// scrape surface. These are additive to the ring Registry above, not a
// replacement — the registry serves instant UI percentile queries, these
// serve Prometheus's own rate()/histogram_quantile() aggregation.
var (
	WakeEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_wake_events_total",
		Help: "Wake detector outcomes by result",
	}, []string{"outcome"})

	SchedulerQueueDepth = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "assistant_scheduler_queue_depth",
		Help: "Current queue depth per priority tier",
	}, []string{"tier"})

	SchedulerTasksTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_scheduler_tasks_total",
		Help: "Scheduled tasks by tier and outcome",
	}, []string{"tier", "outcome"})

	TranslateLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_translate_latency_seconds",
		Help:    "End-to-end translate pipeline latency",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.0, 4.0, 8.0},
	})

	CacheResultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_cache_results_total",
		Help: "Translation cache lookups by level and hit/miss",
	}, []string{"level", "result"})

	APIRetriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_translate_api_retries_total",
		Help: "Translation API call retries by reason",
	}, []string{"reason"})

	OCRFrameLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "assistant_ocr_frame_latency_seconds",
		Help:    "Incremental OCR per-frame processing latency",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.2, 0.5, 1.0},
	})

	OCRTokenSavingRatio = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "assistant_ocr_token_saving_ratio",
		Help: "Fraction of OCR lines skipped via incremental diffing",
	})

	CancellationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_cancellations_total",
		Help: "Generation cancellations by pipeline",
	}, []string{"pipeline"})

	HistoryWritesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "assistant_history_writes_total",
		Help: "History records flushed to the sqlite store",
	})
)
