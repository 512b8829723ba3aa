package ocr

import (
	"context"
	"time"

	"github.com/tindervale/babelglass/internal/cancel"
	"github.com/tindervale/babelglass/internal/metrics"
)

// RealtimeConfig tunes the incremental capture loop.
type RealtimeConfig struct {
	SampleInterval  time.Duration
	FrameDiffStride int
	FrameDiffMAE    float64
}

// DefaultRealtimeConfig matches the spec's sampling cadence for the
// incremental OCR mode.
func DefaultRealtimeConfig() RealtimeConfig {
	return RealtimeConfig{
		SampleInterval:  500 * time.Millisecond,
		FrameDiffStride: 4,
		FrameDiffMAE:    3.0,
	}
}

// Sampler captures the current frame for a fixed ROI, e.g. a screen region
// grabber. Kept separate from Engine so the realtime loop can gate on pixel
// changes before ever invoking (potentially expensive) OCR.
type Sampler interface {
	Sample(ctx context.Context) (Frame, error)
}

// Update is emitted by the realtime loop for each tick that produced
// (possibly empty) changed lines, for the UI's realtime-update event. Lines
// is the full current recognition in top-to-bottom document order, so a
// caller merging per-line translations can assemble them in that order
// without re-deriving it from ChangedLines alone.
type Update struct {
	Lines            []Line
	ChangedLines     []Line
	UnchangedLines   int
	TokenSavingRatio float64
}

// UpdateFunc receives each tick's Update for rendering.
type UpdateFunc func(Update)

// RealtimeLoop runs the incremental sample -> frame-diff-gate ->
// recognize -> line-diff -> emit cycle until ctx is done or the
// cancellation guard stops being current.
type RealtimeLoop struct {
	sampler Sampler
	engine  Engine
	cfg     RealtimeConfig
	metrics *metrics.Registry

	lastFrame []byte
	lineCache *LineCache

	totalLines   int
	skippedLines int
}

// NewRealtimeLoop creates a loop over sampler/engine with cfg tuning.
func NewRealtimeLoop(sampler Sampler, engine Engine, cfg RealtimeConfig, reg *metrics.Registry) *RealtimeLoop {
	return &RealtimeLoop{
		sampler:   sampler,
		engine:    engine,
		cfg:       cfg,
		metrics:   reg,
		lineCache: NewLineCache(),
	}
}

// Run drives the loop, invoking onUpdate for each tick that re-runs OCR and
// recognizes at least one line (changed or unchanged), stopping when ctx is
// cancelled or guard is no longer
// current — checked at the top of every tick so a stale realtime session
// (superseded by a later wake/mode switch) stops producing UI events.
func (l *RealtimeLoop) Run(ctx context.Context, guard cancel.Guard, onUpdate UpdateFunc) error {
	ticker := time.NewTicker(l.cfg.SampleInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-guard.Done():
			return nil
		case <-ticker.C:
			if !guard.ShouldContinue() {
				return nil
			}
			if err := l.tick(ctx, onUpdate); err != nil {
				return err
			}
		}
	}
}

func (l *RealtimeLoop) tick(ctx context.Context, onUpdate UpdateFunc) error {
	span := (*metrics.Span)(nil)
	if l.metrics != nil {
		span = l.metrics.Span(metrics.MetricOCRFrameLatencyMs)
	}
	defer func() {
		if span != nil {
			span.Stop()
		}
	}()

	frame, err := l.sampler.Sample(ctx)
	if err != nil {
		return err
	}

	if l.lastFrame != nil && !FrameChanged(l.lastFrame, frame.RGBA, l.cfg.FrameDiffStride, l.cfg.FrameDiffMAE) {
		l.lastFrame = frame.RGBA
		return nil // frame unchanged, skip OCR entirely this tick
	}
	l.lastFrame = frame.RGBA

	lines, err := l.engine.Recognize(ctx, frame)
	if err != nil {
		return err
	}

	changed, unchanged := l.lineCache.Diff(lines)
	l.totalLines += len(changed) + unchanged
	l.skippedLines += unchanged

	ratio := l.tokenSavingRatio()
	if l.metrics != nil {
		l.metrics.Record(metrics.MetricOCRTokenSavingPct, ratio*100)
	}
	metrics.OCRTokenSavingRatio.Set(ratio)

	if len(changed) == 0 && unchanged == 0 {
		return nil
	}
	onUpdate(Update{Lines: lines, ChangedLines: changed, UnchangedLines: unchanged, TokenSavingRatio: ratio})
	return nil
}

// tokenSavingRatio is the running fraction of recognized lines this session
// that were served from the line cache instead of re-translated.
func (l *RealtimeLoop) tokenSavingRatio() float64 {
	if l.totalLines == 0 {
		return 0
	}
	return float64(l.skippedLines) / float64(l.totalLines)
}
