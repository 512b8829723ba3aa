package audio

import "time"

// WakeScorer is the pluggable wake-inference capability. Implementations
// receive one frame of PCM and report a confidence score in [0,1] that the
// wake phrase occurred. Reset clears any running state between sessions.
type WakeScorer interface {
	Detect(samples []int16) float64
	Reset()
}

// EnergySpikeScorer is the reference WakeScorer: it tracks an exponential
// moving average of per-frame RMS energy and reports a score proportional
// to sudden spikes above spikeRatio times the prior average.
type EnergySpikeScorer struct {
	SpikeRatio float64
	Alpha      float64 // EMA smoothing factor, (0,1]
	avgEnergy  float64
	warm       bool
}

// NewEnergySpikeScorer builds a scorer with sensible defaults.
func NewEnergySpikeScorer() *EnergySpikeScorer {
	return &EnergySpikeScorer{SpikeRatio: 3.0, Alpha: 0.2}
}

// Detect reports a score in [0,1] derived from how far this frame's RMS
// energy exceeds the running average.
func (e *EnergySpikeScorer) Detect(samples []int16) float64 {
	energy := rmsEnergy(samples)
	if !e.warm {
		e.avgEnergy = energy
		e.warm = true
		return 0
	}

	prev := e.avgEnergy
	e.avgEnergy = e.Alpha*energy + (1-e.Alpha)*prev

	if prev <= 0 {
		return 0
	}
	threshold := e.SpikeRatio * prev
	if energy <= threshold {
		return 0
	}
	// Normalise: score climbs from 0 at threshold towards 1 as energy grows
	// to 2x the threshold, then clamps.
	score := (energy - threshold) / threshold
	if score > 1 {
		score = 1
	}
	return score
}

// Reset clears the running average so the next Detect call starts fresh.
func (e *EnergySpikeScorer) Reset() {
	e.avgEnergy = 0
	e.warm = false
}

func rmsEnergy(samples []int16) float64 {
	if len(samples) == 0 {
		return 0
	}
	var sumSq float64
	for _, s := range samples {
		v := float64(s)
		sumSq += v * v
	}
	return sqrt(sumSq / float64(len(samples)))
}

// sqrt avoids importing math solely for one call site's clarity; kept as a
// thin wrapper so this file has a single numeric dependency surface.
func sqrt(v float64) float64 {
	if v <= 0 {
		return 0
	}
	x := v
	for range 20 {
		x = 0.5 * (x + v/x)
	}
	return x
}

// WakeOutcome is what the two-stage confirmer reports after a frame.
type WakeOutcome int

const (
	// WakeNone means no event fired for this frame.
	WakeNone WakeOutcome = iota
	// WakeDetectedEvent fires the instant a stage-1 score clears th_low.
	WakeDetectedEvent
	// WakeConfirmedEvent fires once stage 2 accumulates enough high-threshold hits.
	WakeConfirmedEvent
	// WakeRejectedEvent fires when the confirmation window closes without enough hits.
	WakeRejectedEvent
)

// WakeThresholds configures the two-stage confirmer.
type WakeThresholds struct {
	Low            float64
	High           float64
	Window         time.Duration
	RequiredFrames int
}

// DefaultWakeThresholds matches spec defaults.
func DefaultWakeThresholds() WakeThresholds {
	return WakeThresholds{Low: 0.02, High: 0.04, Window: 150 * time.Millisecond, RequiredFrames: 2}
}

// WakeDetector runs the two-stage wake confirmation protocol described in
// spec §4.2 on top of a pluggable WakeScorer.
type WakeDetector struct {
	scorer     WakeScorer
	thresholds WakeThresholds

	inWindow     bool
	windowEnd    time.Time
	highHitCount int
}

// NewWakeDetector builds a detector around the given scorer and thresholds.
func NewWakeDetector(scorer WakeScorer, thresholds WakeThresholds) *WakeDetector {
	return &WakeDetector{scorer: scorer, thresholds: thresholds}
}

// Process scores one frame at time `now` and returns the resulting outcome.
// Callers must also call Process for frames that arrive after a window has
// opened, even if the frame rate has been throttled by VAD state, so the
// window can close on schedule; see Tick for window expiry with no new frame.
func (w *WakeDetector) Process(samples []int16, now time.Time) WakeOutcome {
	score := w.scorer.Detect(samples)

	if !w.inWindow {
		if score >= w.thresholds.Low {
			w.inWindow = true
			w.windowEnd = now.Add(w.thresholds.Window)
			w.highHitCount = 0
			if score >= w.thresholds.High {
				w.highHitCount++
			}
			return WakeDetectedEvent
		}
		return WakeNone
	}

	// Inside the confirmation window.
	if score >= w.thresholds.High {
		w.highHitCount++
	}
	if w.highHitCount >= w.thresholds.RequiredFrames {
		w.inWindow = false
		w.scorer.Reset()
		return WakeConfirmedEvent
	}
	if now.After(w.windowEnd) {
		w.inWindow = false
		w.scorer.Reset()
		return WakeRejectedEvent
	}
	return WakeNone
}

// Tick checks whether an open confirmation window has expired without a new
// frame arriving (e.g. during silence, when inference runs at 1/4 rate).
func (w *WakeDetector) Tick(now time.Time) WakeOutcome {
	if !w.inWindow {
		return WakeNone
	}
	if now.After(w.windowEnd) {
		w.inWindow = false
		w.scorer.Reset()
		return WakeRejectedEvent
	}
	return WakeNone
}

// InWindow reports whether a confirmation window is currently open.
func (w *WakeDetector) InWindow() bool {
	return w.inWindow
}
