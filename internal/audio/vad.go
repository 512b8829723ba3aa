package audio

import "time"

// VADConfig controls the energy gate and frame-rate modulation in front of
// the wake detector.
type VADConfig struct {
	SilenceRMSThreshold float64
	SilenceFrameCount   int // consecutive silent frames before voice is considered inactive
	InactiveFrameDiv    int // run wake inference every Nth frame while inactive
}

// DefaultVADConfig returns spec defaults.
func DefaultVADConfig() VADConfig {
	return VADConfig{
		SilenceRMSThreshold: 300,
		SilenceFrameCount:   8,
		InactiveFrameDiv:    4,
	}
}

// VAD gates how often the wake detector actually runs: every frame while
// voice is active, every InactiveFrameDiv-th frame while silent.
type VAD struct {
	cfg              VADConfig
	consecutiveQuiet int
	active           bool
	frameCounter     int
}

// NewVAD creates a VAD with the given config.
func NewVAD(cfg VADConfig) *VAD {
	return &VAD{cfg: cfg}
}

// Gate reports whether the wake detector should run its (relatively
// expensive) scoring for this frame, and updates the active/inactive state
// from the frame's RMS energy.
func (v *VAD) Gate(samples []int16) (shouldRun bool) {
	energy := rmsEnergy(samples)
	v.frameCounter++

	if energy < v.cfg.SilenceRMSThreshold {
		v.consecutiveQuiet++
		if v.consecutiveQuiet >= v.cfg.SilenceFrameCount {
			v.active = false
		}
	} else {
		v.consecutiveQuiet = 0
		v.active = true
	}

	if v.active {
		return true
	}
	div := v.cfg.InactiveFrameDiv
	if div <= 0 {
		div = 1
	}
	return v.frameCounter%div == 0
}

// Active reports the current voice-activity state.
func (v *VAD) Active() bool {
	return v.active
}

// FrameDuration returns how long one frame of sampleCount samples lasts at
// the given sample rate. The processing loop ticks once per frame period
// (32 ms, about 31 Hz, for 512 samples at 16 kHz); it does not run at a
// fixed 50 Hz. The inactive-frame throttle in Gate counts frames and does
// not use this duration.
func FrameDuration(sampleCount, sampleRate int) time.Duration {
	if sampleRate <= 0 {
		return 0
	}
	return time.Duration(sampleCount) * time.Second / time.Duration(sampleRate)
}
