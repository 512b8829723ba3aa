package audio

import (
	"testing"
	"time"
)

func synthFrame(rms int16, n int) []int16 {
	out := make([]int16, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = rms
		} else {
			out[i] = -rms
		}
	}
	return out
}

func TestWakeDetectorAcceptsOnSustainedSpike(t *testing.T) {
	scorer := NewEnergySpikeScorer()
	det := NewWakeDetector(scorer, DefaultWakeThresholds())

	now := time.Now()
	// warm up the EMA on quiet frames
	for range 5 {
		det.Process(synthFrame(200, 512), now)
		now = now.Add(10 * time.Millisecond)
	}

	outcome := det.Process(synthFrame(2000, 512), now)
	if outcome != WakeDetectedEvent {
		t.Fatalf("expected WakeDetectedEvent, got %v", outcome)
	}

	// Two more high-confidence frames within the window confirm.
	now = now.Add(20 * time.Millisecond)
	o2 := det.Process(synthFrame(2000, 512), now)
	now = now.Add(20 * time.Millisecond)
	o3 := det.Process(synthFrame(2000, 512), now)

	if o2 == WakeConfirmedEvent {
		return // confirmed early, acceptable
	}
	if o3 != WakeConfirmedEvent {
		t.Fatalf("expected WakeConfirmedEvent within window, got o2=%v o3=%v", o2, o3)
	}
}

func TestWakeDetectorRejectsSingleSpike(t *testing.T) {
	scorer := NewEnergySpikeScorer()
	th := DefaultWakeThresholds()
	th.Window = 50 * time.Millisecond
	det := NewWakeDetector(scorer, th)

	now := time.Now()
	for range 5 {
		det.Process(synthFrame(200, 512), now)
		now = now.Add(10 * time.Millisecond)
	}

	outcome := det.Process(synthFrame(900, 512), now)
	if outcome != WakeDetectedEvent {
		t.Fatalf("expected initial WakeDetectedEvent, got %v", outcome)
	}

	// No further high-confidence hits; window expires.
	now = now.Add(60 * time.Millisecond)
	outcome = det.Tick(now)
	if outcome != WakeRejectedEvent {
		t.Fatalf("expected WakeRejectedEvent after window expiry, got %v", outcome)
	}
}

func TestVADGateRunsEveryFrameWhileActive(t *testing.T) {
	v := NewVAD(DefaultVADConfig())
	loud := synthFrame(2000, 512)
	for range 10 {
		if !v.Gate(loud) {
			t.Fatalf("expected gate to pass on every active frame")
		}
	}
	if !v.Active() {
		t.Fatalf("expected VAD to report active")
	}
}

func TestVADGateThrottlesWhileInactive(t *testing.T) {
	cfg := DefaultVADConfig()
	cfg.SilenceFrameCount = 1
	cfg.InactiveFrameDiv = 4
	v := NewVAD(cfg)
	quiet := synthFrame(10, 512)

	// First quiet frame still counts toward SilenceFrameCount, becomes inactive after.
	v.Gate(quiet)

	ran := 0
	for range 8 {
		if v.Gate(quiet) {
			ran++
		}
	}
	if ran != 2 {
		t.Fatalf("expected inference to run on 1/4 of inactive frames, got %d runs of 8", ran)
	}
}
