package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadUsesDefaultsWithoutEnvOrFile(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WakeLowThreshold != 0.02 || cfg.CacheL1Capacity != 512 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadEnvOverridesDefault(t *testing.T) {
	t.Setenv("WAKE_LOW_THRESHOLD", "0.05")
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WakeLowThreshold != 0.05 {
		t.Fatalf("got %v, want 0.05", cfg.WakeLowThreshold)
	}
}

func TestLoadMissingTuningFileIsNotAnError(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("expected missing tuning file to be a no-op, got %v", err)
	}
	if cfg.CacheL1Capacity != 512 {
		t.Fatalf("expected default preserved")
	}
}

func TestLoadTuningFileOverridesValue(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.json")
	if err := os.WriteFile(path, []byte(`{"wake_high_threshold": 0.09}`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.WakeHighThreshold != 0.09 {
		t.Fatalf("got %v, want 0.09", cfg.WakeHighThreshold)
	}
}

func TestDurationHelpersConvertUnits(t *testing.T) {
	cfg := Config{WakeWindowMs: 150, CacheL1TTLMin: 10, CacheL2TTLHours: 2, OCRSampleIntervalMs: 500}
	if cfg.WakeWindow().Milliseconds() != 150 {
		t.Fatalf("WakeWindow mismatch")
	}
	if cfg.CacheL1TTL().Minutes() != 10 {
		t.Fatalf("CacheL1TTL mismatch")
	}
	if cfg.CacheL2TTL().Hours() != 2 {
		t.Fatalf("CacheL2TTL mismatch")
	}
	if cfg.OCRSampleInterval().Milliseconds() != 500 {
		t.Fatalf("OCRSampleInterval mismatch")
	}
}
