// Package config loads assistantd's configuration from environment
// variables with an optional JSON tuning-file overlay. Grounded on the
// teacher's cmd/gateway/config.go (envStr/envInt/envFloat + loadConfig)
// generalized with a JSON file layer so operators can tune wake/VAD/cache
// thresholds without restarting with a wall of env vars.
package config

import (
	"encoding/json"
	"os"
	"strconv"
	"time"
)

// Config holds every tunable the assistant process needs at startup.
type Config struct {
	HTTPPort string

	TranslateAPIKey   string
	TranslateBaseURL  string
	TranslateModel    string
	TranslatePoolSize int

	WakeLowThreshold     float64
	WakeHighThreshold    float64
	WakeWindowMs         int
	WakeRequiredFrames   int
	VADSilenceRMS        int
	VADSilenceFrameCount int

	CacheL1Capacity int
	CacheL1TTLMin   int
	CacheL2Path     string
	CacheL2TTLHours int

	HistoryDBPath string

	OCRSidecarURL       string
	OCRSampleIntervalMs int

	GlossaryPath string

	DefaultSourceLang string
	DefaultTargetLang string
}

// fileOverlay mirrors the subset of Config fields a JSON tuning file may
// override; absent fields leave the env-derived value untouched, while an
// explicit zero overrides it.
type fileOverlay struct {
	WakeLowThreshold     *float64 `json:"wake_low_threshold"`
	WakeHighThreshold    *float64 `json:"wake_high_threshold"`
	WakeWindowMs         *int     `json:"wake_window_ms"`
	WakeRequiredFrames   *int     `json:"wake_required_frames"`
	VADSilenceRMS        *int     `json:"vad_silence_rms"`
	VADSilenceFrameCount *int     `json:"vad_silence_frame_count"`
	CacheL1Capacity      *int     `json:"cache_l1_capacity"`
	CacheL1TTLMin        *int     `json:"cache_l1_ttl_min"`
	CacheL2TTLHours      *int     `json:"cache_l2_ttl_hours"`
	OCRSampleIntervalMs  *int     `json:"ocr_sample_interval_ms"`
}

// Load builds a Config from environment variables, then applies the JSON
// tuning file at tuningFilePath if it exists (a missing file is not an
// error — tuning files are optional, env vars alone are sufficient).
func Load(tuningFilePath string) (Config, error) {
	cfg := Config{
		HTTPPort: envStr("ASSISTANT_HTTP_PORT", "8733"),

		TranslateAPIKey:   envStr("TRANSLATE_API_KEY", ""),
		TranslateBaseURL:  envStr("TRANSLATE_BASE_URL", "https://api.deepseek.com"),
		TranslateModel:    envStr("TRANSLATE_MODEL", "deepseek-chat"),
		TranslatePoolSize: envInt("TRANSLATE_POOL_SIZE", 4),

		WakeLowThreshold:     envFloat("WAKE_LOW_THRESHOLD", 0.02),
		WakeHighThreshold:    envFloat("WAKE_HIGH_THRESHOLD", 0.04),
		WakeWindowMs:         envInt("WAKE_WINDOW_MS", 150),
		WakeRequiredFrames:   envInt("WAKE_REQUIRED_FRAMES", 2),
		VADSilenceRMS:        envInt("VAD_SILENCE_RMS", 300),
		VADSilenceFrameCount: envInt("VAD_SILENCE_FRAME_COUNT", 8),

		CacheL1Capacity: envInt("CACHE_L1_CAPACITY", 512),
		CacheL1TTLMin:   envInt("CACHE_L1_TTL_MIN", 10),
		CacheL2Path:     envStr("CACHE_L2_PATH", "cache.db"),
		CacheL2TTLHours: envInt("CACHE_L2_TTL_HOURS", 24*7),

		HistoryDBPath: envStr("HISTORY_DB_PATH", "history.db"),

		OCRSidecarURL:       envStr("OCR_SIDECAR_URL", "http://localhost:8765"),
		OCRSampleIntervalMs: envInt("OCR_SAMPLE_INTERVAL_MS", 500),

		GlossaryPath: envStr("GLOSSARY_PATH", ""),

		DefaultSourceLang: envStr("DEFAULT_SOURCE_LANG", "auto"),
		DefaultTargetLang: envStr("DEFAULT_TARGET_LANG", "en"),
	}

	if tuningFilePath == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(tuningFilePath)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return cfg, err
	}

	var overlay fileOverlay
	if err := json.Unmarshal(data, &overlay); err != nil {
		return cfg, err
	}
	applyOverlay(&cfg, overlay)
	return cfg, nil
}

func applyOverlay(cfg *Config, o fileOverlay) {
	if o.WakeLowThreshold != nil {
		cfg.WakeLowThreshold = *o.WakeLowThreshold
	}
	if o.WakeHighThreshold != nil {
		cfg.WakeHighThreshold = *o.WakeHighThreshold
	}
	if o.WakeWindowMs != nil {
		cfg.WakeWindowMs = *o.WakeWindowMs
	}
	if o.WakeRequiredFrames != nil {
		cfg.WakeRequiredFrames = *o.WakeRequiredFrames
	}
	if o.VADSilenceRMS != nil {
		cfg.VADSilenceRMS = *o.VADSilenceRMS
	}
	if o.VADSilenceFrameCount != nil {
		cfg.VADSilenceFrameCount = *o.VADSilenceFrameCount
	}
	if o.CacheL1Capacity != nil {
		cfg.CacheL1Capacity = *o.CacheL1Capacity
	}
	if o.CacheL1TTLMin != nil {
		cfg.CacheL1TTLMin = *o.CacheL1TTLMin
	}
	if o.CacheL2TTLHours != nil {
		cfg.CacheL2TTLHours = *o.CacheL2TTLHours
	}
	if o.OCRSampleIntervalMs != nil {
		cfg.OCRSampleIntervalMs = *o.OCRSampleIntervalMs
	}
}

// WakeWindow returns WakeWindowMs as a time.Duration.
func (c Config) WakeWindow() time.Duration {
	return time.Duration(c.WakeWindowMs) * time.Millisecond
}

// CacheL1TTL returns CacheL1TTLMin as a time.Duration.
func (c Config) CacheL1TTL() time.Duration {
	return time.Duration(c.CacheL1TTLMin) * time.Minute
}

// CacheL2TTL returns CacheL2TTLHours as a time.Duration.
func (c Config) CacheL2TTL() time.Duration {
	return time.Duration(c.CacheL2TTLHours) * time.Hour
}

// OCRSampleInterval returns OCRSampleIntervalMs as a time.Duration.
func (c Config) OCRSampleInterval() time.Duration {
	return time.Duration(c.OCRSampleIntervalMs) * time.Millisecond
}

func envStr(key, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}

func envInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return fallback
	}
	return f
}
