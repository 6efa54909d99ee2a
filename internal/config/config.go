// Package config loads runtime configuration from environment variables.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port int

	// Upstream generation service. An empty URL disables generation; the
	// host then loops InputFile as its audio source.
	GenAPIURL      string
	GenAPIKey      string
	GenOutputDir   string
	GenCaption     string
	TrackDuration  int // seconds per generated track
	InferenceSteps int
	AudioFormat    string
	BufferAhead    int // tracks to pre-generate

	// Local source fallback
	InputFile string

	// Sample catalog
	SampleDir string

	// Analysis engine
	FFTSize          int
	WindowCap        time.Duration // sliding analysis window
	Cadence          time.Duration // analysis cycle spacing
	TriggerThreshold float64

	// Monitor stream
	MonitorBitrate int // kbps
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port: envInt("SIDECHAIN_PORT", 8080),

		GenAPIURL:      envStr("SIDECHAIN_GEN_API_URL", ""),
		GenAPIKey:      envStr("SIDECHAIN_GEN_API_KEY", ""),
		GenOutputDir:   envStr("SIDECHAIN_GEN_OUTPUT_DIR", ""),
		GenCaption:     envStr("SIDECHAIN_GEN_CAPTION", "warm instrumental groove, steady tempo"),
		TrackDuration:  envInt("SIDECHAIN_GEN_TRACK_DURATION", 90),
		InferenceSteps: envInt("SIDECHAIN_GEN_INFERENCE_STEPS", 50),
		AudioFormat:    envStr("SIDECHAIN_GEN_AUDIO_FORMAT", "flac"),
		BufferAhead:    envInt("SIDECHAIN_GEN_BUFFER_AHEAD", 2),

		InputFile: envStr("SIDECHAIN_INPUT_FILE", ""),
		SampleDir: envStr("SIDECHAIN_SAMPLE_DIR", "samples"),

		FFTSize:          envInt("SIDECHAIN_FFT_SIZE", 2048),
		WindowCap:        time.Duration(envInt("SIDECHAIN_WINDOW_MS", 2000)) * time.Millisecond,
		Cadence:          time.Duration(envInt("SIDECHAIN_CADENCE_MS", 500)) * time.Millisecond,
		TriggerThreshold: envFloat("SIDECHAIN_TRIGGER_THRESHOLD", 0.7),

		MonitorBitrate: envInt("SIDECHAIN_MONITOR_BITRATE", 192),
	}
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
