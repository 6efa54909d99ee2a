package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might interfere
	envVars := []string{
		"SIDECHAIN_PORT",
		"SIDECHAIN_GEN_API_URL", "SIDECHAIN_GEN_API_KEY", "SIDECHAIN_GEN_OUTPUT_DIR",
		"SIDECHAIN_GEN_CAPTION", "SIDECHAIN_GEN_TRACK_DURATION",
		"SIDECHAIN_GEN_INFERENCE_STEPS", "SIDECHAIN_GEN_AUDIO_FORMAT",
		"SIDECHAIN_GEN_BUFFER_AHEAD", "SIDECHAIN_INPUT_FILE", "SIDECHAIN_SAMPLE_DIR",
		"SIDECHAIN_FFT_SIZE", "SIDECHAIN_WINDOW_MS", "SIDECHAIN_CADENCE_MS",
		"SIDECHAIN_TRIGGER_THRESHOLD", "SIDECHAIN_MONITOR_BITRATE",
	}
	for _, k := range envVars {
		os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.GenAPIURL != "" {
		t.Errorf("GenAPIURL = %q, want empty default (generation disabled)", cfg.GenAPIURL)
	}
	if cfg.GenCaption != "warm instrumental groove, steady tempo" {
		t.Errorf("GenCaption = %q, want default caption", cfg.GenCaption)
	}
	if cfg.TrackDuration != 90 {
		t.Errorf("TrackDuration = %d, want 90", cfg.TrackDuration)
	}
	if cfg.InferenceSteps != 50 {
		t.Errorf("InferenceSteps = %d, want 50", cfg.InferenceSteps)
	}
	if cfg.AudioFormat != "flac" {
		t.Errorf("AudioFormat = %q, want 'flac'", cfg.AudioFormat)
	}
	if cfg.BufferAhead != 2 {
		t.Errorf("BufferAhead = %d, want 2", cfg.BufferAhead)
	}
	if cfg.SampleDir != "samples" {
		t.Errorf("SampleDir = %q, want 'samples'", cfg.SampleDir)
	}
	if cfg.FFTSize != 2048 {
		t.Errorf("FFTSize = %d, want 2048", cfg.FFTSize)
	}
	if cfg.WindowCap != 2*time.Second {
		t.Errorf("WindowCap = %v, want 2s", cfg.WindowCap)
	}
	if cfg.Cadence != 500*time.Millisecond {
		t.Errorf("Cadence = %v, want 500ms", cfg.Cadence)
	}
	if cfg.TriggerThreshold != 0.7 {
		t.Errorf("TriggerThreshold = %f, want 0.7", cfg.TriggerThreshold)
	}
	if cfg.MonitorBitrate != 192 {
		t.Errorf("MonitorBitrate = %d, want 192", cfg.MonitorBitrate)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("SIDECHAIN_PORT", "3000")
	t.Setenv("SIDECHAIN_GEN_API_URL", "http://localhost:9000")
	t.Setenv("SIDECHAIN_GEN_API_KEY", "test-key-123")
	t.Setenv("SIDECHAIN_GEN_OUTPUT_DIR", "/tmp/outputs")
	t.Setenv("SIDECHAIN_GEN_CAPTION", "driving techno")
	t.Setenv("SIDECHAIN_GEN_TRACK_DURATION", "60")
	t.Setenv("SIDECHAIN_GEN_INFERENCE_STEPS", "16")
	t.Setenv("SIDECHAIN_GEN_AUDIO_FORMAT", "wav")
	t.Setenv("SIDECHAIN_GEN_BUFFER_AHEAD", "4")
	t.Setenv("SIDECHAIN_INPUT_FILE", "/music/set.wav")
	t.Setenv("SIDECHAIN_SAMPLE_DIR", "/library")
	t.Setenv("SIDECHAIN_FFT_SIZE", "4096")
	t.Setenv("SIDECHAIN_WINDOW_MS", "3000")
	t.Setenv("SIDECHAIN_CADENCE_MS", "250")
	t.Setenv("SIDECHAIN_TRIGGER_THRESHOLD", "0.85")
	t.Setenv("SIDECHAIN_MONITOR_BITRATE", "128")

	cfg := Load()

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.GenAPIURL != "http://localhost:9000" {
		t.Errorf("GenAPIURL = %q, want env override", cfg.GenAPIURL)
	}
	if cfg.GenAPIKey != "test-key-123" {
		t.Errorf("GenAPIKey = %q, want env override", cfg.GenAPIKey)
	}
	if cfg.GenOutputDir != "/tmp/outputs" {
		t.Errorf("GenOutputDir = %q, want env override", cfg.GenOutputDir)
	}
	if cfg.GenCaption != "driving techno" {
		t.Errorf("GenCaption = %q, want 'driving techno'", cfg.GenCaption)
	}
	if cfg.TrackDuration != 60 {
		t.Errorf("TrackDuration = %d, want 60", cfg.TrackDuration)
	}
	if cfg.InferenceSteps != 16 {
		t.Errorf("InferenceSteps = %d, want 16", cfg.InferenceSteps)
	}
	if cfg.AudioFormat != "wav" {
		t.Errorf("AudioFormat = %q, want 'wav'", cfg.AudioFormat)
	}
	if cfg.BufferAhead != 4 {
		t.Errorf("BufferAhead = %d, want 4", cfg.BufferAhead)
	}
	if cfg.InputFile != "/music/set.wav" {
		t.Errorf("InputFile = %q, want env override", cfg.InputFile)
	}
	if cfg.SampleDir != "/library" {
		t.Errorf("SampleDir = %q, want '/library'", cfg.SampleDir)
	}
	if cfg.FFTSize != 4096 {
		t.Errorf("FFTSize = %d, want 4096", cfg.FFTSize)
	}
	if cfg.WindowCap != 3*time.Second {
		t.Errorf("WindowCap = %v, want 3s", cfg.WindowCap)
	}
	if cfg.Cadence != 250*time.Millisecond {
		t.Errorf("Cadence = %v, want 250ms", cfg.Cadence)
	}
	if cfg.TriggerThreshold != 0.85 {
		t.Errorf("TriggerThreshold = %f, want 0.85", cfg.TriggerThreshold)
	}
	if cfg.MonitorBitrate != 128 {
		t.Errorf("MonitorBitrate = %d, want 128", cfg.MonitorBitrate)
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("SIDECHAIN_PORT", "not-a-number")
	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Invalid int env should fallback to default: got %d, want 8080", cfg.Port)
	}
}

func TestEnvFloatInvalidFallsBack(t *testing.T) {
	t.Setenv("SIDECHAIN_TRIGGER_THRESHOLD", "very high")
	cfg := Load()
	if cfg.TriggerThreshold != 0.7 {
		t.Errorf("Invalid float env should fallback to default: got %f, want 0.7", cfg.TriggerThreshold)
	}
}
