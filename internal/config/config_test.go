package config

import (
	"os"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	// Clear any env vars that might interfere
	envVars := []string{
		"RADIO_PORT", "RADIO_LOG_LEVEL", "RADIO_AUTOSTART",
		"MANJIRA_POLL_INTERVAL_MS", "MANJIRA_SCHEDULE_AHEAD", "MANJIRA_WARMUP",
		"MANJIRA_GAP_MIN", "MANJIRA_GAP_MAX", "MANJIRA_MAX_EVENTS_PER_PASS",
		"MANJIRA_MASTER_GAIN", "RADIO_OPUS_BITRATE", "RADIO_MP3_KBPS",
	}
	for _, k := range envVars {
		os.Unsetenv(k)
	}

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want 'info'", cfg.LogLevel)
	}
	if cfg.Autostart {
		t.Error("Autostart = true, want false")
	}
	if cfg.PollInterval != 25*time.Millisecond {
		t.Errorf("PollInterval = %v, want 25ms", cfg.PollInterval)
	}
	if cfg.ScheduleAhead != 0.1 {
		t.Errorf("ScheduleAhead = %f, want 0.1", cfg.ScheduleAhead)
	}
	if cfg.Warmup != 0.5 {
		t.Errorf("Warmup = %f, want 0.5", cfg.Warmup)
	}
	if cfg.GapMin != 3.0 {
		t.Errorf("GapMin = %f, want 3.0", cfg.GapMin)
	}
	if cfg.GapMax != 6.0 {
		t.Errorf("GapMax = %f, want 6.0", cfg.GapMax)
	}
	if cfg.MaxEventsPerPass != 0 {
		t.Errorf("MaxEventsPerPass = %d, want 0 (unbounded)", cfg.MaxEventsPerPass)
	}
	if cfg.MasterGain != 1.0 {
		t.Errorf("MasterGain = %f, want 1.0", cfg.MasterGain)
	}
	if cfg.OpusBitrate != 128000 {
		t.Errorf("OpusBitrate = %d, want 128000", cfg.OpusBitrate)
	}
	if cfg.MP3Kbps != 192 {
		t.Errorf("MP3Kbps = %d, want 192", cfg.MP3Kbps)
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RADIO_PORT", "3000")
	t.Setenv("RADIO_LOG_LEVEL", "debug")
	t.Setenv("RADIO_AUTOSTART", "true")
	t.Setenv("MANJIRA_POLL_INTERVAL_MS", "50")
	t.Setenv("MANJIRA_SCHEDULE_AHEAD", "0.2")
	t.Setenv("MANJIRA_WARMUP", "1")
	t.Setenv("MANJIRA_GAP_MIN", "2")
	t.Setenv("MANJIRA_GAP_MAX", "4.5")
	t.Setenv("MANJIRA_MAX_EVENTS_PER_PASS", "4")
	t.Setenv("MANJIRA_MASTER_GAIN", "0.8")
	t.Setenv("RADIO_OPUS_BITRATE", "64000")

	cfg := Load()

	if cfg.Port != 3000 {
		t.Errorf("Port = %d, want 3000", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want env override", cfg.LogLevel)
	}
	if !cfg.Autostart {
		t.Error("Autostart = false, want env override")
	}
	if cfg.PollInterval != 50*time.Millisecond {
		t.Errorf("PollInterval = %v, want 50ms", cfg.PollInterval)
	}
	if cfg.ScheduleAhead != 0.2 {
		t.Errorf("ScheduleAhead = %f, want 0.2", cfg.ScheduleAhead)
	}
	if cfg.Warmup != 1 {
		t.Errorf("Warmup = %f, want 1", cfg.Warmup)
	}
	if cfg.GapMin != 2 {
		t.Errorf("GapMin = %f, want 2", cfg.GapMin)
	}
	if cfg.GapMax != 4.5 {
		t.Errorf("GapMax = %f, want 4.5", cfg.GapMax)
	}
	if cfg.MaxEventsPerPass != 4 {
		t.Errorf("MaxEventsPerPass = %d, want 4", cfg.MaxEventsPerPass)
	}
	if cfg.MasterGain != 0.8 {
		t.Errorf("MasterGain = %f, want 0.8", cfg.MasterGain)
	}
	if cfg.OpusBitrate != 64000 {
		t.Errorf("OpusBitrate = %d, want 64000", cfg.OpusBitrate)
	}
}

func TestEnvIntInvalidFallsBack(t *testing.T) {
	t.Setenv("RADIO_PORT", "not-a-number")
	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Invalid int env should fallback to default: got %d, want 8080", cfg.Port)
	}
}

func TestEnvFloatInvalidFallsBack(t *testing.T) {
	t.Setenv("MANJIRA_GAP_MAX", "six")
	cfg := Load()
	if cfg.GapMax != 6.0 {
		t.Errorf("Invalid float env should fallback to default: got %f, want 6.0", cfg.GapMax)
	}
}

func TestEnvBoolInvalidFallsBack(t *testing.T) {
	t.Setenv("RADIO_AUTOSTART", "sometimes")
	cfg := Load()
	if cfg.Autostart {
		t.Error("Invalid bool env should fallback to false")
	}
}

func TestEnvStrEmpty(t *testing.T) {
	// Empty string should use fallback
	os.Unsetenv("RADIO_LOG_LEVEL")
	cfg := Load()
	if cfg.LogLevel != "info" {
		t.Errorf("Unset env should use fallback: got %q", cfg.LogLevel)
	}
}

func TestSchedulerConfig(t *testing.T) {
	t.Setenv("MANJIRA_POLL_INTERVAL_MS", "40")
	t.Setenv("MANJIRA_GAP_MIN", "1.5")
	t.Setenv("MANJIRA_MAX_EVENTS_PER_PASS", "2")

	sc := Load().Scheduler()
	if sc.PollInterval != 40*time.Millisecond {
		t.Errorf("PollInterval = %v, want 40ms", sc.PollInterval)
	}
	if sc.GapMin != 1.5 || sc.GapMax != 6.0 {
		t.Errorf("gaps = [%v, %v), want [1.5, 6)", sc.GapMin, sc.GapMax)
	}
	if sc.ScheduleAhead != 0.1 || sc.Warmup != 0.5 {
		t.Errorf("ScheduleAhead/Warmup = %v/%v, want 0.1/0.5", sc.ScheduleAhead, sc.Warmup)
	}
	if sc.MaxEventsPerPass != 2 {
		t.Errorf("MaxEventsPerPass = %d, want 2", sc.MaxEventsPerPass)
	}
}
