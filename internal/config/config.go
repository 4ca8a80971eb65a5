package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/satindergrewal/nadabramha/internal/manjira"
)

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

// Config holds all runtime configuration, loaded from environment variables.
type Config struct {
	// Server
	Port     int
	LogLevel string
	// Start playing as soon as the server is up instead of waiting for a toggle.
	Autostart bool

	// Look-ahead scheduling
	PollInterval     time.Duration // software poll period
	ScheduleAhead    float64       // seconds of audio clock submitted ahead
	Warmup           float64       // seconds between start and the first strike
	GapMin           float64       // min seconds between strikes
	GapMax           float64       // max seconds between strikes (exclusive)
	MaxEventsPerPass int           // 0 = unbounded catch-up

	// Output
	MasterGain  float64
	OpusBitrate int // bits/s for WebRTC
	MP3Kbps     int // kbit/s for the HTTP stream
}

// Load reads configuration from environment variables with sane defaults.
func Load() Config {
	return Config{
		Port:      envInt("RADIO_PORT", 8080),
		LogLevel:  envStr("RADIO_LOG_LEVEL", "info"),
		Autostart: envBool("RADIO_AUTOSTART", false),

		PollInterval:     time.Duration(envInt("MANJIRA_POLL_INTERVAL_MS", 25)) * time.Millisecond,
		ScheduleAhead:    envFloat("MANJIRA_SCHEDULE_AHEAD", 0.1),
		Warmup:           envFloat("MANJIRA_WARMUP", 0.5),
		GapMin:           envFloat("MANJIRA_GAP_MIN", 3.0),
		GapMax:           envFloat("MANJIRA_GAP_MAX", 6.0),
		MaxEventsPerPass: envInt("MANJIRA_MAX_EVENTS_PER_PASS", 0),

		MasterGain:  envFloat("MANJIRA_MASTER_GAIN", 1.0),
		OpusBitrate: envInt("RADIO_OPUS_BITRATE", 128000),
		MP3Kbps:     envInt("RADIO_MP3_KBPS", 192),
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

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(v)); err == nil {
			return b
		}
	}
	return fallback
}

// Scheduler returns the look-ahead scheduling parameters.
func (c Config) Scheduler() manjira.Config {
	return manjira.Config{
		PollInterval:     c.PollInterval,
		ScheduleAhead:    c.ScheduleAhead,
		Warmup:           c.Warmup,
		GapMin:           c.GapMin,
		GapMax:           c.GapMax,
		MaxEventsPerPass: c.MaxEventsPerPass,
	}
}
