package config

import (
	"testing"
	"time"
)

func TestLoad(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	// Check defaults
	if cfg.Port != "5001" {
		t.Errorf("Expected Port to be 5001, got %s", cfg.Port)
	}

	if cfg.Env != "development" {
		t.Errorf("Expected Env to be development, got %s", cfg.Env)
	}

	if cfg.Pipeline.Timezone != "America/New_York" {
		t.Errorf("Expected Timezone to be America/New_York, got %s", cfg.Pipeline.Timezone)
	}

	if cfg.Pipeline.WatchCooldown != 60*time.Second {
		t.Errorf("Expected WatchCooldown to be 60s, got %v", cfg.Pipeline.WatchCooldown)
	}

	if cfg.Redis.Enabled {
		t.Error("Expected Redis to be disabled by default")
	}
}

func TestLoadWithCustomValues(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("ENV", "production")
	t.Setenv("CACHE_DIR", "/tmp/screener-cache")
	t.Setenv("STRICT_VALIDATION", "true")
	t.Setenv("WATCH_COOLDOWN", "90s")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Port != "9000" {
		t.Errorf("Expected Port to be 9000, got %s", cfg.Port)
	}

	if cfg.Env != "production" {
		t.Errorf("Expected Env to be production, got %s", cfg.Env)
	}

	if cfg.Cache.Dir != "/tmp/screener-cache" {
		t.Errorf("Expected Cache.Dir to be /tmp/screener-cache, got %s", cfg.Cache.Dir)
	}

	if !cfg.Pipeline.StrictValidation {
		t.Error("Expected StrictValidation to be true")
	}

	if cfg.Pipeline.WatchCooldown != 90*time.Second {
		t.Errorf("Expected WatchCooldown to be 90s, got %v", cfg.Pipeline.WatchCooldown)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("Expected LogLevel to be debug, got %s", cfg.LogLevel)
	}
}

func TestValidateInvalidEnv(t *testing.T) {
	t.Setenv("ENV", "invalid")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when ENV is invalid, got nil")
	}
}

func TestValidateInvalidTimezone(t *testing.T) {
	t.Setenv("TIMEZONE", "Mars/Olympus_Mons")

	_, err := Load()
	if err == nil {
		t.Error("Expected error when TIMEZONE is invalid, got nil")
	}
}

func TestLocation(t *testing.T) {
	cfg := &Config{Pipeline: PipelineConfig{Timezone: "America/New_York"}}
	if got := cfg.Location().String(); got != "America/New_York" {
		t.Errorf("Expected America/New_York, got %s", got)
	}

	cfg.Pipeline.Timezone = "nowhere"
	if got := cfg.Location(); got != time.UTC {
		t.Errorf("Expected UTC fallback, got %s", got)
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("TEST_DURATION", "2h")

	duration := getEnvAsDuration("TEST_DURATION", "1h")
	expected := 2 * time.Hour

	if duration != expected {
		t.Errorf("Expected duration to be %v, got %v", expected, duration)
	}

	t.Setenv("TEST_DURATION", "garbage")
	if got := getEnvAsDuration("TEST_DURATION", "1h"); got != time.Hour {
		t.Errorf("Expected fallback to 1h, got %v", got)
	}
}

func TestGetEnvAsInt(t *testing.T) {
	t.Setenv("TEST_INT", "100")

	value := getEnvAsInt("TEST_INT", 50)
	if value != 100 {
		t.Errorf("Expected value to be 100, got %d", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	t.Setenv("TEST_BOOL", "true")

	value := getEnvAsBool("TEST_BOOL", false)
	if value != true {
		t.Errorf("Expected value to be true, got %v", value)
	}
}
