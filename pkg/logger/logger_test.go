package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/screener/backend/pkg/config"
)

func jsonLogger(t *testing.T, level string) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	cfg := &config.Config{Env: "development", LogLevel: level, LogFormat: "json"}
	return NewWithWriter(cfg, &buf), &buf
}

func decode(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
	return entry
}

func TestNew_Level(t *testing.T) {
	tests := []struct {
		level string
		want  zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"WARN", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			log := New(&config.Config{Env: "production", LogLevel: tt.level, LogFormat: "json"})
			assert.Equal(t, tt.want, log.Level())
		})
	}
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, zerolog.FatalLevel, parseLogLevel("fatal"))
	assert.Equal(t, zerolog.PanicLevel, parseLogLevel("panic"))
}

func TestNewWithWriter_FiltersBelowLevel(t *testing.T) {
	log, buf := jsonLogger(t, "warn")

	log.Info("dropped")
	log.Debugf("dropped %d", 1)
	assert.Empty(t, buf.String())

	log.Warn("kept")
	entry := decode(t, buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "kept", entry["message"])
	assert.Equal(t, "screener", entry["service"])
	assert.Equal(t, "development", entry["env"])
}

func TestLoggerMethods(t *testing.T) {
	tests := []struct {
		name      string
		logFunc   func(*Logger)
		wantLevel string
		wantMsg   string
	}{
		{"debug", func(l *Logger) { l.Debug("loading inputs") }, "debug", "loading inputs"},
		{"info", func(l *Logger) { l.Info("stage completed") }, "info", "stage completed"},
		{"warn", func(l *Logger) { l.Warn("sector snapshot missing") }, "warn", "sector snapshot missing"},
		{"error", func(l *Logger) { l.Error("write failed") }, "error", "write failed"},
		{"debugf", func(l *Logger) { l.Debugf("symbol: %s, score: %d", "AAPL", 6) }, "debug", "symbol: AAPL, score: 6"},
		{"infof", func(l *Logger) { l.Infof("count: %d", 42) }, "info", "count: 42"},
		{"warnf", func(l *Logger) { l.Warnf("retry attempt: %d", 3) }, "warn", "retry attempt: 3"},
		{"errorf", func(l *Logger) { l.Errorf("step failed: %s", "sector_merge") }, "error", "step failed: sector_merge"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, buf := jsonLogger(t, "debug")
			tt.logFunc(log)

			entry := decode(t, buf)
			assert.Equal(t, tt.wantLevel, entry["level"])
			assert.Equal(t, tt.wantMsg, entry["message"])
		})
	}
}

func TestWithFields(t *testing.T) {
	log, buf := jsonLogger(t, "info")

	log.WithField("symbol", "AAPL").
		WithFields(map[string]interface{}{
			"score": 6,
			"tags":  []string{"Strong Setup"},
		}).
		Info("ticker scored")

	entry := decode(t, buf)
	assert.Equal(t, "AAPL", entry["symbol"])
	assert.Equal(t, float64(6), entry["score"])
	assert.Equal(t, []interface{}{"Strong Setup"}, entry["tags"])
}

func TestWithError(t *testing.T) {
	log, buf := jsonLogger(t, "info")

	log.WithError(errors.New("universe snapshot missing")).Error("operation failed")

	entry := decode(t, buf)
	assert.Equal(t, "universe snapshot missing", entry["error"])
	assert.Equal(t, "operation failed", entry["message"])
}

func TestWithRunAndStage(t *testing.T) {
	log, buf := jsonLogger(t, "info")

	log.WithRun("cron-20250106-093555", "pipeline").
		WithStage("S1:ENRICH").
		WithComponent("brain").
		Info("stage completed")

	entry := decode(t, buf)
	assert.Equal(t, "cron-20250106-093555", entry["run_id"])
	assert.Equal(t, "pipeline", entry["trigger"])
	assert.Equal(t, "S1:ENRICH", entry["stage"])
	assert.Equal(t, "brain", entry["component"])
}

func TestWithField_DoesNotMutateParent(t *testing.T) {
	log, buf := jsonLogger(t, "info")

	_ = log.WithField("symbol", "AAPL")
	log.Info("plain")

	entry := decode(t, buf)
	_, ok := entry["symbol"]
	assert.False(t, ok)
}

func TestLogFormats(t *testing.T) {
	for _, format := range []string{"json", "console", "pretty"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			log := NewWithWriter(&config.Config{Env: "development", LogLevel: "info", LogFormat: format}, &buf)
			log.Info("watch trigger fired")

			assert.Contains(t, buf.String(), "watch trigger fired")
		})
	}
}

func TestNop(t *testing.T) {
	log := Nop()
	// Must not panic and must not write anywhere
	log.WithFields(map[string]interface{}{"k": "v"}).Info("discarded")
	log.WithRun("r", "t").Errorf("discarded %d", 1)
}
