package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name   string
		config *Config
	}{
		{name: "default config", config: nil},
		{name: "json config", config: &Config{Level: "debug", Format: "json"}},
		{name: "console config", config: &Config{Level: "info", Format: "console"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, New(tt.config))
		})
	}
}

func TestJSONOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "info", Format: "json", Output: buf})

	log.Info("engine cached")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "engine cached", entry["message"])
	assert.NotEmpty(t, entry["time"])
}

func TestWithFields(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "info", Format: "json", Output: buf})

	log.With().
		Str("arch", "arm64").
		Int("attempt", 2).
		Logger().
		Info("download started")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "arm64", entry["arch"])
	assert.Equal(t, float64(2), entry["attempt"])
	assert.Equal(t, "download started", entry["message"])
}

func TestErrorWith(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "error", Format: "json", Output: buf})

	log.ErrorWith("fetch failed", errors.New("connection refused"), map[string]interface{}{
		"url": "http://localhost:9000",
	})

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "fetch failed", entry["message"])
	assert.Equal(t, "connection refused", entry["error"])
	assert.Equal(t, "http://localhost:9000", entry["url"])
}

func TestContextRoundTrip(t *testing.T) {
	buf := &bytes.Buffer{}
	log := New(&Config{Level: "info", Format: "json", Output: buf})

	ctx := log.WithContext(context.Background())
	FromContext(ctx).Info("from context")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "from context", entry["message"])
}

func TestLevels(t *testing.T) {
	tests := []struct {
		name     string
		level    string
		logFunc  func(*Logger)
		expected bool
	}{
		{name: "debug level logs debug", level: "debug", logFunc: func(l *Logger) { l.Debug("d") }, expected: true},
		{name: "info level skips debug", level: "info", logFunc: func(l *Logger) { l.Debug("d") }, expected: false},
		{name: "error level logs error", level: "error", logFunc: func(l *Logger) { l.Error("e") }, expected: true},
		{name: "error level skips info", level: "error", logFunc: func(l *Logger) { l.Info("i") }, expected: false},
		{name: "unknown level defaults to info", level: "chatty", logFunc: func(l *Logger) { l.Info("i") }, expected: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			tt.logFunc(New(&Config{Level: tt.level, Format: "json", Output: buf}))

			if tt.expected {
				assert.NotEmpty(t, buf.String())
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestNopDiscards(t *testing.T) {
	// Must not panic and must not write anywhere.
	log := Nop()
	log.Info("dropped")
	log.ErrorWith("dropped", errors.New("x"), nil)
}
