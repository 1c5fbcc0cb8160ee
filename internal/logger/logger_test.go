package logger

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DefaultWriter(t *testing.T) {
	logger := New(Config{Level: slog.LevelInfo, Format: "json"})
	assert.NotNil(t, logger)
	assert.NotNil(t, logger.Logger)
}

func TestNew_FormatAutoDetection(t *testing.T) {
	tests := []struct {
		name        string
		environment string
		wantJSON    bool
	}{
		{name: "production uses json", environment: "production", wantJSON: true},
		{name: "development uses pretty", environment: "development", wantJSON: false},
		{name: "staging uses pretty", environment: "staging", wantJSON: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(Config{Level: slog.LevelInfo, Environment: tt.environment, Writer: &buf})
			logger.Info("test")

			if tt.wantJSON {
				assert.Contains(t, buf.String(), `"msg":"test"`)
			} else {
				assert.Contains(t, buf.String(), "INF")
				assert.NotContains(t, buf.String(), `"msg"`)
			}
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"INFO":    slog.LevelInfo,
		"warn":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), in)
	}
}

func TestComponent_PrettyPrefix(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "pretty", Writer: &buf})

	logger.Component("TagService").Info("tag created", "name", "readme")

	out := buf.String()
	assert.Contains(t, out, "[TagService]")
	assert.Contains(t, out, "name=readme")
	assert.NotContains(t, out, "component=")
}

func TestComponent_JSONAttribute(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	logger.Component("PasteCommand").Info("uploaded")

	assert.Contains(t, buf.String(), `"component":"PasteCommand"`)
}

func TestSuccessLevel(t *testing.T) {
	t.Run("json renders SUCCESS", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})
		logger.Success("paste uploaded")
		assert.Contains(t, buf.String(), `"level":"SUCCESS"`)
	})

	t.Run("pretty renders OK", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: slog.LevelInfo, Format: "pretty", Writer: &buf})
		Success(logger.Logger, "paste uploaded")
		assert.Contains(t, buf.String(), "OK ")
	})

	t.Run("filtered above warn", func(t *testing.T) {
		var buf bytes.Buffer
		logger := New(Config{Level: slog.LevelWarn, Format: "pretty", Writer: &buf})
		logger.Success("hidden")
		assert.Empty(t, buf.String())
	})
}

func TestPrettyHandler_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil))

	logger.WithGroup("store").Info("loaded", "guilds", 3)

	assert.Contains(t, buf.String(), "store.guilds=3")
}

func TestPrettyHandler_QuotesStringsWithSpaces(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil))

	logger.Info("reply", "text", "hello world")

	assert.Contains(t, buf.String(), `text="hello world"`)
}

func TestWithError(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: slog.LevelInfo, Format: "json", Writer: &buf})

	logger.WithError(errors.New("disk full")).Error("save failed")

	assert.Contains(t, buf.String(), `"error":"disk full"`)
}

func TestPrettyHandler_ConcurrentWritesDoNotInterleave(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewPrettyHandler(&buf, nil))

	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			logger.Info("line", "n", n)
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 50)
	for _, line := range lines {
		assert.Contains(t, line, "line")
	}
}
