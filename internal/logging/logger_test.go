package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestNew_TraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  "trace",
		Pretty: false,
		Output: &buf,
	})

	logger.Trace().Msg("trace message")
	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")

	output := buf.String()
	assert.Contains(t, output, "trace message")
	assert.Contains(t, output, "debug message")
	assert.Contains(t, output, "info message")
}

func TestNew_InfoLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  "info",
		Pretty: false,
		Output: &buf,
	})

	logger.Trace().Msg("trace message")
	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")

	output := buf.String()
	assert.NotContains(t, output, "trace message")
	assert.NotContains(t, output, "debug message")
	assert.Contains(t, output, "info message")
}

func TestNew_InvalidLevelDefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{
		Level:  "loud",
		Pretty: false,
		Output: &buf,
	})

	logger.Debug().Msg("debug message")
	logger.Info().Msg("info message")

	output := buf.String()
	if strings.Contains(output, "debug message") {
		t.Error("Expected debug message to NOT be logged with invalid level (should default to info)")
	}
	if !strings.Contains(output, "info message") {
		t.Error("Expected info message to be logged with invalid level (should default to info)")
	}
}

func TestNew_LevelHierarchy(t *testing.T) {
	levels := []struct {
		level    string
		expected zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
	}

	for _, tc := range levels {
		t.Run(tc.level, func(t *testing.T) {
			logger := New(Config{
				Level:  tc.level,
				Pretty: false,
				Output: &bytes.Buffer{},
			})
			assert.Equal(t, tc.expected, logger.GetLevel())

			_, ok := ParseLevel(tc.level)
			assert.True(t, ok)
		})
	}
}

func TestComponent(t *testing.T) {
	var buf bytes.Buffer
	base := New(Config{Level: "info", Output: &buf})
	Component(base, "device").Info().Msg("hello")

	assert.Contains(t, buf.String(), `"component":"device"`)
}
