package logger

import (
	"bytes"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNew_levels(t *testing.T) {
	tests := []struct {
		name     string
		dev      bool
		expected zerolog.Level
	}{
		{name: "production", dev: false, expected: zerolog.InfoLevel},
		{name: "development", dev: true, expected: zerolog.DebugLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := New(&buf, tt.dev)
			require.Equal(t, tt.expected, logger.GetLevel())
		})
	}
}

func TestNew_jsonOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, false)

	logger.Debug().Msg("hidden")
	logger.Info().Str("host", "0.0.0.0").Msg("listening")

	require.NotContains(t, buf.String(), "hidden")
	require.Contains(t, buf.String(), `"host":"0.0.0.0"`)
	require.Contains(t, buf.String(), `"message":"listening"`)
}

func TestNew_consoleOutput(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, true)

	logger.Debug().Msg("resolving")
	require.Contains(t, buf.String(), "resolving")
	require.NotContains(t, buf.String(), `"message"`)
}
