//go:build unit || !integration

package logger

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigureLogging(t *testing.T) {
	oldLogger := log.Logger
	oldContextLogger := zerolog.DefaultContextLogger
	t.Cleanup(func() {
		log.Logger = oldLogger
		zerolog.DefaultContextLogger = oldContextLogger
	})

	var logging strings.Builder
	configureLogging(zerolog.NewConsoleWriter(consoleDefaults(false), func(w *zerolog.ConsoleWriter) {
		w.Out = &logging
	}))

	log.Warn().Str("path", "/tmp/cry").Msg("testing message")

	actual := logging.String()
	assert.Contains(t, actual, "testing message")
	assert.Contains(t, actual, "path=/tmp/cry")
	assert.Contains(t, actual, "WRN")
}

func TestParseLogMode(t *testing.T) {
	for _, tc := range []struct {
		in       string
		expected LogMode
		wantErr  bool
	}{
		{in: "", expected: LogModeDefault},
		{in: "default", expected: LogModeDefault},
		{in: "JSON", expected: LogModeJSON},
		{in: "station", expected: LogModeDefault, wantErr: true},
	} {
		t.Run(tc.in, func(t *testing.T) {
			mode, err := ParseLogMode(tc.in)
			if tc.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tc.expected, mode)
		})
	}
}

func TestLevelFromEnv(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, levelFromEnv("DEBUG"))
	assert.Equal(t, zerolog.WarnLevel, levelFromEnv("warn"))
	assert.Equal(t, zerolog.InfoLevel, levelFromEnv("bogus"))
}
