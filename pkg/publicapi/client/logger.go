package client

import (
	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// retryLogger routes retryablehttp's messages to zerolog. Its request level
// chatter is only useful when debugging, so Info is demoted to Debug.
type retryLogger struct{}

func (retryLogger) Error(msg string, keysAndValues ...interface{}) {
	event(zerolog.ErrorLevel, msg, keysAndValues)
}

func (retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	event(zerolog.WarnLevel, msg, keysAndValues)
}

func (retryLogger) Info(msg string, keysAndValues ...interface{}) {
	event(zerolog.DebugLevel, msg, keysAndValues)
}

func (retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	event(zerolog.TraceLevel, msg, keysAndValues)
}

func event(level zerolog.Level, msg string, keysAndValues []interface{}) {
	log.WithLevel(level).Fields(keysAndValues).Msg(msg)
}

var _ retryablehttp.LeveledLogger = retryLogger{}
