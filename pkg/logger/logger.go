package logger

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type LogMode string

const (
	LogModeDefault LogMode = "default"
	LogModeJSON    LogMode = "json"
)

func ParseLogMode(s string) (LogMode, error) {
	switch LogMode(strings.ToLower(s)) {
	case LogModeDefault, "":
		return LogModeDefault, nil
	case LogModeJSON:
		return LogModeJSON, nil
	default:
		return LogModeDefault, fmt.Errorf("%q is an invalid log mode, expected one of: %s, %s", s, LogModeDefault, LogModeJSON)
	}
}

var stderr = struct{ io.Writer }{os.Stderr}

func init() { //nolint:gochecknoinits // init with zerolog is idiomatic
	mode, _ := ParseLogMode(os.Getenv("LOG_TYPE"))
	ConfigureLogging(mode)
}

type tTesting interface {
	Log(args ...interface{})
	Logf(format string, args ...interface{})
	Helper()
	Cleanup(f func())
}

// ConfigureTestLogging allows logs to be associated with individual tests
func ConfigureTestLogging(t tTesting) {
	oldLogger := log.Logger
	oldContextLogger := zerolog.DefaultContextLogger
	configureLogging(zerolog.NewConsoleWriter(consoleDefaults(false), zerolog.ConsoleTestWriter(t)))
	t.Cleanup(func() {
		log.Logger = oldLogger
		zerolog.DefaultContextLogger = oldContextLogger
	})
}

// ConfigureLogging sets up the global logger. Logs always go to stderr so that
// stdout only carries command output such as job IDs.
func ConfigureLogging(mode LogMode) {
	var w io.Writer
	switch mode {
	case LogModeJSON:
		w = stderr
	default:
		w = zerolog.NewConsoleWriter(consoleDefaults(isatty.IsTerminal(os.Stderr.Fd())))
	}
	configureLogging(w)
}

func consoleDefaults(color bool) func(w *zerolog.ConsoleWriter) {
	return func(w *zerolog.ConsoleWriter) {
		w.Out = stderr
		w.NoColor = !color
		w.TimeFormat = "15:04:05.999 |"
		w.PartsOrder = []string{
			zerolog.TimestampFieldName,
			zerolog.LevelFieldName,
			zerolog.CallerFieldName,
			zerolog.MessageFieldName,
		}
	}
}

func configureLogging(w io.Writer) {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.SetGlobalLevel(levelFromEnv(os.Getenv("LOG_LEVEL")))

	zerolog.CallerMarshalFunc = func(_ uintptr, file string, line int) string {
		short := file
		for i := len(file) - 1; i > 0; i-- {
			if file[i] == '/' {
				short = file[i+1:]
				break
			}
		}
		return short + ":" + strconv.Itoa(line)
	}

	ctx := zerolog.New(w).With().Timestamp()
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		ctx = ctx.Caller()
	}
	log.Logger = ctx.Logger()
	zerolog.DefaultContextLogger = &log.Logger
}

func levelFromEnv(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
