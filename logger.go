package mediasoup

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zerologr"
	"github.com/gobwas/glob"
	"github.com/pion/logging"
	"github.com/rs/zerolog"
)

var (
	// defaultLoggerImpl is a zerolog instance with console writer
	defaultLoggerImpl = zerolog.New(zerolog.NewConsoleWriter(func(w *zerolog.ConsoleWriter) {
		color, _ := strconv.ParseBool(os.Getenv("DEBUG_COLORS"))
		w.NoColor = !color
		w.TimeFormat = "2006-01-02 15:04:05.999"
	})).With().Timestamp().Logger()

	// DefaultLevel is the level of scopes not selected by the DEBUG env.
	DefaultLevel = zerolog.InfoLevel

	// NewLogger creates the logger of a scope. Scopes matching one of the comma
	// separated globs of the DEBUG env log at debug level, a leading "-"
	// excludes a scope again.
	NewLogger = func(scope string) logr.Logger {
		level := DefaultLevel
		if debugEnabled(os.Getenv("DEBUG"), scope) {
			level = zerolog.DebugLevel
		}
		logger := defaultLoggerImpl.Level(level)

		return zerologr.New(&logger).WithName(scope)
	}
)

func init() {
	zerolog.TimeFieldFormat = "2006-01-02T15:04:05.999Z07:00"
	zerologr.VerbosityFieldName = ""
}

func debugEnabled(debug, scope string) (enabled bool) {
	for _, part := range strings.Split(debug, ",") {
		part = strings.TrimSpace(part)
		if len(part) == 0 {
			continue
		}
		match := true
		if part[0] == '-' {
			match = false
			part = part[1:]
		}
		if g, err := glob.Compile(part); err == nil && g.Match(scope) {
			enabled = match
		}
	}
	return
}

// workerLogger forwards the log lines written by a worker process to a logr
// sink. It implements the pion LeveledLogger so that any pion compatible
// logger can be plugged in instead through WithWorkerLogger.
type workerLogger struct {
	logger logr.Logger
}

func newWorkerLogger(logger logr.Logger) logging.LeveledLogger {
	return workerLogger{logger: logger}
}

func (l workerLogger) Trace(msg string) { l.logger.V(2).Info(msg) }
func (l workerLogger) Tracef(format string, args ...interface{}) {
	l.logger.V(2).Info(fmt.Sprintf(format, args...))
}
func (l workerLogger) Debug(msg string) { l.logger.V(1).Info(msg) }
func (l workerLogger) Debugf(format string, args ...interface{}) {
	l.logger.V(1).Info(fmt.Sprintf(format, args...))
}
func (l workerLogger) Info(msg string) { l.logger.Info(msg) }
func (l workerLogger) Infof(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...))
}
func (l workerLogger) Warn(msg string) { l.logger.Info(msg, "level", "warn") }
func (l workerLogger) Warnf(format string, args ...interface{}) {
	l.logger.Info(fmt.Sprintf(format, args...), "level", "warn")
}
func (l workerLogger) Error(msg string) { l.logger.Error(nil, msg) }
func (l workerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(nil, fmt.Sprintf(format, args...))
}
