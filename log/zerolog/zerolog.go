// Package zerolog adapts rs/zerolog to the engine's core.Logger interface.
package zerolog

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantfoundry/stagetrader/core"

	"github.com/google/goterm/term"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/pkgerrors"
)

// Logger wraps a zerolog.Logger and implements core.Logger
type Logger struct {
	logger zerolog.Logger
}

// New creates a zerolog-backed logger writing to stdout.
// When jsonFormat is false a colored console writer is used.
func New(level, dateTimeLayout string, colored, jsonFormat bool) (*Logger, error) {
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	logMode, err := zerolog.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	zerolog.SetGlobalLevel(logMode)

	if jsonFormat {
		logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
		return &Logger{logger: logger}, nil
	}

	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		NoColor:    !colored,
		TimeFormat: dateTimeLayout,
	}
	output.FormatLevel = formatLevel
	output.FormatMessage = formatMessage
	output.FormatCaller = formatCaller

	logger := zerolog.New(output).With().Timestamp().Logger()
	return &Logger{logger: logger}, nil
}

// NewWith wraps an existing zerolog.Logger
func NewWith(logger zerolog.Logger) *Logger {
	return &Logger{logger: logger}
}

// WithField implements core.Logger.
func (l *Logger) WithField(key string, value any) core.Logger {
	return &Logger{logger: l.logger.With().Interface(key, value).Logger()}
}

// WithFields implements core.Logger.
func (l *Logger) WithFields(fields map[string]any) core.Logger {
	ctx := l.logger.With()
	for k, v := range fields {
		ctx = ctx.Interface(k, v)
	}
	return &Logger{logger: ctx.Logger()}
}

// WithError implements core.Logger.
func (l *Logger) WithError(err error) core.Logger {
	return &Logger{logger: l.logger.With().Err(err).Logger()}
}

// Print implements core.Logger.
func (l *Logger) Print(args ...any) { l.logger.Log().Msg(fmt.Sprint(args...)) }

// Trace implements core.Logger.
func (l *Logger) Trace(args ...any) { l.logger.Trace().Msg(fmt.Sprint(args...)) }

// Debug implements core.Logger.
func (l *Logger) Debug(args ...any) { l.logger.Debug().Msg(fmt.Sprint(args...)) }

// Info implements core.Logger.
func (l *Logger) Info(args ...any) { l.logger.Info().Msg(fmt.Sprint(args...)) }

// Warn implements core.Logger.
func (l *Logger) Warn(args ...any) { l.logger.Warn().Msg(fmt.Sprint(args...)) }

// Error implements core.Logger.
func (l *Logger) Error(args ...any) { l.logger.Error().Msg(fmt.Sprint(args...)) }

// Fatal implements core.Logger.
func (l *Logger) Fatal(args ...any) { l.logger.Fatal().Msg(fmt.Sprint(args...)) }

// Panic implements core.Logger.
func (l *Logger) Panic(args ...any) { l.logger.Panic().Msg(fmt.Sprint(args...)) }

// Printf implements core.Logger.
func (l *Logger) Printf(format string, args ...any) { l.logger.Log().Msgf(format, args...) }

// Tracef implements core.Logger.
func (l *Logger) Tracef(format string, args ...any) { l.logger.Trace().Msgf(format, args...) }

// Debugf implements core.Logger.
func (l *Logger) Debugf(format string, args ...any) { l.logger.Debug().Msgf(format, args...) }

// Infof implements core.Logger.
func (l *Logger) Infof(format string, args ...any) { l.logger.Info().Msgf(format, args...) }

// Warnf implements core.Logger.
func (l *Logger) Warnf(format string, args ...any) { l.logger.Warn().Msgf(format, args...) }

// Errorf implements core.Logger.
func (l *Logger) Errorf(format string, args ...any) { l.logger.Error().Msgf(format, args...) }

// Fatalf implements core.Logger.
func (l *Logger) Fatalf(format string, args ...any) { l.logger.Fatal().Msgf(format, args...) }

// Panicf implements core.Logger.
func (l *Logger) Panicf(format string, args ...any) { l.logger.Panic().Msgf(format, args...) }

// SetLevel implements core.Logger.
func (l *Logger) SetLevel(level core.Level) {
	zerolog.SetGlobalLevel(toZerologLevel(level))
}

// GetLevel implements core.Logger.
func (l *Logger) GetLevel() core.Level {
	return toLevel(zerolog.GlobalLevel())
}

func toZerologLevel(level core.Level) zerolog.Level {
	switch level {
	case core.TraceLevel:
		return zerolog.TraceLevel
	case core.DebugLevel:
		return zerolog.DebugLevel
	case core.InfoLevel:
		return zerolog.InfoLevel
	case core.WarnLevel:
		return zerolog.WarnLevel
	case core.ErrorLevel:
		return zerolog.ErrorLevel
	case core.FatalLevel:
		return zerolog.FatalLevel
	case core.PanicLevel:
		return zerolog.PanicLevel
	case core.Disabled:
		return zerolog.Disabled
	default:
		return zerolog.NoLevel
	}
}

func toLevel(level zerolog.Level) core.Level {
	switch level {
	case zerolog.TraceLevel:
		return core.TraceLevel
	case zerolog.DebugLevel:
		return core.DebugLevel
	case zerolog.InfoLevel:
		return core.InfoLevel
	case zerolog.WarnLevel:
		return core.WarnLevel
	case zerolog.ErrorLevel:
		return core.ErrorLevel
	case zerolog.FatalLevel:
		return core.FatalLevel
	case zerolog.PanicLevel:
		return core.PanicLevel
	case zerolog.Disabled:
		return core.Disabled
	default:
		return core.NoLevel
	}
}

func formatLevel(i interface{}) string {
	levelStr, ok := i.(string)
	if !ok {
		return "UNKNOWN"
	}
	return getLevelColor(levelStr)
}

func getLevelColor(level string) string {
	switch level {
	case zerolog.LevelTraceValue:
		return term.Cyanf("[TRC]")
	case zerolog.LevelDebugValue:
		return term.Cyanf("[DBG]")
	case zerolog.LevelInfoValue:
		return term.Greenf("[INF]")
	case zerolog.LevelWarnValue:
		return term.Yellowf("[WAR]")
	case zerolog.LevelPanicValue:
		return term.Redf("[PAN]")
	case zerolog.LevelFatalValue:
		return term.Redf("[FTL]")
	case zerolog.LevelErrorValue:
		return term.Redf("[ERR]")
	default:
		return term.Whitef("[UNK]")
	}
}

func formatMessage(i interface{}) string {
	const maxSize = 80

	msg, ok := i.(string)
	if !ok || len(msg) == 0 {
		return ">"
	}

	if len(msg) > maxSize {
		msg = msg[:maxSize]
	}
	if len(msg) < maxSize {
		msg += strings.Repeat(" ", maxSize-len(msg))
	}

	return term.Whitef("> %s", msg)
}

func formatCaller(i interface{}) string {
	fname, ok := i.(string)
	if !ok || len(fname) == 0 {
		return ""
	}
	return filepath.Base(fname)
}
