// Package logrus adapts sirupsen/logrus to the engine's core.Logger interface.
package logrus

import (
	"github.com/quantfoundry/stagetrader/core"

	"github.com/sirupsen/logrus"
)

// Logger wraps a logrus entry and implements core.Logger
type Logger struct {
	entry *logrus.Entry
}

// New creates a logrus-backed logger with the given level
func New(level string) (*Logger, error) {
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, err
	}

	base := logrus.New()
	base.SetLevel(parsed)
	base.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	return &Logger{entry: logrus.NewEntry(base)}, nil
}

// NewWith wraps an existing logrus logger
func NewWith(base *logrus.Logger) *Logger {
	return &Logger{entry: logrus.NewEntry(base)}
}

// WithField implements core.Logger.
func (l *Logger) WithField(key string, value any) core.Logger {
	return &Logger{entry: l.entry.WithField(key, value)}
}

// WithFields implements core.Logger.
func (l *Logger) WithFields(fields map[string]any) core.Logger {
	return &Logger{entry: l.entry.WithFields(fields)}
}

// WithError implements core.Logger.
func (l *Logger) WithError(err error) core.Logger {
	return &Logger{entry: l.entry.WithError(err)}
}

// Print implements core.Logger.
func (l *Logger) Print(args ...any) { l.entry.Print(args...) }

// Trace implements core.Logger.
func (l *Logger) Trace(args ...any) { l.entry.Trace(args...) }

// Debug implements core.Logger.
func (l *Logger) Debug(args ...any) { l.entry.Debug(args...) }

// Info implements core.Logger.
func (l *Logger) Info(args ...any) { l.entry.Info(args...) }

// Warn implements core.Logger.
func (l *Logger) Warn(args ...any) { l.entry.Warn(args...) }

// Error implements core.Logger.
func (l *Logger) Error(args ...any) { l.entry.Error(args...) }

// Fatal implements core.Logger.
func (l *Logger) Fatal(args ...any) { l.entry.Fatal(args...) }

// Panic implements core.Logger.
func (l *Logger) Panic(args ...any) { l.entry.Panic(args...) }

// Printf implements core.Logger.
func (l *Logger) Printf(format string, args ...any) { l.entry.Printf(format, args...) }

// Tracef implements core.Logger.
func (l *Logger) Tracef(format string, args ...any) { l.entry.Tracef(format, args...) }

// Debugf implements core.Logger.
func (l *Logger) Debugf(format string, args ...any) { l.entry.Debugf(format, args...) }

// Infof implements core.Logger.
func (l *Logger) Infof(format string, args ...any) { l.entry.Infof(format, args...) }

// Warnf implements core.Logger.
func (l *Logger) Warnf(format string, args ...any) { l.entry.Warnf(format, args...) }

// Errorf implements core.Logger.
func (l *Logger) Errorf(format string, args ...any) { l.entry.Errorf(format, args...) }

// Fatalf implements core.Logger.
func (l *Logger) Fatalf(format string, args ...any) { l.entry.Fatalf(format, args...) }

// Panicf implements core.Logger.
func (l *Logger) Panicf(format string, args ...any) { l.entry.Panicf(format, args...) }

// SetLevel implements core.Logger.
func (l *Logger) SetLevel(level core.Level) {
	l.entry.Logger.SetLevel(toLogrusLevel(level))
}

// GetLevel implements core.Logger.
func (l *Logger) GetLevel() core.Level {
	return toLevel(l.entry.Logger.GetLevel())
}

func toLogrusLevel(level core.Level) logrus.Level {
	switch level {
	case core.TraceLevel:
		return logrus.TraceLevel
	case core.DebugLevel:
		return logrus.DebugLevel
	case core.InfoLevel:
		return logrus.InfoLevel
	case core.WarnLevel:
		return logrus.WarnLevel
	case core.ErrorLevel:
		return logrus.ErrorLevel
	case core.FatalLevel:
		return logrus.FatalLevel
	case core.PanicLevel:
		return logrus.PanicLevel
	default:
		return logrus.InfoLevel
	}
}

func toLevel(level logrus.Level) core.Level {
	switch level {
	case logrus.TraceLevel:
		return core.TraceLevel
	case logrus.DebugLevel:
		return core.DebugLevel
	case logrus.InfoLevel:
		return core.InfoLevel
	case logrus.WarnLevel:
		return core.WarnLevel
	case logrus.ErrorLevel:
		return core.ErrorLevel
	case logrus.FatalLevel:
		return core.FatalLevel
	case logrus.PanicLevel:
		return core.PanicLevel
	default:
		return core.NoLevel
	}
}
