package goident

import (
	"log/slog"
	"sync/atomic"
)

var pkgLogger atomic.Pointer[slog.Logger]

// SetLogger sets the logger used when no logger is given to a routine.
// A nil logger restores slog.Default.
func SetLogger(l *slog.Logger) {
	pkgLogger.Store(l)
}

// Logger returns the package logger.
func Logger() *slog.Logger {
	if l := pkgLogger.Load(); l != nil {
		return l
	}
	return slog.Default()
}

func orDefault(l *slog.Logger) *slog.Logger {
	if l != nil {
		return l
	}
	return Logger()
}

// logWarning reports a translated kernel warning.
func logWarning(l *slog.Logger, w Warning) {
	l.Warn(w.Message, "routine", w.Routine, "experiment", w.Experiment, "code", w.Code)
}
