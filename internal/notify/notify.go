// Package notify separates user-visible notices from logging. The TUI
// installs a notifier that renders transient messages; headless commands
// fall back to the logger.
package notify

import "log/slog"

// Level indicates how a notice should be presented
type Level int

const (
	LevelInfo Level = iota
	LevelWarning
	LevelError
)

// Notifier receives user-visible notices
type Notifier interface {
	Notify(level Level, message string)
}

// Func adapts a function to the Notifier interface
type Func func(level Level, message string)

func (f Func) Notify(level Level, message string) {
	f(level, message)
}

// Logged returns a notifier that writes notices to the logger. Used when
// no UI is attached.
func Logged(logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return Func(func(level Level, message string) {
		switch level {
		case LevelError:
			logger.Error(message)
		case LevelWarning:
			logger.Warn(message)
		default:
			logger.Info(message)
		}
	})
}

// Discard drops all notices
func Discard() Notifier {
	return Func(func(Level, string) {})
}
