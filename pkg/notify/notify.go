package notify

import "log/slog"

// Level represents the notification severity.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
	LevelWarning Level = "warning"
	LevelInfo    Level = "info"
)

// Notice is a single user-facing notification.
type Notice struct {
	Level   Level
	Title   string
	Message string

	// ActionLabel and ActionID describe an optional affordance attached
	// to the notice (e.g., "Report issue"). Empty when none.
	ActionLabel string
	ActionID    string
}

// Notifier receives user-facing notifications. The SDK never renders
// anything itself; hosts plug in whatever surface they have (toast
// stack, TUI banner, CLI stderr).
type Notifier interface {
	Notify(n Notice)
}

// Func adapts a plain function to a Notifier.
type Func func(n Notice)

func (f Func) Notify(n Notice) { f(n) }

// Show sends a notification through the notifier.
// A nil notifier is a no-op, so call sites never need to guard.
func Show(nf Notifier, level Level, message string) {
	if nf == nil {
		return
	}
	nf.Notify(Notice{Level: level, Message: message})
}

// Success sends a success notification.
//
//	notify.Success(nf, "Changes saved!")
func Success(nf Notifier, message string) {
	Show(nf, LevelSuccess, message)
}

// Error sends an error notification.
//
//	notify.Error(nf, "Failed to delete watcher")
func Error(nf Notifier, message string) {
	Show(nf, LevelError, message)
}

// Warning sends a warning notification.
func Warning(nf Notifier, message string) {
	Show(nf, LevelWarning, message)
}

// Info sends an info notification.
func Info(nf Notifier, message string) {
	Show(nf, LevelInfo, message)
}

// WithTitle sends a notification with a title and message.
//
//	notify.WithTitle(nf, notify.LevelError, "Session Expired", "Please log in again.")
func WithTitle(nf Notifier, level Level, title, message string) {
	if nf == nil {
		return
	}
	nf.Notify(Notice{Level: level, Title: title, Message: message})
}

// WithAction sends a notification carrying an action affordance.
func WithAction(nf Notifier, level Level, title, message, actionLabel, actionID string) {
	if nf == nil {
		return
	}
	nf.Notify(Notice{
		Level:       level,
		Title:       title,
		Message:     message,
		ActionLabel: actionLabel,
		ActionID:    actionID,
	})
}

// Slog returns a Notifier that writes notices to the given logger.
// This is the default sink when a host does not provide its own.
func Slog(logger *slog.Logger) Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return Func(func(n Notice) {
		attrs := []any{"title", n.Title, "message", n.Message}
		switch n.Level {
		case LevelError:
			logger.Error("notice", attrs...)
		case LevelWarning:
			logger.Warn("notice", attrs...)
		default:
			logger.Info("notice", attrs...)
		}
	})
}
