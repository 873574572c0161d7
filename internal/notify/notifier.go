// Package notify delivers user-facing notifications raised by the trade engine.
package notify

import (
	"demo-options-trader/internal/models"
	"go.uber.org/zap"
)

// Notifier receives notifications. Implementations must not block the caller
// for long; nothing is returned because delivery is fire-and-forget.
type Notifier interface {
	Notify(n models.Notification)
}

// Func adapts a plain function to the Notifier interface.
type Func func(n models.Notification)

func (f Func) Notify(n models.Notification) { f(n) }

// Nop discards every notification.
var Nop Notifier = Func(func(models.Notification) {})

// Multi fans a notification out to several notifiers in order.
type Multi []Notifier

func (m Multi) Notify(n models.Notification) {
	for _, target := range m {
		if target != nil {
			target.Notify(n)
		}
	}
}

// LogNotifier writes each notification as a structured log line.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger.Named("notify")}
}

func (l *LogNotifier) Notify(n models.Notification) {
	fields := []zap.Field{
		zap.String("event", string(n.Event)),
		zap.String("title", n.Title),
		zap.String("description", n.Description),
	}
	if n.Category == models.CategoryDestructive {
		l.logger.Warn("Notification", fields...)
		return
	}
	l.logger.Info("Notification", fields...)
}
