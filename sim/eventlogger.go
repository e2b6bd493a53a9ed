package sim

import (
	"github.com/sirupsen/logrus"
)

// EventLogger is a hook that logs every dispatched event.
type EventLogger struct {
	logger *logrus.Logger
}

// NewEventLogger returns a hook that writes event dispatches to the
// given logger.
func NewEventLogger(logger *logrus.Logger) *EventLogger {
	return &EventLogger{logger: logger}
}

// Func writes the event information when an event is about to
// execute.
func (h *EventLogger) Func(ctx HookCtx) {
	if ctx.Pos != HookPosBeforeEvent {
		return
	}

	info, ok := ctx.Item.(EventInfo)
	if !ok {
		return
	}

	h.logger.WithFields(logrus.Fields{
		"tick":     info.Tick,
		"priority": info.Priority,
		"seq":      info.Seq,
	}).Info(info.Description)
}
