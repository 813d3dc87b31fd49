package workflow

import (
	"context"
	"errors"
	"log/slog"

	"pressline/internal/logging"
	"pressline/internal/notifications"
)

type notice struct {
	event   notifications.Event
	payload notifications.Payload
}

func stageErrorEvent(stageName string, err error) notice {
	return notice{
		event: notifications.EventStageError,
		payload: notifications.Payload{
			"stage": stageName,
			"error": err,
		},
	}
}

func cycleCompletedEvent(summary CycleSummary) notice {
	return notice{
		event: notifications.EventCycleCompleted,
		payload: notifications.Payload{
			"cycle_id":     summary.ID,
			"succeeded":    summary.Succeeded,
			"failed":       summary.Failed,
			"stage_errors": len(summary.Errors),
			"duration_ms":  summary.Duration().Milliseconds(),
		},
	}
}

func (m *Manager) notify(ctx context.Context, logger *slog.Logger, n notice) {
	if m.notifier == nil {
		return
	}
	if err := m.notifier.Publish(ctx, n.event, n.payload); err != nil {
		if errors.Is(err, context.Canceled) {
			logger.Debug("shutting down, notification not sent", logging.String("event", string(n.event)))
			return
		}
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("event", string(n.event)),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check the ntfy topic and network access"),
		)
	}
}
