package stage

import (
	"context"
	"errors"
	"log/slog"

	"pressline/internal/logging"
	"pressline/internal/queue"
	"pressline/internal/services"
)

// Recorder applies per-item results to the work store and logs them with
// the severity each kind of result calls for.
type Recorder struct {
	Store  *queue.Store
	Logger *slog.Logger
	Stage  string
}

// ItemContext tags ctx with the stage and item for logging.
func (r Recorder) ItemContext(ctx context.Context, item *queue.Item) (context.Context, *slog.Logger) {
	ctx = services.WithStage(ctx, r.Stage)
	ctx = services.WithItemID(ctx, item.ID)
	return ctx, logging.WithContext(ctx, r.Logger)
}

// Advance commits a success transition. It must only be called after any
// document the transition refers to has been written. A store error leaves
// the item in its prior status so the next cycle retries it, and a
// conflicting transition means another run already handled the item; both
// come back as skipped outcomes.
func (r Recorder) Advance(ctx context.Context, item *queue.Item, t queue.Transition) Outcome {
	ctx, logger := r.ItemContext(ctx, item)
	updated, err := r.Store.Transition(ctx, item.ID, t)
	if err != nil {
		if queue.IsConflict(err) {
			logger.Info("item already moved by another run",
				logging.String(logging.FieldEventType, "transition_conflict"),
				logging.String("target_status", string(t.To)),
				logging.Error(err),
			)
		} else {
			logging.ErrorWithContext(logger, "status update failed after document write", "status_write_failed",
				logging.String("target_status", string(t.To)),
				logging.String(logging.FieldErrorHint, "item keeps its prior status and is retried next cycle"),
				logging.Error(err),
			)
		}
		return Outcome{ItemID: item.ID, URL: item.SourceURL, Status: item.Status, Err: err, Skipped: true}
	}
	logger.Info("item advanced",
		logging.String(logging.FieldEventType, "item_advanced"),
		logging.String("from_status", string(item.Status)),
		logging.String(logging.FieldStatus, string(updated.Status)),
	)
	return Succeeded(updated)
}

// Fail records a failure status and message. Soft failures log at warn,
// everything else at error. The returned outcome always carries cause.
func (r Recorder) Fail(ctx context.Context, item *queue.Item, status queue.Status, cause error) Outcome {
	ctx, logger := r.ItemContext(ctx, item)
	if cause == nil {
		cause = errors.New("unknown error")
	}
	message := services.FailureMessage(cause)
	attrs := []logging.Attr{
		logging.String(logging.FieldStatus, string(status)),
		logging.String(logging.FieldURL, item.SourceURL),
		logging.String("error_message", message),
		logging.Error(cause),
	}
	if services.IsSoft(cause) {
		logging.WarnWithContext(logger, "item produced no usable output", "item_soft_failure",
			append(attrs, logging.String(logging.FieldErrorHint, "inspect the source content or prompt"))...)
	} else {
		logging.ErrorWithContext(logger, "item failed", "item_failed",
			append(attrs, logging.String(logging.FieldErrorHint, "retry with `pressline retry` once the cause is fixed"))...)
	}

	updated, err := r.Store.Fail(ctx, item.ID, status, message)
	if err != nil {
		if queue.IsConflict(err) {
			logger.Info("failure not recorded, item already moved",
				logging.String(logging.FieldEventType, "transition_conflict"),
				logging.Error(err),
			)
			return Outcome{ItemID: item.ID, URL: item.SourceURL, Status: item.Status, Err: cause, Skipped: true}
		}
		logging.ErrorWithContext(logger, "failed to persist item failure", "status_write_failed", logging.Error(err))
		return Outcome{ItemID: item.ID, URL: item.SourceURL, Status: item.Status, Err: errors.Join(cause, err)}
	}
	return Outcome{ItemID: item.ID, URL: item.SourceURL, Status: updated.Status, Err: cause}
}
