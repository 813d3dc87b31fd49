package queue

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"
)

// Transition moves an item along one edge of the state graph. The UPDATE
// only matches rows still in a legal predecessor status, so a stale caller
// gets ErrInvalidTransition instead of overwriting newer state.
func (s *Store) Transition(ctx context.Context, id int64, t Transition) (*Item, error) {
	ctx = ensureContext(ctx)
	preds := Predecessors(t.To)
	if len(preds) == 0 {
		return nil, fmt.Errorf("%w: nothing may move to %q", ErrInvalidTransition, t.To)
	}
	if err := checkRefs(t); err != nil {
		return nil, err
	}

	update := psql.Update("items").
		Set("status", string(t.To)).
		Set("updated_at", formatTime(s.clock())).
		Set("raw_ref", sq.Expr("COALESCE(?, raw_ref)", nullableString(t.RawRef))).
		Set("cleaned_ref", sq.Expr("COALESCE(?, cleaned_ref)", nullableString(t.CleanedRef))).
		Set("post_ref", sq.Expr("COALESCE(?, post_ref)", nullableString(t.PostRef))).
		Where(sq.Eq{"id": id, "status": statusArgs(preds)})

	if t.To.IsFailed() {
		msg := strings.TrimSpace(t.Error)
		if msg == "" {
			msg = "unknown error"
		}
		update = update.Set("last_error", msg)
	} else {
		update = update.Set("last_error", nil)
	}

	switch t.To {
	case StatusSummarized, StatusSelected, StatusPostGenerated:
		update = update.Where("cleaned_ref IS NOT NULL")
	case StatusPublished:
		update = update.Where("post_ref IS NOT NULL")
	}
	if t.To == StatusSelected {
		update = update.Where("NOT EXISTS (SELECT 1 FROM items AS held WHERE held.status = ?)", string(StatusSelected))
	}

	res, err := s.execBuilder(ctx, update)
	if err != nil {
		if t.To == StatusSelected && isUniqueViolation(err) {
			return nil, ErrSelectionHeld
		}
		return nil, fmt.Errorf("transition item %d to %s: %w", id, t.To, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("transition rows affected: %w", err)
	}
	if affected == 0 {
		return nil, s.explainRejected(ctx, id, t.To)
	}
	return s.GetByID(ctx, id)
}

// Select moves a summarized item into the single selected slot.
func (s *Store) Select(ctx context.Context, id int64) (*Item, error) {
	return s.Transition(ctx, id, Transition{To: StatusSelected})
}

// Fail records a failure status and message for an item.
func (s *Store) Fail(ctx context.Context, id int64, status Status, message string) (*Item, error) {
	if !status.IsFailed() {
		return nil, fmt.Errorf("%w: %q is not a failure status", ErrInvalidTransition, status)
	}
	return s.Transition(ctx, id, Transition{To: status, Error: message})
}

// Selected returns the item currently holding the selection, or nil.
func (s *Store) Selected(ctx context.Context) (*Item, error) {
	return s.getOne(ctx, sq.Eq{"status": string(StatusSelected)})
}

// RetryFailed moves failed items back to the input status of the stage that
// failed them. With no ids every failed item is retried. Document refs are
// left untouched.
func (s *Store) RetryFailed(ctx context.Context, ids ...int64) (int64, error) {
	ctx = ensureContext(ctx)
	var total int64
	for _, failed := range FailedStatuses() {
		target, _ := RetryTarget(failed)
		update := psql.Update("items").
			Set("status", string(target)).
			Set("last_error", nil).
			Set("updated_at", formatTime(s.clock())).
			Where(sq.Eq{"status": string(failed)})
		if len(ids) > 0 {
			update = update.Where(sq.Eq{"id": ids})
		}
		res, err := s.execBuilder(ctx, update)
		if err != nil {
			return total, fmt.Errorf("retry %s items: %w", failed, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return total, fmt.Errorf("retry rows affected: %w", err)
		}
		total += n
	}
	return total, nil
}

func checkRefs(t Transition) error {
	switch t.To {
	case StatusRawFetched:
		if strings.TrimSpace(t.RawRef) == "" {
			return fmt.Errorf("%w: raw_fetched requires a raw ref", ErrInvalidTransition)
		}
	case StatusCleaned:
		if strings.TrimSpace(t.CleanedRef) == "" {
			return fmt.Errorf("%w: cleaned requires a cleaned ref", ErrInvalidTransition)
		}
	case StatusPostGenerated:
		if strings.TrimSpace(t.PostRef) == "" {
			return fmt.Errorf("%w: post_generated requires a post ref", ErrInvalidTransition)
		}
	}
	return nil
}

func (s *Store) explainRejected(ctx context.Context, id int64, to Status) error {
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if current == nil {
		return fmt.Errorf("%w: id %d", ErrItemNotFound, id)
	}
	if to == StatusSelected && current.Status == StatusSummarized {
		return ErrSelectionHeld
	}
	return fmt.Errorf("%w: item %d is %s, cannot move to %s", ErrInvalidTransition, id, current.Status, to)
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// IsConflict reports whether err means another writer already moved the item.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidTransition) || errors.Is(err, ErrSelectionHeld)
}
