package services

import "context"

type ctxKey int

const (
	itemKey ctxKey = iota
	stageKey
	cycleKey
)

// WithItemID tags ctx with the work item being processed.
func WithItemID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, itemKey, id)
}

// ItemIDFromContext returns the work item ID stored by WithItemID.
func ItemIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(itemKey).(int64)
	return id, ok
}

// WithStage tags ctx with a stage name. Blank names leave ctx untouched.
func WithStage(ctx context.Context, stage string) context.Context {
	return withString(ctx, stageKey, stage)
}

func StageFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, stageKey)
}

// WithCycleID tags ctx with the correlation ID shared by every log line of
// one pipeline cycle or one manual stage run.
func WithCycleID(ctx context.Context, id string) context.Context {
	return withString(ctx, cycleKey, id)
}

func CycleIDFromContext(ctx context.Context) (string, bool) {
	return stringValue(ctx, cycleKey)
}

func withString(ctx context.Context, key ctxKey, value string) context.Context {
	if value == "" {
		return ctx
	}
	return context.WithValue(ctx, key, value)
}

func stringValue(ctx context.Context, key ctxKey) (string, bool) {
	v, ok := ctx.Value(key).(string)
	return v, ok && v != ""
}
