package workflow

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"pressline/internal/config"
	"pressline/internal/logging"
	"pressline/internal/notifications"
	"pressline/internal/queue"
	"pressline/internal/stage"
)

// Manager coordinates pipeline cycles over the registered stages.
type Manager struct {
	cfg      *config.Config
	store    *queue.Store
	logger   *slog.Logger
	notifier notifications.Service

	interval   time.Duration
	errorPause time.Duration
	sleep      func(ctx context.Context, d time.Duration) error

	stages []stage.Processor

	// cycleMu serializes cycles and manual stage runs.
	cycleMu sync.Mutex

	mu        sync.RWMutex
	running   bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	lastErr   error
	lastCycle *CycleSummary
	stageLast map[string]stageRecord
}

type stageRecord struct {
	report  stage.Report
	err     string
	lastRun time.Time
}

// ManagerOption configures optional Manager behavior.
type ManagerOption func(*Manager)

// WithCycleInterval overrides the configured interval between cycles.
func WithCycleInterval(d time.Duration) ManagerOption {
	return func(m *Manager) {
		m.interval = d
	}
}

// WithSleep replaces the pause used after a stage error.
func WithSleep(fn func(ctx context.Context, d time.Duration) error) ManagerOption {
	return func(m *Manager) {
		if fn != nil {
			m.sleep = fn
		}
	}
}

// NewManager constructs a workflow manager that notifies through the
// configured ntfy topic.
func NewManager(cfg *config.Config, store *queue.Store, logger *slog.Logger, opts ...ManagerOption) *Manager {
	return NewManagerWithNotifier(cfg, store, logger, notifications.NewService(cfg), opts...)
}

// NewManagerWithNotifier constructs a workflow manager with a custom notifier.
func NewManagerWithNotifier(cfg *config.Config, store *queue.Store, logger *slog.Logger, notifier notifications.Service, opts ...ManagerOption) *Manager {
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}
	m := &Manager{
		cfg:        cfg,
		store:      store,
		logger:     logging.NewComponentLogger(logger, "workflow"),
		notifier:   notifier,
		interval:   cfg.CycleInterval(),
		errorPause: cfg.StageErrorPause(),
		sleep:      sleepContext,
		stageLast:  make(map[string]stageRecord),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
