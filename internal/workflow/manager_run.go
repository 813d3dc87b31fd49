package workflow

import (
	"context"
	"errors"
	"time"

	"pressline/internal/logging"
)

// Start begins background processing: one cycle right away, then one per
// cycle interval.
func (m *Manager) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return errors.New("workflow already running")
	}
	if len(m.stages) == 0 {
		m.mu.Unlock()
		return errors.New("workflow stages not configured")
	}

	runCtx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.running = true
	m.wg.Add(1)
	m.mu.Unlock()

	go m.loop(runCtx)
	return nil
}

// Stop terminates background processing and waits for the current cycle to
// wind down.
func (m *Manager) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	cancel := m.cancel
	m.running = false
	m.cancel = nil
	m.mu.Unlock()

	cancel()
	m.wg.Wait()
}

// Running reports whether the background loop is active.
func (m *Manager) Running() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.running
}

func (m *Manager) loop(ctx context.Context) {
	defer m.wg.Done()
	m.logger.Info("pipeline loop started",
		logging.String(logging.FieldEventType, "workflow_started"),
		logging.Duration("cycle_interval", m.interval),
		logging.Int("stage_count", len(m.snapshotStages())),
	)

	for {
		if _, err := m.RunCycle(ctx); err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn("cycle ended early",
				logging.Error(err),
				logging.String(logging.FieldEventType, "cycle_interrupted"),
				logging.String(logging.FieldErrorHint, "the next cycle starts on schedule"),
			)
		}

		select {
		case <-ctx.Done():
			m.logger.Info("pipeline loop stopped", logging.String(logging.FieldEventType, "workflow_stopped"))
			return
		case <-time.After(m.interval):
		}
	}
}
