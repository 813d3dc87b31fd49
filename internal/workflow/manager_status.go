package workflow

import (
	"context"
	"time"

	"pressline/internal/logging"
	"pressline/internal/queue"
	"pressline/internal/stage"
)

// StageStatus is the latest known state of one stage.
type StageStatus struct {
	Name       string
	Health     stage.Health
	LastRun    time.Time
	LastReport *stage.Report
	LastError  string
}

// StatusSummary represents lightweight workflow diagnostics.
type StatusSummary struct {
	Running    bool
	LastError  string
	LastCycle  *CycleSummary
	QueueStats map[queue.Status]int
	Stages     []StageStatus
}

// Status returns the latest workflow information.
func (m *Manager) Status(ctx context.Context) StatusSummary {
	m.mu.RLock()
	running := m.running
	lastErr := m.lastErr
	var lastCycle *CycleSummary
	if m.lastCycle != nil {
		c := *m.lastCycle
		lastCycle = &c
	}
	stages := append(m.stages[:0:0], m.stages...)
	records := make(map[string]stageRecord, len(m.stageLast))
	for k, v := range m.stageLast {
		records[k] = v
	}
	m.mu.RUnlock()

	stats, err := m.store.Stats(ctx)
	if err != nil {
		m.logger.Warn("failed to read queue stats",
			logging.Error(err),
			logging.String(logging.FieldEventType, "queue_stats_failed"),
			logging.String(logging.FieldErrorHint, "check work store access"),
		)
	}

	summary := StatusSummary{Running: running, LastCycle: lastCycle, QueueStats: stats}
	if lastErr != nil {
		summary.LastError = lastErr.Error()
	}
	for _, p := range stages {
		st := StageStatus{Name: p.Name(), Health: p.HealthCheck(ctx)}
		if rec, ok := records[st.Name]; ok {
			report := rec.report
			st.LastReport = &report
			st.LastRun = rec.lastRun
			st.LastError = rec.err
		}
		summary.Stages = append(summary.Stages, st)
	}
	return summary
}

// Health runs every stage health check.
func (m *Manager) Health(ctx context.Context) []stage.Health {
	stages := m.snapshotStages()
	out := make([]stage.Health, 0, len(stages))
	for _, p := range stages {
		out = append(out, p.HealthCheck(ctx))
	}
	return out
}
