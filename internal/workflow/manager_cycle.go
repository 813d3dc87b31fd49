package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"

	"pressline/internal/logging"
	"pressline/internal/services"
	"pressline/internal/stage"
)

// CycleSummary describes one pass over the pipeline.
type CycleSummary struct {
	ID       string
	Started  time.Time
	Finished time.Time
	Reports  []stage.Report
	// Errors maps stage names to the stage-level error they returned.
	Errors    map[string]string
	Succeeded int
	Failed    int
	// Interrupted is set when the context ended before every stage ran.
	Interrupted bool
}

// Duration returns how long the cycle took.
func (c CycleSummary) Duration() time.Duration {
	if c.Finished.Before(c.Started) {
		return 0
	}
	return c.Finished.Sub(c.Started)
}

// RunCycle runs every registered stage once, in order. A stage error never
// stops the cycle; it is recorded and the next stage runs after the stage
// error pause. The returned error is only the context error when the cycle
// was cut short.
func (m *Manager) RunCycle(ctx context.Context) (CycleSummary, error) {
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	summary := CycleSummary{
		ID:      uuid.NewString(),
		Started: time.Now(),
		Errors:  make(map[string]string),
	}
	ctx = services.WithCycleID(ctx, summary.ID)
	logger := logging.WithContext(ctx, m.logger)
	logger.Info("cycle started", logging.String(logging.FieldEventType, "cycle_started"))

	stages := m.snapshotStages()
	for i, p := range stages {
		if ctx.Err() != nil {
			summary.Interrupted = true
			break
		}
		report, err := m.runStage(ctx, logger, p)
		summary.Reports = append(summary.Reports, report)
		summary.Succeeded += report.Succeeded
		summary.Failed += report.Failed
		if err == nil {
			continue
		}
		summary.Errors[p.Name()] = err.Error()
		if i < len(stages)-1 {
			if perr := m.sleep(ctx, m.errorPause); perr != nil {
				summary.Interrupted = true
				break
			}
		}
	}
	summary.Finished = time.Now()

	m.mu.Lock()
	copySummary := summary
	m.lastCycle = &copySummary
	m.mu.Unlock()

	logger.Info("cycle completed",
		logging.String(logging.FieldEventType, "cycle_completed"),
		logging.Int("succeeded", summary.Succeeded),
		logging.Int("failed", summary.Failed),
		logging.Int("stage_errors", len(summary.Errors)),
		logging.Duration("duration", summary.Duration()),
	)
	m.notify(ctx, logger, cycleCompletedEvent(summary))

	if summary.Interrupted {
		return summary, ctx.Err()
	}
	return summary, nil
}

// RunStage runs a single stage by name outside the cycle schedule.
func (m *Manager) RunStage(ctx context.Context, name string) (stage.Report, error) {
	p := m.lookupStage(name)
	if p == nil {
		return stage.Report{}, fmt.Errorf("unknown stage %q", name)
	}
	m.cycleMu.Lock()
	defer m.cycleMu.Unlock()

	ctx = services.WithCycleID(ctx, uuid.NewString())
	return m.runStage(ctx, logging.WithContext(ctx, m.logger), p)
}

// runStage executes one stage with panic recovery and records the result.
func (m *Manager) runStage(ctx context.Context, logger *slog.Logger, p stage.Processor) (report stage.Report, err error) {
	name := p.Name()
	ctx = services.WithStage(ctx, name)
	logger = logger.With(logging.String(logging.FieldStage, name))
	started := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("stage %s panicked: %v", name, r)
			logger.Error("stage panicked",
				logging.String(logging.FieldEventType, "stage_panic"),
				logging.Any("panic", r),
				logging.String("stack", string(debug.Stack())),
			)
		}
		if report.Stage == "" {
			report.Stage = name
		}
		if report.Started.IsZero() {
			report.Started = started
		}
		if report.Finished.IsZero() {
			report.Finished = time.Now()
		}
		m.recordStage(ctx, logger, name, report, err)
	}()

	report, err = p.Run(ctx)
	return report, err
}

func (m *Manager) recordStage(ctx context.Context, logger *slog.Logger, name string, report stage.Report, err error) {
	rec := stageRecord{report: report, lastRun: report.Finished}
	if err != nil {
		rec.err = err.Error()
	}
	m.mu.Lock()
	m.stageLast[name] = rec
	if err != nil {
		m.lastErr = err
	}
	m.mu.Unlock()

	if err != nil {
		logging.ErrorWithContext(logger, "stage failed", "stage_failed",
			logging.Error(err),
			logging.Duration("pause", m.errorPause),
			logging.String(logging.FieldErrorHint, "the remaining stages still run; check the store and collaborator health"),
		)
		m.notify(ctx, logger, stageErrorEvent(name, err))
		return
	}

	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "stage_completed"),
		logging.Int("attempted", report.Attempted),
		logging.Int("succeeded", report.Succeeded),
		logging.Int("failed", report.Failed),
		logging.Int("skipped", report.Skipped),
		logging.Duration("duration", report.Duration()),
	}
	if report.Note != "" {
		attrs = append(attrs, logging.String("note", report.Note))
	}
	logger.Info("stage completed", logging.Args(attrs...)...)
}
