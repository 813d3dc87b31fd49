package workflow_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pressline/internal/logging"
	"pressline/internal/notifications"
	"pressline/internal/stage"
	"pressline/internal/testsupport"
	"pressline/internal/workflow"
)

type stubStage struct {
	name   string
	calls  *[]string
	mu     *sync.Mutex
	err    error
	panics bool
	report stage.Report
	health stage.Health
}

func newStubStage(name string, calls *[]string, mu *sync.Mutex) *stubStage {
	return &stubStage{name: name, calls: calls, mu: mu, health: stage.Healthy(name)}
}

func (s *stubStage) Name() string { return s.name }

func (s *stubStage) Run(context.Context) (stage.Report, error) {
	s.mu.Lock()
	*s.calls = append(*s.calls, s.name)
	s.mu.Unlock()
	if s.panics {
		panic("boom")
	}
	report := s.report
	report.Stage = s.name
	return report, s.err
}

func (s *stubStage) HealthCheck(context.Context) stage.Health { return s.health }

type stubPipeline struct {
	mu     sync.Mutex
	calls  []string
	stages map[string]*stubStage
}

func newStubPipeline() *stubPipeline {
	p := &stubPipeline{stages: map[string]*stubStage{}}
	for _, name := range []string{"fetching", "cleaning", "summarizing", "selection", "generation", "publishing"} {
		p.stages[name] = newStubStage(name, &p.calls, &p.mu)
	}
	return p
}

func (p *stubPipeline) set() workflow.StageSet {
	return workflow.StageSet{
		Fetcher:    p.stages["fetching"],
		Cleaner:    p.stages["cleaning"],
		Summarizer: p.stages["summarizing"],
		Selector:   p.stages["selection"],
		Writer:     p.stages["generation"],
		Publisher:  p.stages["publishing"],
	}
}

func (p *stubPipeline) order() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func TestRunCycleRunsStagesInOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &testsupport.RecordingNotifier{}
	pipeline := newStubPipeline()
	pipeline.stages["cleaning"].report = stage.Report{Attempted: 2, Succeeded: 1, Failed: 1}

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier)
	mgr.ConfigureStages(pipeline.set())

	summary, err := mgr.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	want := "fetching,cleaning,summarizing,selection,generation,publishing"
	if got := strings.Join(pipeline.order(), ","); got != want {
		t.Fatalf("stage order = %s, want %s", got, want)
	}
	if summary.ID == "" || len(summary.Reports) != 6 {
		t.Fatalf("unexpected summary %+v", summary)
	}
	if summary.Succeeded != 1 || summary.Failed != 1 {
		t.Fatalf("expected totals from stage reports, got %+v", summary)
	}
	events := notifier.Events(notifications.EventCycleCompleted)
	if len(events) != 1 || events[0].Payload["cycle_id"] != summary.ID {
		t.Fatalf("expected one cycle notification, got %+v", events)
	}
}

func TestStageErrorDoesNotStopCycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Workflow.StageErrorPause = 7
	store := testsupport.MustOpenStore(t, cfg)
	notifier := &testsupport.RecordingNotifier{}
	pipeline := newStubPipeline()
	pipeline.stages["summarizing"].err = errors.New("database is locked")
	pipeline.stages["generation"].panics = true

	var pauses []time.Duration
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), notifier,
		workflow.WithSleep(func(_ context.Context, d time.Duration) error {
			pauses = append(pauses, d)
			return nil
		}),
	)
	mgr.ConfigureStages(pipeline.set())

	summary, err := mgr.RunCycle(context.Background())
	if err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if got := len(pipeline.order()); got != 6 {
		t.Fatalf("expected every stage to run, got %v", pipeline.order())
	}
	if len(summary.Errors) != 2 {
		t.Fatalf("expected two stage errors, got %v", summary.Errors)
	}
	if !strings.Contains(summary.Errors["generation"], "panicked") {
		t.Fatalf("expected panic recorded, got %q", summary.Errors["generation"])
	}
	if len(pauses) != 2 || pauses[0] != 7*time.Second {
		t.Fatalf("expected two pauses of 7s, got %v", pauses)
	}
	stageErrors := notifier.Events(notifications.EventStageError)
	if len(stageErrors) != 2 || stageErrors[0].Payload["stage"] != "summarizing" {
		t.Fatalf("unexpected stage error notifications %+v", stageErrors)
	}

	status := mgr.Status(context.Background())
	if status.LastError == "" || status.LastCycle == nil || status.LastCycle.ID != summary.ID {
		t.Fatalf("unexpected status %+v", status)
	}
	for _, st := range status.Stages {
		if st.Name == "summarizing" && st.LastError != "database is locked" {
			t.Fatalf("expected summarizing error in status, got %+v", st)
		}
		if st.Name == "fetching" && (st.LastReport == nil || st.LastError != "") {
			t.Fatalf("expected clean fetching status, got %+v", st)
		}
	}
}

func TestLastStageErrorSkipsPause(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	pipeline := newStubPipeline()
	pipeline.stages["publishing"].err = errors.New("boom")

	paused := 0
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &testsupport.RecordingNotifier{},
		workflow.WithSleep(func(context.Context, time.Duration) error {
			paused++
			return nil
		}),
	)
	mgr.ConfigureStages(pipeline.set())
	if _, err := mgr.RunCycle(context.Background()); err != nil {
		t.Fatalf("RunCycle: %v", err)
	}
	if paused != 0 {
		t.Fatalf("expected no pause after the final stage, got %d", paused)
	}
}

func TestRunCycleStopsOnCancelledContext(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	pipeline := newStubPipeline()
	ctx, cancel := context.WithCancel(context.Background())
	pipeline.stages["cleaning"].err = errors.New("boom")

	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &testsupport.RecordingNotifier{},
		workflow.WithSleep(func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		}),
	)
	mgr.ConfigureStages(pipeline.set())

	summary, err := mgr.RunCycle(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if !summary.Interrupted {
		t.Fatal("expected interrupted summary")
	}
	if got := strings.Join(pipeline.order(), ","); got != "fetching,cleaning" {
		t.Fatalf("unexpected stage order %s", got)
	}
}

func TestRunStageByName(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	pipeline := newStubPipeline()
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &testsupport.RecordingNotifier{})
	mgr.ConfigureStages(pipeline.set())

	report, err := mgr.RunStage(context.Background(), " Selection ")
	if err != nil {
		t.Fatalf("RunStage: %v", err)
	}
	if report.Stage != "selection" || strings.Join(pipeline.order(), ",") != "selection" {
		t.Fatalf("unexpected run %+v %v", report, pipeline.order())
	}
	if _, err := mgr.RunStage(context.Background(), "encoding"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestStartRunsImmediatelyThenOnInterval(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	pipeline := newStubPipeline()
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &testsupport.RecordingNotifier{},
		workflow.WithCycleInterval(20*time.Millisecond),
	)
	mgr.ConfigureStages(workflow.StageSet{Fetcher: pipeline.stages["fetching"]})

	if err := mgr.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected second Start to fail")
	}
	deadline := time.Now().Add(2 * time.Second)
	for len(pipeline.order()) < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	mgr.Stop()
	if len(pipeline.order()) < 2 {
		t.Fatalf("expected at least two cycles, got %d", len(pipeline.order()))
	}
	if mgr.Running() {
		t.Fatal("expected manager stopped")
	}
}

func TestStartRequiresStages(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &testsupport.RecordingNotifier{})
	if err := mgr.Start(context.Background()); err == nil {
		t.Fatal("expected error without stages")
	}
}
