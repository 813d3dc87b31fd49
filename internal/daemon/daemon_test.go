package daemon_test

import (
	"context"
	"testing"

	"pressline/internal/daemon"
	"pressline/internal/logging"
	"pressline/internal/stage"
	"pressline/internal/testsupport"
	"pressline/internal/workflow"
)

type noopStage struct{}

func (noopStage) Name() string { return "fetching" }
func (noopStage) Run(context.Context) (stage.Report, error) {
	return stage.Report{Stage: "fetching"}, nil
}
func (noopStage) HealthCheck(context.Context) stage.Health {
	return stage.Healthy("fetching")
}

func newDaemon(t *testing.T, cfgOpts ...testsupport.ConfigOption) *daemon.Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t, cfgOpts...)
	store := testsupport.MustOpenStore(t, cfg)
	docs := testsupport.MustOpenDocuments(t, cfg)
	mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &testsupport.RecordingNotifier{})
	mgr.ConfigureStages(workflow.StageSet{Fetcher: noopStage{}})
	d, err := daemon.New(cfg, store, docs, logging.NewNop(), mgr)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { d.Stop() })
	return d
}

func TestDaemonStartStop(t *testing.T) {
	d := newDaemon(t)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	status := d.Status(ctx)
	if !status.Running || !status.Workflow.Running {
		t.Fatalf("expected daemon and workflow running, got %+v", status)
	}
	if status.LockFilePath == "" || status.DatabasePath == "" {
		t.Fatalf("expected paths in status, got %+v", status)
	}

	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	d.Stop()
	if d.Status(ctx).Running {
		t.Fatal("expected daemon to be stopped")
	}
}

func TestDaemonLockRejectsSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	build := func() *daemon.Daemon {
		store := testsupport.MustOpenStore(t, cfg)
		docs := testsupport.MustOpenDocuments(t, cfg)
		mgr := workflow.NewManagerWithNotifier(cfg, store, logging.NewNop(), &testsupport.RecordingNotifier{})
		mgr.ConfigureStages(workflow.StageSet{Fetcher: noopStage{}})
		d, err := daemon.New(cfg, store, docs, logging.NewNop(), mgr)
		if err != nil {
			t.Fatalf("daemon.New: %v", err)
		}
		t.Cleanup(func() { d.Stop() })
		return d
	}
	first, second := build(), build()

	if err := first.Start(context.Background()); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(context.Background()); err == nil {
		t.Fatal("expected lock contention error")
	}
	first.Stop()
	if err := second.Start(context.Background()); err != nil {
		t.Fatalf("expected start after release, got %v", err)
	}
}

func TestDaemonServesAPIWhenBound(t *testing.T) {
	d := newDaemon(t)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if d.APIAddr() == "" {
		t.Fatal("expected api listener on the configured bind address")
	}
}
