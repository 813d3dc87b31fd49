package summarizing_test

import (
	"context"
	"os"
	"strings"
	"testing"

	"pressline/internal/config"
	"pressline/internal/document"
	"pressline/internal/logging"
	"pressline/internal/queue"
	"pressline/internal/summarizing"
	"pressline/internal/testsupport"
)

func setup(t *testing.T, opts ...testsupport.ConfigOption) (*config.Config, *queue.Store, *document.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return cfg, testsupport.MustOpenStore(t, cfg), testsupport.MustOpenDocuments(t, cfg)
}

func TestSummarizeMergesSummaryIntoCleanedDocument(t *testing.T) {
	cfg, store, docs := setup(t)
	item := testsupport.NewItem(t, store, docs, "https://example.com/a", queue.StatusCleaned)
	gen := testsupport.NewScriptedGenerator(testsupport.Reply{Text: "A short summary.\n"})

	report, err := summarizing.NewWithDependencies(cfg, store, docs, logging.NewNop(), gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Succeeded != 1 {
		t.Fatalf("unexpected report %+v", report)
	}

	updated, err := store.GetByID(context.Background(), item.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if updated.Status != queue.StatusSummarized || updated.CleanedRef != item.CleanedRef {
		t.Fatalf("unexpected item %+v", updated)
	}
	doc, err := docs.Read(item.CleanedRef)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Meta.Summary != "A short summary." || doc.Meta.Status != string(queue.StatusSummarized) {
		t.Fatalf("unexpected metadata %+v", doc.Meta)
	}
	if doc.Body != "Cleaned text of https://example.com/a" {
		t.Fatalf("body should be untouched, got %q", doc.Body)
	}

	prompts := gen.Prompts()
	if len(prompts) != 1 || !strings.Contains(prompts[0], item.Title) || !strings.Contains(prompts[0], doc.Body) {
		t.Fatalf("prompt missing title or text: %q", prompts)
	}
}

func TestSummarizeRespectsMaxItemsPerRun(t *testing.T) {
	cfg, store, docs := setup(t, testsupport.WithConfig(func(c *config.Config) {
		c.Summarize.MaxItemsPerRun = 2
	}))
	for _, u := range []string{"https://example.com/1", "https://example.com/2", "https://example.com/3"} {
		testsupport.NewItem(t, store, docs, u, queue.StatusCleaned)
	}
	gen := testsupport.NewScriptedGenerator(testsupport.Reply{Text: "summary"})
	report, err := summarizing.NewWithDependencies(cfg, store, docs, logging.NewNop(), gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Attempted != 2 {
		t.Fatalf("expected 2 attempts, got %+v", report)
	}
	stats, err := store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[queue.StatusSummarized] != 2 || stats[queue.StatusCleaned] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestSummarizeEmptyResponseIsSoft(t *testing.T) {
	cfg, store, docs := setup(t)
	item := testsupport.NewItem(t, store, docs, "https://example.com/empty", queue.StatusCleaned)
	gen := testsupport.NewScriptedGenerator(testsupport.Reply{Text: ""})
	report, err := summarizing.NewWithDependencies(cfg, store, docs, logging.NewNop(), gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Soft != 1 {
		t.Fatalf("expected soft failure, got %+v", report)
	}
	updated, _ := store.GetByID(context.Background(), item.ID)
	if updated.Status != queue.StatusSummarizeFailed {
		t.Fatalf("expected summarize_failed, got %s", updated.Status)
	}
	if updated.CleanedRef != item.CleanedRef {
		t.Fatal("cleaned ref must survive a failure")
	}
	doc, err := docs.Read(item.CleanedRef)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if doc.Meta.Summary != "" || doc.Meta.Status != string(queue.StatusCleaned) {
		t.Fatalf("document must not change on failure: %+v", doc.Meta)
	}
}

func TestSummarizeMissingDocumentFails(t *testing.T) {
	cfg, store, docs := setup(t)
	item := testsupport.NewItem(t, store, docs, "https://example.com/gone", queue.StatusCleaned)
	path, err := docs.Path(item.CleanedRef)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	gen := testsupport.NewScriptedGenerator(testsupport.Reply{Text: "unused"})
	if _, err := summarizing.NewWithDependencies(cfg, store, docs, logging.NewNop(), gen).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	updated, _ := store.GetByID(context.Background(), item.ID)
	if updated.Status != queue.StatusSummarizeFailed || !strings.Contains(updated.LastError, "not found") {
		t.Fatalf("unexpected item %+v", updated)
	}
	if gen.Calls() != 0 {
		t.Fatal("generator should not be called without a document")
	}
}
