package selection_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"pressline/internal/config"
	"pressline/internal/document"
	"pressline/internal/logging"
	"pressline/internal/queue"
	"pressline/internal/selection"
	"pressline/internal/testsupport"
)

type fixture struct {
	cfg   *config.Config
	store *queue.Store
	docs  *document.Store
}

func newFixture(t *testing.T, opts ...testsupport.ConfigOption) fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return fixture{cfg: cfg, store: testsupport.MustOpenStore(t, cfg), docs: testsupport.MustOpenDocuments(t, cfg)}
}

func (f fixture) selector(gen *testsupport.ScriptedGenerator) *selection.Selector {
	return selection.NewWithDependencies(f.cfg, f.store, f.docs, logging.NewNop(), gen)
}

func (f fixture) status(t *testing.T, id int64) queue.Status {
	t.Helper()
	item, err := f.store.GetByID(context.Background(), id)
	if err != nil || item == nil {
		t.Fatalf("GetByID(%d): %v", id, err)
	}
	return item.Status
}

func (f fixture) docStatus(t *testing.T, item *queue.Item) string {
	t.Helper()
	doc, err := f.docs.Read(item.CleanedRef)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	return doc.Meta.Status
}

func TestSelectAmbiguousAnswerMakesNoTransition(t *testing.T) {
	f := newFixture(t)
	a := testsupport.NewItem(t, f.store, f.docs, "https://example.com/a", queue.StatusSummarized)
	b := testsupport.NewItem(t, f.store, f.docs, "https://example.com/b", queue.StatusSummarized)
	gen := testsupport.NewScriptedGenerator(testsupport.Reply{Text: "Either https://example.com/a or https://example.com/b"})

	report, err := f.selector(gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Attempted != 0 || !strings.HasPrefix(report.Note, "no selection made") {
		t.Fatalf("unexpected report %+v", report)
	}
	for _, item := range []*queue.Item{a, b} {
		if got := f.status(t, item.ID); got != queue.StatusSummarized {
			t.Fatalf("item %d: expected summarized, got %s", item.ID, got)
		}
		if got := f.docStatus(t, item); got != string(queue.StatusSummarized) {
			t.Fatalf("item %d: document status changed to %s", item.ID, got)
		}
	}
	prompt := gen.Prompts()[0]
	if !strings.Contains(prompt, "Summary of https://example.com/a") || !strings.Contains(prompt, "Summary of https://example.com/b") {
		t.Fatalf("prompt should list both candidates:\n%s", prompt)
	}
}

func TestSelectChoosesSingleCandidate(t *testing.T) {
	f := newFixture(t)
	testsupport.NewItem(t, f.store, f.docs, "https://example.com/a", queue.StatusSummarized)
	b := testsupport.NewItem(t, f.store, f.docs, "https://example.com/b", queue.StatusSummarized)
	gen := testsupport.NewScriptedGenerator(testsupport.Reply{Text: "The best story is https://example.com/b."})

	report, err := f.selector(gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Succeeded != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	selected, err := f.store.Selected(context.Background())
	if err != nil || selected == nil {
		t.Fatalf("Selected: item=%v err=%v", selected, err)
	}
	if selected.ID != b.ID {
		t.Fatalf("expected item %d selected, got %d", b.ID, selected.ID)
	}
	if got := f.docStatus(t, b); got != string(queue.StatusSelected) {
		t.Fatalf("document status should be selected, got %s", got)
	}
}

func TestSelectDoesNothingWhileSlotHeld(t *testing.T) {
	f := newFixture(t)
	testsupport.NewItem(t, f.store, f.docs, "https://example.com/held", queue.StatusSelected)
	testsupport.NewItem(t, f.store, f.docs, "https://example.com/waiting", queue.StatusSummarized)
	gen := testsupport.NewScriptedGenerator(testsupport.Reply{Text: "https://example.com/waiting"})

	report, err := f.selector(gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gen.Calls() != 0 {
		t.Fatal("collaborator should not be asked while an item is selected")
	}
	if report.Note == "" {
		t.Fatal("expected a note explaining the skip")
	}
	stats, _ := f.store.Stats(context.Background())
	if stats[queue.StatusSelected] != 1 || stats[queue.StatusSummarized] != 1 {
		t.Fatalf("unexpected stats %v", stats)
	}
}

func TestSelectHonoursWindowAndCandidateCap(t *testing.T) {
	f := newFixture(t, testsupport.WithConfig(func(c *config.Config) {
		c.Select.WindowHours = 24
		c.Select.MaxCandidates = 2
	}))
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	seed := func(url string, age time.Duration) {
		f.store.SetClock(func() time.Time { return now.Add(-age) })
		testsupport.NewItem(t, f.store, f.docs, url, queue.StatusSummarized)
	}
	seed("https://example.com/stale", 48*time.Hour)
	seed("https://example.com/oldest", 10*time.Hour)
	seed("https://example.com/middle", 5*time.Hour)
	seed("https://example.com/newest", time.Hour)
	f.store.SetClock(func() time.Time { return now })

	gen := testsupport.NewScriptedGenerator(testsupport.Reply{Text: "none of these"})
	sel := f.selector(gen)
	sel.SetClock(func() time.Time { return now })
	if _, err := sel.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	prompt := gen.Prompts()[0]
	for _, want := range []string{"https://example.com/newest", "https://example.com/middle"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt should offer %s:\n%s", want, prompt)
		}
	}
	for _, unwanted := range []string{"https://example.com/oldest", "https://example.com/stale"} {
		if strings.Contains(prompt, unwanted) {
			t.Fatalf("prompt should not offer %s:\n%s", unwanted, prompt)
		}
	}
	if strings.Index(prompt, "newest") > strings.Index(prompt, "middle") {
		t.Fatal("candidates should be listed newest first")
	}
}

func TestSelectCollaboratorErrorIsNotAFailure(t *testing.T) {
	f := newFixture(t)
	item := testsupport.NewItem(t, f.store, f.docs, "https://example.com/a", queue.StatusSummarized)
	gen := testsupport.NewScriptedGenerator(testsupport.Reply{Err: errors.New("connection reset")})

	report, err := f.selector(gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run should not surface collaborator errors, got %v", err)
	}
	if report.Failed != 0 || report.Note == "" {
		t.Fatalf("unexpected report %+v", report)
	}
	if got := f.status(t, item.ID); got != queue.StatusSummarized {
		t.Fatalf("expected summarized, got %s", got)
	}
}

func TestSelectSkipsCandidatesWithoutSummary(t *testing.T) {
	f := newFixture(t)
	item := testsupport.NewItem(t, f.store, f.docs, "https://example.com/nosummary", queue.StatusSummarized)
	doc, err := f.docs.Read(item.CleanedRef)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	doc.Meta.Summary = ""
	if err := f.docs.Write(item.CleanedRef, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}
	gen := testsupport.NewScriptedGenerator(testsupport.Reply{Text: "https://example.com/nosummary"})
	report, err := f.selector(gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if gen.Calls() != 0 || report.Note != "no candidates" {
		t.Fatalf("expected no candidates, calls=%d report=%+v", gen.Calls(), report)
	}
}

func TestSelectRepairsStaleSelectedDocument(t *testing.T) {
	f := newFixture(t)
	stale := testsupport.NewItem(t, f.store, f.docs, "https://example.com/interrupted", queue.StatusSummarized)
	testsupport.NewItem(t, f.store, f.docs, "https://example.com/other", queue.StatusSummarized)
	doc, err := f.docs.Read(stale.CleanedRef)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	doc.Meta.Status = string(queue.StatusSelected)
	if err := f.docs.Write(stale.CleanedRef, doc); err != nil {
		t.Fatalf("Write: %v", err)
	}

	gen := testsupport.NewScriptedGenerator(testsupport.Reply{Text: "none of these stand out"})
	report, err := f.selector(gen).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Succeeded != 0 {
		t.Fatalf("unexpected report %+v", report)
	}
	if got := f.status(t, stale.ID); got != queue.StatusSummarized {
		t.Fatalf("expected summarized, got %s", got)
	}
	if got := f.docStatus(t, stale); got != string(queue.StatusSummarized) {
		t.Fatalf("document status should be repaired to summarized, got %s", got)
	}
	if !strings.Contains(gen.Prompts()[0], "https://example.com/interrupted") {
		t.Fatal("repaired item should still be offered as a candidate")
	}
}

func TestConcurrentSelectorsLeaveOneSelected(t *testing.T) {
	f := newFixture(t)
	urls := []string{"https://example.com/1", "https://example.com/2", "https://example.com/3", "https://example.com/4"}
	items := make([]*queue.Item, 0, len(urls))
	for _, u := range urls {
		items = append(items, testsupport.NewItem(t, f.store, f.docs, u, queue.StatusSummarized))
	}

	var wg sync.WaitGroup
	for _, u := range urls {
		gen := testsupport.NewScriptedGenerator(testsupport.Reply{Text: u})
		sel := f.selector(gen)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := sel.Run(context.Background()); err != nil {
				t.Errorf("Run: %v", err)
			}
		}()
	}
	wg.Wait()

	stats, err := f.store.Stats(context.Background())
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats[queue.StatusSelected] != 1 {
		t.Fatalf("expected exactly one selected item, got %v", stats)
	}
	for _, item := range items {
		status := f.status(t, item.ID)
		if got := f.docStatus(t, item); got != string(status) {
			t.Fatalf("item %d: document says %s, store says %s", item.ID, got, status)
		}
	}
}
