package testsupport

import (
	"context"
	"testing"

	"pressline/internal/config"
	"pressline/internal/document"
	"pressline/internal/queue"
	"pressline/internal/stage"
)

// MustOpenStore opens a queue.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *queue.Store {
	t.Helper()

	store, err := queue.Open(cfg)
	if err != nil {
		t.Fatalf("queue.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// MustOpenDocuments opens the document store for tests.
func MustOpenDocuments(t testing.TB, cfg *config.Config) *document.Store {
	t.Helper()

	docs, err := document.OpenFromConfig(cfg)
	if err != nil {
		t.Fatalf("document.OpenFromConfig: %v", err)
	}
	return docs
}

// forwardPath lists the success statuses in pipeline order.
var forwardPath = []queue.Status{
	queue.StatusDiscovered,
	queue.StatusRawFetched,
	queue.StatusCleaned,
	queue.StatusSummarized,
	queue.StatusSelected,
	queue.StatusPostGenerated,
	queue.StatusPublished,
}

// failedFrom maps failure statuses to the success status they branch off.
var failedFrom = map[queue.Status]queue.Status{
	queue.StatusFetchFailed:      queue.StatusDiscovered,
	queue.StatusCleaningFailed:   queue.StatusRawFetched,
	queue.StatusSummarizeFailed:  queue.StatusCleaned,
	queue.StatusGenerationFailed: queue.StatusSelected,
	queue.StatusPublishFailed:    queue.StatusPostGenerated,
}

// NewItem inserts an item and walks it along the state graph to status,
// writing every document a real run would have produced on the way. Titles
// and bodies are derived from the URL.
func NewItem(t testing.TB, store *queue.Store, docs *document.Store, url string, status queue.Status) *queue.Item {
	t.Helper()
	ctx := context.Background()

	target := status
	if base, ok := failedFrom[status]; ok {
		target = base
	}

	raw := document.RawRef(url)
	if err := docs.WriteRaw(raw, document.RawPage{URL: url, Title: "Title " + url, RawHTML: "<html><body><p>Body of " + url + "</p></body></html>"}); err != nil {
		t.Fatalf("write raw page: %v", err)
	}
	item, inserted, err := store.Insert(ctx, queue.NewItem{
		SourceURL:  url,
		Title:      "Title " + url,
		SourceName: "Test Feed",
		Status:     queue.StatusRawFetched,
		RawRef:     raw,
	})
	if err != nil || !inserted {
		t.Fatalf("insert %s: inserted=%v err=%v", url, inserted, err)
	}

	if target == queue.StatusDiscovered {
		t.Fatalf("NewItem cannot seed %s; insert discovered items directly", status)
	}

	for _, next := range forwardPath[2:] {
		if item.Status == target {
			break
		}
		item = advance(t, store, docs, item, next)
	}
	if item.Status != target {
		t.Fatalf("could not reach %s, stuck at %s", target, item.Status)
	}
	if status != target {
		item, err = store.Fail(ctx, item.ID, status, "seeded failure")
		if err != nil {
			t.Fatalf("fail %s: %v", url, err)
		}
	}
	return item
}

func advance(t testing.TB, store *queue.Store, docs *document.Store, item *queue.Item, next queue.Status) *queue.Item {
	t.Helper()
	ctx := context.Background()
	subject := stage.Subject(item)
	tr := queue.Transition{To: next}

	switch next {
	case queue.StatusCleaned:
		tr.CleanedRef = document.CleanedRef(subject)
		writeDoc(t, docs, tr.CleanedRef, document.Record{
			Meta: document.NewMetadata(subject, document.KindCleaned, string(next)),
			Body: "Cleaned text of " + item.SourceURL,
		})
	case queue.StatusSummarized, queue.StatusSelected:
		rec, err := docs.Read(item.CleanedRef)
		if err != nil {
			t.Fatalf("read cleaned doc: %v", err)
		}
		if next == queue.StatusSummarized {
			rec.Meta.Summary = "Summary of " + item.SourceURL
		}
		rec.Meta.Status = string(next)
		writeDoc(t, docs, item.CleanedRef, rec)
	case queue.StatusPostGenerated:
		tr.PostRef = document.PostRef(subject)
		meta := document.NewMetadata(subject, document.KindPost, string(next))
		meta.CleanedRef = item.CleanedRef
		writeDoc(t, docs, tr.PostRef, document.Record{Meta: meta, Body: "Post about " + item.SourceURL})
	}

	updated, err := store.Transition(ctx, item.ID, tr)
	if err != nil {
		t.Fatalf("transition %s -> %s: %v", item.Status, next, err)
	}
	return updated
}

func writeDoc(t testing.TB, docs *document.Store, ref string, rec document.Record) {
	t.Helper()
	if err := docs.Write(ref, rec); err != nil {
		t.Fatalf("write %s: %v", ref, err)
	}
}
