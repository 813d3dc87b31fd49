package publishing_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"pressline/internal/config"
	"pressline/internal/document"
	"pressline/internal/logging"
	"pressline/internal/notifications"
	"pressline/internal/publishing"
	"pressline/internal/queue"
	"pressline/internal/testsupport"
)

func setup(t *testing.T, opts ...testsupport.ConfigOption) (*config.Config, *queue.Store, *document.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t, opts...)
	return cfg, testsupport.MustOpenStore(t, cfg), testsupport.MustOpenDocuments(t, cfg)
}

func TestPublishRetriesFailedDelivery(t *testing.T) {
	cfg, store, docs := setup(t, testsupport.WithTelegram("http://127.0.0.1:1", "@news"))
	item := testsupport.NewItem(t, store, docs, "https://example.com/story", queue.StatusPostGenerated)
	delivery := &testsupport.RecordingDelivery{}
	delivery.SetErr(errors.New("bad gateway"))
	notifier := &testsupport.RecordingNotifier{}
	publisher := publishing.NewWithDependencies(cfg, store, docs, logging.NewNop(), delivery, notifier)

	report, err := publisher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Failed != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	failed, _ := store.GetByID(context.Background(), item.ID)
	if failed.Status != queue.StatusPublishFailed || failed.LastError == "" {
		t.Fatalf("expected publish_failed with error, got %+v", failed)
	}

	delivery.SetErr(nil)
	report, err = publisher.Run(context.Background())
	if err != nil {
		t.Fatalf("second Run: %v", err)
	}
	if report.Succeeded != 1 {
		t.Fatalf("unexpected report %+v", report)
	}
	published, _ := store.GetByID(context.Background(), item.ID)
	if published.Status != queue.StatusPublished || published.LastError != "" {
		t.Fatalf("expected published with cleared error, got %+v", published)
	}

	sent := delivery.Sent()
	if len(sent) != 1 || sent[0].Destination != "@news" || sent[0].Text != "Post about https://example.com/story" {
		t.Fatalf("unexpected deliveries %+v", sent)
	}
	post, err := docs.Read(published.PostRef)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if post.Meta.Status != string(queue.StatusPublished) {
		t.Fatalf("post status should be published, got %s", post.Meta.Status)
	}
	if events := notifier.Events(notifications.EventPostPublished); len(events) != 1 {
		t.Fatalf("expected one published notification, got %d", len(events))
	}

	report, err = publisher.Run(context.Background())
	if err != nil {
		t.Fatalf("third Run: %v", err)
	}
	if report.Attempted != 0 || len(delivery.Sent()) != 1 {
		t.Fatal("published items must not be delivered again")
	}
}

func TestPublishDisabledSkipsStage(t *testing.T) {
	cfg, store, docs := setup(t)
	testsupport.NewItem(t, store, docs, "https://example.com/story", queue.StatusPostGenerated)
	delivery := &testsupport.RecordingDelivery{}
	publisher := publishing.NewWithDependencies(cfg, store, docs, logging.NewNop(), delivery, nil)

	report, err := publisher.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Note != "disabled" || len(delivery.Sent()) != 0 {
		t.Fatalf("expected disabled stage, got %+v", report)
	}
	if h := publisher.HealthCheck(context.Background()); !h.Ready || h.Detail != "disabled" {
		t.Fatalf("unexpected health %+v", h)
	}
}

func TestPublishThroughTelegram(t *testing.T) {
	var (
		mu       sync.Mutex
		chatIDs  []string
		texts    []string
		requests int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		defer mu.Unlock()
		requests++
		if r.URL.Path != "/bottest-token/sendMessage" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		chatIDs = append(chatIDs, r.PostForm.Get("chat_id"))
		texts = append(texts, r.PostForm.Get("text"))
		if requests == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":5}}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	cfg, store, docs := setup(t, testsupport.WithTelegram(server.URL, "@channel"))
	item := testsupport.NewItem(t, store, docs, "https://example.com/tg", queue.StatusPostGenerated)
	publisher := publishing.New(cfg, store, docs, logging.NewNop())

	if _, err := publisher.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	limited, _ := store.GetByID(context.Background(), item.ID)
	if limited.Status != queue.StatusPublishFailed || !strings.HasPrefix(limited.LastError, "Rate limit exceeded: ") {
		t.Fatalf("expected rate limited failure, got %+v", limited)
	}
	if strings.Contains(limited.LastError, "test-token") {
		t.Fatal("bot token leaked into last_error")
	}

	if _, err := publisher.Run(context.Background()); err != nil {
		t.Fatalf("second Run: %v", err)
	}
	done, _ := store.GetByID(context.Background(), item.ID)
	if done.Status != queue.StatusPublished {
		t.Fatalf("expected published, got %s", done.Status)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(chatIDs) != 2 || chatIDs[1] != "@channel" || texts[1] != "Post about https://example.com/tg" {
		t.Fatalf("unexpected requests chat=%v text=%v", chatIDs, texts)
	}
}

func TestPublishMissingPostFails(t *testing.T) {
	cfg, store, docs := setup(t, testsupport.WithTelegram("http://127.0.0.1:1", "@news"))
	item := testsupport.NewItem(t, store, docs, "https://example.com/story", queue.StatusPostGenerated)
	path, err := docs.Path(item.PostRef)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	if err := os.Remove(path); err != nil {
		t.Fatalf("remove: %v", err)
	}
	delivery := &testsupport.RecordingDelivery{}
	if _, err := publishing.NewWithDependencies(cfg, store, docs, logging.NewNop(), delivery, nil).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	updated, _ := store.GetByID(context.Background(), item.ID)
	if updated.Status != queue.StatusPublishFailed || len(delivery.Sent()) != 0 {
		t.Fatalf("unexpected state %+v sent=%d", updated, len(delivery.Sent()))
	}
}
