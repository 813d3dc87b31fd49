package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pressline/internal/config"
)

const userAgent = "pressline/1.0"

// Event names a notification type.
type Event string

const (
	EventPostPublished  Event = "post_published"
	EventCycleCompleted Event = "cycle_completed"
	EventStageError     Event = "stage_error"
	EventTest           Event = "test"
)

// Payload carries event fields. Keys are event specific.
type Payload map[string]any

// Service defines the notification surface exposed to workflow components.
type Service interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

// Publish formats and sends event. Events that do not warrant a push, such
// as a cycle that finished without failures, are dropped silently.
func (n *ntfyService) Publish(ctx context.Context, event Event, payload Payload) error {
	msg, ok := format(event, payload)
	if !ok {
		return nil
	}
	return n.send(ctx, msg)
}

func format(event Event, payload Payload) (message, bool) {
	switch event {
	case EventPostPublished:
		title := payload.text("title")
		body := fmt.Sprintf("📣 Published: %s", title)
		if dest := payload.text("destination"); dest != "" {
			body = fmt.Sprintf("%s\nTo: %s", body, dest)
		}
		return message{
			title: "Pressline - Published",
			body:  body,
			tags:  []string{"pressline", "publish", "completed"},
		}, true
	case EventCycleCompleted:
		failed := payload.number("failed")
		if failed == 0 {
			return message{}, false
		}
		duration := time.Duration(payload.number("duration_ms")) * time.Millisecond
		return message{
			title: "Pressline - Cycle Complete (with errors)",
			body: fmt.Sprintf("Cycle %s: %d succeeded, %d failed in %s",
				payload.text("cycle_id"), payload.number("succeeded"), failed, duration.Round(time.Second)),
			tags: []string{"pressline", "cycle", "failures"},
		}, true
	case EventStageError:
		var b strings.Builder
		b.WriteString("❌ Error")
		if stage := payload.text("stage"); stage != "" {
			b.WriteString(" in ")
			b.WriteString(stage)
		}
		b.WriteString(": ")
		if errText := payload.text("error"); errText != "" {
			b.WriteString(errText)
		} else {
			b.WriteString("unknown")
		}
		return message{
			title:    "Pressline - Error",
			body:     b.String(),
			tags:     []string{"pressline", "error", "alert"},
			priority: "high",
		}, true
	case EventTest:
		return message{
			title:    "Pressline - Test",
			body:     "🧪 Notification system test",
			tags:     []string{"pressline", "test"},
			priority: "low",
		}, true
	}
	return message{}, false
}

func (p Payload) text(key string) string {
	if p == nil {
		return ""
	}
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case error:
		return strings.TrimSpace(v.Error())
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}

func (p Payload) number(key string) int64 {
	if p == nil {
		return 0
	}
	switch v := p[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case time.Duration:
		return int64(v)
	}
	return 0
}

func (n *ntfyService) send(ctx context.Context, data message) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) Publish(context.Context, Event, Payload) error { return nil }
