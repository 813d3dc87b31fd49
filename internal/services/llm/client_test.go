package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"pressline/internal/services"
)

func completionServer(t *testing.T, content string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{
			"choices": []any{
				map[string]any{
					"message": map[string]any{
						"content": content,
					},
				},
			},
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Fatalf("encode response: %v", err)
		}
	}))
}

func TestCompleteSendsPromptAndHeaders(t *testing.T) {
	var got chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if auth := r.Header.Get("Authorization"); auth != "Bearer key" {
			t.Errorf("unexpected auth header %q", auth)
		}
		if title := r.Header.Get("X-Title"); title != "pressline" {
			t.Errorf("unexpected title header %q", title)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Hello world \n"}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo-model", Title: "pressline"})
	text, err := client.Complete(context.Background(), "Clean this")
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if text != "Hello world" {
		t.Fatalf("expected trimmed completion, got %q", text)
	}
	if got.Model != "demo-model" || len(got.Messages) != 1 || got.Messages[0].Content != "Clean this" {
		t.Fatalf("unexpected request %#v", got)
	}
	if got.ResponseFormat != nil {
		t.Fatalf("plain completions should not request JSON, got %#v", got.ResponseFormat)
	}
}

func TestCompleteRateLimit(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL, Model: "demo"})
	_, err := client.Complete(context.Background(), "prompt")
	if !IsRateLimit(err) {
		t.Fatalf("expected rate limit error, got %v", err)
	}
	if !errors.Is(err, services.ErrRateLimit) {
		t.Fatal("rate limit should match services.ErrRateLimit")
	}
	var llmErr *Error
	if !errors.As(err, &llmErr) || llmErr.RetryAfter != 30*time.Second {
		t.Fatalf("expected retry-after to be parsed, got %#v", llmErr)
	}
	if calls != 1 {
		t.Fatalf("client must not retry, got %d calls", calls)
	}
	if msg := services.FailureMessage(err); !strings.HasPrefix(msg, "Rate limit exceeded: ") {
		t.Fatalf("unexpected failure message %q", msg)
	}
}

func TestCompleteRateLimitInBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"quota","code":429}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	if _, err := client.Complete(context.Background(), "prompt"); !IsRateLimit(err) {
		t.Fatalf("expected rate limit from error body, got %v", err)
	}
}

func TestCompleteEmptyIsSoft(t *testing.T) {
	server := completionServer(t, "   ")
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), "prompt")
	if !IsEmpty(err) {
		t.Fatalf("expected empty error, got %v", err)
	}
	if !services.IsSoft(err) {
		t.Fatal("empty completion should be a soft failure")
	}
}

func TestCompleteHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte("upstream down"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), "prompt")
	if err == nil || IsRateLimit(err) || services.IsSoft(err) {
		t.Fatalf("expected hard http error, got %v", err)
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected ErrExternalTool marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "http 502") {
		t.Fatalf("expected status in message, got %q", err.Error())
	}
}

func TestCompleteRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Complete(context.Background(), "prompt")
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestCompleteToolCallArguments(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[{"finish_reason":"tool_calls","message":{"content":"","tool_calls":[{"type":"function","function":{"name":"x","arguments":"from tool"}}]}}]}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "key", BaseURL: server.URL})
	text, err := client.Complete(context.Background(), "prompt")
	if err != nil || text != "from tool" {
		t.Fatalf("expected tool call arguments, got %q %v", text, err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := completionServer(t, "```json\n{\"ok\":true}\n```")
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	if err := client.HealthCheck(context.Background()); err == nil {
		t.Fatal("expected health check to fail")
	}
}

func TestDecodeLLMJSONExtractsObject(t *testing.T) {
	var out struct {
		OK bool `json:"ok"`
	}
	if err := DecodeLLMJSON("Sure! {\"ok\": true} hope that helps", &out); err != nil || !out.OK {
		t.Fatalf("DecodeLLMJSON = %v, %#v", err, out)
	}
}
