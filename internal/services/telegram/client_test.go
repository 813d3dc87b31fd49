package telegram_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"pressline/internal/config"
	"pressline/internal/services"
	"pressline/internal/services/telegram"
)

func TestSendPostsForm(t *testing.T) {
	var (
		path string
		form map[string]string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		if err := r.ParseForm(); err != nil {
			t.Errorf("parse form: %v", err)
		}
		form = map[string]string{
			"chat_id":                  r.PostForm.Get("chat_id"),
			"text":                     r.PostForm.Get("text"),
			"parse_mode":               r.PostForm.Get("parse_mode"),
			"disable_web_page_preview": r.PostForm.Get("disable_web_page_preview"),
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer server.Close()

	client := telegram.NewClient(config.Telegram{
		BotToken:              "123:abc",
		BaseURL:               server.URL,
		ParseMode:             "HTML",
		DisableWebPagePreview: true,
	})
	if err := client.Send(context.Background(), "@channel", "<b>Post</b>"); err != nil {
		t.Fatalf("Send: %v", err)
	}
	if path != "/bot123:abc/sendMessage" {
		t.Fatalf("unexpected path %q", path)
	}
	if form["chat_id"] != "@channel" || form["text"] != "<b>Post</b>" || form["parse_mode"] != "HTML" || form["disable_web_page_preview"] != "true" {
		t.Fatalf("unexpected form %#v", form)
	}
}

func TestSendRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":12}}`))
	}))
	defer server.Close()

	client := telegram.NewClient(config.Telegram{BotToken: "t", BaseURL: server.URL})
	err := client.Send(context.Background(), "1", "x")
	if !errors.Is(err, services.ErrRateLimit) {
		t.Fatalf("expected rate limit, got %v", err)
	}
	if !strings.Contains(err.Error(), "retry after 12s") {
		t.Fatalf("expected retry hint, got %q", err.Error())
	}
}

func TestSendAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer server.Close()

	client := telegram.NewClient(config.Telegram{BotToken: "t", BaseURL: server.URL})
	err := client.Send(context.Background(), "1", "x")
	if !errors.Is(err, services.ErrExternalTool) || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestSendRequiresCredentials(t *testing.T) {
	client := telegram.NewClient(config.Telegram{})
	if err := client.Send(context.Background(), "1", "x"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if client.Configured() {
		t.Fatal("client without token should not be configured")
	}
}
