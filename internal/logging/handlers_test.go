package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func jsonSink(buf *bytes.Buffer, level slog.Level) slog.Handler {
	return slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: level})
}

func TestFanoutCollapsesNilSinks(t *testing.T) {
	if _, ok := newFanoutHandler(nil, nil).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler when every sink is nil")
	}
	var buf bytes.Buffer
	only := jsonSink(&buf, slog.LevelInfo)
	if got := newFanoutHandler(nil, only, nil); got != only {
		t.Fatalf("expected the single sink unwrapped, got %T", got)
	}
}

func TestFanoutRoutesByLevel(t *testing.T) {
	var console, file bytes.Buffer
	logger := slog.New(newFanoutHandler(jsonSink(&console, slog.LevelInfo), jsonSink(&file, slog.LevelDebug)))

	logger.Debug("fetch skipped", slog.String(FieldStage, "fetching"))
	if console.Len() != 0 {
		t.Fatalf("info sink received a debug record: %s", console.String())
	}
	if !strings.Contains(file.String(), `"stage":"fetching"`) {
		t.Fatalf("debug sink missing record: %s", file.String())
	}

	logger.With(slog.Int64(FieldItemID, 7)).WithGroup("llm").Info("summary stored", slog.Int("tokens", 120))
	for name, buf := range map[string]*bytes.Buffer{"console": &console, "file": &file} {
		out := buf.String()
		if !strings.Contains(out, `"item_id":7`) || !strings.Contains(out, `"llm":{"tokens":120}`) {
			t.Fatalf("%s sink missing attrs or group: %s", name, out)
		}
	}
}

type failingHandler struct{ NoopHandler }

func (failingHandler) Enabled(context.Context, slog.Level) bool { return true }

func (failingHandler) Handle(context.Context, slog.Record) error { return errors.New("disk full") }

func TestFanoutKeepsWritingAfterSinkError(t *testing.T) {
	var buf bytes.Buffer
	h := newFanoutHandler(failingHandler{}, jsonSink(&buf, slog.LevelInfo))
	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "published", 0))
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("expected sink error, got %v", err)
	}
	if !strings.Contains(buf.String(), "published") {
		t.Fatal("expected healthy sink to receive the record")
	}
}

func TestStampHandlerAddsSessionID(t *testing.T) {
	var buf bytes.Buffer
	h := newStampHandler(jsonSink(&buf, slog.LevelInfo), slog.String(FieldSessionID, "run-1"))
	slog.New(h).With(slog.String(FieldComponent, "daemon")).Info("started")

	out := buf.String()
	if !strings.Contains(out, `"session_id":"run-1"`) || !strings.Contains(out, `"component":"daemon"`) {
		t.Fatalf("unexpected output %s", out)
	}
	if _, ok := newStampHandler(nil, slog.String(FieldSessionID, "x")).(NoopHandler); !ok {
		t.Fatal("expected NoopHandler for nil base")
	}
}

func TestArrangeConsoleFields(t *testing.T) {
	attrs := []kv{
		{key: "tokens", value: slog.IntValue(10)},
		{key: FieldCorrelationID, value: slog.StringValue("c-1")},
		{key: FieldURL, value: slog.StringValue("https://example.com")},
		{key: FieldStage, value: slog.StringValue("cleaning")},
		{key: FieldItemID, value: slog.Int64Value(3)},
	}

	keys := func(list []kv) string {
		names := make([]string, 0, len(list))
		for _, entry := range list {
			names = append(names, entry.key)
		}
		return strings.Join(names, ",")
	}

	if got := keys(arrangeConsoleFields(attrs, false)); got != "stage,item_id,url,tokens" {
		t.Fatalf("unexpected order %q", got)
	}
	if got := keys(arrangeConsoleFields(attrs, true)); got != "stage,item_id,url,tokens,correlation_id" {
		t.Fatalf("unexpected verbose order %q", got)
	}
}

func TestFormatConsoleValue(t *testing.T) {
	if got := formatConsoleValue("elapsed", slog.DurationValue(1234567*time.Microsecond)); got != "1.23s" {
		t.Fatalf("duration = %q", got)
	}
	long := strings.Repeat("x", consoleValueLimit+50)
	if got := formatConsoleValue("error", slog.StringValue(long)); len(got) > consoleValueLimit+len("…") {
		t.Fatalf("expected truncation, got %d bytes", len(got))
	}
	if got := formatConsoleValue(FieldURL, slog.StringValue("a b")); got != `"a b"` {
		t.Fatalf("expected quoting, got %q", got)
	}
}
