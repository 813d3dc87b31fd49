package logs_test

import (
	"strings"
	"testing"

	"pressline/internal/logs"
)

var sampleLines = []string{
	`{"ts":"2026-01-02T03:04:05Z","level":"info","msg":"cycle started","component":"workflow","correlation_id":"abc123"}`,
	`{"ts":"2026-01-02T03:04:06Z","level":"debug","msg":"prompt sent","stage":"cleaning","item_id":7,"correlation_id":"abc123"}`,
	`{"ts":"2026-01-02T03:04:07Z","level":"error","msg":"item failed","stage":"cleaning","item_id":8,"error":"boom","correlation_id":"abc123"}`,
	`not json`,
}

func TestFilterByStageAndItem(t *testing.T) {
	got := logs.Filter{Stage: "Cleaning", ItemID: 8}.Apply(sampleLines)
	if len(got) != 1 || !strings.Contains(got[0], "item failed") {
		t.Fatalf("unexpected lines: %#v", got)
	}
}

func TestFilterByLevel(t *testing.T) {
	got := logs.Filter{MinLevel: "info"}.Apply(sampleLines)
	if len(got) != 2 {
		t.Fatalf("expected info and error lines, got %#v", got)
	}
}

func TestFilterByCyclePrefix(t *testing.T) {
	if got := (logs.Filter{Cycle: "abc"}).Apply(sampleLines); len(got) != 3 {
		t.Fatalf("expected three cycle lines, got %d", len(got))
	}
	if got := (logs.Filter{Cycle: "zzz"}).Apply(sampleLines); len(got) != 0 {
		t.Fatalf("expected no lines, got %d", len(got))
	}
}

func TestEmptyFilterPassesEverything(t *testing.T) {
	if got := (logs.Filter{}).Apply(sampleLines); len(got) != len(sampleLines) {
		t.Fatalf("expected all lines, got %d", len(got))
	}
}

func TestFormatRecord(t *testing.T) {
	rec, ok := logs.Parse(sampleLines[2])
	if !ok {
		t.Fatal("expected JSON line to parse")
	}
	got := logs.Format(rec)
	want := "2026-01-02T03:04:07Z ERROR [cleaning] #8 item failed error=boom"
	if got != want {
		t.Fatalf("Format = %q, want %q", got, want)
	}
	if _, ok := logs.Parse("not json"); ok {
		t.Fatal("expected plain text to be rejected")
	}
}
