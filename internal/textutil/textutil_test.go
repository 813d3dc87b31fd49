package textutil_test

import (
	"strings"
	"testing"

	"pressline/internal/textutil"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"Hello, World!", 50, "hello-world"},
		{"Café Crème brûlée", 50, "cafe-creme-brulee"},
		{"  --Go 1.26 released--  ", 50, "go-1-26-released"},
		{"a very long title indeed", 10, "a-very-lon"},
		{"cut at dash here", 7, "cut-at"},
		{"!!!", 20, ""},
	}
	for _, tt := range tests {
		if got := textutil.Slug(tt.in, tt.max); got != tt.want {
			t.Fatalf("Slug(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestTruncateIsDeterministic(t *testing.T) {
	input := strings.Repeat("ä漢x", 1000)
	first, cut := textutil.Truncate(input, 1001)
	if !cut {
		t.Fatal("expected truncation")
	}
	second, _ := textutil.Truncate(input, 1001)
	if first != second {
		t.Fatal("truncation differs between runs")
	}
	if got := len([]rune(first)); got != 1001 {
		t.Fatalf("expected 1001 runes, got %d", got)
	}
	if !strings.HasPrefix(input, first) {
		t.Fatal("truncated text must be a prefix of the input")
	}
}

func TestTruncateShortInputUntouched(t *testing.T) {
	got, cut := textutil.Truncate("short", 10)
	if cut || got != "short" {
		t.Fatalf("unexpected truncate result %q %v", got, cut)
	}
	got, cut = textutil.Truncate("unbounded", 0)
	if cut || got != "unbounded" {
		t.Fatalf("max<=0 should disable truncation, got %q %v", got, cut)
	}
}
