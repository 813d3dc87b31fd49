package logging

import (
	"log/slog"
	"time"
)

// consoleLeadKeys are printed first, in this order, so a stage line reads
// "stage item status url" before anything else.
var consoleLeadKeys = []string{
	FieldStage,
	FieldItemID,
	FieldStatus,
	FieldURL,
	FieldEventType,
	"error",
	FieldErrorHint,
	FieldImpact,
}

const consoleValueLimit = 200

// arrangeConsoleFields orders attributes for the console handler. Lead keys
// come first, the rest keep their logged order. Correlation and session
// identifiers are only shown when verbose is set; they always reach the
// JSON file.
func arrangeConsoleFields(attrs []kv, verbose bool) []kv {
	out := make([]kv, 0, len(attrs))
	used := make([]bool, len(attrs))
	for _, key := range consoleLeadKeys {
		for i, attr := range attrs {
			if !used[i] && attr.key == key {
				used[i] = true
				out = append(out, attr)
				break
			}
		}
	}
	for i, attr := range attrs {
		if used[i] || attr.key == "" {
			continue
		}
		if !verbose && isTraceKey(attr.key) {
			continue
		}
		out = append(out, attr)
	}
	return out
}

func isTraceKey(key string) bool {
	switch key {
	case FieldCorrelationID, FieldSessionID:
		return true
	}
	return false
}

// formatConsoleValue renders one attribute for a console line. Durations are
// rounded and long values such as LLM error bodies are cut short.
func formatConsoleValue(key string, v slog.Value) string {
	v = v.Resolve()
	if v.Kind() == slog.KindDuration {
		return roundDuration(v.Duration()).String()
	}
	s := formatValue(v)
	if len(s) > consoleValueLimit && key != FieldErrorHint {
		s = s[:consoleValueLimit] + "…"
	}
	return s
}

func roundDuration(d time.Duration) time.Duration {
	switch {
	case d >= time.Minute:
		return d.Round(time.Second)
	case d >= time.Second:
		return d.Round(10 * time.Millisecond)
	default:
		return d.Round(time.Millisecond)
	}
}
