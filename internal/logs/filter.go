package logs

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"pressline/internal/logging"
)

var levelRank = map[string]int{"debug": 0, "info": 1, "warn": 2, "error": 3}

// Filter selects JSON log records. Zero fields match everything.
type Filter struct {
	MinLevel string
	Stage    string
	ItemID   int64
	Cycle    string
}

// Empty reports whether the filter would pass every line.
func (f Filter) Empty() bool {
	return f.MinLevel == "" && f.Stage == "" && f.ItemID == 0 && f.Cycle == ""
}

// Record is the subset of a log line that filtering and rendering need.
type Record struct {
	Time      string
	Level     string
	Message   string
	Component string
	Stage     string
	ItemID    int64
	Cycle     string
	Fields    map[string]any
}

// Parse decodes one JSON log line. Lines that are not JSON objects report ok=false.
func Parse(line string) (Record, bool) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return Record{}, false
	}
	rec := Record{
		Time:      stringField(raw, "ts"),
		Level:     strings.ToLower(stringField(raw, "level")),
		Message:   stringField(raw, "msg"),
		Component: stringField(raw, logging.FieldComponent),
		Stage:     stringField(raw, logging.FieldStage),
		Cycle:     stringField(raw, logging.FieldCorrelationID),
		Fields:    make(map[string]any),
	}
	if v, ok := raw[logging.FieldItemID].(float64); ok {
		rec.ItemID = int64(v)
	}
	for key, value := range raw {
		switch key {
		case "ts", "level", "msg", logging.FieldComponent, logging.FieldStage, logging.FieldItemID, logging.FieldCorrelationID:
			continue
		}
		rec.Fields[key] = value
	}
	return rec, true
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec Record) bool {
	if f.MinLevel != "" {
		want, ok := levelRank[strings.ToLower(f.MinLevel)]
		if ok && levelRank[rec.Level] < want {
			return false
		}
	}
	if f.Stage != "" && !strings.EqualFold(rec.Stage, f.Stage) {
		return false
	}
	if f.ItemID != 0 && rec.ItemID != f.ItemID {
		return false
	}
	if f.Cycle != "" && !strings.HasPrefix(rec.Cycle, f.Cycle) {
		return false
	}
	return true
}

// Apply filters raw lines. Non-JSON lines only pass an empty filter.
func (f Filter) Apply(lines []string) []string {
	if f.Empty() {
		return lines
	}
	out := lines[:0:0]
	for _, line := range lines {
		rec, ok := Parse(line)
		if ok && f.Match(rec) {
			out = append(out, line)
		}
	}
	return out
}

// Format renders a record as a single human-readable line.
func Format(rec Record) string {
	var b strings.Builder
	if rec.Time != "" {
		b.WriteString(rec.Time)
		b.WriteByte(' ')
	}
	fmt.Fprintf(&b, "%-5s ", strings.ToUpper(rec.Level))
	if rec.Stage != "" {
		b.WriteString("[" + rec.Stage + "] ")
	} else if rec.Component != "" {
		b.WriteString("[" + rec.Component + "] ")
	}
	if rec.ItemID != 0 {
		b.WriteString("#" + strconv.FormatInt(rec.ItemID, 10) + " ")
	}
	b.WriteString(rec.Message)
	for _, key := range slices.Sorted(maps.Keys(rec.Fields)) {
		fmt.Fprintf(&b, " %s=%v", key, rec.Fields[key])
	}
	return b.String()
}

func stringField(raw map[string]any, key string) string {
	if v, ok := raw[key].(string); ok {
		return v
	}
	return ""
}
