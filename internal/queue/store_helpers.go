package queue

import (
	"database/sql"
	"time"
)

var itemColumns = []string{
	"id",
	"source_url",
	"title",
	"source_name",
	"published_at",
	"status",
	"raw_ref",
	"cleaned_ref",
	"post_ref",
	"last_error",
	"created_at",
	"updated_at",
}

func scanItem(scanner interface{ Scan(dest ...any) error }) (*Item, error) {
	var (
		id          int64
		sourceURL   string
		title       sql.NullString
		sourceName  sql.NullString
		publishedAt sql.NullString
		statusStr   string
		rawRef      sql.NullString
		cleanedRef  sql.NullString
		postRef     sql.NullString
		lastError   sql.NullString
		createdRaw  sql.NullString
		updatedRaw  sql.NullString
	)

	if err := scanner.Scan(
		&id,
		&sourceURL,
		&title,
		&sourceName,
		&publishedAt,
		&statusStr,
		&rawRef,
		&cleanedRef,
		&postRef,
		&lastError,
		&createdRaw,
		&updatedRaw,
	); err != nil {
		return nil, err
	}

	item := &Item{
		ID:         id,
		SourceURL:  sourceURL,
		Title:      title.String,
		SourceName: sourceName.String,
		Status:     Status(statusStr),
		RawRef:     rawRef.String,
		CleanedRef: cleanedRef.String,
		PostRef:    postRef.String,
		LastError:  lastError.String,
	}
	if publishedAt.Valid {
		if ts, err := parseTimeString(publishedAt.String); err == nil {
			item.PublishedAt = ts
		}
	}
	if created, err := parseTimeString(createdRaw.String); err == nil {
		item.CreatedAt = created
	}
	if updated, err := parseTimeString(updatedRaw.String); err == nil {
		item.UpdatedAt = updated
	}
	return item, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}

func nullableTime(value time.Time) any {
	if value.IsZero() {
		return nil
	}
	return formatTime(value)
}

func formatTime(value time.Time) string {
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	if ts, err := time.Parse(timeLayout, value); err == nil {
		return ts, nil
	}
	return time.Parse(time.RFC3339Nano, value)
}

func statusArgs(statuses []Status) []string {
	out := make([]string, 0, len(statuses))
	for _, status := range statuses {
		out = append(out, string(status))
	}
	return out
}
