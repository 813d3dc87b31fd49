package queue

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
)

// Insert adds an item unless its source URL is already stored. The boolean
// result is false when the URL already existed; that case is not an error.
func (s *Store) Insert(ctx context.Context, in NewItem) (*Item, bool, error) {
	ctx = ensureContext(ctx)
	sourceURL := strings.TrimSpace(in.SourceURL)
	if sourceURL == "" {
		return nil, false, errors.New("insert item: source url is required")
	}
	status := in.Status
	if status == "" {
		status = StatusDiscovered
	}
	switch status {
	case StatusDiscovered:
	case StatusRawFetched:
		if strings.TrimSpace(in.RawRef) == "" {
			return nil, false, errors.New("insert item: raw_fetched requires a raw ref")
		}
	default:
		return nil, false, fmt.Errorf("insert item: %w: cannot insert in status %q", ErrInvalidTransition, status)
	}

	now := formatTime(s.clock())
	insert := psql.Insert("items").
		Columns("source_url", "title", "source_name", "published_at", "status", "raw_ref", "created_at", "updated_at").
		Values(sourceURL, in.Title, in.SourceName, nullableTime(in.PublishedAt), string(status), nullableString(in.RawRef), now, now).
		Suffix("ON CONFLICT(source_url) DO NOTHING")

	res, err := s.execBuilder(ctx, insert)
	if err != nil {
		return nil, false, fmt.Errorf("insert item: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, false, fmt.Errorf("insert item rows affected: %w", err)
	}
	if affected == 0 {
		return nil, false, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, false, fmt.Errorf("insert item id: %w", err)
	}
	item, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return item, true, nil
}

// GetByID fetches an item by identifier. It returns nil, nil when absent.
func (s *Store) GetByID(ctx context.Context, id int64) (*Item, error) {
	return s.getOne(ctx, sq.Eq{"id": id})
}

// GetByURL fetches an item by source URL. It returns nil, nil when absent.
func (s *Store) GetByURL(ctx context.Context, sourceURL string) (*Item, error) {
	return s.getOne(ctx, sq.Eq{"source_url": strings.TrimSpace(sourceURL)})
}

// Exists reports whether a source URL is already stored.
func (s *Store) Exists(ctx context.Context, sourceURL string) (bool, error) {
	query, args, err := psql.Select("COUNT(1)").From("items").
		Where(sq.Eq{"source_url": strings.TrimSpace(sourceURL)}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build exists query: %w", err)
	}
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("check item exists: %w", err)
	}
	return count > 0, nil
}

func (s *Store) getOne(ctx context.Context, where sq.Sqlizer) (*Item, error) {
	query, args, err := psql.Select(itemColumns...).From("items").Where(where).Limit(1).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build item query: %w", err)
	}
	item, err := scanItem(s.db.QueryRowContext(ensureContext(ctx), query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// ItemsByStatus returns items matching the filter. Without NewestFirst the
// order is oldest first, which is the order stages process work in. The
// read has no side effects.
func (s *Store) ItemsByStatus(ctx context.Context, filter Filter) ([]*Item, error) {
	if len(filter.Statuses) == 0 {
		return nil, errors.New("items by status: at least one status is required")
	}
	q := psql.Select(itemColumns...).From("items").
		Where(sq.Eq{"status": statusArgs(filter.Statuses)})
	if !filter.Since.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": formatTime(filter.Since)})
	}
	if filter.NewestFirst {
		q = q.OrderBy("created_at DESC", "id DESC")
	} else {
		q = q.OrderBy("created_at ASC", "id ASC")
	}
	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	return s.queryItems(ctx, q)
}

// List returns items in the provided statuses, or every item when none are given.
func (s *Store) List(ctx context.Context, statuses ...Status) ([]*Item, error) {
	q := psql.Select(itemColumns...).From("items").OrderBy("id")
	if len(statuses) > 0 {
		q = q.Where(sq.Eq{"status": statusArgs(statuses)})
	}
	return s.queryItems(ctx, q)
}

func (s *Store) queryItems(ctx context.Context, q sq.SelectBuilder) ([]*Item, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	var items []*Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}

// Stats returns item counts per status. Statuses with no items are absent.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	query, args, err := psql.Select("status", "COUNT(*)").From("items").GroupBy("status").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build stats query: %w", err)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("query stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		stats[Status(status)] = count
	}
	return stats, rows.Err()
}

// SetClock overrides the time source used for created_at and updated_at.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

func (s *Store) clock() time.Time {
	if s.now != nil {
		return s.now()
	}
	return time.Now()
}
