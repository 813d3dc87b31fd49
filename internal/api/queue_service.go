package api

import (
	"context"
	"unicode/utf8"

	"pressline/internal/document"
	"pressline/internal/queue"
)

// QueueReader abstracts the work store reads needed for API queries.
type QueueReader interface {
	List(ctx context.Context, statuses ...queue.Status) ([]*queue.Item, error)
	Stats(ctx context.Context) (map[queue.Status]int, error)
	GetByID(ctx context.Context, id int64) (*queue.Item, error)
}

// DocumentReader abstracts document reads.
type DocumentReader interface {
	Read(ref string) (document.Record, error)
}

// QueueService exposes read-only work store operations returning API DTOs.
type QueueService struct {
	store QueueReader
	docs  DocumentReader
}

// NewQueueService constructs a QueueService around the provided readers.
// docs may be nil, in which case Describe omits documents.
func NewQueueService(store QueueReader, docs DocumentReader) *QueueService {
	if store == nil {
		return nil
	}
	return &QueueService{store: store, docs: docs}
}

// List returns items filtered by status.
func (s *QueueService) List(ctx context.Context, statuses ...queue.Status) ([]Item, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	items, err := s.store.List(ctx, statuses...)
	if err != nil {
		return nil, err
	}
	return FromQueueItems(items), nil
}

// Stats returns item counts keyed by status string.
func (s *QueueService) Stats(ctx context.Context) (map[string]int, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	stats, err := s.store.Stats(ctx)
	if err != nil {
		return nil, err
	}
	return MergeQueueStats(stats), nil
}

// Describe fetches a single item with the front matter of its documents.
// It returns nil, nil when the item does not exist. A document that cannot
// be read is listed with its error instead of failing the call.
func (s *QueueService) Describe(ctx context.Context, id int64) (*ItemDetail, error) {
	if s == nil || s.store == nil {
		return nil, nil
	}
	item, err := s.store.GetByID(ctx, id)
	if err != nil || item == nil {
		return nil, err
	}
	detail := &ItemDetail{Item: FromQueueItem(item)}
	if s.docs == nil {
		return detail, nil
	}
	for _, ref := range []string{item.CleanedRef, item.PostRef} {
		if ref == "" {
			continue
		}
		detail.Documents = append(detail.Documents, s.describeDocument(ref))
	}
	return detail, nil
}

func (s *QueueService) describeDocument(ref string) Document {
	rec, err := s.docs.Read(ref)
	if err != nil {
		return Document{Ref: ref, Error: err.Error()}
	}
	return Document{
		Ref:     ref,
		Kind:    rec.Meta.Kind,
		Status:  rec.Meta.Status,
		Summary: rec.Meta.Summary,
		Chars:   utf8.RuneCountInString(rec.Body),
	}
}
