package fetching

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pressline/internal/batch"
	"pressline/internal/config"
	"pressline/internal/document"
	"pressline/internal/logging"
	"pressline/internal/queue"
	"pressline/internal/services"
	"pressline/internal/services/feeds"
	"pressline/internal/stage"
)

const stageName = "fetching"

// Source is the feed and download collaborator.
type Source interface {
	Entries(ctx context.Context, feed config.Feed) ([]feeds.Entry, error)
	Download(ctx context.Context, pageURL string) (feeds.Page, error)
}

// Fetcher is the fetch stage processor.
type Fetcher struct {
	cfg    *config.Config
	store  *queue.Store
	docs   *document.Store
	source Source
	logger *slog.Logger
}

// New constructs the fetcher with the HTTP feed client.
func New(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger) *Fetcher {
	return NewWithDependencies(cfg, store, docs, logger, feeds.NewClient(cfg.Fetch))
}

// NewWithDependencies allows injecting the source (used in tests).
func NewWithDependencies(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger, source Source) *Fetcher {
	return &Fetcher{
		cfg:    cfg,
		store:  store,
		docs:   docs,
		source: source,
		logger: logging.NewComponentLogger(logger, stageName),
	}
}

func (f *Fetcher) Name() string { return stageName }

// target is either a new feed entry or an existing discovered item.
type target struct {
	entry feeds.Entry
	item  *queue.Item
}

// Run polls every feed, then downloads new entries and discovered items.
func (f *Fetcher) Run(ctx context.Context) (stage.Report, error) {
	started := time.Now()
	ctx = services.WithStage(ctx, stageName)

	pending, err := f.store.ItemsByStatus(ctx, queue.Filter{Statuses: []queue.Status{queue.StatusDiscovered}})
	if err != nil {
		return stage.Report{Stage: stageName, Started: started, Finished: time.Now()},
			services.Wrap(services.ErrTransient, stageName, "select discovered items", "", err)
	}
	targets := make([]target, 0, len(pending))
	for _, item := range pending {
		targets = append(targets, target{item: item})
	}

	entries, known, feedErrors, err := f.collect(ctx)
	if err != nil {
		return stage.Report{Stage: stageName, Started: started, Finished: time.Now()}, err
	}
	for _, e := range entries {
		targets = append(targets, target{entry: e})
	}

	if len(targets) > 0 {
		f.logger.Info("downloading pages",
			logging.String(logging.FieldEventType, "stage_batch_start"),
			logging.Int("new_entries", len(entries)),
			logging.Int("rediscovered", len(pending)),
			logging.Int("already_known", known),
		)
	}
	outcomes := batch.Run(ctx, batch.Schedule{Size: f.cfg.Fetch.Concurrency}, targets, f.fetchTarget)
	report := stage.NewReport(stageName, started, outcomes)
	report.Note = fmt.Sprintf("%d feeds, %d failed, %d known entries skipped", len(f.cfg.Feeds), feedErrors, known)
	return report, nil
}

// collect reads every feed and returns the entries not yet in the work
// store. A feed that cannot be read is logged and skipped.
func (f *Fetcher) collect(ctx context.Context) ([]feeds.Entry, int, int, error) {
	var (
		out        []feeds.Entry
		known      int
		feedErrors int
		seen       = make(map[string]struct{})
	)
	logger := logging.WithContext(ctx, f.logger)
	for _, feed := range f.cfg.Feeds {
		if ctx.Err() != nil {
			break
		}
		entries, err := f.source.Entries(ctx, feed)
		if err != nil {
			feedErrors++
			logging.ErrorWithContext(logger, "feed could not be read", "feed_failed",
				logging.String("feed", feed.Name),
				logging.String(logging.FieldURL, feed.URL),
				logging.String(logging.FieldErrorHint, "check the feed URL; other feeds are unaffected"),
				logging.Error(err),
			)
			continue
		}
		for _, e := range entries {
			e.URL = strings.TrimSpace(e.URL)
			if e.URL == "" {
				continue
			}
			if _, dup := seen[e.URL]; dup {
				continue
			}
			seen[e.URL] = struct{}{}
			exists, err := f.store.Exists(ctx, e.URL)
			if err != nil {
				return nil, 0, 0, services.Wrap(services.ErrTransient, stageName, "check entry", e.URL, err)
			}
			if exists {
				known++
				continue
			}
			if e.SourceName == "" {
				e.SourceName = feed.Name
			}
			out = append(out, e)
		}
		logger.Debug("feed read", logging.String("feed", feed.Name), logging.Int("entries", len(entries)))
	}
	return out, known, feedErrors, nil
}

func (f *Fetcher) fetchTarget(ctx context.Context, t target) stage.Outcome {
	if t.item != nil {
		return f.refetch(ctx, t.item)
	}
	return f.discover(ctx, t.entry)
}

// discover downloads a new entry and inserts it.
func (f *Fetcher) discover(ctx context.Context, e feeds.Entry) stage.Outcome {
	logger := logging.WithContext(ctx, f.logger).With(logging.String(logging.FieldURL, e.URL))
	page, err := f.source.Download(ctx, e.URL)
	if err != nil {
		item, inserted, insErr := f.store.Insert(ctx, queue.NewItem{
			SourceURL:   e.URL,
			Title:       e.Title,
			SourceName:  e.SourceName,
			PublishedAt: e.PublishedAt,
			Status:      queue.StatusDiscovered,
		})
		if insErr != nil {
			logging.ErrorWithContext(logger, "failed to record discovered item", "insert_failed", logging.Error(insErr))
			return stage.Outcome{URL: e.URL, Err: insErr}
		}
		if !inserted {
			return duplicate(logger, item, e.URL)
		}
		return f.recorder().Fail(ctx, item, queue.StatusFetchFailed, downloadError{err: err})
	}

	title := e.Title
	if title == "" {
		title = page.Title
	}
	ref := document.RawRef(e.URL)
	if err := f.docs.WriteRaw(ref, document.RawPage{URL: e.URL, Title: page.Title, RawHTML: page.HTML}); err != nil {
		logging.ErrorWithContext(logger, "failed to store raw page", "raw_write_failed",
			logging.String(logging.FieldErrorHint, "check data directory permissions; the entry is retried next cycle"),
			logging.Error(err),
		)
		return stage.Outcome{URL: e.URL, Err: err}
	}
	item, inserted, err := f.store.Insert(ctx, queue.NewItem{
		SourceURL:   e.URL,
		Title:       title,
		SourceName:  e.SourceName,
		PublishedAt: e.PublishedAt,
		Status:      queue.StatusRawFetched,
		RawRef:      ref,
	})
	if err != nil {
		logging.ErrorWithContext(logger, "failed to record fetched item", "insert_failed", logging.Error(err))
		return stage.Outcome{URL: e.URL, Err: err}
	}
	if !inserted {
		return duplicate(logger, item, e.URL)
	}
	logging.WithContext(services.WithItemID(ctx, item.ID), f.logger).Info("item fetched",
		logging.String(logging.FieldEventType, "item_fetched"),
		logging.String(logging.FieldURL, e.URL),
		logging.String("title", title),
	)
	return stage.Succeeded(item)
}

// refetch downloads the page of an item left in discovered.
func (f *Fetcher) refetch(ctx context.Context, item *queue.Item) stage.Outcome {
	rec := f.recorder()
	page, err := f.source.Download(ctx, item.SourceURL)
	if err != nil {
		return rec.Fail(ctx, item, queue.StatusFetchFailed, downloadError{err: err})
	}
	ref := document.RawRef(item.SourceURL)
	if err := f.docs.WriteRaw(ref, document.RawPage{URL: item.SourceURL, Title: page.Title, RawHTML: page.HTML}); err != nil {
		return rec.Fail(ctx, item, queue.StatusFetchFailed, services.Wrap(services.ErrTransient, stageName, "write raw page", "", err))
	}
	return rec.Advance(ctx, item, queue.Transition{To: queue.StatusRawFetched, RawRef: ref})
}

func (f *Fetcher) recorder() stage.Recorder {
	return stage.Recorder{Store: f.store, Logger: f.logger, Stage: stageName}
}

func duplicate(logger *slog.Logger, existing *queue.Item, url string) stage.Outcome {
	logger.Debug("entry inserted concurrently, skipping", logging.String(logging.FieldEventType, "duplicate_entry"))
	o := stage.Outcome{URL: url, Skipped: true}
	if existing != nil {
		o.ItemID = existing.ID
		o.Status = existing.Status
	}
	return o
}

// downloadError is persisted as "Download error: <cause>".
type downloadError struct {
	err error
}

func (e downloadError) Error() string {
	return "Download error: " + e.err.Error()
}

func (e downloadError) Unwrap() error { return e.err }

// HealthCheck verifies that feeds are configured.
func (f *Fetcher) HealthCheck(context.Context) stage.Health {
	switch {
	case f.cfg == nil:
		return stage.Unhealthy(stageName, "configuration unavailable")
	case f.source == nil:
		return stage.Unhealthy(stageName, "feed client unavailable")
	case len(f.cfg.Feeds) == 0:
		return stage.Unhealthy(stageName, "no feeds configured")
	}
	return stage.Healthy(stageName)
}
