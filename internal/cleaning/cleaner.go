package cleaning

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"pressline/internal/batch"
	"pressline/internal/config"
	"pressline/internal/document"
	"pressline/internal/logging"
	"pressline/internal/queue"
	"pressline/internal/services"
	"pressline/internal/services/llm"
	"pressline/internal/stage"
	"pressline/internal/textutil"
)

const stageName = "cleaning"

// Cleaner is the cleaning stage processor.
type Cleaner struct {
	cfg       *config.Config
	store     *queue.Store
	docs      *document.Store
	generator stage.Generator
	logger    *slog.Logger
	schedule  batch.Schedule
}

// New constructs the cleaner with the configured LLM client.
func New(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger) *Cleaner {
	client := llm.NewClient(llm.FromConfig(cfg.StageLLM(stageName)))
	return NewWithDependencies(cfg, store, docs, logger, client)
}

// NewWithDependencies allows injecting the generator (used in tests).
func NewWithDependencies(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger, generator stage.Generator) *Cleaner {
	return &Cleaner{
		cfg:       cfg,
		store:     store,
		docs:      docs,
		generator: generator,
		logger:    logging.NewComponentLogger(logger, stageName),
		schedule: batch.Schedule{
			Size:     cfg.Clean.BatchSize,
			Cooldown: time.Duration(cfg.Clean.CooldownSeconds) * time.Second,
		},
	}
}

// SetSchedule overrides the batch schedule.
func (c *Cleaner) SetSchedule(s batch.Schedule) {
	c.schedule = s
}

// Name identifies the stage.
func (c *Cleaner) Name() string { return stageName }

// Run cleans every raw_fetched item.
func (c *Cleaner) Run(ctx context.Context) (stage.Report, error) {
	started := time.Now()
	items, err := c.store.ItemsByStatus(ctx, queue.Filter{Statuses: []queue.Status{queue.StatusRawFetched}})
	if err != nil {
		return stage.Report{Stage: stageName, Started: started, Finished: time.Now()},
			services.Wrap(services.ErrTransient, stageName, "select items", "", err)
	}
	if len(items) == 0 {
		c.logger.Debug("no items to clean")
		return stage.NewReport(stageName, started, nil), nil
	}
	c.logger.Info("cleaning items",
		logging.String(logging.FieldEventType, "stage_batch_start"),
		logging.Int("count", len(items)),
		logging.Int("batch_size", c.schedule.Size),
	)
	outcomes := batch.Run(ctx, c.schedule, items, c.cleanItem)
	return stage.NewReport(stageName, started, outcomes), nil
}

func (c *Cleaner) recorder() stage.Recorder {
	return stage.Recorder{Store: c.store, Logger: c.logger, Stage: stageName}
}

func (c *Cleaner) cleanItem(ctx context.Context, item *queue.Item) stage.Outcome {
	rec := c.recorder()
	ctx, logger := rec.ItemContext(ctx, item)

	page, err := c.docs.ReadRaw(item.RawRef)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, document.ErrNotFound) {
			marker = services.ErrNotFound
		}
		return rec.Fail(ctx, item, queue.StatusCleaningFailed, services.Wrap(marker, stageName, "read raw page", "", err))
	}

	html, truncated := textutil.Truncate(page.RawHTML, c.cfg.Clean.MaxInputChars)
	if truncated {
		logger.Debug("raw page truncated",
			logging.Int("max_input_chars", c.cfg.Clean.MaxInputChars),
		)
	}
	prompt := BuildPrompt(c.cfg.Clean.Prompt, html)

	text, err := c.generator.Complete(ctx, prompt)
	if err != nil {
		return rec.Fail(ctx, item, queue.StatusCleaningFailed, stage.CollaboratorError(stageName, "extract text", err))
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return rec.Fail(ctx, item, queue.StatusCleaningFailed, stage.EmptyResult(stageName, "extract text", "cleaned text is empty"))
	}

	subject := stage.Subject(item)
	ref := document.CleanedRef(subject)
	doc := document.Record{
		Meta: document.NewMetadata(subject, document.KindCleaned, string(queue.StatusCleaned)),
		Body: text,
	}
	if err := c.docs.Write(ref, doc); err != nil {
		return rec.Fail(ctx, item, queue.StatusCleaningFailed, services.Wrap(services.ErrTransient, stageName, "write cleaned document", "", err))
	}
	return rec.Advance(ctx, item, queue.Transition{To: queue.StatusCleaned, CleanedRef: ref})
}

// BuildPrompt fills the clean template with already-truncated HTML.
func BuildPrompt(template, html string) string {
	return stage.FillPrompt(template, map[string]string{"raw_html": html})
}

// HealthCheck verifies the stage has what it needs to run.
func (c *Cleaner) HealthCheck(context.Context) stage.Health {
	if c.cfg == nil {
		return stage.Unhealthy(stageName, "configuration unavailable")
	}
	if c.generator == nil {
		return stage.Unhealthy(stageName, "generator unavailable")
	}
	if strings.TrimSpace(c.cfg.LLM.APIKey) == "" {
		return stage.Unhealthy(stageName, "llm api key not configured")
	}
	return stage.Healthy(stageName)
}
