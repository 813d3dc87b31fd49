package summarizing

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

const stageName = "summarizing"

// Summarizer is the summarizing stage processor.
type Summarizer struct {
	cfg       *config.Config
	store     *queue.Store
	docs      *document.Store
	generator stage.Generator
	logger    *slog.Logger
	schedule  batch.Schedule
}

// New constructs the summarizer with the configured LLM client.
func New(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger) *Summarizer {
	client := llm.NewClient(llm.FromConfig(cfg.StageLLM(stageName)))
	return NewWithDependencies(cfg, store, docs, logger, client)
}

// NewWithDependencies allows injecting the generator (used in tests).
func NewWithDependencies(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger, generator stage.Generator) *Summarizer {
	return &Summarizer{
		cfg:       cfg,
		store:     store,
		docs:      docs,
		generator: generator,
		logger:    logging.NewComponentLogger(logger, stageName),
		schedule: batch.Schedule{
			Size:     cfg.Summarize.BatchSize,
			Cooldown: time.Duration(cfg.Summarize.CooldownSeconds) * time.Second,
		},
	}
}

// SetSchedule overrides the batch schedule.
func (s *Summarizer) SetSchedule(sch batch.Schedule) {
	s.schedule = sch
}

func (s *Summarizer) Name() string { return stageName }

// Run summarizes cleaned items, oldest first, up to max_items_per_run.
func (s *Summarizer) Run(ctx context.Context) (stage.Report, error) {
	started := time.Now()
	items, err := s.store.ItemsByStatus(ctx, queue.Filter{
		Statuses: []queue.Status{queue.StatusCleaned},
		Limit:    s.cfg.Summarize.MaxItemsPerRun,
	})
	if err != nil {
		return stage.Report{Stage: stageName, Started: started, Finished: time.Now()},
			services.Wrap(services.ErrTransient, stageName, "select items", "", err)
	}
	if len(items) == 0 {
		s.logger.Debug("no items to summarize")
		return stage.NewReport(stageName, started, nil), nil
	}
	s.logger.Info("summarizing items",
		logging.String(logging.FieldEventType, "stage_batch_start"),
		logging.Int("count", len(items)),
		logging.Int("batch_size", s.schedule.Size),
	)
	outcomes := batch.Run(ctx, s.schedule, items, s.summarizeItem)
	return stage.NewReport(stageName, started, outcomes), nil
}

func (s *Summarizer) summarizeItem(ctx context.Context, item *queue.Item) stage.Outcome {
	rec := stage.Recorder{Store: s.store, Logger: s.logger, Stage: stageName}
	ctx, _ = rec.ItemContext(ctx, item)

	doc, err := s.docs.Read(item.CleanedRef)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, document.ErrNotFound) {
			marker = services.ErrNotFound
		}
		return rec.Fail(ctx, item, queue.StatusSummarizeFailed, services.Wrap(marker, stageName, "read cleaned document", "", err))
	}
	if strings.TrimSpace(doc.Body) == "" {
		return rec.Fail(ctx, item, queue.StatusSummarizeFailed, stage.EmptyResult(stageName, "read cleaned document", "cleaned document body is empty"))
	}

	text, _ := textutil.Truncate(doc.Body, s.cfg.Summarize.MaxInputChars)
	prompt := stage.FillPrompt(s.cfg.Summarize.Prompt, map[string]string{
		"title":        item.Title,
		"cleaned_text": text,
	})
	summary, err := s.generator.Complete(ctx, prompt)
	if err != nil {
		return rec.Fail(ctx, item, queue.StatusSummarizeFailed, stage.CollaboratorError(stageName, "summarize", err))
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		return rec.Fail(ctx, item, queue.StatusSummarizeFailed, stage.EmptyResult(stageName, "summarize", "summary is empty"))
	}

	doc.Meta.Summary = summary
	doc.Meta.Status = string(queue.StatusSummarized)
	if err := s.docs.Write(item.CleanedRef, doc); err != nil {
		return rec.Fail(ctx, item, queue.StatusSummarizeFailed, services.Wrap(services.ErrTransient, stageName, "write summary", "", err))
	}
	return rec.Advance(ctx, item, queue.Transition{To: queue.StatusSummarized})
}

// HealthCheck verifies the stage has what it needs to run.
func (s *Summarizer) HealthCheck(context.Context) stage.Health {
	switch {
	case s.cfg == nil:
		return stage.Unhealthy(stageName, "configuration unavailable")
	case s.generator == nil:
		return stage.Unhealthy(stageName, "generator unavailable")
	case strings.TrimSpace(s.cfg.LLM.APIKey) == "":
		return stage.Unhealthy(stageName, "llm api key not configured")
	}
	return stage.Healthy(stageName)
}
