package generation

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

const stageName = "generation"

// Writer is the generation stage processor.
type Writer struct {
	cfg       *config.Config
	store     *queue.Store
	docs      *document.Store
	generator stage.Generator
	logger    *slog.Logger
}

// New constructs the writer with the configured LLM client.
func New(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger) *Writer {
	client := llm.NewClient(llm.FromConfig(cfg.StageLLM(stageName)))
	return NewWithDependencies(cfg, store, docs, logger, client)
}

// NewWithDependencies allows injecting the generator (used in tests).
func NewWithDependencies(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger, generator stage.Generator) *Writer {
	return &Writer{
		cfg:       cfg,
		store:     store,
		docs:      docs,
		generator: generator,
		logger:    logging.NewComponentLogger(logger, stageName),
	}
}

func (w *Writer) Name() string { return stageName }

// Run generates a post for the selected item, if there is one.
func (w *Writer) Run(ctx context.Context) (stage.Report, error) {
	started := time.Now()
	items, err := w.store.ItemsByStatus(ctx, queue.Filter{Statuses: []queue.Status{queue.StatusSelected}})
	if err != nil {
		return stage.Report{Stage: stageName, Started: started, Finished: time.Now()},
			services.Wrap(services.ErrTransient, stageName, "select items", "", err)
	}
	if len(items) == 0 {
		w.logger.Debug("no selected item")
		return stage.NewReport(stageName, started, nil), nil
	}
	outcomes := batch.Run(ctx, batch.Schedule{Size: 1}, items, w.generateItem)
	return stage.NewReport(stageName, started, outcomes), nil
}

func (w *Writer) generateItem(ctx context.Context, item *queue.Item) stage.Outcome {
	rec := stage.Recorder{Store: w.store, Logger: w.logger, Stage: stageName}
	ctx, logger := rec.ItemContext(ctx, item)

	if strings.TrimSpace(item.CleanedRef) == "" {
		return rec.Fail(ctx, item, queue.StatusGenerationFailed,
			services.Wrap(services.ErrValidation, stageName, "load article", "item has no cleaned document", nil))
	}
	cleaned, err := w.docs.Read(item.CleanedRef)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, document.ErrNotFound) {
			marker = services.ErrNotFound
		}
		return rec.Fail(ctx, item, queue.StatusGenerationFailed, services.Wrap(marker, stageName, "load article", "", err))
	}
	if strings.TrimSpace(cleaned.Body) == "" {
		return rec.Fail(ctx, item, queue.StatusGenerationFailed,
			services.Wrap(services.ErrValidation, stageName, "load article", "cleaned text is empty", nil))
	}

	text, truncated := textutil.Truncate(cleaned.Body, w.cfg.Generate.MaxInputChars)
	if truncated {
		logger.Debug("article text truncated", logging.Int("max_input_chars", w.cfg.Generate.MaxInputChars))
	}
	prompt := stage.FillPrompt(w.cfg.Generate.Prompt, map[string]string{
		"title": item.Title,
		"text":  text,
		"url":   item.SourceURL,
	})
	post, err := w.generator.Complete(ctx, prompt)
	if err != nil {
		return rec.Fail(ctx, item, queue.StatusGenerationFailed, stage.CollaboratorError(stageName, "write post", err))
	}
	post = strings.TrimSpace(post)
	if post == "" {
		return rec.Fail(ctx, item, queue.StatusGenerationFailed, stage.EmptyResult(stageName, "write post", "generated post is empty"))
	}

	subject := stage.Subject(item)
	ref := document.PostRef(subject)
	meta := document.NewMetadata(subject, document.KindPost, string(queue.StatusPostGenerated))
	meta.CleanedRef = item.CleanedRef
	if err := w.docs.Write(ref, document.Record{Meta: meta, Body: post}); err != nil {
		return rec.Fail(ctx, item, queue.StatusGenerationFailed, services.Wrap(services.ErrTransient, stageName, "write post document", "", err))
	}
	return rec.Advance(ctx, item, queue.Transition{To: queue.StatusPostGenerated, PostRef: ref})
}

// HealthCheck verifies the stage has what it needs to run.
func (w *Writer) HealthCheck(context.Context) stage.Health {
	switch {
	case w.cfg == nil:
		return stage.Unhealthy(stageName, "configuration unavailable")
	case w.generator == nil:
		return stage.Unhealthy(stageName, "generator unavailable")
	case strings.TrimSpace(w.cfg.LLM.APIKey) == "":
		return stage.Unhealthy(stageName, "llm api key not configured")
	}
	return stage.Healthy(stageName)
}
