package selection

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"pressline/internal/config"
	"pressline/internal/document"
	"pressline/internal/logging"
	"pressline/internal/queue"
	"pressline/internal/services"
	"pressline/internal/services/llm"
	"pressline/internal/stage"
)

const stageName = "selection"

// Selector is the selection stage processor.
type Selector struct {
	cfg       *config.Config
	store     *queue.Store
	docs      *document.Store
	generator stage.Generator
	logger    *slog.Logger
	now       func() time.Time
}

// New constructs the selector with the configured LLM client.
func New(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger) *Selector {
	client := llm.NewClient(llm.FromConfig(cfg.StageLLM(stageName)))
	return NewWithDependencies(cfg, store, docs, logger, client)
}

// NewWithDependencies allows injecting the generator (used in tests).
func NewWithDependencies(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger, generator stage.Generator) *Selector {
	return &Selector{
		cfg:       cfg,
		store:     store,
		docs:      docs,
		generator: generator,
		logger:    logging.NewComponentLogger(logger, stageName),
		now:       time.Now,
	}
}

// SetClock overrides the clock used for the recency window.
func (s *Selector) SetClock(now func() time.Time) {
	if now == nil {
		now = time.Now
	}
	s.now = now
}

func (s *Selector) Name() string { return stageName }

// Run offers the recent summarized items to the collaborator and moves the
// chosen one to selected. Collaborator failures and ambiguous answers are
// reported in Report.Note and leave every item untouched.
func (s *Selector) Run(ctx context.Context) (stage.Report, error) {
	started := time.Now()
	ctx = services.WithStage(ctx, stageName)
	logger := logging.WithContext(ctx, s.logger)
	skip := func(note string) (stage.Report, error) {
		r := stage.NewReport(stageName, started, nil)
		r.Note = note
		return r, nil
	}

	held, err := s.store.Selected(ctx)
	if err != nil {
		return stage.Report{Stage: stageName, Started: started, Finished: time.Now()},
			services.Wrap(services.ErrTransient, stageName, "check selection slot", "", err)
	}
	if held != nil {
		logger.Info("selection slot already held",
			logging.String(logging.FieldEventType, "selection_held"),
			logging.Int64("selected_item_id", held.ID),
		)
		return skip(fmt.Sprintf("item %d is already selected", held.ID))
	}

	candidates, err := s.candidates(ctx)
	if err != nil {
		return stage.Report{Stage: stageName, Started: started, Finished: time.Now()}, err
	}
	if len(candidates) == 0 {
		logger.Info("no candidates for selection",
			logging.String(logging.FieldEventType, "selection_no_candidates"),
			logging.Int("window_hours", s.cfg.Select.WindowHours),
		)
		return skip("no candidates")
	}

	prompt := stage.FillPrompt(s.cfg.Select.Prompt, map[string]string{"summaries_block": SummariesBlock(candidates)})
	answer, err := s.generator.Complete(ctx, prompt)
	if err != nil {
		err = stage.CollaboratorError(stageName, "choose candidate", err)
		attrs := []logging.Attr{logging.Int("candidates", len(candidates)), logging.Error(err)}
		if services.IsSoft(err) {
			logging.WarnWithContext(logger, "collaborator gave no answer", "selection_empty_answer", attrs...)
		} else {
			logging.ErrorWithContext(logger, "selection request failed", "selection_request_failed",
				append(attrs, logging.String(logging.FieldErrorHint, "check llm connectivity; candidates stay summarized"))...)
		}
		return skip("no selection made: " + services.FailureMessage(err))
	}
	if strings.TrimSpace(answer) == "" {
		logging.WarnWithContext(logger, "collaborator gave no answer", "selection_empty_answer",
			logging.Int("candidates", len(candidates)))
		return skip("no selection made: empty answer")
	}

	chosen, err := Resolve(answer, candidates)
	if err != nil {
		logger.Info("no selection made",
			logging.String(logging.FieldEventType, "selection_unresolved"),
			logging.Int("candidates", len(candidates)),
			logging.String("reason", err.Error()),
		)
		return skip("no selection made: " + err.Error())
	}

	outcome := s.commit(ctx, chosen)
	r := stage.NewReport(stageName, started, []stage.Outcome{outcome})
	r.Note = fmt.Sprintf("%d candidates offered", len(candidates))
	return r, nil
}

// candidates returns summarized items inside the recency window, newest
// first, capped at max_candidates. Items whose summary cannot be read are
// left out.
func (s *Selector) candidates(ctx context.Context) ([]Candidate, error) {
	since := s.now().Add(-time.Duration(s.cfg.Select.WindowHours) * time.Hour)
	items, err := s.store.ItemsByStatus(ctx, queue.Filter{
		Statuses:    []queue.Status{queue.StatusSummarized},
		Since:       since,
		NewestFirst: true,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, stageName, "select candidates", "", err)
	}

	out := make([]Candidate, 0, min(len(items), s.cfg.Select.MaxCandidates))
	for _, item := range items {
		if len(out) >= s.cfg.Select.MaxCandidates {
			s.logger.Debug("candidate cap reached",
				logging.Int("max_candidates", s.cfg.Select.MaxCandidates),
				logging.Int("eligible", len(items)),
			)
			break
		}
		doc, err := s.docs.Read(item.CleanedRef)
		if err != nil || strings.TrimSpace(doc.Meta.Summary) == "" {
			itemLogger := logging.WithContext(services.WithItemID(ctx, item.ID), s.logger)
			logging.WarnWithContext(itemLogger, "candidate skipped, summary unavailable", "selection_candidate_skipped",
				logging.String(logging.FieldURL, item.SourceURL),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check the cleaned document for this item"),
			)
			continue
		}
		if doc.Meta.Status != string(queue.StatusSummarized) {
			s.repairDocumentStatus(ctx, item, doc)
		}
		out = append(out, Candidate{
			ItemID:  item.ID,
			Title:   item.Title,
			URL:     item.SourceURL,
			Summary: strings.TrimSpace(doc.Meta.Summary),
		})
	}
	return out, nil
}

// repairDocumentStatus puts a summarized item's front matter back in step
// with the work store. A crash between the document write and the claim in
// commit leaves "selected" on disk for an item that was never selected.
func (s *Selector) repairDocumentStatus(ctx context.Context, item *queue.Item, doc document.Record) {
	logger := logging.WithContext(services.WithItemID(ctx, item.ID), s.logger)
	stale := doc.Meta.Status
	doc.Meta.Status = string(queue.StatusSummarized)
	if err := s.docs.Write(item.CleanedRef, doc); err != nil {
		logging.WarnWithContext(logger, "failed to repair document status", "selection_document_failed",
			logging.String(logging.FieldURL, item.SourceURL),
			logging.String("document_status", stale),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "document front matter disagrees with the work store"),
		)
		return
	}
	logger.Info("document status repaired",
		logging.String(logging.FieldEventType, "selection_document_repaired"),
		logging.String(logging.FieldURL, item.SourceURL),
		logging.String("document_status", stale),
	)
}

// commit writes the selected status into the document, then claims the
// selection slot in the work store. If the claim is refused the document is
// put back to summarized.
func (s *Selector) commit(ctx context.Context, chosen Candidate) stage.Outcome {
	item, err := s.store.GetByID(ctx, chosen.ItemID)
	if err != nil || item == nil {
		if err == nil {
			err = queue.ErrItemNotFound
		}
		return stage.Outcome{ItemID: chosen.ItemID, URL: chosen.URL, Status: queue.StatusSummarized, Err: err, Skipped: true}
	}
	rec := stage.Recorder{Store: s.store, Logger: s.logger, Stage: stageName}
	ctx, logger := rec.ItemContext(ctx, item)

	doc, err := s.docs.Read(item.CleanedRef)
	if err == nil {
		doc.Meta.Status = string(queue.StatusSelected)
		err = s.docs.Write(item.CleanedRef, doc)
	}
	if err != nil {
		logging.ErrorWithContext(logger, "selected document update failed", "selection_document_failed",
			logging.String(logging.FieldErrorHint, "item stays summarized and may be chosen again next cycle"),
			logging.Error(err),
		)
		return stage.Outcome{ItemID: item.ID, URL: item.SourceURL, Status: item.Status, Err: err, Skipped: true}
	}

	outcome := rec.Advance(ctx, item, queue.Transition{To: queue.StatusSelected})
	if outcome.Skipped {
		doc.Meta.Status = string(queue.StatusSummarized)
		if err := s.docs.Write(item.CleanedRef, doc); err != nil {
			logging.ErrorWithContext(logger, "failed to restore document status", "selection_document_failed",
				logging.String(logging.FieldErrorHint, "document front matter says selected while the item is not"),
				logging.Error(err),
			)
		}
		return outcome
	}
	logger.Info("item selected",
		logging.String(logging.FieldEventType, "item_selected"),
		logging.String("title", item.Title),
		logging.String(logging.FieldURL, item.SourceURL),
	)
	return outcome
}

// HealthCheck verifies the stage has what it needs to run.
func (s *Selector) HealthCheck(context.Context) stage.Health {
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
