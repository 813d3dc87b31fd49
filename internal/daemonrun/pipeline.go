package daemonrun

import (
	"log/slog"

	"pressline/internal/cleaning"
	"pressline/internal/config"
	"pressline/internal/document"
	"pressline/internal/fetching"
	"pressline/internal/generation"
	"pressline/internal/notifications"
	"pressline/internal/publishing"
	"pressline/internal/queue"
	"pressline/internal/selection"
	"pressline/internal/summarizing"
	"pressline/internal/workflow"
)

// NewPipeline builds a workflow manager with every production stage
// registered in pipeline order. The CLI uses it for one-shot cycles and
// the daemon for the scheduled loop.
func NewPipeline(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger, notifier notifications.Service) *workflow.Manager {
	mgr := workflow.NewManagerWithNotifier(cfg, store, logger, notifier)
	mgr.ConfigureStages(workflow.StageSet{
		Fetcher:    fetching.New(cfg, store, docs, logger),
		Cleaner:    cleaning.New(cfg, store, docs, logger),
		Summarizer: summarizing.New(cfg, store, docs, logger),
		Selector:   selection.New(cfg, store, docs, logger),
		Writer:     generation.New(cfg, store, docs, logger),
		Publisher:  publishing.New(cfg, store, docs, logger),
	})
	return mgr
}
