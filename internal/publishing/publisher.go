package publishing

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
	"pressline/internal/notifications"
	"pressline/internal/queue"
	"pressline/internal/services"
	"pressline/internal/services/telegram"
	"pressline/internal/stage"
)

const stageName = "publishing"

// Publisher is the publishing stage processor.
type Publisher struct {
	cfg      *config.Config
	store    *queue.Store
	docs     *document.Store
	delivery stage.Delivery
	notifier notifications.Service
	logger   *slog.Logger
	schedule batch.Schedule
}

// New constructs the publisher backed by the Telegram Bot API.
func New(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger) *Publisher {
	return NewWithDependencies(cfg, store, docs, logger, telegram.NewClient(cfg.Telegram), notifications.NewService(cfg))
}

// NewWithDependencies allows injecting collaborators (used in tests).
func NewWithDependencies(cfg *config.Config, store *queue.Store, docs *document.Store, logger *slog.Logger, delivery stage.Delivery, notifier notifications.Service) *Publisher {
	return &Publisher{
		cfg:      cfg,
		store:    store,
		docs:     docs,
		delivery: delivery,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, stageName),
		schedule: batch.Schedule{
			Size:     cfg.Publish.BatchSize,
			Cooldown: time.Duration(cfg.Publish.CooldownSeconds) * time.Second,
		},
	}
}

func (p *Publisher) Name() string { return stageName }

// Run delivers every post that is waiting for delivery or failed last time.
func (p *Publisher) Run(ctx context.Context) (stage.Report, error) {
	started := time.Now()
	if !p.cfg.Publish.Enabled {
		p.logger.Debug("publishing disabled")
		r := stage.NewReport(stageName, started, nil)
		r.Note = "disabled"
		return r, nil
	}
	items, err := p.store.ItemsByStatus(ctx, queue.Filter{
		Statuses: []queue.Status{queue.StatusPostGenerated, queue.StatusPublishFailed},
	})
	if err != nil {
		return stage.Report{Stage: stageName, Started: started, Finished: time.Now()},
			services.Wrap(services.ErrTransient, stageName, "select items", "", err)
	}
	if len(items) == 0 {
		p.logger.Debug("no posts to publish")
		return stage.NewReport(stageName, started, nil), nil
	}
	p.logger.Info("publishing posts",
		logging.String(logging.FieldEventType, "stage_batch_start"),
		logging.Int("count", len(items)),
		logging.String("destination", p.cfg.Telegram.ChannelID),
	)
	outcomes := batch.Run(ctx, p.schedule, items, p.publishItem)
	return stage.NewReport(stageName, started, outcomes), nil
}

func (p *Publisher) publishItem(ctx context.Context, item *queue.Item) stage.Outcome {
	rec := stage.Recorder{Store: p.store, Logger: p.logger, Stage: stageName}
	ctx, logger := rec.ItemContext(ctx, item)

	post, err := p.docs.Read(item.PostRef)
	if err != nil {
		marker := services.ErrTransient
		if errors.Is(err, document.ErrNotFound) {
			marker = services.ErrNotFound
		}
		return rec.Fail(ctx, item, queue.StatusPublishFailed, services.Wrap(marker, stageName, "read post", "", err))
	}
	text := strings.TrimSpace(post.Body)
	if text == "" {
		return rec.Fail(ctx, item, queue.StatusPublishFailed, stage.EmptyResult(stageName, "read post", "post body is empty"))
	}

	destination := p.cfg.Telegram.ChannelID
	if err := p.delivery.Send(ctx, destination, text); err != nil {
		return rec.Fail(ctx, item, queue.StatusPublishFailed, stage.CollaboratorError(stageName, "deliver", err))
	}

	// Delivery alone decides the outcome; a stale post status is only logged.
	post.Meta.Status = string(queue.StatusPublished)
	if err := p.docs.Write(item.PostRef, post); err != nil {
		logging.WarnWithContext(logger, "post delivered but document status not updated", "post_document_stale",
			logging.String(logging.FieldErrorHint, "front matter still shows the previous status"),
			logging.Error(err),
		)
	}
	outcome := rec.Advance(ctx, item, queue.Transition{To: queue.StatusPublished})
	if outcome.OK() && p.notifier != nil {
		if err := p.notifier.Publish(ctx, notifications.EventPostPublished, notifications.Payload{
			"title":       item.Title,
			"destination": destination,
		}); err != nil {
			logger.Warn("published notification failed",
				logging.String(logging.FieldEventType, "notification_failed"),
				logging.String(logging.FieldErrorHint, "check ntfy topic"),
				logging.Error(err),
			)
		}
	}
	return outcome
}

// HealthCheck reports disabled publishing as ready and otherwise checks
// the delivery settings.
func (p *Publisher) HealthCheck(context.Context) stage.Health {
	switch {
	case p.cfg == nil:
		return stage.Unhealthy(stageName, "configuration unavailable")
	case !p.cfg.Publish.Enabled:
		return stage.Disabled(stageName)
	case p.delivery == nil:
		return stage.Unhealthy(stageName, "delivery client unavailable")
	case strings.TrimSpace(p.cfg.Telegram.BotToken) == "":
		return stage.Unhealthy(stageName, "telegram bot token not configured")
	case strings.TrimSpace(p.cfg.Telegram.ChannelID) == "":
		return stage.Unhealthy(stageName, "telegram channel not configured")
	}
	return stage.Healthy(stageName)
}
