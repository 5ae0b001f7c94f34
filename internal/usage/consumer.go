package usage

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go/jetstream"

	inats "github.com/webdev-it/baza-ai/internal/nats"
)

// Consumer listens on the usage event NATS subject and persists entries to
// the database.
type Consumer struct {
	repo        *Repository
	consumerMgr *inats.ConsumerManager
}

// NewConsumer creates a new usage event Consumer.
func NewConsumer(repo *Repository, consumerMgr *inats.ConsumerManager) *Consumer {
	return &Consumer{
		repo:        repo,
		consumerMgr: consumerMgr,
	}
}

// Start begins the consume loop. Blocks until ctx is cancelled.
func (c *Consumer) Start(ctx context.Context) error {
	consumer, err := c.consumerMgr.EnsureConsumer(ctx, inats.StreamEvents, "usage-persister", inats.SubjectUsageEvent)
	if err != nil {
		return err
	}

	slog.Info("usage consumer started", "consumer", "usage-persister")

	for {
		msgs, err := consumer.Fetch(10, jetstream.FetchMaxWait(inats.FetchTimeout))
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			slog.Debug("usage consumer: fetching events", "error", err)
			continue
		}

		for msg := range msgs.Messages() {
			c.handleEvent(ctx, msg)
		}

		if ctx.Err() != nil {
			return nil
		}
	}
}

func (c *Consumer) handleEvent(ctx context.Context, msg jetstream.Msg) {
	var event inats.UsageEvent
	if err := json.Unmarshal(msg.Data(), &event); err != nil {
		slog.Error("usage consumer: unmarshaling event", "error", err)
		_ = msg.Nak()
		return
	}

	row := convertEvent(event)
	if err := c.repo.Insert(ctx, row); err != nil {
		slog.Error("usage consumer: persisting event", "error", err, "user", event.UserJID)
		_ = msg.Nak()
		return
	}

	_ = msg.Ack()

	slog.Debug("usage consumer: persisted event",
		"user", event.UserJID,
		"count", event.Count,
		"admitted", event.Admitted,
	)
}

func convertEvent(event inats.UsageEvent) *Event {
	return &Event{
		ID:         uuid.New(),
		UserJID:    event.UserJID,
		Date:       event.Date,
		Count:      event.Count,
		DailyLimit: event.Limit,
		Admitted:   event.Admitted,
		Subscribed: event.Subscribed,
		CreatedAt:  event.Timestamp,
	}
}
