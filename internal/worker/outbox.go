package worker

import (
	"context"
	"encoding/json"
	"time"

	"renthub/internal/events"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// outboxEnvelope is the wire form of an event on the redis queue.
type outboxEnvelope struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	CreatedAt time.Time       `json:"created_at"`
}

// OutboxWorker relays domain events from the in-process bus onto a redis list
// so external consumers can pick them up. It is the only long-lived goroutine
// in the process; delivery failures back off and eventually land on the
// dead-letter list.
type OutboxWorker struct {
	redis         *redis.Client
	retryPolicy   RetryPolicy
	queue         chan outboxEnvelope
	queueKey      string
	deadLetterKey string
	logger        *zerolog.Logger
}

func NewOutboxWorker(redisClient *redis.Client, queueKey, deadLetterKey string, retry RetryPolicy, logger *zerolog.Logger) *OutboxWorker {
	return &OutboxWorker{
		redis:         redisClient,
		retryPolicy:   retry.withDefaults(),
		queue:         make(chan outboxEnvelope, 128),
		queueKey:      queueKey,
		deadLetterKey: deadLetterKey,
		logger:        logger,
	}
}

// SubscribeTo wires the worker to the bus for every booking-domain event type.
func (w *OutboxWorker) SubscribeTo(bus *events.EventBus) {
	types := []string{
		events.EventBookingCreated,
		events.EventBookingApproved,
		events.EventBookingRejected,
		events.EventCommentAdded,
		events.EventItemCreated,
		events.EventRequestCreated,
	}
	for _, t := range types {
		bus.Subscribe(t, w.enqueue)
	}
}

// enqueue hands the event to the relay loop without blocking the publisher.
func (w *OutboxWorker) enqueue(event *events.Event) error {
	envelope := outboxEnvelope{
		ID:        event.ID,
		Type:      event.Type,
		Payload:   event.Payload,
		CreatedAt: event.CreatedAt,
	}

	select {
	case w.queue <- envelope:
	default:
		w.logger.Warn().Str("event_id", event.ID).Msg("outbox queue full, event dropped")
	}
	return nil
}

// Start runs the relay loop until ctx is done.
func (w *OutboxWorker) Start(ctx context.Context) {
	w.logger.Info().Msg("outbox worker started")
	defer w.logger.Info().Msg("outbox worker stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case envelope := <-w.queue:
			w.deliver(ctx, envelope)
		}
	}
}

func (w *OutboxWorker) deliver(ctx context.Context, envelope outboxEnvelope) {
	data, err := json.Marshal(envelope)
	if err != nil {
		w.logger.Error().Err(err).Str("event_id", envelope.ID).Msg("encode event")
		return
	}

	for attempt := 1; attempt <= w.retryPolicy.MaxRetries; attempt++ {
		err = w.redis.RPush(ctx, w.queueKey, data).Err()
		if err == nil {
			return
		}

		w.logger.Warn().
			Err(err).
			Str("event_id", envelope.ID).
			Int("attempt", attempt).
			Msg("outbox push failed")

		select {
		case <-ctx.Done():
			return
		case <-time.After(w.retryPolicy.NextDelay(attempt)):
		}
	}

	if err := w.redis.RPush(ctx, w.deadLetterKey, data).Err(); err != nil {
		w.logger.Error().Err(err).Str("event_id", envelope.ID).Msg("dead-letter push failed, event lost")
	}
}
