package worker

import (
	"context"
	"encoding/json"
	"io"
	"testing"
	"time"

	"renthub/internal/events"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextDelay(t *testing.T) {
	policy := RetryPolicy{InitialDelay: time.Second, MaxDelay: 10 * time.Second, BackoffFactor: 2}

	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
	assert.Equal(t, 4*time.Second, policy.NextDelay(3))
	// clamped
	assert.Equal(t, 10*time.Second, policy.NextDelay(10))
	// below-range attempts behave like the first
	assert.Equal(t, time.Second, policy.NextDelay(0))
}

func TestNextDelayDefaults(t *testing.T) {
	var policy RetryPolicy
	assert.Equal(t, time.Second, policy.NextDelay(1))
	assert.Equal(t, 2*time.Second, policy.NextDelay(2))
}

func TestNewOutboxWorkerFillsPolicyDefaults(t *testing.T) {
	logger := zerolog.New(io.Discard)

	w := NewOutboxWorker(nil, "q", "dl", RetryPolicy{}, &logger)
	assert.Equal(t, 5, w.retryPolicy.MaxRetries)
	assert.Equal(t, time.Second, w.retryPolicy.InitialDelay)
	assert.Equal(t, 30*time.Second, w.retryPolicy.MaxDelay)
	assert.Equal(t, 2.0, w.retryPolicy.BackoffFactor)

	// explicit values survive
	w = NewOutboxWorker(nil, "q", "dl", RetryPolicy{MaxRetries: 2}, &logger)
	assert.Equal(t, 2, w.retryPolicy.MaxRetries)
}

func TestOutboxRelay(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	logger := zerolog.New(io.Discard)
	w := NewOutboxWorker(client, "bookings:events", "bookings:deadletter", RetryPolicy{}, &logger)

	bus := events.NewEventBus()
	w.SubscribeTo(bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		w.Start(ctx)
	}()

	err = bus.PublishJSON(events.EventBookingCreated, events.BookingEventPayload{
		BookingID: 7, ItemID: 3, BookerID: 2, Status: "WAITING",
	})
	require.NoError(t, err)

	var raw string
	require.Eventually(t, func() bool {
		vals, err := s.List("bookings:events")
		if err != nil || len(vals) == 0 {
			return false
		}
		raw = vals[0]
		return true
	}, time.Second, 10*time.Millisecond)

	var envelope outboxEnvelope
	require.NoError(t, json.Unmarshal([]byte(raw), &envelope))
	assert.Equal(t, events.EventBookingCreated, envelope.Type)
	assert.NotEmpty(t, envelope.ID)

	var payload events.BookingEventPayload
	require.NoError(t, json.Unmarshal(envelope.Payload, &payload))
	assert.Equal(t, int64(7), payload.BookingID)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestOutboxDeadLetter(t *testing.T) {
	s, err := miniredis.Run()
	require.NoError(t, err)
	defer s.Close()

	client := redis.NewClient(&redis.Options{Addr: s.Addr()})
	defer client.Close()

	logger := zerolog.New(io.Discard)
	// a key holding the wrong type makes every RPush fail
	require.NoError(t, s.Set("bookings:events", "not-a-list"))

	w := NewOutboxWorker(client, "bookings:events", "bookings:deadletter",
		RetryPolicy{MaxRetries: 2, InitialDelay: time.Millisecond, MaxDelay: time.Millisecond}, &logger)

	w.deliver(context.Background(), outboxEnvelope{
		ID: "evt-1", Type: events.EventBookingCreated, Payload: []byte(`{}`), CreatedAt: time.Now(),
	})

	vals, err := s.List("bookings:deadletter")
	require.NoError(t, err)
	require.Len(t, vals, 1)
	assert.Contains(t, vals[0], "evt-1")
}
