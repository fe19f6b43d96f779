package worker

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/roadready/roadready-backend/internal/config"
	"github.com/roadready/roadready-backend/internal/event"
	"github.com/rs/zerolog"
)

const (
	EventBatchSize    = 50
	EventBatchTimeout = 2 * time.Second
	EventPollTimeout  = 1 * time.Second
)

// Subscriber handles one domain event. Subscribers stand in for the
// external collaborators (signup email, progress email) that hang off the
// write path's events.
type Subscriber func(ctx context.Context, e event.Event) error

// EventWorker drains the domain-events queue in batches and dispatches each
// event to the subscribers registered for its type. Events whose dispatch
// fails are pushed back onto the queue.
type EventWorker struct {
	rdb         *redis.Client
	log         zerolog.Logger
	subscribers map[event.Type][]Subscriber
}

func NewEventWorker(rdb *redis.Client, log zerolog.Logger) *EventWorker {
	return &EventWorker{
		rdb:         rdb,
		log:         log.With().Str("component", "event_worker").Logger(),
		subscribers: make(map[event.Type][]Subscriber),
	}
}

// Subscribe registers a handler for an event type. Call before Start.
func (w *EventWorker) Subscribe(t event.Type, sub Subscriber) {
	w.subscribers[t] = append(w.subscribers[t], sub)
}

// ----------------------------------------------------------------
// Worker loop with batching
// ----------------------------------------------------------------

func (w *EventWorker) Start(ctx context.Context) {
	w.log.Info().Msg("EventWorker started")

	batch := make([]*event.Event, 0, EventBatchSize)
	lastFlush := time.Now()

	for {
		// Should flush?
		if len(batch) > 0 &&
			(len(batch) >= EventBatchSize || time.Since(lastFlush) >= EventBatchTimeout) {

			w.dispatchBatch(ctx, batch)
			batch = batch[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			w.log.Info().Msg("Shutdown requested. Dispatching remaining batch...")
			w.dispatchBatch(context.Background(), batch)
			return

		default:
			item, err := w.rdb.BLPop(ctx, EventPollTimeout, config.WorkerKey.DomainEventsQueue).Result()
			if err != nil {
				if err != redis.Nil && ctx.Err() == nil {
					w.log.Error().Err(err).Msg("BLPop error")
				}
				continue
			}

			if len(item) < 2 {
				continue
			}

			var e event.Event
			if err := json.Unmarshal([]byte(item[1]), &e); err != nil {
				w.log.Error().Err(err).Msg("Invalid JSON payload")
				continue
			}

			batch = append(batch, &e)
		}
	}
}

// ----------------------------------------------------------------
// Dispatch with requeue fallback
// ----------------------------------------------------------------

func (w *EventWorker) dispatchBatch(ctx context.Context, batch []*event.Event) {
	for _, e := range batch {
		if err := w.dispatch(ctx, e); err != nil {
			w.log.Error().
				Err(err).
				Str("event_id", e.ID.String()).
				Str("type", string(e.Type)).
				Msg("dispatch failed — requeueing")
			raw, _ := json.Marshal(e)
			w.rdb.RPush(ctx, config.WorkerKey.DomainEventsQueue, raw)
		}
	}
}

func (w *EventWorker) dispatch(ctx context.Context, e *event.Event) error {
	subs := w.subscribers[e.Type]
	if len(subs) == 0 {
		w.log.Debug().Str("type", string(e.Type)).Msg("no subscribers for event")
		return nil
	}
	for _, sub := range subs {
		if err := sub(ctx, *e); err != nil {
			return err
		}
	}
	return nil
}

// LogSubscriber returns a subscriber that records the event. It is the
// default sink when no external collaborator is wired in.
func LogSubscriber(log zerolog.Logger) Subscriber {
	return func(_ context.Context, e event.Event) error {
		log.Info().
			Str("event_id", e.ID.String()).
			Str("type", string(e.Type)).
			RawJSON("payload", e.Payload).
			Msg("domain event")
		return nil
	}
}
