// Package events delivers committed lifecycle changes to the notifier.
package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"reservo/pkg/kafka"
	"reservo/pkg/logger"
	"reservo/pkg/middleware"
	"reservo/pkg/model"

	"github.com/google/uuid"
)

const (
	SchemaVersion = "1"
	Source        = "reservo"
)

type Publisher interface {
	Publish(ctx context.Context, events ...model.Event) error
}

// New stamps an event with a fresh id and occurrence time.
func New(typ model.EventType, actorID string, now time.Time) model.Event {
	return model.Event{
		ID:         uuid.NewString(),
		Type:       typ,
		OccurredAt: now,
		ActorID:    actorID,
	}
}

// BookingEvent fills the booking fields of an event from b.
func BookingEvent(typ model.EventType, b *model.Booking, actorID, fromStatus string, now time.Time) model.Event {
	ev := New(typ, actorID, now)
	ev.ResourceID = b.ResourceID
	ev.BookingID = b.ID
	ev.UserID = b.UserID
	ev.FromStatus = fromStatus
	ev.ToStatus = string(b.Status)
	return ev
}

func KeyEvent(typ model.EventType, tx *model.KeyTransaction, actorID string, now time.Time) model.Event {
	ev := New(typ, actorID, now)
	ev.ResourceID = tx.ResourceID
	ev.BookingID = tx.BookingID
	ev.UserID = tx.BorrowerID
	ev.KeyID = tx.KeyID
	ev.TransactionID = tx.ID
	ev.ToStatus = string(tx.Status)
	return ev
}

type messagePublisher interface {
	Publish(ctx context.Context, msg kafka.Message) error
}

type KafkaPublisher struct {
	producer messagePublisher
}

func NewKafkaPublisher(producer *kafka.Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

// Publish sends every event and reports all failures together.
func (p *KafkaPublisher) Publish(ctx context.Context, events ...model.Event) error {
	var errs []error
	for _, ev := range events {
		msg := kafka.NewMessage().
			WithKey(ev.PartitionKey()).
			WithValue(ev).
			WithEventID(ev.ID).
			WithEventType(string(ev.Type)).
			WithActorID(ev.ActorID).
			WithCorrelationID(middleware.RequestIDFromContext(ctx)).
			WithSchemaVersion(SchemaVersion).
			WithSource(Source).
			WithTimestamp(ev.OccurredAt).
			Build()
		if err := p.producer.Publish(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("publish %s %s: %w", ev.Type, ev.ID, err))
		}
	}
	return errors.Join(errs...)
}

// LogPublisher writes events to the log. Used when Kafka is disabled.
type LogPublisher struct {
	log *logger.Logger
}

func NewLogPublisher(log *logger.Logger) *LogPublisher {
	return &LogPublisher{log: log}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...model.Event) error {
	for _, ev := range events {
		p.log.Info("Lifecycle event",
			"event_id", ev.ID,
			"type", ev.Type,
			"resource_id", ev.ResourceID,
			"booking_id", ev.BookingID,
			"key_id", ev.KeyID,
			"to_status", ev.ToStatus,
		)
	}
	return nil
}

// Recorder keeps published events in memory.
type Recorder struct {
	mu     sync.Mutex
	events []model.Event
	Err    error
}

func (r *Recorder) Publish(ctx context.Context, events ...model.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.events = append(r.events, events...)
	return nil
}

func (r *Recorder) Events() []model.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.Event(nil), r.events...)
}

func (r *Recorder) Types() []model.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]model.EventType, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}
