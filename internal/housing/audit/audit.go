// Package audit records housing lifecycle events for operational
// visibility. Publishing is best effort: an unavailable audit sink never
// fails the user-facing operation.
package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"resportal/pkg/requestcontext"
)

// Action identifies a lifecycle event.
type Action string

const (
	ActionLoaded        Action = "application.loaded"
	ActionSaved         Action = "application.saved"
	ActionSubmitted     Action = "application.submitted"
	ActionDeleted       Action = "application.deleted"
	ActionEditorChanged Action = "application.editor_changed"
)

// Event is one audit record. RequestID ties the event back to the HTTP
// request that caused it and is empty for events emitted outside one.
type Event struct {
	ID            string    `json:"id"`
	RequestID     string    `json:"request_id,omitempty"`
	Action        Action    `json:"action"`
	Member        string    `json:"member"`
	ApplicationID int64     `json:"application_id"`
	At            time.Time `json:"at"`
}

// Publisher delivers events to a sink.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

// Emitter stamps and publishes events. A nil Emitter or nil publisher is a
// no-op so callers never have to branch on audit being configured.
type Emitter struct {
	pub Publisher
	log *zap.Logger
}

func NewEmitter(pub Publisher, log *zap.Logger) *Emitter {
	if log == nil {
		log = zap.NewNop()
	}
	return &Emitter{pub: pub, log: log}
}

// Emit publishes one event, logging and swallowing publish failures.
func (e *Emitter) Emit(ctx context.Context, action Action, member string, applicationID int64) {
	if e == nil || e.pub == nil {
		return
	}
	event := Event{
		ID:            uuid.NewString(),
		RequestID:     requestcontext.RequestID(ctx),
		Action:        action,
		Member:        member,
		ApplicationID: applicationID,
		At:            requestcontext.Now(ctx).UTC(),
	}
	if err := e.pub.Publish(ctx, event); err != nil {
		e.log.Warn("audit publish failed",
			zap.String("action", string(action)),
			zap.String("member", member),
			zap.Error(err))
	}
}

// RecordProducer is the shape of the Kafka producer the adapter wraps.
type RecordProducer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// KafkaPublisher serializes events as JSON keyed by member, so all events
// for one member land in order on the same partition.
type KafkaPublisher struct {
	producer RecordProducer
}

func NewKafkaPublisher(producer RecordProducer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer}
}

func (p *KafkaPublisher) Publish(ctx context.Context, event Event) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.producer.Produce(ctx, []byte(event.Member), value)
}

// MemoryPublisher collects events in memory for tests and for running the
// service without Kafka.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []Event
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (p *MemoryPublisher) Publish(_ context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

// Events returns a snapshot of everything published so far.
func (p *MemoryPublisher) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]Event(nil), p.events...)
}
