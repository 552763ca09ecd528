package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
)

// EventPublisher delivers domain events to whoever follows school activity.
type EventPublisher interface {
	Publish(ctx context.Context, event *DomainEvent) error
	Close() error
}

// WatermillPublisher writes events as JSON messages to one topic of a
// watermill transport (Kafka in production, gochannel in tests).
type WatermillPublisher struct {
	publisher message.Publisher
	topic     string
	logger    *slog.Logger
}

func NewWatermillPublisher(publisher message.Publisher, topic string, logger *slog.Logger) *WatermillPublisher {
	return &WatermillPublisher{publisher: publisher, topic: topic, logger: logger.With("topic", topic)}
}

func (p *WatermillPublisher) Publish(ctx context.Context, event *DomainEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to encode %s event: %w", event.Type, err)
	}

	msg := message.NewMessage(event.ID, payload)
	msg.SetContext(ctx)
	msg.Metadata.Set("event_type", string(event.Type))
	msg.Metadata.Set("source", event.Source)
	msg.Metadata.Set("version", event.Version)
	msg.Metadata.Set("timestamp", event.Timestamp.UTC().Format(time.RFC3339))
	if event.ActorID != "" {
		msg.Metadata.Set("actor_id", event.ActorID)
	}

	if err := p.publisher.Publish(p.topic, msg); err != nil {
		return fmt.Errorf("failed to publish %s event %s: %w", event.Type, event.ID, err)
	}
	p.logger.Debug("Event published", "event_id", event.ID, "event_type", event.Type)
	return nil
}

func (p *WatermillPublisher) Close() error {
	return p.publisher.Close()
}

// DiscardPublisher drops every event. Used when publishing is turned off.
type DiscardPublisher struct {
	logger *slog.Logger
}

func NewDiscardPublisher(logger *slog.Logger) *DiscardPublisher {
	return &DiscardPublisher{logger: logger}
}

func (d *DiscardPublisher) Publish(_ context.Context, event *DomainEvent) error {
	d.logger.Debug("Event discarded", "event_id", event.ID, "event_type", event.Type)
	return nil
}

func (d *DiscardPublisher) Close() error { return nil }

// MemoryPublisher keeps published events in memory for inspection in tests.
type MemoryPublisher struct {
	mu     sync.Mutex
	events []DomainEvent
}

func NewMemoryPublisher() *MemoryPublisher {
	return &MemoryPublisher{}
}

func (m *MemoryPublisher) Publish(_ context.Context, event *DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *event)
	return nil
}

func (m *MemoryPublisher) Close() error { return nil }

// Published returns a copy of the events seen so far, oldest first.
func (m *MemoryPublisher) Published() []DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]DomainEvent(nil), m.events...)
}

func (m *MemoryPublisher) Reset() {
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}
