package services

import (
	"context"
	"sync"
	"time"

	"github.com/SAP-F-2025/school-admin-service/internal/events"
)

const defaultActivityCapacity = 20

// ActivityItem is one entry of the dashboard's recent activity widget.
type ActivityItem struct {
	EventID string           `json:"event_id"`
	Type    events.EventType `json:"type"`
	ActorID string           `json:"actor_id,omitempty"`
	At      time.Time        `json:"at"`
	Data    interface{}      `json:"data"`
}

// ActivityFeed is an EventPublisher that remembers the latest events before
// handing them to the next publisher.
type ActivityFeed struct {
	next     events.EventPublisher
	capacity int

	mu    sync.Mutex
	items []ActivityItem
}

var _ events.EventPublisher = (*ActivityFeed)(nil)

// NewActivityFeed wraps next, which may be nil.
func NewActivityFeed(next events.EventPublisher, capacity int) *ActivityFeed {
	if capacity <= 0 {
		capacity = defaultActivityCapacity
	}
	return &ActivityFeed{next: next, capacity: capacity}
}

func (f *ActivityFeed) Publish(ctx context.Context, event *events.DomainEvent) error {
	f.mu.Lock()
	f.items = append(f.items, ActivityItem{
		EventID: event.ID,
		Type:    event.Type,
		ActorID: event.ActorID,
		At:      event.Timestamp,
		Data:    event.Data,
	})
	if over := len(f.items) - f.capacity; over > 0 {
		f.items = append(f.items[:0:0], f.items[over:]...)
	}
	f.mu.Unlock()

	if f.next == nil {
		return nil
	}
	return f.next.Publish(ctx, event)
}

func (f *ActivityFeed) Close() error {
	if f.next == nil {
		return nil
	}
	return f.next.Close()
}

// Recent returns up to limit events, newest first.
func (f *ActivityFeed) Recent(limit int) []ActivityItem {
	f.mu.Lock()
	defer f.mu.Unlock()

	if limit <= 0 || limit > len(f.items) {
		limit = len(f.items)
	}
	out := make([]ActivityItem, 0, limit)
	for i := len(f.items) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, f.items[i])
	}
	return out
}
