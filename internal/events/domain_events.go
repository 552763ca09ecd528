package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of domain events
type EventType string

const (
	// Record events
	EventRecordCreated EventType = "record.created"
	EventRecordUpdated EventType = "record.updated"
	EventRecordDeleted EventType = "record.deleted"

	// Billing events
	EventPaymentRecorded EventType = "payment.recorded"
	EventPaymentDeleted  EventType = "payment.deleted"
	EventPaymentsPruned  EventType = "payment.pruned"

	// User administration events
	EventUserCreated EventType = "user.created"
	EventUserDeleted EventType = "user.deleted"

	EventSettingsUpdated EventType = "settings.updated"
)

const eventSource = "school-admin-service"

// DomainEvent is the envelope for every event the service publishes.
type DomainEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	ActorID   string                 `json:"actor_id,omitempty"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

type RecordChangedEvent struct {
	Collection string `json:"collection"`
	RecordID   string `json:"record_id"`
}

type PaymentRecordedEvent struct {
	PaymentID     string    `json:"payment_id"`
	StudentID     string    `json:"student_id"`
	Amount        int64     `json:"amount"`
	Method        string    `json:"method"`
	ReceiptNumber string    `json:"receipt_number"`
	Date          time.Time `json:"date"`
}

type PaymentsPrunedEvent struct {
	PaymentIDs []string `json:"payment_ids"`
}

type UserChangedEvent struct {
	UserID           string `json:"user_id"`
	SourceCollection string `json:"source_collection"`
	Role             string `json:"role"`
	Email            string `json:"email,omitempty"`
}

// NewDomainEvent wraps data in an envelope with a fresh id and timestamp.
func NewDomainEvent(eventType EventType, actorID string, data interface{}) *DomainEvent {
	return &DomainEvent{
		ID:        GenerateEventID(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    eventSource,
		Version:   "1.0",
		ActorID:   actorID,
		Data:      data,
	}
}

func NewRecordEvent(eventType EventType, actorID, collection, recordID string) *DomainEvent {
	return NewDomainEvent(eventType, actorID, RecordChangedEvent{
		Collection: collection,
		RecordID:   recordID,
	})
}

// GenerateEventID returns a unique event id
func GenerateEventID() string {
	return uuid.NewString()
}
