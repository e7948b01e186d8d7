package model

import "time"

type EventType string

const (
	EventBookingCreated   EventType = "booking.created"
	EventBookingApproved  EventType = "booking.approved"
	EventBookingRejected  EventType = "booking.rejected"
	EventBookingCancelled EventType = "booking.cancelled"
	EventBookingPreempted EventType = "booking.preempted"
	EventBookingStarted   EventType = "booking.started"
	EventBookingCompleted EventType = "booking.completed"
	EventBookingExpired   EventType = "booking.expired"

	EventKeyCheckedOut EventType = "key.checked_out"
	EventKeyCheckedIn  EventType = "key.checked_in"
	EventKeyOverdue    EventType = "key.overdue"
)

// Event is emitted after a state change has been committed.
type Event struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	ActorID    string    `json:"actor_id,omitempty"`

	ResourceID    string `json:"resource_id,omitempty"`
	BookingID     string `json:"booking_id,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	KeyID         string `json:"key_id,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`

	FromStatus string `json:"from_status,omitempty"`
	ToStatus   string `json:"to_status,omitempty"`
	Reason     string `json:"reason,omitempty"`
	CausedBy   string `json:"caused_by,omitempty"`
}

// PartitionKey keeps all events of one resource or key in order.
func (e Event) PartitionKey() string {
	if e.KeyID != "" {
		return "key:" + e.KeyID
	}
	if e.ResourceID != "" {
		return "resource:" + e.ResourceID
	}
	return e.ID
}
