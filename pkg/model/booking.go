package model

import (
	"time"
)

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingApproved  BookingStatus = "approved"
	BookingRejected  BookingStatus = "rejected"
	BookingCancelled BookingStatus = "cancelled"
	BookingPreempted BookingStatus = "preempted"
	BookingInUse     BookingStatus = "in_use"
	BookingCompleted BookingStatus = "completed"
	BookingExpired   BookingStatus = "expired"
)

// OccupyingStatuses count against a resource's capacity.
var OccupyingStatuses = []BookingStatus{BookingPending, BookingApproved, BookingInUse}

func (s BookingStatus) IsOccupying() bool {
	return s == BookingPending || s == BookingApproved || s == BookingInUse
}

func (s BookingStatus) IsTerminal() bool {
	switch s {
	case BookingRejected, BookingCancelled, BookingPreempted, BookingCompleted, BookingExpired:
		return true
	}
	return false
}

type Booking struct {
	ID             string        `json:"id" bson:"_id"`
	UserID         string        `json:"user_id" bson:"user_id"`
	ResourceID     string        `json:"resource_id" bson:"resource_id"`
	StartTime      time.Time     `json:"start_time" bson:"start_time"`
	EndTime        time.Time     `json:"end_time" bson:"end_time"`
	Status         BookingStatus `json:"status" bson:"status"`
	Priority       int           `json:"priority" bson:"priority"`
	Purpose        string        `json:"purpose,omitempty" bson:"purpose,omitempty"`
	Classification string        `json:"classification,omitempty" bson:"classification,omitempty"`
	DocumentRef    string        `json:"document_ref,omitempty" bson:"document_ref,omitempty"`
	CreatedByAdmin bool          `json:"created_by_admin" bson:"created_by_admin"`

	ApprovedBy         string     `json:"approved_by,omitempty" bson:"approved_by,omitempty"`
	ApprovedAt         *time.Time `json:"approved_at,omitempty" bson:"approved_at,omitempty"`
	RejectedBy         string     `json:"rejected_by,omitempty" bson:"rejected_by,omitempty"`
	RejectedAt         *time.Time `json:"rejected_at,omitempty" bson:"rejected_at,omitempty"`
	RejectionReason    string     `json:"rejection_reason,omitempty" bson:"rejection_reason,omitempty"`
	CancelledBy        string     `json:"cancelled_by,omitempty" bson:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty" bson:"cancelled_at,omitempty"`
	CancellationReason string     `json:"cancellation_reason,omitempty" bson:"cancellation_reason,omitempty"`
	PreemptedBy        string     `json:"preempted_by,omitempty" bson:"preempted_by,omitempty"`
	PreemptedAt        *time.Time `json:"preempted_at,omitempty" bson:"preempted_at,omitempty"`
	StartedBy          string     `json:"started_by,omitempty" bson:"started_by,omitempty"`
	StartedAt          *time.Time `json:"started_at,omitempty" bson:"started_at,omitempty"`
	CompletedBy        string     `json:"completed_by,omitempty" bson:"completed_by,omitempty"`
	CompletedAt        *time.Time `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	ExpiredAt          *time.Time `json:"expired_at,omitempty" bson:"expired_at,omitempty"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (b *Booking) Interval() Interval {
	return Interval{Start: b.StartTime, End: b.EndTime}
}

// CanBeCancelled is false once the booking has expired or been preempted, or
// once its interval has started.
func (b *Booking) CanBeCancelled(now time.Time) bool {
	if b.Status != BookingPending && b.Status != BookingApproved {
		return false
	}
	return now.Before(b.StartTime)
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (b *Booking) Clone() *Booking {
	if b == nil {
		return nil
	}
	c := *b
	c.ApprovedAt = cloneTime(b.ApprovedAt)
	c.RejectedAt = cloneTime(b.RejectedAt)
	c.CancelledAt = cloneTime(b.CancelledAt)
	c.PreemptedAt = cloneTime(b.PreemptedAt)
	c.StartedAt = cloneTime(b.StartedAt)
	c.CompletedAt = cloneTime(b.CompletedAt)
	c.ExpiredAt = cloneTime(b.ExpiredAt)
	return &c
}

// Requester identifies who is acting. Identity itself is established upstream.
type Requester struct {
	UserID  string `json:"user_id"`
	IsAdmin bool   `json:"is_admin"`
}

type BookingMetadata struct {
	Purpose        string `json:"purpose,omitempty" validate:"omitempty,max=500"`
	Classification string `json:"classification,omitempty" validate:"omitempty,max=100"`
	DocumentRef    string `json:"document_ref,omitempty" validate:"omitempty,max=500"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
