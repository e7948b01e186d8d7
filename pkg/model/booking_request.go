package model

import "time"

// BookingRequest is what a caller submits to reserve a resource.
type BookingRequest struct {
	ResourceID string    `json:"resource_id" validate:"required,max=64"`
	StartTime  time.Time `json:"start_time" validate:"required"`
	EndTime    time.Time `json:"end_time" validate:"required"`
	// Priority falls back to the configured default when nil.
	Priority *int `json:"priority,omitempty"`
	BookingMetadata
}

func (r *BookingRequest) Interval() Interval {
	return Interval{Start: r.StartTime, End: r.EndTime}
}

type AvailabilityRequest struct {
	ResourceID       string    `json:"resource_id" validate:"required,max=64"`
	StartTime        time.Time `json:"start_time" validate:"required"`
	EndTime          time.Time `json:"end_time" validate:"required"`
	Priority         *int      `json:"priority,omitempty"`
	ExcludeBookingID string    `json:"exclude_booking_id,omitempty" validate:"omitempty,uuid"`
}

func (r *AvailabilityRequest) Interval() Interval {
	return Interval{Start: r.StartTime, End: r.EndTime}
}

type Availability struct {
	Available bool `json:"available"`
	// Preemptable is set when the request is blocked only by bookings the
	// requester's priority would displace.
	Preemptable bool         `json:"preemptable"`
	Conflicts   []Conflict   `json:"conflicts"`
	Suggestions []Suggestion `json:"suggestions"`
}

type RejectRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type CancelRequest struct {
	Reason string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

type OccupancyRequest struct {
	Status BookingStatus `json:"status" validate:"required,oneof=in_use completed"`
}
