// Package lifecycle validates and applies single booking status
// transitions. It owns no clock and no storage; callers pass now and
// persist the result.
package lifecycle

import (
	"slices"
	"strings"
	"time"

	bookingserrors "reservo/internal/bookings/errors"
	apperrors "reservo/pkg/errors"
	"reservo/pkg/model"
)

// System is the actor recorded for transitions no person triggered.
var System = model.Requester{UserID: "system", IsAdmin: true}

var allowed = map[model.BookingStatus][]model.BookingStatus{
	model.BookingPending:  {model.BookingApproved, model.BookingRejected, model.BookingCancelled, model.BookingPreempted},
	model.BookingApproved: {model.BookingCancelled, model.BookingPreempted, model.BookingInUse, model.BookingExpired},
	model.BookingInUse:    {model.BookingCompleted},
}

// InitialStatus is approved for administrators and, when autoApprove is
// set, for resources that need no special approval.
func InitialStatus(actor model.Requester, resource *model.Resource, autoApprove bool) model.BookingStatus {
	if actor.IsAdmin || (autoApprove && !resource.RequiresSpecialApproval) {
		return model.BookingApproved
	}
	return model.BookingPending
}

func CanTransition(from, to model.BookingStatus) bool {
	return slices.Contains(allowed[from], to)
}

// Apply moves b to the target status when the table and the guard for that
// edge allow it, and stamps the matching audit fields. b is left untouched
// on error.
func Apply(b *model.Booking, to model.BookingStatus, actor model.Requester, now time.Time, reason string) error {
	from := b.Status
	if !CanTransition(from, to) {
		return ineligible(from, to, "transition not allowed")
	}
	if err := guard(b, to, actor, now, reason); err != nil {
		return err
	}

	at := now
	b.Status = to
	switch to {
	case model.BookingApproved:
		b.ApprovedBy, b.ApprovedAt = actor.UserID, &at
	case model.BookingRejected:
		b.RejectedBy, b.RejectedAt, b.RejectionReason = actor.UserID, &at, reason
	case model.BookingCancelled:
		b.CancelledBy, b.CancelledAt, b.CancellationReason = actor.UserID, &at, reason
	case model.BookingPreempted:
		b.PreemptedBy, b.PreemptedAt = reason, &at
	case model.BookingInUse:
		b.StartedBy, b.StartedAt = actor.UserID, &at
	case model.BookingCompleted:
		b.CompletedBy, b.CompletedAt = actor.UserID, &at
	case model.BookingExpired:
		b.ExpiredAt = &at
	}
	return nil
}

func guard(b *model.Booking, to model.BookingStatus, actor model.Requester, now time.Time, reason string) error {
	from := b.Status
	switch to {
	case model.BookingApproved:
		if !actor.IsAdmin {
			return apperrors.Forbidden("only administrators can approve bookings")
		}
	case model.BookingRejected:
		if !actor.IsAdmin {
			return apperrors.Forbidden("only administrators can reject bookings")
		}
		if strings.TrimSpace(reason) == "" {
			return apperrors.Validation("rejection requires a reason", map[string]any{"field": "reason"})
		}
	case model.BookingCancelled:
		if !ownerOrAdmin(b, actor) {
			return apperrors.Forbidden("only the owner or an administrator can cancel a booking")
		}
		if !b.CanBeCancelled(now) {
			return ineligible(from, to, "booking has already started")
		}
	case model.BookingInUse:
		if !ownerOrAdmin(b, actor) {
			return apperrors.Forbidden("only the owner or an administrator can start occupancy")
		}
		if !b.Interval().ContainsTime(now) {
			return ineligible(from, to, "current time is outside the booking interval")
		}
	case model.BookingCompleted:
		if !ownerOrAdmin(b, actor) {
			return apperrors.Forbidden("only the owner or an administrator can end occupancy")
		}
		if now.Before(b.EndTime) {
			return ineligible(from, to, "booking interval has not ended")
		}
	case model.BookingExpired:
		if now.Before(b.EndTime) {
			return ineligible(from, to, "booking interval has not ended")
		}
	}
	return nil
}

func ownerOrAdmin(b *model.Booking, actor model.Requester) bool {
	return actor.IsAdmin || actor.UserID == b.UserID
}

func ineligible(from, to model.BookingStatus, reason string) error {
	err := apperrors.IneligibleTransition(string(from), string(to), reason)
	err.Err = bookingserrors.ErrIneligibleTransition
	return err
}
