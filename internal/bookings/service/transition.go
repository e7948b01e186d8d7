package service

import (
	"context"
	"errors"

	bookingserrors "reservo/internal/bookings/errors"
	"reservo/internal/bookings/lifecycle"
	"reservo/internal/events"
	apperrors "reservo/pkg/errors"
	"reservo/pkg/metrics"
	"reservo/pkg/model"
)

var transitionEvents = map[model.BookingStatus]model.EventType{
	model.BookingApproved:  model.EventBookingApproved,
	model.BookingRejected:  model.EventBookingRejected,
	model.BookingCancelled: model.EventBookingCancelled,
	model.BookingPreempted: model.EventBookingPreempted,
	model.BookingInUse:     model.EventBookingStarted,
	model.BookingCompleted: model.EventBookingCompleted,
	model.BookingExpired:   model.EventBookingExpired,
}

// precheck runs inside the exclusive section before the transition is
// applied.
type precheck func(ctx context.Context, b *model.Booking) error

func (s *bookingService) Approve(ctx context.Context, id string, approver model.Requester) (*model.Booking, error) {
	return s.transition(ctx, id, model.BookingApproved, approver, "", s.ensureNoBlockingConflicts)
}

func (s *bookingService) Reject(ctx context.Context, id string, approver model.Requester, reason string) (*model.Booking, error) {
	return s.transition(ctx, id, model.BookingRejected, approver, reason, nil)
}

func (s *bookingService) Cancel(ctx context.Context, id string, actor model.Requester, reason string) (*model.Booking, error) {
	return s.transition(ctx, id, model.BookingCancelled, actor, reason, nil)
}

func (s *bookingService) TransitionOccupancy(ctx context.Context, id string, actor model.Requester, to model.BookingStatus) (*model.Booking, error) {
	if to != model.BookingInUse && to != model.BookingCompleted {
		return nil, apperrors.Validation("Invalid occupancy transition", map[string]any{"status": "status must be one of: in_use completed"})
	}
	return s.transition(ctx, id, to, actor, "", nil)
}

// ensureNoBlockingConflicts re-runs detection for a pending booking. The
// booking itself is excluded since it already holds its slot.
func (s *bookingService) ensureNoBlockingConflicts(ctx context.Context, b *model.Booking) error {
	if b.Status != model.BookingPending {
		return nil
	}
	res, err := s.detector.FindConflicts(ctx, b.ResourceID, b.Interval(), b.ID)
	if err != nil {
		return err
	}
	if !res.Available {
		return &conflictError{resource: res.Resource, conflicts: res.Conflicts, reason: "blocking conflicts at approval time"}
	}
	return nil
}

func (s *bookingService) transition(ctx context.Context, id string, to model.BookingStatus, actor model.Requester, reason string, check precheck) (*model.Booking, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}
	current, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var from model.BookingStatus
	var updated *model.Booking
	err = s.withResourceLock(ctx, current.ResourceID, func(ctx context.Context) error {
		return s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
			b, err := s.repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			from = b.Status
			if check != nil {
				if err := check(ctx, b); err != nil {
					return err
				}
			}
			if err := lifecycle.Apply(b, to, actor, s.clock.Now(), reason); err != nil {
				return err
			}
			if err := s.repo.Update(ctx, b); err != nil {
				return err
			}
			updated = b
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, bookingserrors.ErrIneligibleTransition) || apperrors.HasCode(err, apperrors.CodeForbidden) {
			s.cfg.Log.Warn("Booking transition refused", "id", id, "from", current.Status, "to", to, "actor", actor.UserID, "error", err)
		}
		return nil, s.admissionError(ctx, "Booking cannot be approved due to conflicts", current, id, err)
	}

	s.applied(ctx, updated, from, actor.UserID, reason)
	return updated, nil
}

func (s *bookingService) applied(ctx context.Context, b *model.Booking, from model.BookingStatus, actorID, reason string) {
	metrics.RecordTransition(string(from), string(b.Status))
	ev := events.BookingEvent(transitionEvents[b.Status], b, actorID, string(from), s.clock.Now())
	ev.Reason = reason
	s.publish(ctx, ev)

	s.cfg.Log.Info("Booking transitioned",
		"id", b.ID,
		"resource_id", b.ResourceID,
		"from", from,
		"to", b.Status,
		"actor", actorID,
	)
}
