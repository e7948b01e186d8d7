package service

import (
	"context"
	"errors"
	"net/http"

	"reservo/internal/bookings/conflict"
	bookingserrors "reservo/internal/bookings/errors"
	"reservo/internal/bookings/suggest"
	apperrors "reservo/pkg/errors"
	"reservo/pkg/metrics"
	"reservo/pkg/model"
)

var errBusy = apperrors.New(apperrors.CodeUnavailable, "Resource is busy, retry shortly", http.StatusServiceUnavailable)

// conflictError aborts the admission transaction. Suggestions are computed
// after the lock is released.
type conflictError struct {
	resource  *model.Resource
	conflicts []model.Conflict
	reason    string
}

func (e *conflictError) Error() string {
	return "conflict: " + e.reason
}

// admissionError turns a failure from inside an exclusive section into the
// error returned to callers. excludeID is the booking being re-validated,
// if any.
func (s *bookingService) admissionError(ctx context.Context, message string, booking *model.Booking, excludeID string, err error) error {
	var ce *conflictError
	if errors.As(err, &ce) {
		metrics.RecordDecision(metrics.OutcomeConflict)
		for _, c := range ce.conflicts {
			metrics.RecordConflict(string(c.Type))
		}
		suggestions := s.suggester.Suggest(ctx, suggest.Request{
			Resource:         ce.resource,
			Interval:         booking.Interval(),
			UserID:           booking.UserID,
			ExcludeBookingID: excludeID,
		})
		s.cfg.Log.Warn(message,
			"resource_id", booking.ResourceID,
			"interval", booking.Interval().String(),
			"conflicts", len(ce.conflicts),
			"reason", ce.reason,
		)
		appErr := apperrors.ConflictWith(message, ce.conflicts, suggestions)
		appErr.Err = bookingserrors.ErrConflict
		return appErr
	}
	return s.detectionError(booking.ResourceID, err)
}

func (s *bookingService) detectionError(resourceID string, err error) error {
	if errors.Is(err, conflict.ErrResourceNotFound) {
		s.cfg.Log.Warn("Unknown resource", "resource_id", resourceID)
		return apperrors.Validation("Unknown resource", map[string]any{"resource_id": resourceID})
	}
	if errors.Is(err, bookingserrors.ErrNotFound) {
		return apperrors.NotFound("Booking")
	}
	if apperrors.IsAppError(err) {
		return err
	}
	s.cfg.Log.Error("Booking operation failed", "resource_id", resourceID, "error", err)
	return apperrors.Internal("Failed to process booking", err)
}
