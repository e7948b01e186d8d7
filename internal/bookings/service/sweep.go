package service

import (
	"context"
	"time"

	"reservo/internal/bookings/lifecycle"
	"reservo/pkg/metrics"
	"reservo/pkg/model"
)

// SweepExpireAndComplete moves every approved booking whose interval has
// ended to expired and every in_use one to completed. Rows that fail are
// logged and skipped. Running it again with nothing due is a no-op.
func (s *bookingService) SweepExpireAndComplete(ctx context.Context, now time.Time) (int, error) {
	var cursor model.SweepCursor
	applied, visited := 0, 0

	for {
		due, err := s.repo.FindDueForSweep(ctx, now, cursor, s.cfg.SweepBatchSize)
		if err != nil {
			return applied, err
		}

		for _, b := range due {
			visited++
			ok, err := s.sweepOne(ctx, b.ID, b.ResourceID, now)
			switch {
			case err != nil:
				metrics.RecordSweepRow(metrics.SweepExpireComplete, metrics.ResultFailed)
				s.cfg.Log.Error("Sweep failed for booking, skipping", "id", b.ID, "resource_id", b.ResourceID, "error", err)
			case ok:
				applied++
				metrics.RecordSweepRow(metrics.SweepExpireComplete, metrics.ResultApplied)
			default:
				metrics.RecordSweepRow(metrics.SweepExpireComplete, metrics.ResultSkipped)
			}
		}

		if len(due) < s.cfg.SweepBatchSize {
			break
		}
		last := due[len(due)-1]
		cursor = model.SweepCursor{At: last.EndTime, ID: last.ID}
		if ctx.Err() != nil {
			return applied, ctx.Err()
		}
	}

	if applied > 0 {
		s.cfg.Log.Info("Expire and complete sweep finished", "applied", applied, "visited", visited)
	}
	return applied, nil
}

// sweepOne reloads the booking under the resource lock so a concurrent user
// action wins if it got there first.
func (s *bookingService) sweepOne(ctx context.Context, id, resourceID string, now time.Time) (bool, error) {
	var from model.BookingStatus
	var updated *model.Booking
	err := s.withResourceLock(ctx, resourceID, func(ctx context.Context) error {
		return s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
			b, err := s.repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			var to model.BookingStatus
			switch b.Status {
			case model.BookingApproved:
				to = model.BookingExpired
			case model.BookingInUse:
				to = model.BookingCompleted
			default:
				return nil
			}
			if b.EndTime.After(now) {
				return nil
			}
			from = b.Status
			if err := lifecycle.Apply(b, to, lifecycle.System, now, ""); err != nil {
				return err
			}
			if err := s.repo.Update(ctx, b); err != nil {
				return err
			}
			updated = b
			return nil
		})
	})
	if err != nil || updated == nil {
		return false, err
	}
	s.applied(ctx, updated, from, lifecycle.System.UserID, "")
	return true, nil
}
