package service

import (
	"context"
	"time"

	"reservo/internal/keys/custody"
	"reservo/pkg/metrics"
	"reservo/pkg/model"
)

// SweepOverdueKeys persists the overdue status of checked-out keys past
// their expected return and marks them notified. Rows already marked are not
// revisited.
func (s *keyService) SweepOverdueKeys(ctx context.Context, now time.Time) (int, error) {
	var cursor model.SweepCursor
	applied, visited := 0, 0

	for {
		due, err := s.repo.FindCheckedOutDueBefore(ctx, now, cursor, s.cfg.SweepBatchSize)
		if err != nil {
			return applied, err
		}

		for _, tx := range due {
			visited++
			ok, err := s.sweepOne(ctx, tx.ID, tx.KeyID, now)
			switch {
			case err != nil:
				metrics.RecordSweepRow(metrics.SweepOverdueKeys, metrics.ResultFailed)
				s.cfg.Log.Error("Overdue sweep failed for key transaction, skipping", "id", tx.ID, "key_id", tx.KeyID, "error", err)
			case ok:
				applied++
				metrics.RecordSweepRow(metrics.SweepOverdueKeys, metrics.ResultApplied)
			default:
				metrics.RecordSweepRow(metrics.SweepOverdueKeys, metrics.ResultSkipped)
			}
		}

		if len(due) < s.cfg.SweepBatchSize {
			break
		}
		last := due[len(due)-1]
		cursor = model.SweepCursor{At: last.ExpectedReturnAt, ID: last.ID}
		if ctx.Err() != nil {
			return applied, ctx.Err()
		}
	}

	if applied > 0 {
		s.cfg.Log.Info("Overdue key sweep finished", "applied", applied, "visited", visited)
	}
	return applied, nil
}

// sweepOne reloads under the key lock so a check-in that got there first
// is left alone.
func (s *keyService) sweepOne(ctx context.Context, id, keyID string, now time.Time) (bool, error) {
	var marked *model.KeyTransaction
	err := s.withKeyLock(ctx, keyID, func(ctx context.Context) error {
		return s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
			tx, err := s.repo.FindByID(ctx, id)
			if err != nil {
				return err
			}
			if !custody.MarkOverdue(tx, now) {
				return nil
			}
			if err := s.repo.Update(ctx, tx); err != nil {
				return err
			}
			marked = tx
			return nil
		})
	})
	if err != nil || marked == nil {
		return false, err
	}
	s.applied(ctx, marked, model.EventKeyOverdue, actionOverdue, "system")
	s.cfg.Log.Info("Key overdue", "id", marked.ID, "key_id", keyID, "borrower_id", marked.BorrowerID)
	return true, nil
}
