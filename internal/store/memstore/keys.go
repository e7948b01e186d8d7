package memstore

import (
	"context"
	"slices"
	"strings"
	"time"

	keyserrors "reservo/internal/keys/errors"
	mongotx "reservo/pkg/db/mongo"
	"reservo/pkg/model"

	"github.com/google/uuid"
)

type keyTxRepo struct {
	s *Store
}

func (r *keyTxRepo) Create(ctx context.Context, tx *model.KeyTransaction) error {
	return r.s.write(ctx, "keys.Create", func() error {
		for _, existing := range r.s.keyTxs {
			if existing.KeyID == tx.KeyID && existing.IsOpen() {
				return keyserrors.ErrAlreadyCheckedOut
			}
		}
		if tx.ID == "" {
			tx.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		tx.CreatedAt = now
		tx.UpdatedAt = now
		r.s.keyTxs[tx.ID] = tx.Clone()
		return nil
	})
}

func (r *keyTxRepo) FindByID(ctx context.Context, id string) (*model.KeyTransaction, error) {
	var out *model.KeyTransaction
	err := r.s.read("keys.FindByID", func() error {
		tx, ok := r.s.keyTxs[id]
		if !ok {
			return keyserrors.ErrNotFound
		}
		out = tx.Clone()
		return nil
	})
	return out, err
}

func (r *keyTxRepo) FindOpenByKey(ctx context.Context, keyID string) (*model.KeyTransaction, error) {
	var out *model.KeyTransaction
	err := r.s.read("keys.FindOpenByKey", func() error {
		for _, tx := range r.s.keyTxs {
			if tx.KeyID == keyID && tx.IsOpen() {
				out = tx.Clone()
				return nil
			}
		}
		return keyserrors.ErrNotFound
	})
	return out, err
}

func (r *keyTxRepo) Update(ctx context.Context, tx *model.KeyTransaction) error {
	return r.s.write(ctx, "keys.Update", func() error {
		if _, ok := r.s.keyTxs[tx.ID]; !ok {
			return keyserrors.ErrNotFound
		}
		tx.UpdatedAt = time.Now().UTC()
		r.s.keyTxs[tx.ID] = tx.Clone()
		return nil
	})
}

func (r *keyTxRepo) FindOpenDueBefore(ctx context.Context, now time.Time, limit int) ([]*model.KeyTransaction, error) {
	return r.findDue("keys.FindOpenDueBefore", now, model.SweepCursor{}, limit, (*model.KeyTransaction).IsOpen)
}

func (r *keyTxRepo) FindCheckedOutDueBefore(ctx context.Context, now time.Time, after model.SweepCursor, limit int) ([]*model.KeyTransaction, error) {
	return r.findDue("keys.FindCheckedOutDueBefore", now, after, limit, func(tx *model.KeyTransaction) bool {
		return tx.Status == model.KeyCheckedOut
	})
}

func (r *keyTxRepo) findDue(op string, now time.Time, after model.SweepCursor, limit int, match func(*model.KeyTransaction) bool) ([]*model.KeyTransaction, error) {
	out := []*model.KeyTransaction{}
	err := r.s.read(op, func() error {
		for _, tx := range r.s.keyTxs {
			if match(tx) && tx.ExpectedReturnAt.Before(now) && after.Before(tx.ExpectedReturnAt, tx.ID) {
				out = append(out, tx.Clone())
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *model.KeyTransaction) int {
		if c := a.ExpectedReturnAt.Compare(b.ExpectedReturnAt); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	return paginate(out, limit, 0), nil
}

func (r *keyTxRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.s.ExecuteTransaction(ctx, fn)
}
