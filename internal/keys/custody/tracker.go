// Package custody is the key checkout state machine. Overdue is derived
// from timestamps at read time; persisting it is optional bookkeeping.
package custody

import (
	"fmt"
	"time"

	keyserrors "reservo/internal/keys/errors"
	apperrors "reservo/pkg/errors"
	"reservo/pkg/model"
)

type CheckOut struct {
	KeyID            string
	Booking          *model.Booking
	Resource         *model.Resource
	BorrowerID       string
	CustodianID      string
	ExpectedReturnAt time.Time
}

// Open builds a new checked_out transaction. The caller enforces that the
// key has no other open transaction.
func Open(req CheckOut, now time.Time) (*model.KeyTransaction, error) {
	b, r := req.Booking, req.Resource
	if b.Status != model.BookingApproved && b.Status != model.BookingInUse {
		return nil, apperrors.Validation("Key can only be checked out for an approved booking",
			map[string]any{"booking_id": b.ID, "status": string(b.Status)})
	}
	if r.KeyID == "" || r.KeyID != req.KeyID || b.ResourceID != r.ID {
		return nil, apperrors.Validation("Key does not open the booked resource",
			map[string]any{"key_id": req.KeyID, "resource_id": r.ID})
	}
	if !req.ExpectedReturnAt.After(now) {
		return nil, apperrors.Validation("Expected return must be in the future",
			map[string]any{"expected_return_at": req.ExpectedReturnAt})
	}

	return &model.KeyTransaction{
		KeyID:            req.KeyID,
		BookingID:        b.ID,
		ResourceID:       r.ID,
		BorrowerID:       req.BorrowerID,
		CustodianID:      req.CustodianID,
		CheckedOutAt:     now,
		ExpectedReturnAt: req.ExpectedReturnAt,
		Status:           model.KeyCheckedOut,
	}, nil
}

// CheckIn closes an open transaction as returned, late or not.
func CheckIn(tx *model.KeyTransaction, actorID string, now time.Time) error {
	if !tx.IsOpen() {
		err := apperrors.IneligibleTransition(string(tx.Status), string(model.KeyReturned), "key already returned")
		err.Err = keyserrors.ErrAlreadyReturned
		return err
	}
	at := now
	tx.Status = model.KeyReturned
	tx.CheckedInAt = &at
	tx.CheckedInBy = actorID
	return nil
}

// MarkOverdue persists the derived overdue status and the notification
// marker. It reports false when there was nothing to change.
func MarkOverdue(tx *model.KeyTransaction, now time.Time) bool {
	if !tx.IsOpen() || !tx.IsOverdue(now) || tx.OverdueNotifiedAt != nil {
		return false
	}
	at := now
	tx.Status = model.KeyOverdue
	tx.OverdueNotifiedAt = &at
	return true
}

// View is a transaction with its status derived at a given instant.
type View struct {
	*model.KeyTransaction
	EffectiveStatus model.KeyTransactionStatus `json:"effective_status"`
	OverdueBy       string                     `json:"overdue_by,omitempty"`
}

func ViewAt(tx *model.KeyTransaction, now time.Time) View {
	v := View{KeyTransaction: tx, EffectiveStatus: tx.EffectiveStatus(now)}
	if v.EffectiveStatus == model.KeyOverdue {
		v.OverdueBy = fmt.Sprint(now.Sub(tx.ExpectedReturnAt).Truncate(time.Minute))
	}
	return v
}
