package model

import "time"

type KeyTransactionStatus string

const (
	KeyCheckedOut KeyTransactionStatus = "checked_out"
	KeyReturned   KeyTransactionStatus = "returned"
	KeyOverdue    KeyTransactionStatus = "overdue"
)

// KeyTransaction records one custody period of a physical key.
type KeyTransaction struct {
	ID                string               `json:"id" bson:"_id"`
	KeyID             string               `json:"key_id" bson:"key_id"`
	BookingID         string               `json:"booking_id" bson:"booking_id"`
	ResourceID        string               `json:"resource_id" bson:"resource_id"`
	BorrowerID        string               `json:"borrower_id" bson:"borrower_id"`
	CustodianID       string               `json:"custodian_id" bson:"custodian_id"`
	CheckedOutAt      time.Time            `json:"checked_out_at" bson:"checked_out_at"`
	ExpectedReturnAt  time.Time            `json:"expected_return_at" bson:"expected_return_at"`
	CheckedInAt       *time.Time           `json:"checked_in_at,omitempty" bson:"checked_in_at,omitempty"`
	CheckedInBy       string               `json:"checked_in_by,omitempty" bson:"checked_in_by,omitempty"`
	Status            KeyTransactionStatus `json:"status" bson:"status"`
	OverdueNotifiedAt *time.Time           `json:"overdue_notified_at,omitempty" bson:"overdue_notified_at,omitempty"`
	CreatedAt         time.Time            `json:"created_at" bson:"created_at"`
	UpdatedAt         time.Time            `json:"updated_at" bson:"updated_at"`
}

// IsOpen is true until a check-in has been recorded.
func (t *KeyTransaction) IsOpen() bool {
	return t.Status != KeyReturned
}

// EffectiveStatus derives overdue from the stored timestamps so that it does
// not depend on a sweep having persisted it.
func (t *KeyTransaction) EffectiveStatus(now time.Time) KeyTransactionStatus {
	if t.Status == KeyReturned {
		return KeyReturned
	}
	if t.Status == KeyOverdue || now.After(t.ExpectedReturnAt) {
		return KeyOverdue
	}
	return KeyCheckedOut
}

func (t *KeyTransaction) IsOverdue(now time.Time) bool {
	return t.EffectiveStatus(now) == KeyOverdue
}

func (t *KeyTransaction) Clone() *KeyTransaction {
	if t == nil {
		return nil
	}
	c := *t
	c.CheckedInAt = cloneTime(t.CheckedInAt)
	c.OverdueNotifiedAt = cloneTime(t.OverdueNotifiedAt)
	return &c
}

// OpenKeyStatuses are the stored statuses of a transaction without a check-in.
var OpenKeyStatuses = []KeyTransactionStatus{KeyCheckedOut, KeyOverdue}

// CheckOutRequest is the body of a key checkout. BorrowerID defaults to the
// booking owner and ExpectedReturnAt to the booking end.
type CheckOutRequest struct {
	BookingID        string     `json:"booking_id" validate:"required,uuid"`
	BorrowerID       string     `json:"borrower_id,omitempty" validate:"omitempty,max=64"`
	ExpectedReturnAt *time.Time `json:"expected_return_at,omitempty"`
}
