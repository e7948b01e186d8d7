package lifecycle

import (
	"errors"
	"testing"
	"time"

	bookingserrors "reservo/internal/bookings/errors"
	apperrors "reservo/pkg/errors"
	"reservo/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func at(h int) time.Time {
	return day.Add(time.Duration(h) * time.Hour)
}

var (
	owner    = model.Requester{UserID: "owner"}
	stranger = model.Requester{UserID: "stranger"}
	admin    = model.Requester{UserID: "admin", IsAdmin: true}
)

func newBooking(status model.BookingStatus) *model.Booking {
	return &model.Booking{ID: "b1", UserID: "owner", ResourceID: "r1", StartTime: at(10), EndTime: at(11), Status: status}
}

func TestInitialStatus(t *testing.T) {
	standard := &model.Resource{}
	special := &model.Resource{RequiresSpecialApproval: true}

	assert.Equal(t, model.BookingPending, InitialStatus(owner, standard, false))
	assert.Equal(t, model.BookingApproved, InitialStatus(owner, standard, true))
	assert.Equal(t, model.BookingPending, InitialStatus(owner, special, true))
	assert.Equal(t, model.BookingApproved, InitialStatus(admin, special, false))
}

func TestApply_Guards(t *testing.T) {
	tests := []struct {
		name   string
		from   model.BookingStatus
		to     model.BookingStatus
		actor  model.Requester
		now    time.Time
		reason string
		code   string
	}{
		{"approve", model.BookingPending, model.BookingApproved, admin, at(8), "", ""},
		{"approve needs admin", model.BookingPending, model.BookingApproved, owner, at(8), "", apperrors.CodeForbidden},
		{"reject", model.BookingPending, model.BookingRejected, admin, at(8), "room closed", ""},
		{"reject needs reason", model.BookingPending, model.BookingRejected, admin, at(8), " ", apperrors.CodeValidation},
		{"reject approved", model.BookingApproved, model.BookingRejected, admin, at(8), "x", apperrors.CodeIneligibleTransition},
		{"owner cancels", model.BookingApproved, model.BookingCancelled, owner, at(8), "", ""},
		{"admin cancels", model.BookingPending, model.BookingCancelled, admin, at(8), "", ""},
		{"stranger cancels", model.BookingPending, model.BookingCancelled, stranger, at(8), "", apperrors.CodeForbidden},
		{"cancel after start", model.BookingApproved, model.BookingCancelled, owner, at(10), "", apperrors.CodeIneligibleTransition},
		{"start", model.BookingApproved, model.BookingInUse, owner, at(10), "", ""},
		{"start early", model.BookingApproved, model.BookingInUse, owner, at(9), "", apperrors.CodeIneligibleTransition},
		{"start at end", model.BookingApproved, model.BookingInUse, owner, at(11), "", apperrors.CodeIneligibleTransition},
		{"start pending", model.BookingPending, model.BookingInUse, owner, at(10), "", apperrors.CodeIneligibleTransition},
		{"complete", model.BookingInUse, model.BookingCompleted, System, at(11), "", ""},
		{"complete early", model.BookingInUse, model.BookingCompleted, owner, at(10), "", apperrors.CodeIneligibleTransition},
		{"expire", model.BookingApproved, model.BookingExpired, System, at(12), "", ""},
		{"expire early", model.BookingApproved, model.BookingExpired, System, at(10), "", apperrors.CodeIneligibleTransition},
		{"expire in use", model.BookingInUse, model.BookingExpired, System, at(12), "", apperrors.CodeIneligibleTransition},
		{"preempt pending", model.BookingPending, model.BookingPreempted, System, at(8), "b2", ""},
		{"preempt in use", model.BookingInUse, model.BookingPreempted, System, at(10), "b2", apperrors.CodeIneligibleTransition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := newBooking(tt.from)
			err := Apply(b, tt.to, tt.actor, tt.now, tt.reason)
			if tt.code == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.to, b.Status)
				return
			}
			require.Error(t, err)
			assert.True(t, apperrors.HasCode(err, tt.code), "got %v", err)
			assert.Equal(t, tt.from, b.Status, "status unchanged on failure")
		})
	}
}

func TestApply_AuditFields(t *testing.T) {
	b := newBooking(model.BookingPending)
	require.NoError(t, Apply(b, model.BookingApproved, admin, at(8), ""))
	assert.Equal(t, "admin", b.ApprovedBy)
	require.NotNil(t, b.ApprovedAt)
	assert.Equal(t, at(8), *b.ApprovedAt)

	require.NoError(t, Apply(b, model.BookingPreempted, System, at(9), "b2"))
	assert.Equal(t, "b2", b.PreemptedBy)

	b = newBooking(model.BookingPending)
	require.NoError(t, Apply(b, model.BookingRejected, admin, at(8), "double booked"))
	assert.Equal(t, "double booked", b.RejectionReason)
}

func TestApply_TerminalStatesNeverMove(t *testing.T) {
	terminal := []model.BookingStatus{model.BookingRejected, model.BookingCancelled, model.BookingPreempted, model.BookingCompleted, model.BookingExpired}
	all := []model.BookingStatus{
		model.BookingPending, model.BookingApproved, model.BookingRejected, model.BookingCancelled,
		model.BookingPreempted, model.BookingInUse, model.BookingCompleted, model.BookingExpired,
	}
	for _, from := range terminal {
		for _, to := range all {
			b := newBooking(from)
			for _, now := range []time.Time{at(8), at(10), at(12)} {
				err := Apply(b, to, admin, now, "reason")
				require.Error(t, err, "%s -> %s", from, to)
				assert.True(t, errors.Is(err, bookingserrors.ErrIneligibleTransition))
				assert.Equal(t, from, b.Status)
			}
		}
	}
}
