package memstore

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	bookingserrors "reservo/internal/bookings/errors"
	keyserrors "reservo/internal/keys/errors"
	resourceserrors "reservo/internal/resources/errors"
	"reservo/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func booking(resourceID string, sh, eh int, status model.BookingStatus) *model.Booking {
	return &model.Booking{
		UserID:     "u1",
		ResourceID: resourceID,
		StartTime:  at(sh, 0),
		EndTime:    at(eh, 0),
		Status:     status,
		Priority:   1,
	}
}

func TestBookings_CreateAndFind(t *testing.T) {
	ctx := context.Background()
	repo := New().Bookings()

	b := booking("r1", 10, 11, model.BookingApproved)
	require.NoError(t, repo.Create(ctx, b))
	require.NotEmpty(t, b.ID)

	got, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ResourceID, got.ResourceID)

	got.Status = model.BookingCancelled
	again, err := repo.FindByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingApproved, again.Status, "returned bookings are copies")

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, bookingserrors.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &model.Booking{ID: "missing"}), bookingserrors.ErrNotFound)
}

func TestBookings_FindOverlapping(t *testing.T) {
	ctx := context.Background()
	repo := New().Bookings()

	a := booking("r1", 10, 11, model.BookingApproved)
	b := booking("r1", 11, 12, model.BookingPending)
	c := booking("r1", 10, 12, model.BookingCancelled)
	d := booking("r2", 10, 12, model.BookingApproved)
	for _, x := range []*model.Booking{a, b, c, d} {
		require.NoError(t, repo.Create(ctx, x))
	}

	iv := model.Interval{Start: at(10, 30), End: at(11, 30)}
	got, err := repo.FindOverlapping(ctx, "r1", iv, model.OccupyingStatuses, "")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID)
	assert.Equal(t, b.ID, got[1].ID)

	got, err = repo.FindOverlapping(ctx, "r1", iv, model.OccupyingStatuses, a.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, b.ID, got[0].ID)

	touching := model.Interval{Start: at(12, 0), End: at(13, 0)}
	got, err = repo.FindOverlapping(ctx, "r1", touching, model.OccupyingStatuses, "")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestBookings_FindDueForSweep(t *testing.T) {
	ctx := context.Background()
	repo := New().Bookings()

	due := booking("r1", 8, 9, model.BookingApproved)
	inUse := booking("r1", 9, 10, model.BookingInUse)
	future := booking("r1", 11, 12, model.BookingApproved)
	pending := booking("r1", 7, 8, model.BookingPending)
	for _, x := range []*model.Booking{inUse, due, future, pending} {
		require.NoError(t, repo.Create(ctx, x))
	}

	got, err := repo.FindDueForSweep(ctx, at(10, 0), model.SweepCursor{}, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, due.ID, got[0].ID)
	assert.Equal(t, inUse.ID, got[1].ID)

	got, err = repo.FindDueForSweep(ctx, at(10, 0), model.SweepCursor{}, 1)
	require.NoError(t, err)
	require.Len(t, got, 1)

	next, err := repo.FindDueForSweep(ctx, at(10, 0), model.SweepCursor{At: got[0].EndTime, ID: got[0].ID}, 1)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, inUse.ID, next[0].ID)
}

func TestExecuteTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := New()
	repo := s.Bookings()

	existing := booking("r1", 10, 11, model.BookingApproved)
	require.NoError(t, repo.Create(ctx, existing))

	boom := errors.New("boom")
	err := s.ExecuteTransaction(ctx, func(ctx context.Context) error {
		existing.Status = model.BookingPreempted
		if err := repo.Update(ctx, existing); err != nil {
			return err
		}
		if err := repo.Create(ctx, booking("r1", 10, 11, model.BookingApproved)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := repo.FindByID(ctx, existing.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingApproved, got.Status)

	all, err := repo.FindByResource(ctx, "r1", nil, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestFailNext_IsOneShot(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("write failed")
	s.FailNext("bookings.Create", boom)

	assert.ErrorIs(t, s.Bookings().Create(ctx, booking("r1", 10, 11, model.BookingPending)), boom)
	assert.NoError(t, s.Bookings().Create(ctx, booking("r1", 10, 11, model.BookingPending)))
}

func TestExecuteTransaction_Nested(t *testing.T) {
	ctx := context.Background()
	s := New()
	repo := s.Bookings()

	boom := errors.New("inner")
	err := s.ExecuteTransaction(ctx, func(ctx context.Context) error {
		require.NoError(t, repo.Create(ctx, booking("r1", 10, 11, model.BookingPending)))
		return s.ExecuteTransaction(ctx, func(ctx context.Context) error {
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)

	n, err := repo.CountByResource(ctx, "r1", nil)
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestExecuteTransaction_Serializes(t *testing.T) {
	ctx := context.Background()
	s := New()
	repo := s.Bookings()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.ExecuteTransaction(ctx, func(ctx context.Context) error {
				n, err := repo.CountByResource(ctx, "r1", nil)
				if err != nil {
					return err
				}
				if n > 0 {
					return nil
				}
				return repo.Create(ctx, booking("r1", 10, 11, model.BookingPending))
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	n, err := repo.CountByResource(ctx, "r1", nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
}

func TestResources_Uniqueness(t *testing.T) {
	ctx := context.Background()
	repo := New().Resources()

	require.NoError(t, repo.Create(ctx, &model.Resource{ID: "lab", Name: "Lab", Category: "lab", Capacity: 2, Status: model.ResourceAvailable, KeyID: "k1"}))
	assert.ErrorIs(t, repo.Create(ctx, &model.Resource{ID: "lab", Name: "Lab 2", Category: "lab", Capacity: 1}), resourceserrors.ErrDuplicateResource)
	assert.ErrorIs(t, repo.Create(ctx, &model.Resource{ID: "other", Name: "Other", Category: "lab", Capacity: 1, KeyID: "k1"}), resourceserrors.ErrKeyAlreadyBound)

	got, err := repo.FindByKeyID(ctx, "k1")
	require.NoError(t, err)
	assert.Equal(t, "lab", got.ID)

	require.NoError(t, repo.UpdateStatus(ctx, "lab", model.ResourceUnavailable))
	got, err = repo.FindByID(ctx, "lab")
	require.NoError(t, err)
	assert.Equal(t, model.ResourceUnavailable, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus(ctx, "nope", model.ResourceAvailable), resourceserrors.ErrNotFound)
}

func TestResources_FindByCategoryOrder(t *testing.T) {
	ctx := context.Background()
	repo := New().Resources()
	for _, r := range []*model.Resource{
		{ID: "c", Category: "room", Capacity: 10},
		{ID: "a", Category: "room", Capacity: 4},
		{ID: "b", Category: "room", Capacity: 4},
		{ID: "x", Category: "lab", Capacity: 1},
	} {
		require.NoError(t, repo.Create(ctx, r))
	}

	got, err := repo.FindByCategory(ctx, "room")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a", "b", "c"}, []string{got[0].ID, got[1].ID, got[2].ID})
}

func TestIssues_FindOpen(t *testing.T) {
	ctx := context.Background()
	repo := New().Issues()

	open := &model.ResourceIssue{ResourceID: "r1", Classification: model.IssueMaintenance, Status: model.IssueInProgress}
	closed := &model.ResourceIssue{ResourceID: "r1", Classification: model.IssueMaintenance, Status: model.IssueResolved}
	require.NoError(t, repo.Create(ctx, open))
	require.NoError(t, repo.Create(ctx, closed))

	got, err := repo.FindOpenByResource(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, open.ID, got[0].ID)

	_, err = repo.FindByID(ctx, "missing")
	assert.ErrorIs(t, err, resourceserrors.ErrIssueNotFound)
}

func TestTimetable_UpsertByExternalRef(t *testing.T) {
	ctx := context.Background()
	repo := New().Timetable()

	first := &model.TimetableEntry{ResourceID: "r1", Source: "registrar", ExternalRef: "CS101", Weekday: "monday", StartOfDay: "09:00", EndOfDay: "10:00", TimeZone: "UTC"}
	require.NoError(t, repo.Upsert(ctx, first))

	second := &model.TimetableEntry{ResourceID: "r1", Source: "registrar", ExternalRef: "CS101", Weekday: "monday", StartOfDay: "10:00", EndOfDay: "11:00", TimeZone: "UTC"}
	require.NoError(t, repo.Upsert(ctx, second))
	assert.Equal(t, first.ID, second.ID)

	got, err := repo.FindByResource(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "10:00", got[0].StartOfDay)

	require.NoError(t, repo.DeleteByExternalRef(ctx, "registrar", "CS101"))
	assert.ErrorIs(t, repo.DeleteByExternalRef(ctx, "registrar", "CS101"), resourceserrors.ErrTimetableEntryNotFound)
}

func TestKeyTransactions_OneOpenPerKey(t *testing.T) {
	ctx := context.Background()
	repo := New().KeyTransactions()

	tx := &model.KeyTransaction{KeyID: "k1", Status: model.KeyCheckedOut, CheckedOutAt: at(9, 0), ExpectedReturnAt: at(12, 0)}
	require.NoError(t, repo.Create(ctx, tx))

	err := repo.Create(ctx, &model.KeyTransaction{KeyID: "k1", Status: model.KeyCheckedOut})
	assert.ErrorIs(t, err, keyserrors.ErrAlreadyCheckedOut)

	due, err := repo.FindOpenDueBefore(ctx, at(13, 0), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)

	returned := at(13, 30)
	tx.Status = model.KeyReturned
	tx.CheckedInAt = &returned
	require.NoError(t, repo.Update(ctx, tx))

	_, err = repo.FindOpenByKey(ctx, "k1")
	assert.ErrorIs(t, err, keyserrors.ErrNotFound)
	assert.NoError(t, repo.Create(ctx, &model.KeyTransaction{KeyID: "k1", Status: model.KeyCheckedOut}))
}
