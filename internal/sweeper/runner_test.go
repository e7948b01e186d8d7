package sweeper

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"reservo/internal/bookings/conflict"
	bookingsservice "reservo/internal/bookings/service"
	"reservo/internal/bookings/suggest"
	bookingsvalidator "reservo/internal/bookings/validator"
	"reservo/internal/events"
	keysservice "reservo/internal/keys/service"
	keysvalidator "reservo/internal/keys/validator"
	"reservo/internal/store/memstore"
	"reservo/pkg/clock"
	"reservo/pkg/config"
	"reservo/pkg/lock"
	"reservo/pkg/logger"
	"reservo/pkg/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func TestRunOnce_ContinuesAfterFailure(t *testing.T) {
	clk := clock.NewFake(day)
	var seen []time.Time
	r := NewRunner(clk, logger.Discard(),
		NewJob("broken", func(ctx context.Context, now time.Time) (int, error) {
			seen = append(seen, now)
			return 0, errors.New("store down")
		}),
		NewJob("ok", func(ctx context.Context, now time.Time) (int, error) {
			seen = append(seen, now)
			return 3, nil
		}),
	)

	applied, err := r.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broken")
	assert.Equal(t, 3, applied["ok"])
	assert.Equal(t, []time.Time{day, day}, seen, "jobs share one now")
}

func TestRun_StopsOnCancel(t *testing.T) {
	var calls atomic.Int32
	r := NewRunner(clock.Real(), logger.Discard(), NewJob("count", func(context.Context, time.Time) (int, error) {
		calls.Add(1)
		return 0, nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- r.Run(ctx, 5*time.Millisecond) }()

	assert.Eventually(t, func() bool { return calls.Load() >= 2 }, time.Second, time.Millisecond)
	cancel()
	assert.NoError(t, <-done)

	assert.Error(t, r.Run(context.Background(), 0))
}

// Both sweeps against one store: bookings ended by 13:00 close and the key
// past its expected return is marked overdue. A second pass changes nothing.
func TestSweeps(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	require.NoError(t, s.Resources().Create(ctx, &model.Resource{
		ID: "lab", Name: "Lab", Category: "lab", Capacity: 2, Status: model.ResourceAvailable, KeyID: "k1",
	}))
	approved := &model.Booking{ID: uuid.NewString(), UserID: "a", ResourceID: "lab",
		StartTime: day.Add(9 * time.Hour), EndTime: day.Add(12 * time.Hour), Status: model.BookingApproved}
	inUse := &model.Booking{ID: uuid.NewString(), UserID: "b", ResourceID: "lab",
		StartTime: day.Add(9 * time.Hour), EndTime: day.Add(11 * time.Hour), Status: model.BookingInUse}
	require.NoError(t, s.Bookings().Create(ctx, approved))
	require.NoError(t, s.Bookings().Create(ctx, inUse))

	cfg := config.Defaults(logger.Discard())
	clk := clock.NewFake(day.Add(9 * time.Hour))
	locker := lock.NewLocalLocker(lock.DefaultOptions())
	rec := &events.Recorder{}

	detector := conflict.NewDetector(s.Bookings(), s.Resources(), s.Issues(), s.Timetable())
	suggester := suggest.NewEngine(detector, s.Resources(), s.Issues(), s.Bookings(), clk, suggest.Options{
		Window: cfg.SuggestionWindow, Step: cfg.SuggestionStep, MaxSlots: cfg.SuggestionMaxSlots,
	}, cfg.Log)
	bookings := bookingsservice.NewBookingService(s.Bookings(), detector, suggester, locker, rec,
		bookingsvalidator.NewBookingValidator(cfg.Log), clk, cfg)
	keys := keysservice.NewKeyService(s.KeyTransactions(), s.Bookings(), s.Resources(), locker, rec,
		keysvalidator.NewKeyValidator(cfg.Log), clk, cfg)

	_, err := keys.CheckOutKey(ctx, "k1", &model.CheckOutRequest{BookingID: approved.ID}, model.Requester{UserID: "desk"})
	require.NoError(t, err)

	r := NewRunner(clk, cfg.Log,
		NewJob("expire_complete", bookings.SweepExpireAndComplete),
		NewJob("overdue_keys", keys.SweepOverdueKeys),
	)

	clk.Set(day.Add(13 * time.Hour))
	applied, err := r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"expire_complete": 2, "overdue_keys": 1}, applied)

	applied, err = r.RunOnce(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"expire_complete": 0, "overdue_keys": 0}, applied)

	b, err := s.Bookings().FindByID(ctx, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingExpired, b.Status)
	b, err = s.Bookings().FindByID(ctx, inUse.ID)
	require.NoError(t, err)
	assert.Equal(t, model.BookingCompleted, b.Status)
}
