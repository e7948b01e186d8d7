package suggest

import (
	"context"
	"errors"
	"testing"
	"time"

	"reservo/internal/bookings/conflict"
	"reservo/internal/store/memstore"
	"reservo/pkg/clock"
	"reservo/pkg/logger"
	"reservo/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var day = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return day.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func window(sh, sm, eh, em int) model.Interval {
	return model.Interval{Start: at(sh, sm), End: at(eh, em)}
}

func newEngine(t *testing.T, s *memstore.Store, now time.Time, opts Options) *Engine {
	t.Helper()
	detector := conflict.NewDetector(s.Bookings(), s.Resources(), s.Issues(), s.Timetable())
	return NewEngine(detector, s.Resources(), s.Issues(), s.Bookings(), clock.NewFake(now), opts, logger.Discard())
}

func seed(t *testing.T, s *memstore.Store, resources ...*model.Resource) {
	t.Helper()
	for _, r := range resources {
		require.NoError(t, s.Resources().Create(context.Background(), r))
	}
}

func book(t *testing.T, s *memstore.Store, userID, resourceID string, iv model.Interval) {
	t.Helper()
	require.NoError(t, s.Bookings().Create(context.Background(), &model.Booking{
		UserID: userID, ResourceID: resourceID, StartTime: iv.Start, EndTime: iv.End, Status: model.BookingApproved, Priority: 1,
	}))
}

func room(id string, capacity int) *model.Resource {
	return &model.Resource{ID: id, Name: id, Category: "room", Capacity: capacity, Status: model.ResourceAvailable}
}

var defaultOpts = Options{Window: 4 * time.Hour, Step: 30 * time.Minute, MaxSlots: 3, MaxResources: 3}

func TestSuggest_SameResourceSlots(t *testing.T) {
	s := memstore.New()
	r := room("r1", 1)
	seed(t, s, r)
	book(t, s, "other", "r1", window(10, 0, 11, 0))

	e := newEngine(t, s, at(8, 0), defaultOpts)
	got := e.Suggest(context.Background(), Request{Resource: r, Interval: window(10, 30, 11, 30), UserID: "u"})

	require.Len(t, got, 3)
	assert.Equal(t, model.SuggestionSameResource, got[0].Kind)
	assert.Equal(t, window(11, 0, 12, 0), got[0].Interval, "nearest free slot is right after the existing booking")
	assert.Equal(t, window(11, 30, 12, 30), got[1].Interval)
	assert.Equal(t, window(12, 0, 13, 0), got[2].Interval)
}

func TestSuggest_SkipsPastSlots(t *testing.T) {
	s := memstore.New()
	r := room("r1", 1)
	seed(t, s, r)
	book(t, s, "other", "r1", window(10, 0, 11, 0))

	e := newEngine(t, s, at(10, 15), defaultOpts)
	got := e.Suggest(context.Background(), Request{Resource: r, Interval: window(10, 30, 11, 30)})

	for _, sg := range got {
		assert.False(t, sg.Interval.Start.Before(at(10, 15)))
	}
}

func TestSuggest_AlternativeResources(t *testing.T) {
	s := memstore.New()
	original := room("a", 4)
	small := room("b-small", 2)
	exact := room("c-exact", 4)
	large := room("d-large", 12)
	busy := room("e-busy", 4)
	broken := room("f-broken", 4)
	closed := room("g-closed", 4)
	closed.Status = model.ResourceUnavailable
	lab := &model.Resource{ID: "lab", Name: "lab", Category: "lab", Capacity: 4, Status: model.ResourceAvailable}
	seed(t, s, original, small, exact, large, busy, broken, closed, lab)

	iv := window(10, 0, 11, 0)
	for range 4 {
		book(t, s, "other", "e-busy", iv)
	}
	require.NoError(t, s.Issues().Create(context.Background(), &model.ResourceIssue{
		ResourceID: "f-broken", Classification: model.IssueSafety, Status: model.IssueReported,
	}))
	book(t, s, "u", "d-large", window(14, 0, 15, 0))
	book(t, s, "u", "d-large", window(15, 0, 16, 0))

	e := newEngine(t, s, at(8, 0), Options{MaxResources: 3})
	got := e.Suggest(context.Background(), Request{Resource: original, Interval: iv, UserID: "u"})

	require.Len(t, got, 2)
	assert.Equal(t, "d-large", got[0].ResourceID, "prior usage outranks capacity fit")
	assert.Equal(t, "c-exact", got[1].ResourceID)
	for _, sg := range got {
		assert.Equal(t, model.SuggestionAlternativeResource, sg.Kind)
		assert.Equal(t, iv, sg.Interval)
	}
}

type failingEvaluator struct{}

func (failingEvaluator) Evaluate(context.Context, *model.Resource, model.Interval, string) (*conflict.Result, error) {
	return nil, errors.New("store down")
}

func TestSuggest_DegradesToEmpty(t *testing.T) {
	s := memstore.New()
	r := room("r1", 1)
	seed(t, s, r, room("r2", 1))

	e := NewEngine(failingEvaluator{}, s.Resources(), s.Issues(), s.Bookings(), clock.NewFake(at(8, 0)), defaultOpts, logger.Discard())
	got := e.Suggest(context.Background(), Request{Resource: r, Interval: window(10, 0, 11, 0)})

	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestSuggest_EarlierSlotWhenLaterIsTaken(t *testing.T) {
	s := memstore.New()
	r := room("r1", 1)
	seed(t, s, r)
	book(t, s, "other", "r1", window(10, 0, 13, 0))

	e := newEngine(t, s, at(6, 0), Options{Window: 2 * time.Hour, Step: time.Hour, MaxSlots: 1})
	got := e.Suggest(context.Background(), Request{Resource: r, Interval: window(10, 0, 11, 0)})

	require.Len(t, got, 1)
	assert.Equal(t, window(9, 0, 10, 0), got[0].Interval)
}
