package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimetableEntry_Occurrences(t *testing.T) {
	// 2026-03-02 is a Monday.
	entry := &TimetableEntry{
		ResourceID: "room-1",
		Weekday:    "monday",
		StartOfDay: "09:00",
		EndOfDay:   "10:30",
		TimeZone:   "UTC",
	}

	window := Interval{Start: base, End: base.AddDate(0, 0, 14)}
	occ, err := entry.Occurrences(window)
	require.NoError(t, err)
	require.Len(t, occ, 2)
	assert.Equal(t, at(9, 0), occ[0].Start)
	assert.Equal(t, at(10, 30), occ[0].End)
	assert.Equal(t, at(9, 0).AddDate(0, 0, 7), occ[1].Start)
}

func TestTimetableEntry_OccurrencesRespectWindowAndValidity(t *testing.T) {
	until := base.AddDate(0, 0, 7)
	entry := &TimetableEntry{
		Weekday:    "Monday",
		StartOfDay: "09:00",
		EndOfDay:   "10:00",
		TimeZone:   "UTC",
		ValidUntil: &until,
	}

	occ, err := entry.Occurrences(iv(10, 0, 12, 0))
	require.NoError(t, err)
	assert.Empty(t, occ, "touching the end of an occurrence is not an overlap")

	occ, err = entry.Occurrences(Interval{Start: base, End: base.AddDate(0, 0, 21)})
	require.NoError(t, err)
	assert.Len(t, occ, 1)
}

func TestTimetableEntry_OccurrencesLongWindow(t *testing.T) {
	entry := &TimetableEntry{
		Weekday:    "wednesday",
		StartOfDay: "14:00",
		EndOfDay:   "15:00",
		TimeZone:   "UTC",
	}
	occ, err := entry.Occurrences(Interval{Start: base, End: base.AddDate(1, 0, 0)})
	require.NoError(t, err)
	require.Len(t, occ, 52)
	for i, o := range occ {
		assert.Equal(t, time.Wednesday, o.Start.Weekday())
		if i > 0 {
			assert.Equal(t, 7*24*time.Hour, o.Start.Sub(occ[i-1].Start))
		}
	}

	from, until := base.AddDate(0, 0, 7), base.AddDate(0, 0, 21)
	entry.ValidFrom, entry.ValidUntil = &from, &until
	occ, err = entry.Occurrences(Interval{
		Start: time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, occ, 2, "walk is clipped to the validity range")
	assert.Equal(t, at(14, 0).AddDate(0, 0, 9), occ[0].Start)
}

func TestTimetableEntry_OccurrencesInLocalZone(t *testing.T) {
	entry := &TimetableEntry{
		Weekday:    "monday",
		StartOfDay: "09:00",
		EndOfDay:   "10:00",
		TimeZone:   "Asia/Jerusalem",
	}
	occ, err := entry.Occurrences(Interval{Start: base, End: base.Add(24 * time.Hour)})
	require.NoError(t, err)
	require.Len(t, occ, 1)
	assert.Equal(t, 7, occ[0].Start.UTC().Hour())
}

func TestTimetableEntry_OccurrencesInvalid(t *testing.T) {
	window := Interval{Start: base, End: base.Add(24 * time.Hour)}

	_, err := (&TimetableEntry{Weekday: "someday", StartOfDay: "09:00", EndOfDay: "10:00", TimeZone: "UTC"}).Occurrences(window)
	assert.Error(t, err)

	_, err = (&TimetableEntry{Weekday: "monday", StartOfDay: "10:00", EndOfDay: "09:00", TimeZone: "UTC"}).Occurrences(window)
	assert.Error(t, err)

	_, err = (&TimetableEntry{Weekday: "monday", StartOfDay: "09:00", EndOfDay: "10:00", TimeZone: "Mars/Base"}).Occurrences(window)
	assert.Error(t, err)
}
