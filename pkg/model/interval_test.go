package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var base = time.Date(2026, time.March, 2, 0, 0, 0, 0, time.UTC)

func at(h, m int) time.Time {
	return base.Add(time.Duration(h)*time.Hour + time.Duration(m)*time.Minute)
}

func iv(sh, sm, eh, em int) Interval {
	return Interval{Start: at(sh, sm), End: at(eh, em)}
}

func TestNewInterval(t *testing.T) {
	_, err := NewInterval(at(10, 0), at(10, 0))
	assert.Error(t, err)

	_, err = NewInterval(at(11, 0), at(10, 0))
	assert.Error(t, err)

	_, err = NewInterval(time.Time{}, at(10, 0))
	assert.Error(t, err)

	got, err := NewInterval(at(10, 0), at(11, 0))
	require.NoError(t, err)
	assert.Equal(t, time.Hour, got.Duration())
}

func TestInterval_Overlaps(t *testing.T) {
	tests := []struct {
		name string
		a, b Interval
		want bool
	}{
		{"identical", iv(10, 0, 11, 0), iv(10, 0, 11, 0), true},
		{"partial", iv(10, 0, 11, 0), iv(10, 30, 11, 30), true},
		{"contained", iv(9, 0, 12, 0), iv(10, 0, 11, 0), true},
		{"touching end", iv(10, 0, 11, 0), iv(11, 0, 12, 0), false},
		{"touching start", iv(11, 0, 12, 0), iv(10, 0, 11, 0), false},
		{"disjoint", iv(8, 0, 9, 0), iv(10, 0, 11, 0), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}

func TestInterval_Contains(t *testing.T) {
	outer := iv(9, 0, 12, 0)
	assert.True(t, outer.Contains(iv(9, 0, 12, 0)))
	assert.True(t, outer.Contains(iv(10, 0, 11, 0)))
	assert.False(t, outer.Contains(iv(8, 59, 10, 0)))

	assert.True(t, outer.ContainsTime(at(9, 0)))
	assert.False(t, outer.ContainsTime(at(12, 0)))
}

func TestInterval_ShiftAndClip(t *testing.T) {
	shifted := iv(10, 0, 11, 0).Shift(30 * time.Minute)
	assert.Equal(t, iv(10, 30, 11, 30), shifted)

	clipped := iv(8, 0, 11, 0).Clip(iv(9, 0, 10, 0))
	assert.Equal(t, iv(9, 0, 10, 0), clipped)
	assert.False(t, iv(8, 0, 9, 0).Clip(iv(10, 0, 11, 0)).Valid())
}

func FuzzIntervalOverlap(f *testing.F) {
	f.Add(int64(0), int64(60), int64(30), int64(90))
	f.Add(int64(0), int64(60), int64(60), int64(120))
	f.Add(int64(-5), int64(5), int64(-10), int64(-5))

	f.Fuzz(func(t *testing.T, as, ae, bs, be int64) {
		a := Interval{Start: base.Add(time.Duration(as) * time.Minute), End: base.Add(time.Duration(ae) * time.Minute)}
		b := Interval{Start: base.Add(time.Duration(bs) * time.Minute), End: base.Add(time.Duration(be) * time.Minute)}
		if !a.Valid() || !b.Valid() {
			return
		}
		if a.Overlaps(b) != b.Overlaps(a) {
			t.Fatalf("overlap not symmetric for %s and %s", a, b)
		}
		if a.End.Equal(b.Start) && a.Overlaps(b) {
			t.Fatalf("touching intervals %s and %s overlap", a, b)
		}
		if a.Contains(b) && !a.Overlaps(b) {
			t.Fatalf("%s contains %s without overlapping it", a, b)
		}
		if a.Overlaps(b) && !a.Clip(b).Valid() {
			t.Fatalf("clip of overlapping %s and %s is empty", a, b)
		}
	})
}
