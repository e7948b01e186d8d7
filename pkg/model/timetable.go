package model

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// TimetableEntry is a weekly recurring occupation of a resource fed from an
// external schedule. It has no owner and can never be preempted.
type TimetableEntry struct {
	ID          string     `json:"id" bson:"_id" yaml:"id"`
	ResourceID  string     `json:"resource_id" bson:"resource_id" yaml:"resource_id" validate:"required"`
	Source      string     `json:"source,omitempty" bson:"source,omitempty" yaml:"source" validate:"omitempty,max=50"`
	ExternalRef string     `json:"external_ref,omitempty" bson:"external_ref,omitempty" yaml:"external_ref" validate:"omitempty,max=100"`
	Title       string     `json:"title,omitempty" bson:"title,omitempty" yaml:"title" validate:"omitempty,max=200"`
	Weekday     string     `json:"weekday" bson:"weekday" yaml:"weekday" validate:"required,oneof=sunday monday tuesday wednesday thursday friday saturday"`
	StartOfDay  string     `json:"start_of_day" bson:"start_of_day" yaml:"start_of_day" validate:"required,hhmm"`
	EndOfDay    string     `json:"end_of_day" bson:"end_of_day" yaml:"end_of_day" validate:"required,hhmm"`
	TimeZone    string     `json:"time_zone" bson:"time_zone" yaml:"time_zone" validate:"required,timezone"`
	ValidFrom   *time.Time `json:"valid_from,omitempty" bson:"valid_from,omitempty" yaml:"valid_from"`
	ValidUntil  *time.Time `json:"valid_until,omitempty" bson:"valid_until,omitempty" yaml:"valid_until"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at" yaml:"-"`
}

var weekdays = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

func ParseWeekday(s string) (time.Weekday, error) {
	wd, ok := weekdays[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return 0, fmt.Errorf("unknown weekday %q", s)
	}
	return wd, nil
}

// ParseClock parses HH:MM into hours and minutes.
func ParseClock(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid time of day %q: %w", s, err)
	}
	return t.Hour(), t.Minute(), nil
}

// Occurrences expands the entry into the concrete intervals that overlap
// window, in chronological order. The walk is clipped to the entry's
// validity range and visits one day per week.
func (e *TimetableEntry) Occurrences(window Interval) ([]Interval, error) {
	wd, err := ParseWeekday(e.Weekday)
	if err != nil {
		return nil, err
	}
	sh, sm, err := ParseClock(e.StartOfDay)
	if err != nil {
		return nil, err
	}
	eh, em, err := ParseClock(e.EndOfDay)
	if err != nil {
		return nil, err
	}
	if eh*60+em <= sh*60+sm {
		return nil, fmt.Errorf("end_of_day %s must be after start_of_day %s", e.EndOfDay, e.StartOfDay)
	}
	loc, err := time.LoadLocation(e.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", e.TimeZone, err)
	}

	from, until := window.Start, window.End
	if e.ValidFrom != nil && e.ValidFrom.After(from) {
		from = *e.ValidFrom
	}
	if e.ValidUntil != nil && e.ValidUntil.Before(until) {
		until = *e.ValidUntil
	}
	if !from.Before(until) {
		return nil, nil
	}

	first := from.In(loc).AddDate(0, 0, -1)
	last := until.In(loc).AddDate(0, 0, 1)
	day := time.Date(first.Year(), first.Month(), first.Day(), 0, 0, 0, 0, loc)
	day = day.AddDate(0, 0, (int(wd)-int(day.Weekday())+7)%7)

	var out []Interval
	for ; !day.After(last); day = day.AddDate(0, 0, 7) {
		occ := Interval{
			Start: time.Date(day.Year(), day.Month(), day.Day(), sh, sm, 0, 0, loc),
			End:   time.Date(day.Year(), day.Month(), day.Day(), eh, em, 0, 0, loc),
		}
		if e.activeAt(occ.Start) && occ.Overlaps(window) {
			out = append(out, occ)
		}
	}
	return out, nil
}

func (e *TimetableEntry) activeAt(t time.Time) bool {
	if e.ValidFrom != nil && t.Before(*e.ValidFrom) {
		return false
	}
	if e.ValidUntil != nil && !t.Before(*e.ValidUntil) {
		return false
	}
	return true
}
