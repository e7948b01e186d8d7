package model

import "time"

// SweepCursor marks the last row a sweep visited. Sweep queries order rows
// by (time, id) and return only those strictly after the cursor, so rows
// that keep failing do not pin a sweep to its first page. The zero value
// starts from the beginning.
type SweepCursor struct {
	At time.Time
	ID string
}

func (c SweepCursor) IsZero() bool {
	return c.At.IsZero() && c.ID == ""
}

// Before reports whether a row at (at, id) comes after the cursor.
func (c SweepCursor) Before(at time.Time, id string) bool {
	if c.IsZero() {
		return true
	}
	if cmp := at.Compare(c.At); cmp != 0 {
		return cmp > 0
	}
	return id > c.ID
}
