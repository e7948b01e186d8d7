package model

type ConflictType string

const (
	ConflictBooking             ConflictType = "booking"
	ConflictTimetable           ConflictType = "timetable"
	ConflictResourceIssue       ConflictType = "resource_issue"
	ConflictMaintenance         ConflictType = "maintenance"
	ConflictResourceUnavailable ConflictType = "resource_unavailable"
)

type Severity string

const (
	// SeveritySoft conflicts may be resolved by preemption.
	SeveritySoft Severity = "soft"
	SeverityHard Severity = "hard"
)

// Conflict is one reason a candidate interval cannot be admitted as is.
type Conflict struct {
	Type       ConflictType `json:"type"`
	Severity   Severity     `json:"severity"`
	ResourceID string       `json:"resource_id"`
	Interval   Interval     `json:"interval"`
	Message    string       `json:"message,omitempty"`

	BookingID string        `json:"booking_id,omitempty"`
	UserID    string        `json:"user_id,omitempty"`
	Status    BookingStatus `json:"status,omitempty"`
	Priority  int           `json:"priority,omitempty"`

	TimetableEntryID string `json:"timetable_entry_id,omitempty"`
	IssueID          string `json:"issue_id,omitempty"`
}

func (c Conflict) IsBooking() bool {
	return c.Type == ConflictBooking
}

func (c Conflict) IsHard() bool {
	return c.Severity == SeverityHard
}

// CountByType is used for metrics and log lines.
func CountByType(conflicts []Conflict) map[ConflictType]int {
	counts := make(map[ConflictType]int, len(conflicts))
	for _, c := range conflicts {
		counts[c.Type]++
	}
	return counts
}
