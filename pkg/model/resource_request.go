package model

import "time"

type ResourceStatusUpdate struct {
	Status ResourceStatus `json:"status" validate:"required,oneof=available unavailable"`
}

type IssueReport struct {
	Classification string     `json:"classification" validate:"required,oneof=maintenance out_of_order safety cosmetic other"`
	Description    string     `json:"description,omitempty" validate:"omitempty,max=1000"`
	BlocksFrom     *time.Time `json:"blocks_from,omitempty"`
	BlocksUntil    *time.Time `json:"blocks_until,omitempty"`
}

type IssueStatusUpdate struct {
	Status IssueStatus `json:"status" validate:"required,oneof=in_progress resolved wont_fix"`
}

// CanMoveTo reports whether an issue in status s may move to next.
func (s IssueStatus) CanMoveTo(next IssueStatus) bool {
	switch s {
	case IssueReported:
		return next == IssueInProgress || next == IssueResolved || next == IssueWontFix
	case IssueInProgress:
		return next == IssueResolved || next == IssueWontFix
	}
	return false
}
