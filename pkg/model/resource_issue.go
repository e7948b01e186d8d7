package model

import "time"

type IssueStatus string

const (
	IssueReported   IssueStatus = "reported"
	IssueInProgress IssueStatus = "in_progress"
	IssueResolved   IssueStatus = "resolved"
	IssueWontFix    IssueStatus = "wont_fix"
)

const (
	IssueMaintenance = "maintenance"
	IssueOutOfOrder  = "out_of_order"
	IssueSafety      = "safety"
	IssueCosmetic    = "cosmetic"
	IssueOther       = "other"
)

type ResourceIssue struct {
	ID             string      `json:"id" bson:"_id"`
	ResourceID     string      `json:"resource_id" bson:"resource_id" validate:"required"`
	Classification string      `json:"classification" bson:"classification" validate:"required,oneof=maintenance out_of_order safety cosmetic other"`
	Status         IssueStatus `json:"status" bson:"status" validate:"required,oneof=reported in_progress resolved wont_fix"`
	Description    string      `json:"description,omitempty" bson:"description,omitempty" validate:"omitempty,max=1000"`
	ReportedBy     string      `json:"reported_by,omitempty" bson:"reported_by,omitempty"`
	ReportedAt     time.Time   `json:"reported_at" bson:"reported_at"`
	BlocksFrom     *time.Time  `json:"blocks_from,omitempty" bson:"blocks_from,omitempty"`
	BlocksUntil    *time.Time  `json:"blocks_until,omitempty" bson:"blocks_until,omitempty"`
	ResolvedAt     *time.Time  `json:"resolved_at,omitempty" bson:"resolved_at,omitempty"`
	UpdatedAt      time.Time   `json:"updated_at" bson:"updated_at"`
}

func (i *ResourceIssue) IsOpen() bool {
	return i.Status == IssueReported || i.Status == IssueInProgress
}

// HasBlockingClassification reports whether the kind of issue takes the
// resource out of service, regardless of the issue's progress.
func (i *ResourceIssue) HasBlockingClassification() bool {
	switch i.Classification {
	case IssueMaintenance, IssueOutOfOrder, IssueSafety:
		return true
	}
	return false
}

// Blocks reports whether the issue makes the resource unusable during iv.
func (i *ResourceIssue) Blocks(iv Interval) bool {
	if i.Status != IssueInProgress || !i.HasBlockingClassification() {
		return false
	}
	return i.Window().Overlaps(iv)
}

// Window is the period the issue occupies the resource. An issue without an
// end blocks indefinitely.
func (i *ResourceIssue) Window() Interval {
	start := i.ReportedAt
	if i.BlocksFrom != nil {
		start = *i.BlocksFrom
	}
	end := farFuture
	if i.BlocksUntil != nil {
		end = *i.BlocksUntil
	}
	return Interval{Start: start, End: end}
}

var farFuture = time.Date(9999, time.December, 31, 0, 0, 0, 0, time.UTC)
