package model

import "time"

type ResourceStatus string

const (
	ResourceAvailable   ResourceStatus = "available"
	ResourceUnavailable ResourceStatus = "unavailable"
)

type Resource struct {
	ID                      string         `json:"id" bson:"_id" validate:"omitempty,max=64"`
	Name                    string         `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Category                string         `json:"category" bson:"category" validate:"required,min=2,max=50"`
	Capacity                int            `json:"capacity" bson:"capacity" validate:"required,min=1,max=1000"`
	Status                  ResourceStatus `json:"status" bson:"status" validate:"required,oneof=available unavailable"`
	RequiresSpecialApproval bool           `json:"requires_special_approval" bson:"requires_special_approval"`
	KeyID                   string         `json:"key_id,omitempty" bson:"key_id,omitempty" validate:"omitempty,max=64"`
	Location                string         `json:"location,omitempty" bson:"location,omitempty" validate:"omitempty,max=200"`
	CreatedAt               time.Time      `json:"created_at" bson:"created_at"`
}

func (r *Resource) IsAvailable() bool {
	return r.Status == ResourceAvailable
}

// HasKey reports whether access to the resource goes through a physical key.
func (r *Resource) HasKey() bool {
	return r.KeyID != ""
}
