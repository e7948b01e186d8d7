package model

type SuggestionKind string

const (
	SuggestionSameResource        SuggestionKind = "same_resource_slot"
	SuggestionAlternativeResource SuggestionKind = "alternative_resource"
)

// Suggestion is an advisory alternative. Submitting it means creating a new
// booking request, which is checked from scratch.
type Suggestion struct {
	Kind         SuggestionKind `json:"kind"`
	ResourceID   string         `json:"resource_id"`
	ResourceName string         `json:"resource_name,omitempty"`
	Interval     Interval       `json:"interval"`
	Score        float64        `json:"score"`
}
