package validator

import (
	"reservo/pkg/logger"
	"reservo/pkg/model"
	"reservo/pkg/validation"
)

type ResourceValidator struct {
	v      *validation.Validator
	logger *logger.Logger
}

func NewResourceValidator(log *logger.Logger) *ResourceValidator {
	return &ResourceValidator{
		v:      validation.New(log),
		logger: log,
	}
}

func (v *ResourceValidator) Validate(s any) error {
	return v.v.Struct(s)
}

func (v *ResourceValidator) ValidateIssue(req *model.IssueReport) error {
	if err := v.v.Struct(req); err != nil {
		return err
	}
	if req.BlocksFrom != nil && req.BlocksUntil != nil && !req.BlocksUntil.After(*req.BlocksFrom) {
		return validation.Fail("blocks_until", "blocks_until must be after blocks_from")
	}
	return nil
}

// ValidateTimetableEntry checks field rules, then that the entry expands:
// the day range must be non-empty and the validity range ordered.
func (v *ResourceValidator) ValidateTimetableEntry(e *model.TimetableEntry) error {
	if err := v.v.Struct(e); err != nil {
		return err
	}
	sh, sm, _ := model.ParseClock(e.StartOfDay)
	eh, em, _ := model.ParseClock(e.EndOfDay)
	if eh*60+em <= sh*60+sm {
		return validation.Fail("end_of_day", "end_of_day must be after start_of_day")
	}
	if e.ValidFrom != nil && e.ValidUntil != nil && !e.ValidUntil.After(*e.ValidFrom) {
		return validation.Fail("valid_until", "valid_until must be after valid_from")
	}
	if (e.Source == "") != (e.ExternalRef == "") {
		return validation.Fail("external_ref", "source and external_ref must be given together")
	}
	return nil
}
