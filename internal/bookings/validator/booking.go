package validator

import (
	"fmt"
	"time"

	"reservo/pkg/logger"
	"reservo/pkg/model"
	"reservo/pkg/validation"
)

type BookingValidator struct {
	v      *validation.Validator
	logger *logger.Logger
}

// Limits bounds booking requests. A zero MaxDuration disables the length
// check.
type Limits struct {
	MinPriority int
	MaxPriority int
	MaxDuration time.Duration
}

func NewBookingValidator(log *logger.Logger) *BookingValidator {
	return &BookingValidator{
		v:      validation.New(log),
		logger: log,
	}
}

// ValidateRequest checks field rules, then the interval and its length, then
// that priority lies in [MinPriority, MaxPriority].
func (v *BookingValidator) ValidateRequest(req *model.BookingRequest, limits Limits) error {
	if err := v.v.Struct(req); err != nil {
		return err
	}
	if err := validateInterval(req.Interval(), limits.MaxDuration); err != nil {
		return err
	}
	return validatePriority(req.Priority, limits.MinPriority, limits.MaxPriority)
}

func (v *BookingValidator) ValidateAvailability(req *model.AvailabilityRequest, limits Limits) error {
	if err := v.v.Struct(req); err != nil {
		return err
	}
	if err := validateInterval(req.Interval(), limits.MaxDuration); err != nil {
		return err
	}
	return validatePriority(req.Priority, limits.MinPriority, limits.MaxPriority)
}

func (v *BookingValidator) Validate(s any) error {
	return v.v.Struct(s)
}

func validateInterval(iv model.Interval, maxDuration time.Duration) error {
	if !iv.Valid() {
		return validation.Fail("end_time", "end_time must be after start_time")
	}
	if maxDuration > 0 && iv.End.Sub(iv.Start) > maxDuration {
		return validation.Fail("end_time", fmt.Sprintf("booking cannot be longer than %s", maxDuration))
	}
	return nil
}

func validatePriority(p *int, minPriority, maxPriority int) error {
	if p == nil {
		return nil
	}
	if *p < minPriority || *p > maxPriority {
		return validation.Fail("priority", "priority is out of the allowed range")
	}
	return nil
}
