package service

import (
	"context"

	apperrors "reservo/pkg/errors"
	"reservo/pkg/model"
	"reservo/pkg/sanitizer"
)

func (s *resourceService) UpsertTimetableEntry(ctx context.Context, entry *model.TimetableEntry, requester model.Requester) error {
	if !requester.IsAdmin {
		return apperrors.Forbidden("Only administrators can change the timetable")
	}
	entry.ResourceID = sanitizer.SanitizeIdentifier(entry.ResourceID)
	entry.Weekday = sanitizer.SanitizeCategory(entry.Weekday)
	entry.Source = sanitizer.SanitizeIdentifier(entry.Source)
	entry.ExternalRef = sanitizer.SanitizeIdentifier(entry.ExternalRef)
	entry.Title = sanitizer.SanitizeText(entry.Title, 200)
	if err := s.validator.ValidateTimetableEntry(entry); err != nil {
		return s.validationError("Timetable entry validation failed", err)
	}
	if _, err := s.GetByID(ctx, entry.ResourceID); err != nil {
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			return apperrors.Validation("Unknown resource", map[string]any{"resource_id": entry.ResourceID})
		}
		return err
	}

	err := s.withResourceLock(ctx, entry.ResourceID, func(ctx context.Context) error {
		return s.timetable.Upsert(ctx, entry)
	})
	if err != nil {
		return s.writeError("upsert timetable entry", entry.ID, err)
	}

	s.cfg.Log.Info("Timetable entry saved",
		"id", entry.ID,
		"resource_id", entry.ResourceID,
		"weekday", entry.Weekday,
		"start_of_day", entry.StartOfDay,
		"end_of_day", entry.EndOfDay,
		"external_ref", entry.ExternalRef,
	)
	return nil
}

func (s *resourceService) ListTimetable(ctx context.Context, resourceID string) ([]*model.TimetableEntry, error) {
	if _, err := s.GetByID(ctx, resourceID); err != nil {
		return nil, err
	}
	entries, err := s.timetable.FindByResource(ctx, resourceID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list timetable", err)
	}
	return entries, nil
}

func (s *resourceService) DeleteTimetableEntry(ctx context.Context, id string, requester model.Requester) error {
	if !requester.IsAdmin {
		return apperrors.Forbidden("Only administrators can change the timetable")
	}
	entry, err := s.timetable.FindByID(ctx, id)
	if err != nil {
		return s.writeError("delete timetable entry", id, err)
	}
	err = s.withResourceLock(ctx, entry.ResourceID, func(ctx context.Context) error {
		return s.timetable.Delete(ctx, id)
	})
	if err != nil {
		return s.writeError("delete timetable entry", id, err)
	}
	s.cfg.Log.Info("Timetable entry deleted", "id", id, "resource_id", entry.ResourceID)
	return nil
}

// DeleteTimetableByExternalRef removes an entry fed by an external schedule.
// Unknown references are reported as not found.
func (s *resourceService) DeleteTimetableByExternalRef(ctx context.Context, source, externalRef string, requester model.Requester) error {
	if !requester.IsAdmin {
		return apperrors.Forbidden("Only administrators can change the timetable")
	}
	if source == "" || externalRef == "" {
		return apperrors.InvalidInput("source and external_ref are required")
	}
	if err := s.timetable.DeleteByExternalRef(ctx, source, externalRef); err != nil {
		return s.writeError("delete timetable entry", source+"/"+externalRef, err)
	}
	s.cfg.Log.Info("Timetable entry deleted", "source", source, "external_ref", externalRef)
	return nil
}
