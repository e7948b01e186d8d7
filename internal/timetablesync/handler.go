// Package timetablesync applies timetable changes published by an external
// schedule to the resource catalog.
package timetablesync

import (
	"context"
	"fmt"

	apperrors "reservo/pkg/errors"
	"reservo/pkg/kafka"
	"reservo/pkg/logger"
	"reservo/pkg/model"
)

const (
	EventUpserted = "timetable.upserted"
	EventDeleted  = "timetable.deleted"
)

// Actor is the identity timetable changes are applied as.
var Actor = model.Requester{UserID: "timetable-sync", IsAdmin: true}

type Catalog interface {
	UpsertTimetableEntry(ctx context.Context, entry *model.TimetableEntry, requester model.Requester) error
	DeleteTimetableByExternalRef(ctx context.Context, source, externalRef string, requester model.Requester) error
}

// Deletion is the payload of a timetable.deleted event.
type Deletion struct {
	Source      string `json:"source"`
	ExternalRef string `json:"external_ref"`
}

type Handler struct {
	catalog Catalog
	source  string
	log     *logger.Logger
}

// NewHandler returns a handler that fills in source on entries that do not
// carry one.
func NewHandler(catalog Catalog, source string, log *logger.Logger) *Handler {
	return &Handler{catalog: catalog, source: source, log: log}
}

func (h *Handler) Handle(ctx context.Context, msg kafka.Message) error {
	switch typ := msg.GetEventType(); typ {
	case EventUpserted:
		var entry model.TimetableEntry
		if err := msg.DecodeValue(&entry); err != nil {
			return err
		}
		if entry.Source == "" {
			entry.Source = h.source
		}
		if entry.ExternalRef == "" {
			return kafka.NewPermanentError("invalid message: external_ref is required", nil)
		}
		return classify(h.catalog.UpsertTimetableEntry(ctx, &entry, Actor))

	case EventDeleted:
		var del Deletion
		if err := msg.DecodeValue(&del); err != nil {
			return err
		}
		if del.Source == "" {
			del.Source = h.source
		}
		err := h.catalog.DeleteTimetableByExternalRef(ctx, del.Source, del.ExternalRef, Actor)
		if apperrors.HasCode(err, apperrors.CodeNotFound) {
			h.log.Debug("Timetable entry already gone", "source", del.Source, "external_ref", del.ExternalRef)
			return nil
		}
		return classify(err)

	default:
		h.log.Warn("Ignoring unknown timetable event", "event_type", typ, "key", msg.Key)
		return nil
	}
}

// classify makes caller faults permanent so they go to the dead letter
// topic, and everything else transient so the consumer retries.
func classify(err error) error {
	if err == nil {
		return nil
	}
	appErr := apperrors.AsAppError(err)
	switch appErr.Code {
	case apperrors.CodeInternal, apperrors.CodeUnavailable, apperrors.CodeTimeout:
		return kafka.NewTransientError("timetable update failed", err)
	}
	return kafka.NewBusinessError(fmt.Sprintf("timetable update rejected: %s", appErr.Code), err)
}
