package timetablesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"reservo/internal/resources/service"
	"reservo/internal/resources/validator"
	"reservo/internal/store/memstore"
	"reservo/pkg/clock"
	"reservo/pkg/config"
	"reservo/pkg/kafka"
	"reservo/pkg/lock"
	"reservo/pkg/logger"
	"reservo/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setup(t *testing.T) (*Handler, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	require.NoError(t, s.Resources().Create(context.Background(), &model.Resource{
		ID: "lab-1", Name: "Lab", Category: "lab", Capacity: 1, Status: model.ResourceAvailable,
	}))
	cfg := config.Defaults(logger.Discard())
	svc := service.NewResourceService(s.Resources(), s.Issues(), s.Timetable(), lock.NewLocalLocker(lock.DefaultOptions()),
		validator.NewResourceValidator(cfg.Log), clock.NewFake(time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)), cfg)
	return NewHandler(svc, "registrar", cfg.Log), s
}

func message(eventType string, value any) kafka.Message {
	return kafka.NewMessage().
		WithKey("timetable").
		WithEventType(eventType).
		WithValue(value).
		Build()
}

func TestHandle_UpsertThenDelete(t *testing.T) {
	h, s := setup(t)
	ctx := context.Background()

	entry := map[string]any{
		"resource_id":  "lab-1",
		"external_ref": "CS101",
		"weekday":      "monday",
		"start_of_day": "09:00",
		"end_of_day":   "10:00",
		"time_zone":    "UTC",
	}
	require.NoError(t, h.Handle(ctx, message(EventUpserted, entry)))

	entry["end_of_day"] = "11:00"
	require.NoError(t, h.Handle(ctx, message(EventUpserted, entry)))

	entries, err := s.Timetable().FindByResource(ctx, "lab-1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "registrar", entries[0].Source)
	assert.Equal(t, "11:00", entries[0].EndOfDay)

	del := Deletion{ExternalRef: "CS101"}
	require.NoError(t, h.Handle(ctx, message(EventDeleted, del)))
	require.NoError(t, h.Handle(ctx, message(EventDeleted, del)), "deleting twice is a no-op")

	entries, err = s.Timetable().FindByResource(ctx, "lab-1")
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestHandle_Rejections(t *testing.T) {
	h, _ := setup(t)
	ctx := context.Background()

	err := h.Handle(ctx, message(EventUpserted, map[string]any{
		"resource_id": "ghost", "external_ref": "X", "weekday": "monday",
		"start_of_day": "09:00", "end_of_day": "10:00", "time_zone": "UTC",
	}))
	require.Error(t, err)
	assert.Equal(t, kafka.ErrorTypeBusiness, kafka.ClassifyError(err))
	assert.False(t, kafka.ShouldRetry(err, 0, 3))

	err = h.Handle(ctx, message(EventUpserted, map[string]any{"resource_id": "lab-1"}))
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(err), "missing external_ref")

	bad := kafka.Message{Key: "k", Value: []byte("{"), Headers: map[string]string{kafka.HeaderEventType: EventUpserted}}
	assert.Equal(t, kafka.ErrorTypePermanent, kafka.ClassifyError(h.Handle(ctx, bad)))

	assert.NoError(t, h.Handle(ctx, message("timetable.renamed", map[string]any{})))
}

type failingCatalog struct{}

func (failingCatalog) UpsertTimetableEntry(context.Context, *model.TimetableEntry, model.Requester) error {
	return errors.New("mongo down")
}

func (failingCatalog) DeleteTimetableByExternalRef(context.Context, string, string, model.Requester) error {
	return nil
}

func TestHandle_InternalFailuresAreRetried(t *testing.T) {
	h := NewHandler(failingCatalog{}, "registrar", logger.Discard())
	err := h.Handle(context.Background(), message(EventUpserted, map[string]any{"external_ref": "CS101"}))
	require.Error(t, err)
	assert.True(t, kafka.ShouldRetry(err, 0, 3))
}
