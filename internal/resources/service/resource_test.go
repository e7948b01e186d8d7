package service

import (
	"context"
	"testing"
	"time"

	"reservo/internal/resources/validator"
	"reservo/internal/store/memstore"
	"reservo/pkg/clock"
	"reservo/pkg/config"
	apperrors "reservo/pkg/errors"
	"reservo/pkg/lock"
	"reservo/pkg/logger"
	"reservo/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	admin = model.Requester{UserID: "admin", IsAdmin: true}
	alice = model.Requester{UserID: "alice"}
	now   = time.Date(2026, time.March, 2, 8, 0, 0, 0, time.UTC)
)

func newService(t *testing.T) (ResourceService, *memstore.Store) {
	t.Helper()
	s := memstore.New()
	cfg := config.Defaults(logger.Discard())
	svc := NewResourceService(s.Resources(), s.Issues(), s.Timetable(), lock.NewLocalLocker(lock.DefaultOptions()),
		validator.NewResourceValidator(cfg.Log), clock.NewFake(now), cfg)
	return svc, s
}

func lab(id string) *model.Resource {
	return &model.Resource{ID: id, Name: "Lab " + id, Category: "Chemistry Lab", Capacity: 2}
}

func TestCreate(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	r := lab("l1")
	r.KeyID = "k1"
	require.NoError(t, svc.Create(ctx, r, admin))
	assert.Equal(t, "chemistry_lab", r.Category)
	assert.Equal(t, model.ResourceAvailable, r.Status)

	assert.True(t, apperrors.HasCode(svc.Create(ctx, lab("l2"), alice), apperrors.CodeForbidden))
	assert.True(t, apperrors.HasCode(svc.Create(ctx, lab("l1"), admin), apperrors.CodeConflict))

	dup := lab("l3")
	dup.KeyID = "k1"
	assert.True(t, apperrors.HasCode(svc.Create(ctx, dup, admin), apperrors.CodeConflict))

	bad := lab("l4")
	bad.Capacity = 0
	assert.True(t, apperrors.HasCode(svc.Create(ctx, bad, admin), apperrors.CodeValidation))
}

func TestGetAndList(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, lab("l1"), admin))
	require.NoError(t, svc.Create(ctx, lab("l2"), admin))
	require.NoError(t, svc.Create(ctx, &model.Resource{ID: "h1", Name: "Hall", Category: "hall", Capacity: 80}, admin))

	r, err := svc.GetByID(ctx, "l1")
	require.NoError(t, err)
	assert.Equal(t, "Lab l1", r.Name)

	_, err = svc.GetByID(ctx, "none")
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	rs, total, err := svc.List(ctx, "chemistry lab", 10, 0)
	require.NoError(t, err)
	assert.Len(t, rs, 2)
	assert.EqualValues(t, 2, total)

	rs, total, err = svc.List(ctx, "", 2, 0)
	require.NoError(t, err)
	assert.Len(t, rs, 2)
	assert.EqualValues(t, 3, total)
}

func TestSetStatus(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, lab("l1"), admin))

	r, err := svc.SetStatus(ctx, "l1", model.ResourceUnavailable, admin)
	require.NoError(t, err)
	assert.False(t, r.IsAvailable())

	_, err = svc.SetStatus(ctx, "l1", model.ResourceAvailable, alice)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	_, err = svc.SetStatus(ctx, "l1", "closed", admin)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))

	_, err = svc.SetStatus(ctx, "nope", model.ResourceAvailable, admin)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestIssueLifecycle(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, lab("l1"), admin))

	issue, err := svc.ReportIssue(ctx, "l1", &model.IssueReport{Classification: "Maintenance", Description: "fume hood"}, alice)
	require.NoError(t, err)
	assert.Equal(t, model.IssueReported, issue.Status)
	assert.Equal(t, "alice", issue.ReportedBy)
	assert.Equal(t, now, issue.ReportedAt)

	_, err = svc.ReportIssue(ctx, "nope", &model.IssueReport{Classification: model.IssueSafety}, alice)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	_, err = svc.UpdateIssueStatus(ctx, issue.ID, model.IssueInProgress, alice)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	issue, err = svc.UpdateIssueStatus(ctx, issue.ID, model.IssueInProgress, admin)
	require.NoError(t, err)
	assert.True(t, issue.Blocks(model.Interval{Start: now, End: now.Add(time.Hour)}))

	open, err := svc.ListIssues(ctx, "l1", true)
	require.NoError(t, err)
	assert.Len(t, open, 1)

	issue, err = svc.UpdateIssueStatus(ctx, issue.ID, model.IssueResolved, admin)
	require.NoError(t, err)
	require.NotNil(t, issue.ResolvedAt)

	_, err = svc.UpdateIssueStatus(ctx, issue.ID, model.IssueInProgress, admin)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeIneligibleTransition))

	open, err = svc.ListIssues(ctx, "l1", true)
	require.NoError(t, err)
	assert.Empty(t, open)

	all, err := svc.ListIssues(ctx, "l1", false)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestTimetable(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	require.NoError(t, svc.Create(ctx, lab("l1"), admin))

	entry := func() *model.TimetableEntry {
		return &model.TimetableEntry{
			ResourceID:  "l1",
			Source:      "registrar",
			ExternalRef: "CS101",
			Weekday:     "Monday",
			StartOfDay:  "09:00",
			EndOfDay:    "10:30",
			TimeZone:    "UTC",
		}
	}

	require.NoError(t, svc.UpsertTimetableEntry(ctx, entry(), admin))
	moved := entry()
	moved.StartOfDay = "11:00"
	moved.EndOfDay = "12:00"
	require.NoError(t, svc.UpsertTimetableEntry(ctx, moved, admin))

	entries, err := svc.ListTimetable(ctx, "l1")
	require.NoError(t, err)
	require.Len(t, entries, 1, "upsert on external ref")
	assert.Equal(t, "11:00", entries[0].StartOfDay)
	assert.Equal(t, "monday", entries[0].Weekday)

	assert.True(t, apperrors.HasCode(svc.UpsertTimetableEntry(ctx, entry(), alice), apperrors.CodeForbidden))

	unknown := entry()
	unknown.ResourceID = "ghost"
	assert.True(t, apperrors.HasCode(svc.UpsertTimetableEntry(ctx, unknown, admin), apperrors.CodeValidation))

	require.NoError(t, svc.DeleteTimetableByExternalRef(ctx, "registrar", "CS101", admin))
	err = svc.DeleteTimetableByExternalRef(ctx, "registrar", "CS101", admin)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))

	other := entry()
	other.Source, other.ExternalRef = "", ""
	require.NoError(t, svc.UpsertTimetableEntry(ctx, other, admin))
	require.NoError(t, svc.DeleteTimetableEntry(ctx, other.ID, admin))
	assert.True(t, apperrors.HasCode(svc.DeleteTimetableEntry(ctx, other.ID, admin), apperrors.CodeNotFound))
}
