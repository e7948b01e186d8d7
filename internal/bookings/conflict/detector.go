// Package conflict decides whether a resource can take one more occupant
// during an interval and, when it cannot, reports everything in the way.
package conflict

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	bookingsrepo "reservo/internal/bookings/repository"
	resourceserrors "reservo/internal/resources/errors"
	resourcesrepo "reservo/internal/resources/repository"
	"reservo/pkg/model"
)

// ErrResourceNotFound is returned when the target resource does not exist.
var ErrResourceNotFound = errors.New("resource not found")

// Result is the outcome of one detection pass. Conflicts is empty when the
// candidate fits.
type Result struct {
	Resource  *model.Resource
	Available bool
	Conflicts []model.Conflict
}

type Detector struct {
	bookings  bookingsrepo.BookingRepository
	resources resourcesrepo.ResourceRepository
	issues    resourcesrepo.IssueRepository
	timetable resourcesrepo.TimetableRepository
}

func NewDetector(
	bookings bookingsrepo.BookingRepository,
	resources resourcesrepo.ResourceRepository,
	issues resourcesrepo.IssueRepository,
	timetable resourcesrepo.TimetableRepository,
) *Detector {
	return &Detector{
		bookings:  bookings,
		resources: resources,
		issues:    issues,
		timetable: timetable,
	}
}

// FindConflicts evaluates iv against resourceID. excludeBookingID is skipped
// when scanning bookings, which lets an existing booking be re-validated.
func (d *Detector) FindConflicts(ctx context.Context, resourceID string, iv model.Interval, excludeBookingID string) (*Result, error) {
	resource, err := d.resources.FindByID(ctx, resourceID)
	if err != nil {
		if errors.Is(err, resourceserrors.ErrNotFound) {
			return nil, ErrResourceNotFound
		}
		return nil, fmt.Errorf("load resource: %w", err)
	}
	return d.Evaluate(ctx, resource, iv, excludeBookingID)
}

// Evaluate is FindConflicts for an already loaded resource.
func (d *Detector) Evaluate(ctx context.Context, resource *model.Resource, iv model.Interval, excludeBookingID string) (*Result, error) {
	res := &Result{Resource: resource}

	if !resource.IsAvailable() {
		res.Conflicts = []model.Conflict{{
			Type:       model.ConflictResourceUnavailable,
			Severity:   model.SeverityHard,
			ResourceID: resource.ID,
			Interval:   iv,
			Message:    "resource is unavailable",
		}}
		return res, nil
	}

	bookings, err := d.bookings.FindOverlapping(ctx, resource.ID, iv, model.OccupyingStatuses, excludeBookingID)
	if err != nil {
		return nil, fmt.Errorf("scan bookings: %w", err)
	}
	fixed, err := d.timetableConflicts(ctx, resource.ID, iv)
	if err != nil {
		return nil, err
	}
	issues, err := d.issueConflicts(ctx, resource.ID, iv)
	if err != nil {
		return nil, err
	}

	hard := append(fixed, issues...)
	if len(hard) == 0 && PeakOccupancy(bookings, iv)+1 <= resource.Capacity {
		res.Available = true
		return res, nil
	}

	conflicts := make([]model.Conflict, 0, len(bookings)+len(hard))
	for _, b := range bookings {
		conflicts = append(conflicts, bookingConflict(b))
	}
	res.Conflicts = append(conflicts, hard...)
	return res, nil
}

func (d *Detector) timetableConflicts(ctx context.Context, resourceID string, iv model.Interval) ([]model.Conflict, error) {
	entries, err := d.timetable.FindByResource(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("scan timetable: %w", err)
	}
	var out []model.Conflict
	for _, e := range entries {
		occurrences, err := e.Occurrences(iv)
		if err != nil {
			return nil, fmt.Errorf("expand timetable entry %s: %w", e.ID, err)
		}
		for _, occ := range occurrences {
			out = append(out, model.Conflict{
				Type:             model.ConflictTimetable,
				Severity:         model.SeverityHard,
				ResourceID:       resourceID,
				Interval:         occ,
				Message:          e.Title,
				TimetableEntryID: e.ID,
			})
		}
	}
	return out, nil
}

func (d *Detector) issueConflicts(ctx context.Context, resourceID string, iv model.Interval) ([]model.Conflict, error) {
	issues, err := d.issues.FindOpenByResource(ctx, resourceID)
	if err != nil {
		return nil, fmt.Errorf("scan issues: %w", err)
	}
	var out []model.Conflict
	for _, i := range issues {
		if !i.Blocks(iv) {
			continue
		}
		typ := model.ConflictResourceIssue
		if i.Classification == model.IssueMaintenance {
			typ = model.ConflictMaintenance
		}
		out = append(out, model.Conflict{
			Type:       typ,
			Severity:   model.SeverityHard,
			ResourceID: resourceID,
			Interval:   i.Window().Clip(iv),
			Message:    i.Description,
			IssueID:    i.ID,
		})
	}
	return out, nil
}

func bookingConflict(b *model.Booking) model.Conflict {
	severity := model.SeveritySoft
	if b.Status == model.BookingInUse {
		severity = model.SeverityHard
	}
	return model.Conflict{
		Type:       model.ConflictBooking,
		Severity:   severity,
		ResourceID: b.ResourceID,
		Interval:   b.Interval(),
		BookingID:  b.ID,
		UserID:     b.UserID,
		Status:     b.Status,
		Priority:   b.Priority,
	}
}

// PeakOccupancy is the largest number of bookings that overlap each other
// at any instant inside window.
func PeakOccupancy(bookings []*model.Booking, window model.Interval) int {
	type edge struct {
		at    time.Time
		delta int
	}
	edges := make([]edge, 0, 2*len(bookings))
	for _, b := range bookings {
		clipped := b.Interval().Clip(window)
		if !clipped.Valid() {
			continue
		}
		edges = append(edges, edge{clipped.Start, 1}, edge{clipped.End, -1})
	}
	// Ends sort before starts at the same instant: half-open intervals that
	// touch never share an occupant slot.
	slices.SortFunc(edges, func(a, b edge) int {
		if c := a.at.Compare(b.at); c != 0 {
			return c
		}
		return a.delta - b.delta
	})

	peak, cur := 0, 0
	for _, e := range edges {
		cur += e.delta
		peak = max(peak, cur)
	}
	return peak
}
