package memstore

import (
	"cmp"
	"context"
	"slices"
	"time"

	resourceserrors "reservo/internal/resources/errors"
	"reservo/pkg/model"

	"github.com/google/uuid"
)

type timetableRepo struct {
	s *Store
}

func (r *timetableRepo) Upsert(ctx context.Context, entry *model.TimetableEntry) error {
	return r.s.write(ctx, "timetable.Upsert", func() error {
		if entry.ExternalRef != "" {
			for id, existing := range r.s.timetable {
				if existing.Source == entry.Source && existing.ExternalRef == entry.ExternalRef {
					entry.ID = id
					break
				}
			}
		}
		if entry.ID == "" {
			entry.ID = uuid.NewString()
		}
		entry.UpdatedAt = time.Now().UTC()
		r.s.timetable[entry.ID] = cloneEntry(entry)
		return nil
	})
}

func (r *timetableRepo) FindByID(ctx context.Context, id string) (*model.TimetableEntry, error) {
	var out *model.TimetableEntry
	err := r.s.read("timetable.FindByID", func() error {
		e, ok := r.s.timetable[id]
		if !ok {
			return resourceserrors.ErrTimetableEntryNotFound
		}
		out = cloneEntry(e)
		return nil
	})
	return out, err
}

func (r *timetableRepo) FindByResource(ctx context.Context, resourceID string) ([]*model.TimetableEntry, error) {
	out := []*model.TimetableEntry{}
	err := r.s.read("timetable.FindByResource", func() error {
		for _, e := range r.s.timetable {
			if e.ResourceID == resourceID {
				out = append(out, cloneEntry(e))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.TimetableEntry) int {
		return cmp.Or(cmp.Compare(a.Weekday, b.Weekday), cmp.Compare(a.StartOfDay, b.StartOfDay))
	})
	return out, err
}

func (r *timetableRepo) Delete(ctx context.Context, id string) error {
	return r.s.write(ctx, "timetable.Delete", func() error {
		if _, ok := r.s.timetable[id]; !ok {
			return resourceserrors.ErrTimetableEntryNotFound
		}
		delete(r.s.timetable, id)
		return nil
	})
}

func (r *timetableRepo) DeleteByExternalRef(ctx context.Context, source, externalRef string) error {
	return r.s.write(ctx, "timetable.DeleteByExternalRef", func() error {
		for id, e := range r.s.timetable {
			if e.Source == source && e.ExternalRef == externalRef {
				delete(r.s.timetable, id)
				return nil
			}
		}
		return resourceserrors.ErrTimetableEntryNotFound
	})
}

func cloneEntry(e *model.TimetableEntry) *model.TimetableEntry {
	c := *e
	c.ValidFrom = cloneTime(e.ValidFrom)
	c.ValidUntil = cloneTime(e.ValidUntil)
	return &c
}
