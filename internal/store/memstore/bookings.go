package memstore

import (
	"context"
	"slices"
	"strings"
	"time"

	bookingserrors "reservo/internal/bookings/errors"
	mongotx "reservo/pkg/db/mongo"
	"reservo/pkg/model"

	"github.com/google/uuid"
)

type bookingRepo struct {
	s *Store
}

func (r *bookingRepo) Create(ctx context.Context, booking *model.Booking) error {
	return r.s.write(ctx, "bookings.Create", func() error {
		if booking.ID == "" {
			booking.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if booking.CreatedAt.IsZero() {
			booking.CreatedAt = now
		}
		booking.UpdatedAt = now
		r.s.bookings[booking.ID] = booking.Clone()
		return nil
	})
}

func (r *bookingRepo) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	var out *model.Booking
	err := r.s.read("bookings.FindByID", func() error {
		b, ok := r.s.bookings[id]
		if !ok {
			return bookingserrors.ErrNotFound
		}
		out = b.Clone()
		return nil
	})
	return out, err
}

func (r *bookingRepo) Update(ctx context.Context, booking *model.Booking) error {
	return r.s.write(ctx, "bookings.Update", func() error {
		if _, ok := r.s.bookings[booking.ID]; !ok {
			return bookingserrors.ErrNotFound
		}
		booking.UpdatedAt = time.Now().UTC()
		r.s.bookings[booking.ID] = booking.Clone()
		return nil
	})
}

func (r *bookingRepo) FindOverlapping(ctx context.Context, resourceID string, iv model.Interval, statuses []model.BookingStatus, excludeID string) ([]*model.Booking, error) {
	return r.collect("bookings.FindOverlapping", func(b *model.Booking) bool {
		return b.ResourceID == resourceID &&
			b.ID != excludeID &&
			slices.Contains(statuses, b.Status) &&
			b.Interval().Overlaps(iv)
	}, byStart)
}

func (r *bookingRepo) FindByResource(ctx context.Context, resourceID string, window *model.Interval, limit int, offset int64) ([]*model.Booking, error) {
	all, err := r.collect("bookings.FindByResource", inResourceWindow(resourceID, window), byStart)
	if err != nil {
		return nil, err
	}
	return paginate(all, limit, offset), nil
}

func (r *bookingRepo) CountByResource(ctx context.Context, resourceID string, window *model.Interval) (int64, error) {
	all, err := r.collect("bookings.CountByResource", inResourceWindow(resourceID, window), nil)
	return int64(len(all)), err
}

func (r *bookingRepo) FindDueForSweep(ctx context.Context, now time.Time, after model.SweepCursor, limit int) ([]*model.Booking, error) {
	all, err := r.collect("bookings.FindDueForSweep", func(b *model.Booking) bool {
		return (b.Status == model.BookingApproved || b.Status == model.BookingInUse) &&
			!b.EndTime.After(now) &&
			after.Before(b.EndTime, b.ID)
	}, func(a, b *model.Booking) int {
		if c := a.EndTime.Compare(b.EndTime); c != 0 {
			return c
		}
		return strings.Compare(a.ID, b.ID)
	})
	if err != nil {
		return nil, err
	}
	return paginate(all, limit, 0), nil
}

func (r *bookingRepo) CountByUserPerResource(ctx context.Context, userID string, resourceIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64)
	err := r.s.read("bookings.CountByUserPerResource", func() error {
		for _, b := range r.s.bookings {
			if b.UserID == userID && slices.Contains(resourceIDs, b.ResourceID) {
				counts[b.ResourceID]++
			}
		}
		return nil
	})
	return counts, err
}

func (r *bookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.s.ExecuteTransaction(ctx, fn)
}

func (r *bookingRepo) collect(op string, keep func(*model.Booking) bool, order func(a, b *model.Booking) int) ([]*model.Booking, error) {
	out := []*model.Booking{}
	err := r.s.read(op, func() error {
		for _, b := range r.s.bookings {
			if keep(b) {
				out = append(out, b.Clone())
			}
		}
		return nil
	})
	if order != nil {
		slices.SortFunc(out, order)
	}
	return out, err
}

func inResourceWindow(resourceID string, window *model.Interval) func(*model.Booking) bool {
	return func(b *model.Booking) bool {
		if b.ResourceID != resourceID {
			return false
		}
		return window == nil || b.Interval().Overlaps(*window)
	}
}

func byStart(a, b *model.Booking) int {
	if c := a.StartTime.Compare(b.StartTime); c != 0 {
		return c
	}
	return a.CreatedAt.Compare(b.CreatedAt)
}
