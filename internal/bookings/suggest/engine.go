// Package suggest proposes alternatives for a request that cannot be
// admitted. It never writes.
package suggest

import (
	"cmp"
	"context"
	"math"
	"slices"
	"time"

	"reservo/internal/bookings/conflict"
	bookingsrepo "reservo/internal/bookings/repository"
	resourcesrepo "reservo/internal/resources/repository"
	"reservo/pkg/clock"
	"reservo/pkg/logger"
	"reservo/pkg/model"
)

type ConflictEvaluator interface {
	Evaluate(ctx context.Context, resource *model.Resource, iv model.Interval, excludeBookingID string) (*conflict.Result, error)
}

type Options struct {
	// Window bounds how far from the requested start same-resource slots
	// are tried, in both directions.
	Window       time.Duration
	Step         time.Duration
	MaxSlots     int
	MaxResources int
}

type Request struct {
	Resource         *model.Resource
	Interval         model.Interval
	UserID           string
	ExcludeBookingID string
}

type Engine struct {
	detector  ConflictEvaluator
	resources resourcesrepo.ResourceRepository
	issues    resourcesrepo.IssueRepository
	bookings  bookingsrepo.BookingRepository
	clock     clock.Clock
	opts      Options
	log       *logger.Logger
}

func NewEngine(
	detector ConflictEvaluator,
	resources resourcesrepo.ResourceRepository,
	issues resourcesrepo.IssueRepository,
	bookings bookingsrepo.BookingRepository,
	clk clock.Clock,
	opts Options,
	log *logger.Logger,
) *Engine {
	return &Engine{
		detector:  detector,
		resources: resources,
		issues:    issues,
		bookings:  bookings,
		clock:     clk,
		opts:      opts,
		log:       log,
	}
}

// Suggest returns same-resource slots followed by alternative resources.
// Failures are logged and yield fewer suggestions, never an error.
func (e *Engine) Suggest(ctx context.Context, req Request) []model.Suggestion {
	out := []model.Suggestion{}
	out = append(out, e.sameResourceSlots(ctx, req)...)
	out = append(out, e.alternativeResources(ctx, req)...)
	return out
}

func (e *Engine) sameResourceSlots(ctx context.Context, req Request) []model.Suggestion {
	if e.opts.Step <= 0 || e.opts.MaxSlots <= 0 {
		return nil
	}
	now := e.clock.Now()
	steps := int(e.opts.Window / e.opts.Step)

	var out []model.Suggestion
	for k := 1; k <= steps && len(out) < e.opts.MaxSlots; k++ {
		// Later slots first at equal distance.
		for _, sign := range []int{1, -1} {
			if len(out) >= e.opts.MaxSlots {
				break
			}
			offset := time.Duration(sign*k) * e.opts.Step
			slot := req.Interval.Shift(offset)
			if slot.Start.Before(now) {
				continue
			}
			res, err := e.detector.Evaluate(ctx, req.Resource, slot, req.ExcludeBookingID)
			if err != nil {
				e.log.Warn("Slot check failed, skipping remaining slots",
					"resource_id", req.Resource.ID,
					"slot", slot.String(),
					"error", err,
				)
				return out
			}
			if !res.Available {
				continue
			}
			out = append(out, model.Suggestion{
				Kind:         model.SuggestionSameResource,
				ResourceID:   req.Resource.ID,
				ResourceName: req.Resource.Name,
				Interval:     slot,
				Score:        1 / float64(1+k),
			})
		}
	}
	return out
}

func (e *Engine) alternativeResources(ctx context.Context, req Request) []model.Suggestion {
	if e.opts.MaxResources <= 0 {
		return nil
	}
	candidates, err := e.resources.FindByCategory(ctx, req.Resource.Category)
	if err != nil {
		e.log.Warn("Failed to load alternative resources", "category", req.Resource.Category, "error", err)
		return nil
	}

	var eligible []*model.Resource
	for _, r := range candidates {
		if r.ID == req.Resource.ID || r.Capacity < req.Resource.Capacity || !r.IsAvailable() {
			continue
		}
		blocked, err := e.hasBlockingIssue(ctx, r.ID)
		if err != nil {
			e.log.Warn("Failed to load issues for alternative", "resource_id", r.ID, "error", err)
			continue
		}
		if blocked {
			continue
		}
		res, err := e.detector.Evaluate(ctx, r, req.Interval, "")
		if err != nil {
			e.log.Warn("Alternative resource check failed", "resource_id", r.ID, "error", err)
			continue
		}
		if res.Available {
			eligible = append(eligible, r)
		}
	}
	if len(eligible) == 0 {
		return nil
	}

	usage := map[string]int64{}
	if req.UserID != "" {
		ids := make([]string, len(eligible))
		for i, r := range eligible {
			ids[i] = r.ID
		}
		if usage, err = e.bookings.CountByUserPerResource(ctx, req.UserID, ids); err != nil {
			e.log.Warn("Failed to load prior usage, ranking by capacity only", "user_id", req.UserID, "error", err)
			usage = map[string]int64{}
		}
	}

	out := make([]model.Suggestion, 0, len(eligible))
	for _, r := range eligible {
		capDiff := math.Abs(float64(r.Capacity - req.Resource.Capacity))
		out = append(out, model.Suggestion{
			Kind:         model.SuggestionAlternativeResource,
			ResourceID:   r.ID,
			ResourceName: r.Name,
			Interval:     req.Interval,
			Score:        float64(usage[r.ID]) + 1/(1+capDiff),
		})
	}
	slices.SortStableFunc(out, func(a, b model.Suggestion) int {
		return cmp.Or(cmp.Compare(b.Score, a.Score), cmp.Compare(a.ResourceID, b.ResourceID))
	})
	if len(out) > e.opts.MaxResources {
		out = out[:e.opts.MaxResources]
	}
	return out
}

func (e *Engine) hasBlockingIssue(ctx context.Context, resourceID string) (bool, error) {
	issues, err := e.issues.FindOpenByResource(ctx, resourceID)
	if err != nil {
		return false, err
	}
	return slices.ContainsFunc(issues, (*model.ResourceIssue).HasBlockingClassification), nil
}
