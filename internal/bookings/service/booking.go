package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"reservo/internal/bookings/conflict"
	bookingserrors "reservo/internal/bookings/errors"
	"reservo/internal/bookings/lifecycle"
	"reservo/internal/bookings/priority"
	"reservo/internal/bookings/repository"
	"reservo/internal/bookings/suggest"
	"reservo/internal/bookings/validator"
	"reservo/internal/events"
	"reservo/pkg/clock"
	"reservo/pkg/config"
	apperrors "reservo/pkg/errors"
	"reservo/pkg/lock"
	"reservo/pkg/metrics"
	"reservo/pkg/model"
	"reservo/pkg/sanitizer"
	"reservo/pkg/validation"

	"github.com/google/uuid"
)

type BookingService interface {
	CheckAvailability(ctx context.Context, req *model.AvailabilityRequest, requester model.Requester) (*model.Availability, error)
	CreateBooking(ctx context.Context, req *model.BookingRequest, requester model.Requester) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	SearchByResource(ctx context.Context, resourceID string, window *model.Interval, limit int, offset int64) ([]*model.Booking, int64, error)

	Approve(ctx context.Context, id string, approver model.Requester) (*model.Booking, error)
	Reject(ctx context.Context, id string, approver model.Requester, reason string) (*model.Booking, error)
	Cancel(ctx context.Context, id string, actor model.Requester, reason string) (*model.Booking, error)
	TransitionOccupancy(ctx context.Context, id string, actor model.Requester, to model.BookingStatus) (*model.Booking, error)

	SweepExpireAndComplete(ctx context.Context, now time.Time) (int, error)
}

type Detector interface {
	FindConflicts(ctx context.Context, resourceID string, iv model.Interval, excludeBookingID string) (*conflict.Result, error)
}

type Suggester interface {
	Suggest(ctx context.Context, req suggest.Request) []model.Suggestion
}

type bookingService struct {
	repo      repository.BookingRepository
	detector  Detector
	suggester Suggester
	locker    lock.Locker
	publisher events.Publisher
	validator *validator.BookingValidator
	clock     clock.Clock
	cfg       *config.Config
}

func NewBookingService(
	repo repository.BookingRepository,
	detector Detector,
	suggester Suggester,
	locker lock.Locker,
	publisher events.Publisher,
	validator *validator.BookingValidator,
	clk clock.Clock,
	cfg *config.Config,
) BookingService {
	return &bookingService{
		repo:      repo,
		detector:  detector,
		suggester: suggester,
		locker:    locker,
		publisher: publisher,
		validator: validator,
		clock:     clk,
		cfg:       cfg,
	}
}

// CheckAvailability runs detection without taking the resource lock, so the
// answer may be stale by the time a booking is submitted.
func (s *bookingService) CheckAvailability(ctx context.Context, req *model.AvailabilityRequest, requester model.Requester) (*model.Availability, error) {
	if err := s.validator.ValidateAvailability(req, s.limits()); err != nil {
		return nil, s.validationError("Invalid availability query", err)
	}
	iv := req.Interval()

	res, err := s.detector.FindConflicts(ctx, req.ResourceID, iv, req.ExcludeBookingID)
	if err != nil {
		return nil, s.detectionError(req.ResourceID, err)
	}

	out := &model.Availability{
		Available:   res.Available,
		Conflicts:   nonNil(res.Conflicts),
		Suggestions: []model.Suggestion{},
	}
	if res.Available {
		return out, nil
	}

	outcome := priority.TryPreempt(s.priorityOf(req.Priority), res.Conflicts)
	out.Preemptable = outcome.Admitted
	if !outcome.Admitted {
		out.Suggestions = s.suggester.Suggest(ctx, suggest.Request{
			Resource:         res.Resource,
			Interval:         iv,
			UserID:           requester.UserID,
			ExcludeBookingID: req.ExcludeBookingID,
		})
	}
	return out, nil
}

func (s *bookingService) CreateBooking(ctx context.Context, req *model.BookingRequest, requester model.Requester) (*model.Booking, error) {
	if err := s.validator.ValidateRequest(req, s.limits()); err != nil {
		metrics.RecordDecision(metrics.OutcomeRejected)
		return nil, s.validationError("Invalid booking request", err)
	}
	s.sanitize(req)

	booking := &model.Booking{
		ID:             uuid.NewString(),
		UserID:         requester.UserID,
		ResourceID:     req.ResourceID,
		StartTime:      req.StartTime.UTC(),
		EndTime:        req.EndTime.UTC(),
		Priority:       s.priorityOf(req.Priority),
		Purpose:        req.Purpose,
		Classification: req.Classification,
		DocumentRef:    req.DocumentRef,
		CreatedByAdmin: requester.IsAdmin,
	}

	var preempted []preemption
	err := s.withResourceLock(ctx, booking.ResourceID, func(ctx context.Context) error {
		return s.repo.ExecuteTransaction(ctx, func(ctx context.Context) error {
			var err error
			preempted, err = s.admit(ctx, booking, requester)
			return err
		})
	})
	if err != nil {
		return nil, s.admissionError(ctx, "Booking conflicts with existing reservations", booking, "", err)
	}

	s.recordAdmission(booking, preempted)
	now := s.clock.Now()
	evs := []model.Event{events.BookingEvent(model.EventBookingCreated, booking, requester.UserID, "", now)}
	for _, p := range preempted {
		ev := events.BookingEvent(model.EventBookingPreempted, p.booking, lifecycle.System.UserID, string(p.from), now)
		ev.CausedBy = booking.ID
		evs = append(evs, ev)
	}
	s.publish(ctx, evs...)

	s.cfg.Log.Info("Booking created",
		"id", booking.ID,
		"resource_id", booking.ResourceID,
		"status", booking.Status,
		"priority", booking.Priority,
		"preempted", len(preempted),
	)
	return booking, nil
}

type preemption struct {
	booking *model.Booking
	from    model.BookingStatus
}

// admit runs inside the resource's exclusive section and transaction.
func (s *bookingService) admit(ctx context.Context, booking *model.Booking, requester model.Requester) ([]preemption, error) {
	res, err := s.detector.FindConflicts(ctx, booking.ResourceID, booking.Interval(), "")
	if err != nil {
		return nil, err
	}

	outcome := priority.TryPreempt(booking.Priority, res.Conflicts)
	if !outcome.Admitted {
		return nil, &conflictError{resource: res.Resource, conflicts: res.Conflicts, reason: outcome.Reason}
	}

	now := s.clock.Now()
	preempted := make([]preemption, 0, len(outcome.Preempt))
	for _, id := range outcome.Preempt {
		victim, err := s.repo.FindByID(ctx, id)
		if err != nil {
			return nil, err
		}
		from := victim.Status
		if err := lifecycle.Apply(victim, model.BookingPreempted, lifecycle.System, now, booking.ID); err != nil {
			return nil, err
		}
		if err := s.repo.Update(ctx, victim); err != nil {
			return nil, err
		}
		preempted = append(preempted, preemption{booking: victim, from: from})
	}

	booking.Status = lifecycle.InitialStatus(requester, res.Resource, s.cfg.AutoApproveStandard)
	if booking.Status == model.BookingApproved {
		approver := lifecycle.System.UserID
		if requester.IsAdmin {
			approver = requester.UserID
		}
		booking.ApprovedBy, booking.ApprovedAt = approver, &now
	}
	if err := s.repo.Create(ctx, booking); err != nil {
		return nil, err
	}
	return preempted, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if err := validateID(id); err != nil {
		return nil, err
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}
	return booking, nil
}

func (s *bookingService) SearchByResource(ctx context.Context, resourceID string, window *model.Interval, limit int, offset int64) ([]*model.Booking, int64, error) {
	resourceID = sanitizer.SanitizeIdentifier(resourceID)
	if resourceID == "" {
		return nil, 0, apperrors.InvalidInput("resource_id is required")
	}
	if window != nil && !window.Valid() {
		return nil, 0, apperrors.InvalidInput("to must be after from")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.CountByResource(ctx, resourceID, window)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "resource_id", resourceID, "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindByResource(ctx, resourceID, window, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to search bookings", "resource_id", resourceID, "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}
	return bookings, count, nil
}

func (s *bookingService) sanitize(req *model.BookingRequest) {
	req.ResourceID = sanitizer.SanitizeIdentifier(req.ResourceID)
	req.Purpose = sanitizer.SanitizeText(req.Purpose, 500)
	req.Classification = sanitizer.SanitizeCategory(req.Classification)
	req.DocumentRef = sanitizer.TrimAndNormalize(req.DocumentRef)
}

func (s *bookingService) priorityOf(p *int) int {
	if p == nil {
		return s.cfg.DefaultPriority
	}
	return sanitizer.ClampPriority(*p, s.cfg.MinPriority, s.cfg.MaxPriority)
}

func (s *bookingService) limits() validator.Limits {
	return validator.Limits{
		MinPriority: s.cfg.MinPriority,
		MaxPriority: s.cfg.MaxPriority,
		MaxDuration: s.cfg.MaxBookingDuration,
	}
}

func (s *bookingService) withResourceLock(ctx context.Context, resourceID string, fn func(ctx context.Context) error) error {
	unlock, err := s.locker.Acquire(ctx, lock.ResourceKey(resourceID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return errBusy
		}
		return apperrors.Internal("Failed to acquire resource lock", err)
	}
	defer func() {
		if releaseErr := unlock(context.WithoutCancel(ctx)); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release resource lock", "resource_id", resourceID, "error", releaseErr)
		}
	}()
	return fn(ctx)
}

func (s *bookingService) recordAdmission(booking *model.Booking, preempted []preemption) {
	if len(preempted) > 0 {
		metrics.RecordDecision(metrics.OutcomePreempted)
		metrics.RecordPreemptions(len(preempted))
		for _, p := range preempted {
			metrics.RecordTransition(string(p.from), string(model.BookingPreempted))
			s.cfg.Log.Info("Booking preempted", "id", p.booking.ID, "resource_id", p.booking.ResourceID, "by", booking.ID)
		}
		return
	}
	metrics.RecordDecision(metrics.OutcomeAdmitted)
}

// publish never fails the command: the state change is already committed.
func (s *bookingService) publish(ctx context.Context, evs ...model.Event) {
	if err := s.publisher.Publish(context.WithoutCancel(ctx), evs...); err != nil {
		s.cfg.Log.Error("Failed to publish lifecycle events", "count", len(evs), "error", err)
	}
}

func (s *bookingService) validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		s.cfg.Log.Warn(message, "error", err)
		return apperrors.Validation(message, verrs.Fields())
	}
	return apperrors.Internal(message, err)
}

func validateID(id string) error {
	if id == "" {
		return apperrors.InvalidInput("Booking ID cannot be empty")
	}
	if err := uuid.Validate(id); err != nil {
		return apperrors.InvalidInput("Invalid booking ID format")
	}
	return nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
