package service

import (
	"context"
	"errors"
	"sync"

	resourceserrors "reservo/internal/resources/errors"
	"reservo/internal/resources/repository"
	"reservo/internal/resources/validator"
	"reservo/pkg/clock"
	"reservo/pkg/config"
	apperrors "reservo/pkg/errors"
	"reservo/pkg/lock"
	"reservo/pkg/model"
	"reservo/pkg/sanitizer"
	"reservo/pkg/validation"
)

type ResourceService interface {
	Create(ctx context.Context, r *model.Resource, requester model.Requester) error
	GetByID(ctx context.Context, id string) (*model.Resource, error)
	List(ctx context.Context, category string, limit int, offset int64) ([]*model.Resource, int64, error)
	SetStatus(ctx context.Context, id string, status model.ResourceStatus, requester model.Requester) (*model.Resource, error)

	ReportIssue(ctx context.Context, resourceID string, req *model.IssueReport, requester model.Requester) (*model.ResourceIssue, error)
	UpdateIssueStatus(ctx context.Context, issueID string, status model.IssueStatus, requester model.Requester) (*model.ResourceIssue, error)
	ListIssues(ctx context.Context, resourceID string, openOnly bool) ([]*model.ResourceIssue, error)

	UpsertTimetableEntry(ctx context.Context, entry *model.TimetableEntry, requester model.Requester) error
	ListTimetable(ctx context.Context, resourceID string) ([]*model.TimetableEntry, error)
	DeleteTimetableEntry(ctx context.Context, id string, requester model.Requester) error
	DeleteTimetableByExternalRef(ctx context.Context, source, externalRef string, requester model.Requester) error
}

type resourceService struct {
	resources repository.ResourceRepository
	issues    repository.IssueRepository
	timetable repository.TimetableRepository
	locker    lock.Locker
	validator *validator.ResourceValidator
	clock     clock.Clock
	cfg       *config.Config
}

func NewResourceService(
	resources repository.ResourceRepository,
	issues repository.IssueRepository,
	timetable repository.TimetableRepository,
	locker lock.Locker,
	validator *validator.ResourceValidator,
	clk clock.Clock,
	cfg *config.Config,
) ResourceService {
	return &resourceService{
		resources: resources,
		issues:    issues,
		timetable: timetable,
		locker:    locker,
		validator: validator,
		clock:     clk,
		cfg:       cfg,
	}
}

func (s *resourceService) Create(ctx context.Context, r *model.Resource, requester model.Requester) error {
	if !requester.IsAdmin {
		return apperrors.Forbidden("Only administrators can create resources")
	}
	s.sanitize(r)
	if r.Status == "" {
		r.Status = model.ResourceAvailable
	}
	if err := s.validator.Validate(r); err != nil {
		return s.validationError("Resource validation failed", err)
	}

	if err := s.resources.Create(ctx, r); err != nil {
		switch {
		case errors.Is(err, resourceserrors.ErrDuplicateResource):
			return apperrors.Conflict("Resource with this id already exists").WithDetail("id", r.ID)
		case errors.Is(err, resourceserrors.ErrKeyAlreadyBound):
			return apperrors.Conflict("Key is already bound to another resource").WithDetail("key_id", r.KeyID)
		}
		s.cfg.Log.Error("Failed to create resource", "id", r.ID, "error", err)
		return apperrors.Internal("Failed to create resource", err)
	}

	s.cfg.Log.Info("Resource created",
		"id", r.ID,
		"category", r.Category,
		"capacity", r.Capacity,
		"key_id", r.KeyID,
	)
	return nil
}

func (s *resourceService) GetByID(ctx context.Context, id string) (*model.Resource, error) {
	id = sanitizer.SanitizeIdentifier(id)
	if id == "" {
		return nil, apperrors.InvalidInput("Resource ID cannot be empty")
	}
	r, err := s.resources.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, resourceserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Resource", id)
		}
		s.cfg.Log.Error("Failed to get resource by ID", "id", id, "error", err)
		return nil, apperrors.Internal("Failed to retrieve resource", err)
	}
	return r, nil
}

// List pages over the whole catalog, or returns one category in full.
func (s *resourceService) List(ctx context.Context, category string, limit int, offset int64) ([]*model.Resource, int64, error) {
	if category = sanitizer.SanitizeCategory(category); category != "" {
		rs, err := s.resources.FindByCategory(ctx, category)
		if err != nil {
			return nil, 0, apperrors.Internal("Failed to list resources", err)
		}
		return rs, int64(len(rs)), nil
	}

	var (
		count    int64
		rs       []*model.Resource
		countErr error
		findErr  error
		wg       sync.WaitGroup
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		count, countErr = s.resources.Count(ctx)
	}()
	go func() {
		defer wg.Done()
		rs, findErr = s.resources.FindAll(ctx, limit, offset)
	}()
	wg.Wait()

	if countErr != nil {
		return nil, 0, apperrors.Internal("Failed to count resources", countErr)
	}
	if findErr != nil {
		return nil, 0, apperrors.Internal("Failed to list resources", findErr)
	}
	return rs, count, nil
}

// SetStatus holds the resource lock so no admission is mid-flight when the
// resource goes out of service.
func (s *resourceService) SetStatus(ctx context.Context, id string, status model.ResourceStatus, requester model.Requester) (*model.Resource, error) {
	if !requester.IsAdmin {
		return nil, apperrors.Forbidden("Only administrators can change resource status")
	}
	if err := s.validator.Validate(&model.ResourceStatusUpdate{Status: status}); err != nil {
		return nil, s.validationError("Invalid resource status", err)
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return nil, err
	}

	err := s.withResourceLock(ctx, id, func(ctx context.Context) error {
		return s.resources.UpdateStatus(ctx, id, status)
	})
	if err != nil {
		return nil, s.writeError("update resource status", id, err)
	}

	s.cfg.Log.Info("Resource status changed", "id", id, "status", status)
	return s.GetByID(ctx, id)
}

func (s *resourceService) withResourceLock(ctx context.Context, resourceID string, fn func(ctx context.Context) error) error {
	unlock, err := s.locker.Acquire(ctx, lock.ResourceKey(resourceID))
	if err != nil {
		if errors.Is(err, lock.ErrNotAcquired) {
			return apperrors.Unavailable("Resource")
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

func (s *resourceService) sanitize(r *model.Resource) {
	r.ID = sanitizer.SanitizeIdentifier(r.ID)
	r.Name = sanitizer.SanitizeText(r.Name, 100)
	r.Category = sanitizer.SanitizeCategory(r.Category)
	r.KeyID = sanitizer.SanitizeIdentifier(r.KeyID)
	r.Location = sanitizer.SanitizeText(r.Location, 200)
}

func (s *resourceService) writeError(op, id string, err error) error {
	switch {
	case apperrors.IsAppError(err):
		return err
	case errors.Is(err, resourceserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Resource", id)
	case errors.Is(err, resourceserrors.ErrIssueNotFound):
		return apperrors.NotFoundWithID("Resource issue", id)
	case errors.Is(err, resourceserrors.ErrTimetableEntryNotFound):
		return apperrors.NotFoundWithID("Timetable entry", id)
	}
	s.cfg.Log.Error("Failed to "+op, "id", id, "error", err)
	return apperrors.Internal("Failed to "+op, err)
}

func (s *resourceService) validationError(message string, err error) error {
	var verrs validation.ValidationErrors
	if errors.As(err, &verrs) {
		s.cfg.Log.Warn(message, "error", err)
		return apperrors.Validation(message, verrs.Fields())
	}
	return apperrors.Internal(message, err)
}
