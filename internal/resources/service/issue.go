package service

import (
	"context"
	"errors"

	resourceserrors "reservo/internal/resources/errors"
	apperrors "reservo/pkg/errors"
	"reservo/pkg/model"
	"reservo/pkg/sanitizer"
)

// ReportIssue is open to any caller. The issue starts as reported and does
// not block bookings until it is in progress.
func (s *resourceService) ReportIssue(ctx context.Context, resourceID string, req *model.IssueReport, requester model.Requester) (*model.ResourceIssue, error) {
	req.Classification = sanitizer.SanitizeCategory(req.Classification)
	req.Description = sanitizer.SanitizeText(req.Description, 1000)
	if err := s.validator.ValidateIssue(req); err != nil {
		return nil, s.validationError("Issue validation failed", err)
	}
	if _, err := s.GetByID(ctx, resourceID); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	issue := &model.ResourceIssue{
		ResourceID:     sanitizer.SanitizeIdentifier(resourceID),
		Classification: req.Classification,
		Status:         model.IssueReported,
		Description:    req.Description,
		ReportedBy:     requester.UserID,
		ReportedAt:     now,
		BlocksFrom:     req.BlocksFrom,
		BlocksUntil:    req.BlocksUntil,
	}
	if err := s.issues.Create(ctx, issue); err != nil {
		return nil, s.writeError("report issue", resourceID, err)
	}

	s.cfg.Log.Info("Resource issue reported",
		"id", issue.ID,
		"resource_id", issue.ResourceID,
		"classification", issue.Classification,
		"reported_by", issue.ReportedBy,
	)
	return issue, nil
}

// UpdateIssueStatus moves an issue along reported -> in_progress ->
// resolved|wont_fix under the resource lock, since an in-progress blocking
// issue changes what admission sees.
func (s *resourceService) UpdateIssueStatus(ctx context.Context, issueID string, status model.IssueStatus, requester model.Requester) (*model.ResourceIssue, error) {
	if !requester.IsAdmin {
		return nil, apperrors.Forbidden("Only administrators can update issues")
	}
	if err := s.validator.Validate(&model.IssueStatusUpdate{Status: status}); err != nil {
		return nil, s.validationError("Invalid issue status", err)
	}

	current, err := s.issues.FindByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, resourceserrors.ErrIssueNotFound) {
			return nil, apperrors.NotFoundWithID("Resource issue", issueID)
		}
		return nil, apperrors.Internal("Failed to retrieve resource issue", err)
	}

	var updated *model.ResourceIssue
	err = s.withResourceLock(ctx, current.ResourceID, func(ctx context.Context) error {
		issue, err := s.issues.FindByID(ctx, issueID)
		if err != nil {
			return err
		}
		if !issue.Status.CanMoveTo(status) {
			return apperrors.IneligibleTransition(string(issue.Status), string(status), "issue is already closed or in that state")
		}
		issue.Status = status
		if !issue.IsOpen() {
			at := s.clock.Now()
			issue.ResolvedAt = &at
		}
		if err := s.issues.Update(ctx, issue); err != nil {
			return err
		}
		updated = issue
		return nil
	})
	if err != nil {
		return nil, s.writeError("update issue", issueID, err)
	}

	s.cfg.Log.Info("Resource issue updated", "id", issueID, "resource_id", updated.ResourceID, "status", status)
	return updated, nil
}

func (s *resourceService) ListIssues(ctx context.Context, resourceID string, openOnly bool) ([]*model.ResourceIssue, error) {
	if _, err := s.GetByID(ctx, resourceID); err != nil {
		return nil, err
	}
	find := s.issues.FindByResource
	if openOnly {
		find = s.issues.FindOpenByResource
	}
	issues, err := find(ctx, resourceID)
	if err != nil {
		return nil, apperrors.Internal("Failed to list resource issues", err)
	}
	return issues, nil
}
