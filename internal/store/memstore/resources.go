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

type resourceRepo struct {
	s *Store
}

func (r *resourceRepo) Create(ctx context.Context, resource *model.Resource) error {
	return r.s.write(ctx, "resources.Create", func() error {
		if resource.ID == "" {
			resource.ID = uuid.NewString()
		}
		if _, exists := r.s.resources[resource.ID]; exists {
			return resourceserrors.ErrDuplicateResource
		}
		if resource.KeyID != "" {
			for _, other := range r.s.resources {
				if other.KeyID == resource.KeyID {
					return resourceserrors.ErrKeyAlreadyBound
				}
			}
		}
		resource.CreatedAt = time.Now().UTC()
		c := *resource
		r.s.resources[resource.ID] = &c
		return nil
	})
}

func (r *resourceRepo) FindByID(ctx context.Context, id string) (*model.Resource, error) {
	return r.findOne("resources.FindByID", func(res *model.Resource) bool { return res.ID == id })
}

func (r *resourceRepo) FindByKeyID(ctx context.Context, keyID string) (*model.Resource, error) {
	return r.findOne("resources.FindByKeyID", func(res *model.Resource) bool { return res.KeyID == keyID })
}

func (r *resourceRepo) findOne(op string, match func(*model.Resource) bool) (*model.Resource, error) {
	var out *model.Resource
	err := r.s.read(op, func() error {
		for _, res := range r.s.resources {
			if match(res) {
				c := *res
				out = &c
				return nil
			}
		}
		return resourceserrors.ErrNotFound
	})
	return out, err
}

func (r *resourceRepo) FindByCategory(ctx context.Context, category string) ([]*model.Resource, error) {
	out, err := r.collect("resources.FindByCategory", func(res *model.Resource) bool { return res.Category == category })
	slices.SortFunc(out, func(a, b *model.Resource) int {
		return cmp.Or(cmp.Compare(a.Capacity, b.Capacity), cmp.Compare(a.ID, b.ID))
	})
	return out, err
}

func (r *resourceRepo) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Resource, error) {
	out, err := r.collect("resources.FindAll", func(*model.Resource) bool { return true })
	if err != nil {
		return nil, err
	}
	slices.SortFunc(out, func(a, b *model.Resource) int {
		return cmp.Or(cmp.Compare(a.Category, b.Category), cmp.Compare(a.Name, b.Name))
	})
	return paginate(out, limit, offset), nil
}

func (r *resourceRepo) Count(ctx context.Context) (int64, error) {
	var n int
	err := r.s.read("resources.Count", func() error {
		n = len(r.s.resources)
		return nil
	})
	return int64(n), err
}

func (r *resourceRepo) UpdateStatus(ctx context.Context, id string, status model.ResourceStatus) error {
	return r.s.write(ctx, "resources.UpdateStatus", func() error {
		res, ok := r.s.resources[id]
		if !ok {
			return resourceserrors.ErrNotFound
		}
		c := *res
		c.Status = status
		r.s.resources[id] = &c
		return nil
	})
}

func (r *resourceRepo) collect(op string, keep func(*model.Resource) bool) ([]*model.Resource, error) {
	out := []*model.Resource{}
	err := r.s.read(op, func() error {
		for _, res := range r.s.resources {
			if keep(res) {
				c := *res
				out = append(out, &c)
			}
		}
		return nil
	})
	return out, err
}

type issueRepo struct {
	s *Store
}

func (r *issueRepo) Create(ctx context.Context, issue *model.ResourceIssue) error {
	return r.s.write(ctx, "issues.Create", func() error {
		if issue.ID == "" {
			issue.ID = uuid.NewString()
		}
		now := time.Now().UTC()
		if issue.ReportedAt.IsZero() {
			issue.ReportedAt = now
		}
		issue.UpdatedAt = now
		r.s.issues[issue.ID] = cloneIssue(issue)
		return nil
	})
}

func (r *issueRepo) FindByID(ctx context.Context, id string) (*model.ResourceIssue, error) {
	var out *model.ResourceIssue
	err := r.s.read("issues.FindByID", func() error {
		issue, ok := r.s.issues[id]
		if !ok {
			return resourceserrors.ErrIssueNotFound
		}
		out = cloneIssue(issue)
		return nil
	})
	return out, err
}

func (r *issueRepo) FindByResource(ctx context.Context, resourceID string) ([]*model.ResourceIssue, error) {
	return r.collect("issues.FindByResource", func(i *model.ResourceIssue) bool { return i.ResourceID == resourceID })
}

func (r *issueRepo) FindOpenByResource(ctx context.Context, resourceID string) ([]*model.ResourceIssue, error) {
	return r.collect("issues.FindOpenByResource", func(i *model.ResourceIssue) bool {
		return i.ResourceID == resourceID && i.IsOpen()
	})
}

func (r *issueRepo) Update(ctx context.Context, issue *model.ResourceIssue) error {
	return r.s.write(ctx, "issues.Update", func() error {
		if _, ok := r.s.issues[issue.ID]; !ok {
			return resourceserrors.ErrIssueNotFound
		}
		issue.UpdatedAt = time.Now().UTC()
		r.s.issues[issue.ID] = cloneIssue(issue)
		return nil
	})
}

func (r *issueRepo) collect(op string, keep func(*model.ResourceIssue) bool) ([]*model.ResourceIssue, error) {
	out := []*model.ResourceIssue{}
	err := r.s.read(op, func() error {
		for _, i := range r.s.issues {
			if keep(i) {
				out = append(out, cloneIssue(i))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *model.ResourceIssue) int { return b.ReportedAt.Compare(a.ReportedAt) })
	return out, err
}

func cloneIssue(i *model.ResourceIssue) *model.ResourceIssue {
	c := *i
	c.BlocksFrom = cloneTime(i.BlocksFrom)
	c.BlocksUntil = cloneTime(i.BlocksUntil)
	c.ResolvedAt = cloneTime(i.ResolvedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
