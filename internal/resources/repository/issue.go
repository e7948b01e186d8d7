package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	resourceserrors "reservo/internal/resources/errors"
	"reservo/pkg/config"
	mongotx "reservo/pkg/db/mongo"
	"reservo/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	IssuesCollection = "Resource_issues"
)

type IssueRepository interface {
	Create(ctx context.Context, issue *model.ResourceIssue) error
	FindByID(ctx context.Context, id string) (*model.ResourceIssue, error)
	FindByResource(ctx context.Context, resourceID string) ([]*model.ResourceIssue, error)
	FindOpenByResource(ctx context.Context, resourceID string) ([]*model.ResourceIssue, error)
	Update(ctx context.Context, issue *model.ResourceIssue) error
}

type mongoIssueRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoIssueRepository(cfg *config.Config) IssueRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoIssueRepository{
		cfg:        cfg,
		collection: db.Collection(IssuesCollection),
	}
}

func (r *mongoIssueRepository) Create(ctx context.Context, issue *model.ResourceIssue) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if issue.ID == "" {
		issue.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	if issue.ReportedAt.IsZero() {
		issue.ReportedAt = now
	}
	issue.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, issue); err != nil {
		return fmt.Errorf("failed to create resource issue: %w", err)
	}
	return nil
}

func (r *mongoIssueRepository) FindByID(ctx context.Context, id string) (*model.ResourceIssue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var issue model.ResourceIssue
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&issue); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, resourceserrors.ErrIssueNotFound
		}
		return nil, fmt.Errorf("failed to find resource issue: %w", err)
	}
	return &issue, nil
}

func (r *mongoIssueRepository) FindByResource(ctx context.Context, resourceID string) ([]*model.ResourceIssue, error) {
	return r.find(ctx, bson.M{"resource_id": resourceID})
}

func (r *mongoIssueRepository) FindOpenByResource(ctx context.Context, resourceID string) ([]*model.ResourceIssue, error) {
	return r.find(ctx, bson.M{
		"resource_id": resourceID,
		"status":      bson.M{"$in": []model.IssueStatus{model.IssueReported, model.IssueInProgress}},
	})
}

func (r *mongoIssueRepository) find(ctx context.Context, filter bson.M) ([]*model.ResourceIssue, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "reported_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to find resource issues: %w", err)
	}
	defer cursor.Close(ctx)

	issues := []*model.ResourceIssue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, fmt.Errorf("failed to decode resource issues: %w", err)
	}
	return issues, nil
}

func (r *mongoIssueRepository) Update(ctx context.Context, issue *model.ResourceIssue) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	issue.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": issue.ID}, issue)
	if err != nil {
		return fmt.Errorf("failed to update resource issue: %w", err)
	}
	if result.MatchedCount == 0 {
		return resourceserrors.ErrIssueNotFound
	}
	return nil
}
