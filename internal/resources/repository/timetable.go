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
	TimetableCollection = "Timetable_entries"
)

type TimetableRepository interface {
	// Upsert matches on (source, external_ref) when external_ref is set,
	// otherwise on id.
	Upsert(ctx context.Context, entry *model.TimetableEntry) error
	FindByID(ctx context.Context, id string) (*model.TimetableEntry, error)
	FindByResource(ctx context.Context, resourceID string) ([]*model.TimetableEntry, error)
	Delete(ctx context.Context, id string) error
	DeleteByExternalRef(ctx context.Context, source, externalRef string) error
}

type mongoTimetableRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoTimetableRepository(cfg *config.Config) TimetableRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoTimetableRepository{
		cfg:        cfg,
		collection: db.Collection(TimetableCollection),
	}
}

func (r *mongoTimetableRepository) Upsert(ctx context.Context, entry *model.TimetableEntry) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	entry.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	if entry.ExternalRef != "" {
		var existing model.TimetableEntry
		err := r.collection.FindOne(ctx, bson.M{"source": entry.Source, "external_ref": entry.ExternalRef}).Decode(&existing)
		switch {
		case err == nil:
			entry.ID = existing.ID
		case !errors.Is(err, mongo.ErrNoDocuments):
			return fmt.Errorf("failed to look up timetable entry: %w", err)
		}
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}

	opts := options.Replace().SetUpsert(true)
	if _, err := r.collection.ReplaceOne(ctx, bson.M{"_id": entry.ID}, entry, opts); err != nil {
		return fmt.Errorf("failed to upsert timetable entry: %w", err)
	}
	return nil
}

func (r *mongoTimetableRepository) FindByID(ctx context.Context, id string) (*model.TimetableEntry, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var entry model.TimetableEntry
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&entry); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, resourceserrors.ErrTimetableEntryNotFound
		}
		return nil, fmt.Errorf("failed to find timetable entry: %w", err)
	}
	return &entry, nil
}

func (r *mongoTimetableRepository) FindByResource(ctx context.Context, resourceID string) ([]*model.TimetableEntry, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "weekday", Value: 1}, {Key: "start_of_day", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"resource_id": resourceID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find timetable entries: %w", err)
	}
	defer cursor.Close(ctx)

	entries := []*model.TimetableEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode timetable entries: %w", err)
	}
	return entries, nil
}

func (r *mongoTimetableRepository) Delete(ctx context.Context, id string) error {
	return r.deleteOne(ctx, bson.M{"_id": id})
}

func (r *mongoTimetableRepository) DeleteByExternalRef(ctx context.Context, source, externalRef string) error {
	return r.deleteOne(ctx, bson.M{"source": source, "external_ref": externalRef})
}

func (r *mongoTimetableRepository) deleteOne(ctx context.Context, filter bson.M) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to delete timetable entry: %w", err)
	}
	if result.DeletedCount == 0 {
		return resourceserrors.ErrTimetableEntryNotFound
	}
	return nil
}
