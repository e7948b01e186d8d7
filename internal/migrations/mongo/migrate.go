package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	bookingsrepo "reservo/internal/bookings/repository"
	keysrepo "reservo/internal/keys/repository"
	"reservo/internal/migrations/mongo/validators"
	resourcesrepo "reservo/internal/resources/repository"
	"reservo/pkg/lock"
	"reservo/pkg/logger"
)

var (
	BookingsIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "resource_id", Value: 1},
			{Key: "start_time", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "end_time", Value: 1},
		}},
		{Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "resource_id", Value: 1},
		}},
	}

	ResourcesIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "key_id", Value: 1}},
			Options: options.Index().
				SetName("key_id_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"key_id": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "category", Value: 1}}},
	}

	IssuesIndexes = []mongo.IndexModel{
		{Keys: bson.D{
			{Key: "resource_id", Value: 1},
			{Key: "status", Value: 1},
		}},
	}

	TimetableIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "source", Value: 1},
				{Key: "external_ref", Value: 1},
			},
			Options: options.Index().
				SetName("source_external_ref_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"external_ref": bson.M{"$type": "string"}}),
		},
		{Keys: bson.D{{Key: "resource_id", Value: 1}}},
	}

	// At most one open transaction per key.
	KeyTransactionsIndexes = []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "key_id", Value: 1}},
			Options: options.Index().
				SetName("key_id_open_unique").
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"status": bson.M{"$in": bson.A{"checked_out", "overdue"}}}),
		},
		{Keys: bson.D{
			{Key: "status", Value: 1},
			{Key: "expected_return_at", Value: 1},
		}},
		{Keys: bson.D{{Key: "booking_id", Value: 1}}},
	}

	LocksIndexes = []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "expires_at", Value: 1}},
			Options: options.Index().SetExpireAfterSeconds(0),
		},
	}
)

type collectionDef struct {
	Indexes   []mongo.IndexModel
	Validator bson.M
}

func collections() map[string]collectionDef {
	return map[string]collectionDef{
		bookingsrepo.CollectionName: {
			Indexes:   BookingsIndexes,
			Validator: validators.BookingValidator,
		},
		resourcesrepo.ResourcesCollection: {
			Indexes:   ResourcesIndexes,
			Validator: validators.ResourceValidator,
		},
		resourcesrepo.IssuesCollection: {
			Indexes:   IssuesIndexes,
			Validator: validators.ResourceIssueValidator,
		},
		resourcesrepo.TimetableCollection: {
			Indexes:   TimetableIndexes,
			Validator: validators.TimetableEntryValidator,
		},
		keysrepo.CollectionName: {
			Indexes:   KeyTransactionsIndexes,
			Validator: validators.KeyTransactionValidator,
		},
		lock.LocksCollection: {
			Indexes: LocksIndexes,
		},
	}
}

func RunMigration(ctx context.Context, client *mongo.Client, dbName string, log *logger.Logger) error {
	db := client.Database(dbName)
	log.Info("Running Mongo migrations", "database", dbName)

	for name, def := range collections() {
		if err := ensureCollection(ctx, db, name, def.Validator, log); err != nil {
			return fmt.Errorf("failed to ensure collection %s: %w", name, err)
		}
		if err := ensureIndexes(ctx, db, name, def.Indexes); err != nil {
			return fmt.Errorf("failed to ensure indexes for %s: %w", name, err)
		}
		log.Info("Ensured indexes", "collection", name, "count", len(def.Indexes))
	}

	log.Info("All migrations applied successfully")
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string, validator bson.M, log *logger.Logger) error {
	existing, err := db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	if err != nil {
		return err
	}

	if len(existing) == 0 {
		log.Info("Creating collection", "collection", name)
		opts := options.CreateCollection()
		if validator != nil {
			opts.SetValidator(validator)
		}
		if err := db.CreateCollection(ctx, name, opts); err != nil {
			return fmt.Errorf("failed creating %s: %w", name, err)
		}
		return nil
	}

	if validator == nil {
		return nil
	}
	command := bson.D{
		{Key: "collMod", Value: name},
		{Key: "validator", Value: validator},
	}
	if err := db.RunCommand(ctx, command).Err(); err != nil {
		log.Warn("Failed updating validator", "collection", name, "error", err)
	}
	return nil
}

func ensureIndexes(ctx context.Context, db *mongo.Database, name string, models []mongo.IndexModel) error {
	if len(models) == 0 {
		return nil
	}
	_, err := db.Collection(name).Indexes().CreateMany(ctx, models)
	return err
}
