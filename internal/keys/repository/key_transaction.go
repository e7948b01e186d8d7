package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	keyserrors "reservo/internal/keys/errors"
	"reservo/pkg/config"
	mongotx "reservo/pkg/db/mongo"
	"reservo/pkg/model"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	CollectionName = "Key_transactions"
)

type KeyTransactionRepository interface {
	// Create fails with ErrAlreadyCheckedOut when the key has an open
	// transaction. The Mongo store enforces this with a partial unique index.
	Create(ctx context.Context, tx *model.KeyTransaction) error
	FindByID(ctx context.Context, id string) (*model.KeyTransaction, error)
	FindOpenByKey(ctx context.Context, keyID string) (*model.KeyTransaction, error)
	Update(ctx context.Context, tx *model.KeyTransaction) error
	// FindOpenDueBefore returns open transactions whose expected return is
	// before now, oldest first.
	FindOpenDueBefore(ctx context.Context, now time.Time, limit int) ([]*model.KeyTransaction, error)
	// FindCheckedOutDueBefore is FindOpenDueBefore without the rows already
	// marked overdue, restricted to rows after the cursor and ordered by
	// (expected_return_at, id).
	FindCheckedOutDueBefore(ctx context.Context, now time.Time, after model.SweepCursor, limit int) ([]*model.KeyTransaction, error)
	ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error
}

type mongoKeyTransactionRepository struct {
	cfg        *config.Config
	collection *mongo.Collection
	txManager  mongotx.TransactionManager
}

func NewMongoKeyTransactionRepository(cfg *config.Config) KeyTransactionRepository {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoKeyTransactionRepository{
		cfg:        cfg,
		collection: db.Collection(CollectionName),
		txManager:  mongotx.NewTransactionManager(cfg.Client.Mongo),
	}
}

func (r *mongoKeyTransactionRepository) Create(ctx context.Context, tx *model.KeyTransaction) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	tx.CreatedAt = now
	tx.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, tx); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return keyserrors.ErrAlreadyCheckedOut
		}
		return fmt.Errorf("failed to create key transaction: %w", err)
	}
	return nil
}

func (r *mongoKeyTransactionRepository) FindByID(ctx context.Context, id string) (*model.KeyTransaction, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *mongoKeyTransactionRepository) FindOpenByKey(ctx context.Context, keyID string) (*model.KeyTransaction, error) {
	return r.findOne(ctx, bson.M{
		"key_id": keyID,
		"status": bson.M{"$in": model.OpenKeyStatuses},
	})
}

func (r *mongoKeyTransactionRepository) findOne(ctx context.Context, filter bson.M) (*model.KeyTransaction, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	var tx model.KeyTransaction
	if err := r.collection.FindOne(ctx, filter).Decode(&tx); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, keyserrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to find key transaction: %w", err)
	}
	return &tx, nil
}

func (r *mongoKeyTransactionRepository) Update(ctx context.Context, tx *model.KeyTransaction) error {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.WriteTimeout)
	defer cancel()

	tx.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)
	result, err := r.collection.ReplaceOne(ctx, bson.M{"_id": tx.ID}, tx)
	if err != nil {
		return fmt.Errorf("failed to update key transaction: %w", err)
	}
	if result.MatchedCount == 0 {
		return keyserrors.ErrNotFound
	}
	return nil
}

func (r *mongoKeyTransactionRepository) FindOpenDueBefore(ctx context.Context, now time.Time, limit int) ([]*model.KeyTransaction, error) {
	return r.findDue(ctx, model.OpenKeyStatuses, now, model.SweepCursor{}, limit)
}

func (r *mongoKeyTransactionRepository) FindCheckedOutDueBefore(ctx context.Context, now time.Time, after model.SweepCursor, limit int) ([]*model.KeyTransaction, error) {
	return r.findDue(ctx, []model.KeyTransactionStatus{model.KeyCheckedOut}, now, after, limit)
}

func (r *mongoKeyTransactionRepository) findDue(ctx context.Context, statuses []model.KeyTransactionStatus, now time.Time, after model.SweepCursor, limit int) ([]*model.KeyTransaction, error) {
	ctx, cancel := mongotx.WithTimeout(ctx, r.cfg.ReadTimeout)
	defer cancel()

	filter := bson.M{
		"status":             bson.M{"$in": statuses},
		"expected_return_at": bson.M{"$lt": now},
	}
	if page := mongotx.AfterCursor("expected_return_at", after); page != nil {
		filter = bson.M{"$and": bson.A{filter, page}}
	}
	opts := options.Find().SetSort(mongotx.SweepSort("expected_return_at")).SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find overdue key transactions: %w", err)
	}
	defer cursor.Close(ctx)

	txs := []*model.KeyTransaction{}
	if err := cursor.All(ctx, &txs); err != nil {
		return nil, fmt.Errorf("failed to decode key transactions: %w", err)
	}
	return txs, nil
}

func (r *mongoKeyTransactionRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return r.txManager.ExecuteTransaction(ctx, fn)
}
