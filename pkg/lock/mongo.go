package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"reservo/pkg/model"
)

const LocksCollection = "Resource_locks"

// MongoLocker uses advisory lock documents keyed by _id. A lock whose
// expires_at has passed may be taken over; a TTL index removes leftovers.
type MongoLocker struct {
	collection *mongo.Collection
	opts       Options
	now        func() time.Time
}

func NewMongoLocker(db *mongo.Database, opts Options) *MongoLocker {
	return &MongoLocker{
		collection: db.Collection(LocksCollection),
		opts:       opts.withDefaults(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (l *MongoLocker) Acquire(ctx context.Context, key string) (Unlock, error) {
	ctx, cancel := context.WithTimeout(ctx, l.opts.AcquireTimeout)
	defer cancel()

	token := uuid.NewString()
	for {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, err)
		}

		acquired, err := l.tryAcquire(ctx, key, token)
		if err != nil {
			return nil, storeError(ctx, key, err)
		}
		if acquired {
			return l.unlocker(key, token), nil
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %v", ErrNotAcquired, key, ctx.Err())
		case <-time.After(l.opts.RetryInterval):
		}
	}
}

func (l *MongoLocker) tryAcquire(ctx context.Context, key, token string) (bool, error) {
	now := l.now()
	doc := &model.ResourceLock{
		ID:        key,
		Token:     token,
		ExpiresAt: now.Add(l.opts.TTL),
		CreatedAt: now,
	}

	_, err := l.collection.InsertOne(ctx, doc)
	if err == nil {
		return true, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return false, fmt.Errorf("failed to acquire lock %s: %w", key, err)
	}

	// Held by someone else. Take it over only if it has expired.
	result, err := l.collection.UpdateOne(ctx,
		bson.M{"_id": key, "expires_at": bson.M{"$lte": now}},
		bson.M{"$set": bson.M{"token": token, "expires_at": doc.ExpiresAt, "created_at": now}},
	)
	if err != nil {
		return false, fmt.Errorf("failed to take over expired lock %s: %w", key, err)
	}
	return result.ModifiedCount == 1, nil
}

func (l *MongoLocker) unlocker(key, token string) Unlock {
	var once sync.Once
	var releaseErr error
	return func(ctx context.Context) error {
		once.Do(func() {
			result, err := l.collection.DeleteOne(ctx, bson.M{"_id": key, "token": token})
			if err != nil {
				releaseErr = fmt.Errorf("failed to release lock %s: %w", key, err)
				return
			}
			if result.DeletedCount == 0 {
				releaseErr = fmt.Errorf("%w: %s", ErrLockLost, key)
			}
		})
		return releaseErr
	}
}
