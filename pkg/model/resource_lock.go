package model

import "time"

// ResourceLock is an advisory lock document guarding one resource or key.
type ResourceLock struct {
	ID        string    `bson:"_id"`
	Token     string    `bson:"token"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}
