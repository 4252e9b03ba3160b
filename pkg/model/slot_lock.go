package model

import "time"

// SlotLock is an advisory lock document. The _id encodes the locked
// coordinates, so a duplicate-key error on insert means another request
// holds the lock. ExpiresAt feeds a TTL index for crash recovery.
type SlotLock struct {
	ID        string    `bson:"_id"`
	ExpiresAt time.Time `bson:"expires_at"`
	CreatedAt time.Time `bson:"created_at"`
}
