package kvstore

import (
	"context"
	"time"
)

// Store is the key-value port every stateful component is handed at
// construction. Two implementations exist: a redis-backed store for
// multi-process deployments and an in-memory store for single-process
// setups and tests.
type Store interface {
	// Get returns the value and whether the key was present and unexpired.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	SetWithTTL(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// DeleteByPrefix removes every key sharing the prefix. Used to clear all
	// cached fingerprints of one table without decoding them.
	DeleteByPrefix(ctx context.Context, prefix string) error
	// Increment atomically increments the counter at key and resets its TTL
	// to window, returning the new count. The TTL reset on every call is what
	// makes the contact limiter a sliding window.
	Increment(ctx context.Context, key string, window time.Duration) (int64, error)
}
