// Package cache provides the key/value store used to shortcut repeated
// link lookups. Entries carry a per-entry TTL and expire silently; the
// cache is advisory, so callers must treat a miss or an error exactly like
// a cold lookup.
package cache

import (
	"context"
	"time"
)

// Cache is a byte-value KV store with per-entry TTL.
// Get reports (nil, false, nil) on a miss; errors are reserved for
// transport failures, never for absence.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
