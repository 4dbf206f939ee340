package ports

import (
	"context"
	"time"
)

// Cache is the cache-aside store shared by the read-heavy services.
// Entries are advisory: a failing backend degrades to a miss, never to an error.
type Cache interface {
	// Get decodes the entry under key into dest and reports whether it was found.
	Get(ctx context.Context, key string, dest any) bool
	Set(ctx context.Context, key string, value any, ttl time.Duration)
	Remove(ctx context.Context, keys ...string)
	// RemoveByPrefix drops every key starting with one of prefixes. Backends that
	// cannot enumerate keys treat each prefix as an exact key.
	RemoveByPrefix(ctx context.Context, prefixes ...string)
}
