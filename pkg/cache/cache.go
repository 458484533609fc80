// Package cache stores rendered node frames so the feed does not repaint a
// node that has not changed.
//
// Keys are built with [Key] from everything that affects a frame: the hub
// instance, node, version, requested width and stored node data. A frame
// is therefore never invalidated explicitly; a change produces a new key
// and the old entry expires.
//
// Three implementations are provided: [MemoryCache] for a single feed
// process, [FileCache] for frames that outlive the process, and
// [NullCache] to disable caching.
package cache

import (
	"context"
	"time"
)

// Cache stores byte values with an optional time to live.
type Cache interface {
	// Get returns the value for key. Expired entries are misses.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores data under key. A ttl of 0 never expires.
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error
	Close() error
}
