// Package nodestate persists per-node data: display preferences, size and
// any other fields a host keeps for a node.
//
// Node data is a loosely typed map. Writers never replace it wholesale: every
// change goes through [Store.Update] with a patch function that receives a
// copy of the existing data, so concurrent writers (a resize drag and a mode
// switch, say) do not drop each other's fields.
//
// Three backends are provided: [MemoryStore] for tests and single-process
// hosts, [FileStore] for the CLI (one JSON file per node), and [RedisStore]
// for hosts that share state across processes.
package nodestate

import (
	"context"
	"time"

	"github.com/matzehuels/ifcwatch/pkg/errors"
)

// Backend names.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Update is the message a node sends when its data changes.
type Update struct {
	NodeID string         `json:"nodeId"`
	Data   map[string]any `json:"data"`
}

// Patch derives new node data from a copy of the existing data. The copy is
// never nil.
type Patch func(data map[string]any) map[string]any

// Store persists node data.
type Store interface {
	// Get returns a copy of the node's data. Unknown nodes return nil, nil.
	Get(ctx context.Context, nodeID string) (map[string]any, error)

	// Update applies patch atomically and returns the stored result.
	Update(ctx context.Context, nodeID string, patch Patch) (Update, error)

	// Delete removes a node. Deleting an unknown node is not an error.
	Delete(ctx context.Context, nodeID string) error

	// List returns the IDs of all stored nodes in ascending order.
	List(ctx context.Context) ([]string, error)

	Close() error
}

// Merge returns a patch that sets the given fields and keeps all others.
func Merge(fields map[string]any) Patch {
	return func(data map[string]any) map[string]any {
		for k, v := range fields {
			data[k] = v
		}
		return data
	}
}

// clone returns a shallow copy of data; nil becomes an empty map.
func clone(data map[string]any) map[string]any {
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = v
	}
	return out
}

// apply runs patch over a copy of current.
func apply(current map[string]any, patch Patch) map[string]any {
	next := patch(clone(current))
	if next == nil {
		next = map[string]any{}
	}
	return next
}

// Config selects and configures a backend.
type Config struct {
	Backend     string
	Dir         string // file backend; empty means the user config dir
	RedisAddr   string
	RedisDB     int
	RedisPrefix string
}

// Open creates the store selected by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendFile, "":
		return NewFileStore(cfg.Dir)
	case BackendRedis:
		return NewRedisStore(ctx, RedisOptions{Addr: cfg.RedisAddr, DB: cfg.RedisDB, Prefix: cfg.RedisPrefix})
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig,
		"unknown state backend: %s (must be 'memory', 'file' or 'redis')", cfg.Backend)
}

// Updater adapts a Store to the resize controller's node updater. Each call
// gets its own timeout; notify, when set, receives every stored update.
type Updater struct {
	store   Store
	timeout time.Duration
	notify  func(Update)
}

// DefaultUpdateTimeout bounds a single write-back.
const DefaultUpdateTimeout = 2 * time.Second

// NewUpdater creates an updater. A zero timeout means DefaultUpdateTimeout.
func NewUpdater(store Store, timeout time.Duration, notify func(Update)) *Updater {
	if timeout <= 0 {
		timeout = DefaultUpdateTimeout
	}
	return &Updater{store: store, timeout: timeout, notify: notify}
}

// UpdateNode applies patch to the node's stored data.
func (u *Updater) UpdateNode(nodeID string, patch func(map[string]any) map[string]any) error {
	ctx, cancel := context.WithTimeout(context.Background(), u.timeout)
	defer cancel()

	upd, err := u.store.Update(ctx, nodeID, patch)
	if err != nil {
		return err
	}
	if u.notify != nil {
		u.notify(upd)
	}
	return nil
}
