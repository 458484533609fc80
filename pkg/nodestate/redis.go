package nodestate

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"sort"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/matzehuels/ifcwatch/pkg/errors"
	"github.com/matzehuels/ifcwatch/pkg/observability"
)

// DefaultRedisPrefix namespaces node keys.
const DefaultRedisPrefix = "ifcwatch:node:"

// maxTxRetries bounds optimistic-lock retries in Update.
const maxTxRetries = 32

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr   string
	DB     int
	Prefix string
}

// RedisStore keeps node data in redis, one JSON string per node. Updates
// use WATCH/MULTI so concurrent writers from several processes merge
// instead of overwriting each other.
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	if opts.Addr == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "redis address is required")
	}
	client := redis.NewClient(&redis.Options{Addr: opts.Addr, DB: opts.DB})
	err := retry(ctx, connectAttempts, connectDelay, func() error {
		return transient(client.Ping(ctx).Err())
	})
	if err != nil {
		client.Close()
		return nil, errors.Wrap(errors.ErrCodeStore, err, "connect to redis at %s", opts.Addr)
	}
	return NewRedisStoreFromClient(client, opts.Prefix), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) key(nodeID string) string {
	return s.prefix + nodeID
}

func (s *RedisStore) Get(ctx context.Context, nodeID string) (map[string]any, error) {
	if err := errors.ValidateNodeID(nodeID); err != nil {
		return nil, err
	}
	data, err := getNode(ctx, s.client, s.key(nodeID))
	observability.Store().OnStoreGet(ctx, BackendRedis, nodeID, data != nil)
	return data, err
}

// getter is the part of a client or transaction getNode needs.
type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func getNode(ctx context.Context, c getter, key string) (map[string]any, error) {
	raw, err := c.Get(ctx, key).Bytes()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "get %s", key)
	}
	var data map[string]any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "parse %s", key)
	}
	return data, nil
}

func (s *RedisStore) Update(ctx context.Context, nodeID string, patch Patch) (Update, error) {
	if err := errors.ValidateNodeID(nodeID); err != nil {
		return Update{}, err
	}
	key := s.key(nodeID)

	var next map[string]any
	txf := func(tx *redis.Tx) error {
		current, err := getNode(ctx, tx, key)
		if err != nil {
			return err
		}
		next = apply(current, patch)
		raw, err := json.Marshal(next)
		if err != nil {
			return errors.Wrap(errors.ErrCodeStore, err, "marshal node %s", nodeID)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, raw, 0)
			return nil
		})
		return err
	}

	var err error
	for i := 0; i < maxTxRetries; i++ {
		err = s.client.Watch(ctx, txf, key)
		if !stderrors.Is(err, redis.TxFailedErr) {
			break
		}
	}
	if err != nil {
		if !errors.Is(err, errors.ErrCodeStore) {
			err = errors.Wrap(errors.ErrCodeStore, err, "update node %s", nodeID)
		}
		observability.Store().OnStoreUpdate(ctx, BackendRedis, nodeID, err)
		return Update{}, err
	}
	observability.Store().OnStoreUpdate(ctx, BackendRedis, nodeID, nil)
	return Update{NodeID: nodeID, Data: clone(next)}, nil
}

func (s *RedisStore) Delete(ctx context.Context, nodeID string) error {
	if err := errors.ValidateNodeID(nodeID); err != nil {
		return err
	}
	if err := s.client.Del(ctx, s.key(nodeID)).Err(); err != nil {
		return errors.Wrap(errors.ErrCodeStore, err, "delete node %s", nodeID)
	}
	return nil
}

func (s *RedisStore) List(ctx context.Context) ([]string, error) {
	var ids []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		ids = append(ids, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStore, err, "list nodes")
	}
	sort.Strings(ids)
	return ids, nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

var _ Store = (*RedisStore)(nil)
