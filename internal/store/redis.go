package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lorabot/lorabot/internal/pet"
)

// RedisStore persists snapshots in a Redis hash at
// "lorabot:snapshot:{namespace}", fields "data" and "session". For hosts
// that already run Redis and don't want a local database file.
type RedisStore struct {
	client *redis.Client
	key    string
}

// NewRedisStore wraps an existing client. The caller owns the client's
// lifecycle.
func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	return &RedisStore{
		client: client,
		key:    fmt.Sprintf("lorabot:snapshot:%s", namespace),
	}
}

// Load reads the snapshot hash. Returns (nil, nil) when the key is absent.
func (r *RedisStore) Load(ctx context.Context) (*pet.Snapshot, error) {
	fields, err := r.client.HGetAll(ctx, r.key).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	data, ok := fields["data"]
	if !ok {
		return nil, nil
	}

	snap, err := DecodeSnapshot([]byte(data))
	if snap != nil {
		snap.Session = fields["session"]
	}
	return snap, err
}

// Save writes the snapshot hash.
func (r *RedisStore) Save(ctx context.Context, snap *pet.Snapshot) error {
	err := r.client.HSet(ctx, r.key,
		"data", EncodeSnapshot(snap),
		"session", snap.Session,
	).Err()
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}
