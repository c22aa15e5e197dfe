package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const backendRedis = "redis"

// Redis stores the record as a single JSON value.
type Redis struct {
	redis *redis.Client
	key   Key
	ttl   time.Duration
}

// NewRedis creates a Redis-backed store. A positive ttl makes the record
// expire when nothing has been written for that long; the service passes the
// retention window so a stale log disappears together with its events.
func NewRedis(redisClient *redis.Client, key Key, ttl time.Duration) *Redis {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	return &Redis{
		redis: redisClient,
		key:   key,
		ttl:   ttl,
	}
}

// Key returns the key the store writes to.
func (r *Redis) Key() Key {
	return r.key
}

// Load retrieves the stored record.
// Returns ErrNoRecord if the key doesn't exist or has expired.
func (r *Redis) Load(ctx context.Context) (Record, error) {
	StoreOperations.WithLabelValues(backendRedis, "load").Inc()

	data, err := r.redis.Get(ctx, r.key.String()).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Record{}, ErrNoRecord
		}
		StoreErrors.WithLabelValues(backendRedis, "load").Inc()
		return Record{}, fmt.Errorf("redis get: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		StoreErrors.WithLabelValues(backendRedis, "load").Inc()
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if rec.Version > RecordVersion {
		StoreErrors.WithLabelValues(backendRedis, "load").Inc()
		return Record{}, fmt.Errorf("%w: unsupported version %d", ErrInvalidRecord, rec.Version)
	}

	return rec, nil
}

// Save replaces the stored record and refreshes its TTL.
func (r *Redis) Save(ctx context.Context, rec Record) error {
	StoreOperations.WithLabelValues(backendRedis, "save").Inc()

	data, err := json.Marshal(rec)
	if err != nil {
		StoreErrors.WithLabelValues(backendRedis, "save").Inc()
		return fmt.Errorf("marshal record: %w", err)
	}

	ttl := r.ttl
	if ttl < 0 {
		ttl = 0
	}
	if err := r.redis.Set(ctx, r.key.String(), data, ttl).Err(); err != nil {
		StoreErrors.WithLabelValues(backendRedis, "save").Inc()
		return fmt.Errorf("redis set: %w", err)
	}

	RecordBytes.WithLabelValues(backendRedis).Set(float64(len(data)))
	return nil
}

// Clear removes the stored record.
func (r *Redis) Clear(ctx context.Context) error {
	StoreOperations.WithLabelValues(backendRedis, "clear").Inc()

	if err := r.redis.Del(ctx, r.key.String()).Err(); err != nil {
		StoreErrors.WithLabelValues(backendRedis, "clear").Inc()
		return fmt.Errorf("redis del: %w", err)
	}

	RecordBytes.WithLabelValues(backendRedis).Set(0)
	return nil
}
