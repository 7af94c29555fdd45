// Package cache keeps computed reports in Redis, keyed by a fingerprint of
// the inputs that produced them
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "foxvalley:report:"

// ReportCache stores JSON documents in Redis with a fixed TTL
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a ReportCache and verifies the connection
func New(ctx context.Context, addr, password string, db int, ttl time.Duration) (*ReportCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	return &ReportCache{client: client, ttl: ttl}, nil
}

// Get decodes the cached value for key into out. found is false on a miss
func (c *ReportCache) Get(ctx context.Context, key string, out any) (found bool, err error) {
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to read cache key %s: %w", key, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("failed to decode cache key %s: %w", key, err)
	}
	return true, nil
}

// Set stores v under key
func (c *ReportCache) Set(ctx context.Context, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode cache key %s: %w", key, err)
	}
	if err := c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write cache key %s: %w", key, err)
	}
	return nil
}

// Invalidate drops every cached report
func (c *ReportCache) Invalidate(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("failed to scan cache keys: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

// Close closes the Redis client
func (c *ReportCache) Close() error {
	return c.client.Close()
}

// Fingerprint hashes the JSON encoding of parts. Equal inputs give equal keys
func Fingerprint(parts ...any) (string, error) {
	h := sha256.New()
	enc := json.NewEncoder(h)
	for _, p := range parts {
		if err := enc.Encode(p); err != nil {
			return "", fmt.Errorf("failed to fingerprint inputs: %w", err)
		}
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
