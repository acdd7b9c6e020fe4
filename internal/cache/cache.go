// Package cache provides the key→value store used to short-circuit image
// generation: (resolution, prompt) → published asset URL.
//
// The cache is advisory only. A miss, a stale entry, or a failed write is
// never a correctness hazard; callers treat every error as a miss and log
// it at worst. Entries carry no TTL.
package cache

import (
	"context"
	"errors"
	"sync"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by Get when the key has no entry.
var ErrMiss = errors.New("cache miss")

// Store is the minimal contract the image pipeline needs.
type Store interface {
	// Get returns the value for key, or ErrMiss.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key. No expiry.
	Set(ctx context.Context, key, value string) error
}

// Key derives the canonical cache key from the resolved resolution name and
// the prompt, matching the wire format used by prior deployments.
func Key(resolution, prompt string) string {
	return resolution + ":" + prompt
}

// Redis is a Store backed by a Redis connection.
type Redis struct {
	client *redis.Client
}

// NewRedis connects to the given URL (redis://[:pass@]host:port/db) and
// verifies the connection with a ping.
func NewRedis(ctx context.Context, url string) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}
	return &Redis{client: client}, nil
}

// Get implements Store.
func (r *Redis) Get(ctx context.Context, key string) (string, error) {
	v, err := r.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	return v, err
}

// Set implements Store.
func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, key, value, 0).Err()
}

// Close releases the underlying connection pool.
func (r *Redis) Close() error { return r.client.Close() }

// Memory is a process-local Store. It backs tests and deployments without
// a Redis URL configured.
type Memory struct {
	mu sync.RWMutex
	m  map[string]string
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{m: make(map[string]string)}
}

// Get implements Store.
func (s *Memory) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.m[key]
	if !ok {
		return "", ErrMiss
	}
	return v, nil
}

// Set implements Store.
func (s *Memory) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[key] = value
	return nil
}
