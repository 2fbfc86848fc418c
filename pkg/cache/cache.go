package cache

import (
	"context"
	"errors"
	"time"
)

var (
	ErrCacheMiss = errors.New("cache: key not found")
)

// Service is a shared cache holding JSON documents, used as the second
// level behind the in-process LRU.
type Service interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Get(ctx context.Context, key string, dest interface{}) error
	Delete(ctx context.Context, keys ...string) error
	DeleteByPattern(ctx context.Context, pattern string) error
	Close() error
}

// Recorder receives cache events per cache name.
type Recorder interface {
	RecordCacheHit(cache string)
	RecordCacheMiss(cache string)
	RecordCacheLoad(cache string, seconds float64, err error)
}

// Entry is a cached value with the moment it was computed and its lifetime.
type Entry[T any] struct {
	Value      T             `json:"value"`
	ComputedAt time.Time     `json:"computed_at"`
	TTL        time.Duration `json:"ttl"`
}

// Expired reports whether the entry must not be served at now.
func (e Entry[T]) Expired(now time.Time) bool {
	return e.TTL > 0 && !now.Before(e.ComputedAt.Add(e.TTL))
}

type nopRecorder struct{}

func (nopRecorder) RecordCacheHit(string)                  {}
func (nopRecorder) RecordCacheMiss(string)                 {}
func (nopRecorder) RecordCacheLoad(string, float64, error) {}
