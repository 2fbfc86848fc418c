package cache

import (
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// MemoryCache is a capacity-bounded LRU whose entries also expire by age.
type MemoryCache[T any] struct {
	lru *expirable.LRU[string, Entry[T]]
	now func() time.Time
}

// NewMemoryCache creates an in-memory cache.
func NewMemoryCache[T any](opts ...MemoryOption) *MemoryCache[T] {
	cfg := &MemoryConfig{
		MaxSize: 1000,
		TTL:     time.Minute,
	}

	for _, opt := range opts {
		opt(cfg)
	}

	return &MemoryCache[T]{
		lru: expirable.NewLRU[string, Entry[T]](cfg.MaxSize, nil, cfg.TTL),
		now: time.Now,
	}
}

// Get returns the entry for key unless it is absent or past its own TTL.
func (mc *MemoryCache[T]) Get(key string) (Entry[T], bool) {
	e, ok := mc.lru.Get(key)
	if !ok {
		return Entry[T]{}, false
	}
	if e.Expired(mc.now()) {
		mc.lru.Remove(key)
		return Entry[T]{}, false
	}
	return e, true
}

func (mc *MemoryCache[T]) Set(key string, e Entry[T]) {
	mc.lru.Add(key, e)
}

func (mc *MemoryCache[T]) Delete(keys ...string) {
	for _, key := range keys {
		mc.lru.Remove(key)
	}
}

// DeleteByPrefix drops every key starting with prefix.
func (mc *MemoryCache[T]) DeleteByPrefix(prefix string) int {
	n := 0
	for _, key := range mc.lru.Keys() {
		if strings.HasPrefix(key, prefix) && mc.lru.Remove(key) {
			n++
		}
	}
	return n
}

func (mc *MemoryCache[T]) Purge() { mc.lru.Purge() }

func (mc *MemoryCache[T]) Len() int { return mc.lru.Len() }
