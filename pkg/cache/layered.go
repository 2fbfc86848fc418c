package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	applogger "SignalEngine/pkg/logger"
)

// LoadFunc computes the value for a key on a miss.
type LoadFunc[T any] func(ctx context.Context) (T, error)

// Loader is a read-through cache: an in-process LRU in front of an optional
// shared Service, with at most one in-flight load per key.
//
// A load runs on a context detached from the caller that started it, so a
// caller giving up only stops its own wait. Failed loads are not cached.
//
// Every flight records the key's generation when it starts. Invalidate and
// Purge bump generations, and a flight that finishes on a stale generation
// answers its own waiters without storing anything.
type Loader[T any] struct {
	name   string
	ttl    time.Duration
	local  *MemoryCache[T]
	remote Service
	group  singleflight.Group
	rec    Recorder
	log    *applogger.Logger
	now    func() time.Time

	genMu sync.Mutex
	gens  map[string]uint64
	epoch uint64
}

type generation struct {
	epoch, key uint64
}

// NewLoader creates a named layered cache.
func NewLoader[T any](name string, opts ...LayeredOption) *Loader[T] {
	cfg := &LayeredConfig{
		MemoryMaxSize: 1000,
		TTL:           time.Minute,
	}

	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Recorder == nil {
		cfg.Recorder = nopRecorder{}
	}
	if cfg.Logger == nil {
		cfg.Logger = applogger.Nop()
	}

	return &Loader[T]{
		name:   name,
		ttl:    cfg.TTL,
		local:  NewMemoryCache[T](WithMemoryMaxSize(cfg.MemoryMaxSize), WithMemoryTTL(cfg.TTL)),
		remote: cfg.Remote,
		rec:    cfg.Recorder,
		log:    cfg.Logger.With(applogger.String("cache", name)),
		now:    time.Now,
		gens:   make(map[string]uint64),
	}
}

func (l *Loader[T]) Name() string { return l.name }

// TTL is the lifetime of every entry.
func (l *Loader[T]) TTL() time.Duration { return l.ttl }

// Get returns the cached value for key or runs load once for all concurrent
// callers of the same key.
func (l *Loader[T]) Get(ctx context.Context, key string, load LoadFunc[T]) (T, error) {
	if e, ok := l.local.Get(key); ok {
		l.rec.RecordCacheHit(l.name)
		return e.Value, nil
	}
	l.rec.RecordCacheMiss(l.name)

	detached := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (interface{}, error) {
		gen := l.generation(key)
		// A flight that finished between the check above and here already
		// filled the local level.
		if e, ok := l.local.Get(key); ok {
			return e, nil
		}
		if e, ok := l.fromRemote(detached, key); ok {
			if l.current(key, gen) {
				l.local.Set(key, e)
			}
			return e, nil
		}

		start := time.Now()
		v, err := load(detached)
		l.rec.RecordCacheLoad(l.name, time.Since(start).Seconds(), err)
		if err != nil {
			return nil, err
		}
		return l.store(detached, key, gen, v), nil
	})
	return l.wait(ctx, ch)
}

// Refresh runs load even when key is cached and replaces the entry, so a
// caller re-warming ahead of expiry never leaves a gap. Concurrent refreshes
// of one key share a single load.
func (l *Loader[T]) Refresh(ctx context.Context, key string, load LoadFunc[T]) (T, error) {
	detached := context.WithoutCancel(ctx)
	ch := l.group.DoChan("refresh\x00"+key, func() (interface{}, error) {
		gen := l.generation(key)
		start := time.Now()
		v, err := load(detached)
		l.rec.RecordCacheLoad(l.name, time.Since(start).Seconds(), err)
		if err != nil {
			return nil, err
		}
		return l.store(detached, key, gen, v), nil
	})
	return l.wait(ctx, ch)
}

func (l *Loader[T]) store(ctx context.Context, key string, gen generation, v T) Entry[T] {
	e := Entry[T]{Value: v, ComputedAt: l.now(), TTL: l.ttl}
	if !l.current(key, gen) {
		l.log.Debug("discarding load invalidated in flight", applogger.String("key", key))
		return e
	}
	l.local.Set(key, e)
	l.toRemote(ctx, key, e)
	return e
}

func (l *Loader[T]) wait(ctx context.Context, ch <-chan singleflight.Result) (T, error) {
	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return zero, r.Err
		}
		return r.Val.(Entry[T]).Value, nil
	}
}

// Peek returns a live local entry without loading.
func (l *Loader[T]) Peek(key string) (Entry[T], bool) {
	return l.local.Get(key)
}

// Invalidate drops key from both levels. An in-flight load for key still
// completes for its waiters but its result is not stored, and later callers
// start a new one.
func (l *Loader[T]) Invalidate(ctx context.Context, key string) error {
	l.genMu.Lock()
	l.gens[key]++
	l.genMu.Unlock()

	l.group.Forget(key)
	l.group.Forget("refresh\x00" + key)
	l.local.Delete(key)
	if l.remote == nil {
		return nil
	}
	return l.remote.Delete(ctx, l.remoteKey(key))
}

// Purge drops every entry of this cache.
func (l *Loader[T]) Purge(ctx context.Context) error {
	l.genMu.Lock()
	l.epoch++
	clear(l.gens)
	l.genMu.Unlock()

	l.local.Purge()
	if l.remote == nil {
		return nil
	}
	return l.remote.DeleteByPattern(ctx, BuildPattern(l.name+":"))
}

func (l *Loader[T]) Len() int { return l.local.Len() }

func (l *Loader[T]) generation(key string) generation {
	l.genMu.Lock()
	defer l.genMu.Unlock()
	return generation{epoch: l.epoch, key: l.gens[key]}
}

func (l *Loader[T]) current(key string, g generation) bool {
	return l.generation(key) == g
}

func (l *Loader[T]) remoteKey(key string) string { return GenerateKey(l.name, key) }

func (l *Loader[T]) fromRemote(ctx context.Context, key string) (Entry[T], bool) {
	if l.remote == nil {
		return Entry[T]{}, false
	}
	var e Entry[T]
	if err := l.remote.Get(ctx, l.remoteKey(key), &e); err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			l.log.Warn("remote cache read failed", applogger.String("key", key), applogger.Error(err))
		}
		return Entry[T]{}, false
	}
	if e.Expired(l.now()) {
		return Entry[T]{}, false
	}
	return e, true
}

func (l *Loader[T]) toRemote(ctx context.Context, key string, e Entry[T]) {
	if l.remote == nil {
		return
	}
	if err := l.remote.Set(ctx, l.remoteKey(key), e, l.ttl); err != nil {
		l.log.Warn("remote cache write failed", applogger.String("key", key), applogger.Error(err))
	}
}
