package cache

import (
	"time"

	"github.com/dgraph-io/ristretto"
)

const (
	defaultNumCounters = 1e5
	defaultMaxCost     = 1 << 24
	defaultBufferItems = 64
)

type Options struct {
	NumCounters int64
	MaxCost     int64
	DefaultTTL  time.Duration
}

type Option func(*Options)

func WithNumCounters(n int64) Option {
	return func(o *Options) {
		o.NumCounters = n
	}
}

func WithMaxCost(cost int64) Option {
	return func(o *Options) {
		o.MaxCost = cost
	}
}

func WithDefaultTTL(ttl time.Duration) Option {
	return func(o *Options) {
		o.DefaultTTL = ttl
	}
}

// MemCache is a thin wrapper over ristretto. Writes are applied
// asynchronously; call Wait when a following read must observe them.
type MemCache struct {
	cache      *ristretto.Cache
	defaultTTL time.Duration
}

func (m *MemCache) Get(key string) (interface{}, bool) {
	return m.cache.Get(key)
}

func (m *MemCache) Set(key string, value interface{}, cost int64) bool {
	if m.defaultTTL > 0 {
		return m.cache.SetWithTTL(key, value, cost, m.defaultTTL)
	}
	return m.cache.Set(key, value, cost)
}

func (m *MemCache) SetWithTTL(key string, value interface{}, cost int64, ttl time.Duration) bool {
	return m.cache.SetWithTTL(key, value, cost, ttl)
}

func (m *MemCache) Del(key string) {
	m.cache.Del(key)
}

func (m *MemCache) Clear() {
	m.cache.Clear()
}

func (m *MemCache) Wait() {
	m.cache.Wait()
}

func (m *MemCache) Close() {
	m.cache.Close()
}

func NewMemCache(opts ...Option) (*MemCache, error) {
	options := &Options{
		NumCounters: defaultNumCounters,
		MaxCost:     defaultMaxCost,
	}

	for _, opt := range opts {
		opt(options)
	}

	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: options.NumCounters,
		MaxCost:     options.MaxCost,
		BufferItems: defaultBufferItems,
	})
	if err != nil {
		return nil, err
	}

	return &MemCache{
		cache:      c,
		defaultTTL: options.DefaultTTL,
	}, nil
}
