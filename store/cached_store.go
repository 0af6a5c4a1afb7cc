package store

import (
	"context"
	"sync"
	"time"

	ledgercontract "github.com/futurxlab/graphledger/contract"
	"github.com/futurxlab/graphledger/edge"
	"github.com/futurxlab/graphledger/utils/cache"
	"github.com/futurxlab/graphledger/xerror"
)

const (
	defaultCacheTTL = time.Minute * 5
)

// CachedStore is a read-through cache for single relationship lookups.
// Put writes through to the backing store and drops the cached entries.
// A load only fills the cache when no Put finished while it was running.
type CachedStore struct {
	backend  ledgercontract.RelationshipStore
	memcache *cache.MemCache
	ttl      time.Duration

	mu         sync.Mutex
	generation uint64
}

func NewCachedStore(backend ledgercontract.RelationshipStore, memcache *cache.MemCache) *CachedStore {
	return NewCachedStoreWithTTL(backend, memcache, defaultCacheTTL)
}

func NewCachedStoreWithTTL(backend ledgercontract.RelationshipStore, memcache *cache.MemCache, ttl time.Duration) *CachedStore {
	return &CachedStore{
		backend:  backend,
		memcache: memcache,
		ttl:      ttl,
	}
}

func (s *CachedStore) Put(ctx context.Context, relationships ...edge.Relationship) error {
	if err := s.backend.Put(ctx, relationships...); err != nil {
		return xerror.Wrap(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++

	// pending sets from earlier reads must land before they are dropped
	s.memcache.Wait()
	for _, r := range relationships {
		s.memcache.Del(r.Key())
	}

	return nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (edge.Relationship, error) {
	key := edge.KeyOf(id)

	if cached, ok := s.memcache.Get(key); ok {
		if r, ok := cached.(edge.Relationship); ok {
			return r, nil
		}
	}

	s.mu.Lock()
	generation := s.generation
	s.mu.Unlock()

	r, err := s.backend.Get(ctx, id)
	if err != nil {
		return edge.Relationship{}, xerror.Wrap(err)
	}

	s.mu.Lock()
	if s.generation == generation {
		s.memcache.SetWithTTL(key, r, 1, s.ttl)
	}
	s.mu.Unlock()

	return r, nil
}

func (s *CachedStore) GetAll(ctx context.Context) ([]edge.Relationship, error) {
	relationships, err := s.backend.GetAll(ctx)
	if err != nil {
		return nil, xerror.Wrap(err)
	}
	return relationships, nil
}
