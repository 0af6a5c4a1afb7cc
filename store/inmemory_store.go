package store

import (
	"context"
	"sort"
	"sync"

	ledgercontract "github.com/futurxlab/graphledger/contract"
	"github.com/futurxlab/graphledger/edge"
	"github.com/futurxlab/graphledger/xerror"
)

// InMemoryStore keeps relationships in a map keyed by edge.Relationship.Key.
type InMemoryStore struct {
	mu            sync.RWMutex
	relationships map[string]edge.Relationship
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		relationships: make(map[string]edge.Relationship),
	}
}

func (s *InMemoryStore) Put(ctx context.Context, relationships ...edge.Relationship) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range relationships {
		s.relationships[r.Key()] = r
	}

	return nil
}

func (s *InMemoryStore) Get(ctx context.Context, id string) (edge.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.relationships[edge.KeyOf(id)]
	if !ok {
		return edge.Relationship{}, xerror.Wrap(ledgercontract.ErrRelationshipNotFound)
	}

	return r, nil
}

func (s *InMemoryStore) GetAll(ctx context.Context) ([]edge.Relationship, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]edge.Relationship, 0, len(s.relationships))
	for _, r := range s.relationships {
		result = append(result, r)
	}

	sortByID(result)

	return result, nil
}

func sortByID(relationships []edge.Relationship) {
	sort.Slice(relationships, func(i, j int) bool {
		return relationships[i].ID() < relationships[j].ID()
	})
}
