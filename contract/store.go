package ledgercontract

import (
	"context"
	"errors"

	"github.com/futurxlab/graphledger/edge"
)

var (
	ErrRelationshipNotFound = errors.New("relationship not found")
)

// RelationshipStore records relationships keyed by the hash of their id.
// Putting a relationship whose id is already stored replaces it.
type RelationshipStore interface {
	Put(ctx context.Context, relationships ...edge.Relationship) error
	Get(ctx context.Context, id string) (edge.Relationship, error)
	GetAll(ctx context.Context) ([]edge.Relationship, error)
}

type RelationshipSource interface {
	Relationships(ctx context.Context) ([]edge.Relationship, error)
}
