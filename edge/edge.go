package edge

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrEmptyID = errors.New("relationship id is empty")
)

// Relationship is a directed, typed edge between two graph nodes.
// It is immutable once built by New; node ids are opaque references.
type Relationship struct {
	id          string
	typ         string
	startNodeID string
	endNodeID   string
}

func New(id, typ, startNodeID, endNodeID string) Relationship {
	return Relationship{
		id:          id,
		typ:         typ,
		startNodeID: startNodeID,
		endNodeID:   endNodeID,
	}
}

func (r Relationship) ID() string {
	return r.id
}

func (r Relationship) Type() string {
	return r.typ
}

func (r Relationship) StartNodeID() string {
	return r.startNodeID
}

func (r Relationship) EndNodeID() string {
	return r.endNodeID
}

func (r Relationship) Equal(other Relationship) bool {
	return r == other
}

// Key returns the hex encoded SHA-256 of the relationship id.
func (r Relationship) Key() string {
	return KeyOf(r.id)
}

// Validate is not called by New, collaborators decide whether to use it.
func (r Relationship) Validate() error {
	if r.id == "" {
		return ErrEmptyID
	}
	return nil
}

func (r Relationship) String() string {
	return fmt.Sprintf("(%s)-[%s:%s]->(%s)", r.startNodeID, r.id, r.typ, r.endNodeID)
}

func KeyOf(id string) string {
	sum := sha256.Sum256([]byte(id))
	return hex.EncodeToString(sum[:])
}

type wireRelationship struct {
	UUID          string `json:"uuid"`
	Type          string `json:"type"`
	StartNodeUUID string `json:"start_node_uuid"`
	EndNodeUUID   string `json:"end_node_uuid"`
}

func (r Relationship) MarshalJSON() ([]byte, error) {
	return json.Marshal(wireRelationship{
		UUID:          r.id,
		Type:          r.typ,
		StartNodeUUID: r.startNodeID,
		EndNodeUUID:   r.endNodeID,
	})
}

// UnmarshalJSON decodes into a zero value; it is the decoding
// counterpart of New and should not be used to overwrite a live record.
func (r *Relationship) UnmarshalJSON(data []byte) error {
	var w wireRelationship
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*r = New(w.UUID, w.Type, w.StartNodeUUID, w.EndNodeUUID)
	return nil
}
