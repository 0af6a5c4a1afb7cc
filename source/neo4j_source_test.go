package source

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/futurxlab/graphledger/edge"
	"github.com/futurxlab/graphledger/xerror"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

func TestFromNeo4j(t *testing.T) {
	start := neo4j.Node{ElementId: "4:db:1", Props: map[string]any{"uuid": "n-1"}}
	end := neo4j.Node{ElementId: "4:db:2", Props: map[string]any{"uuid": "n-2"}}

	t.Run("uses the id property", func(t *testing.T) {
		rel := neo4j.Relationship{
			ElementId:      "5:db:7",
			StartElementId: "4:db:1",
			EndElementId:   "4:db:2",
			Type:           "OWNS",
			Props:          map[string]any{"uuid": "r-1"},
		}

		got := FromNeo4j(rel, start, end, DefaultIDProperty)
		if got != edge.New("r-1", "OWNS", "n-1", "n-2") {
			t.Fatalf("unexpected relationship %s", got)
		}
	})

	t.Run("falls back to element ids", func(t *testing.T) {
		rel := neo4j.Relationship{
			ElementId:      "5:db:7",
			StartElementId: "4:db:1",
			EndElementId:   "4:db:2",
			Type:           "FOLLOWS",
			Props:          map[string]any{"uuid": 42},
		}

		got := FromNeo4j(rel, neo4j.Node{}, neo4j.Node{Props: map[string]any{"uuid": ""}}, DefaultIDProperty)
		if got != edge.New("5:db:7", "FOLLOWS", "4:db:1", "4:db:2") {
			t.Fatalf("unexpected relationship %s", got)
		}
	})

	t.Run("custom id property", func(t *testing.T) {
		rel := neo4j.Relationship{
			Type:  "OWNS",
			Props: map[string]any{"uuid": "r-1", "key": "k-1"},
		}
		s := neo4j.Node{Props: map[string]any{"key": "k-2"}}
		e := neo4j.Node{Props: map[string]any{"key": "k-3"}}

		got := FromNeo4j(rel, s, e, "key")
		if got != edge.New("k-1", "OWNS", "k-2", "k-3") {
			t.Fatalf("unexpected relationship %s", got)
		}
	})
}

func TestFromRecord(t *testing.T) {
	rel := neo4j.Relationship{Type: "OWNS", Props: map[string]any{"uuid": "r-1"}}
	start := neo4j.Node{Props: map[string]any{"uuid": "n-1"}}
	end := neo4j.Node{Props: map[string]any{"uuid": "n-2"}}

	t.Run("converts a row", func(t *testing.T) {
		record := &neo4j.Record{
			Keys:   []string{"r", "s", "e"},
			Values: []any{rel, start, end},
		}

		got, err := FromRecord(record, DefaultIDProperty)
		if err != nil {
			t.Fatal(err)
		}
		if got != edge.New("r-1", "OWNS", "n-1", "n-2") {
			t.Fatalf("unexpected relationship %s", got)
		}
	})

	t.Run("missing column", func(t *testing.T) {
		record := &neo4j.Record{
			Keys:   []string{"r", "s"},
			Values: []any{rel, start},
		}

		if _, err := FromRecord(record, DefaultIDProperty); err == nil {
			t.Fatal("expected error for missing column")
		}
	})

	t.Run("wrong column type", func(t *testing.T) {
		record := &neo4j.Record{
			Keys:   []string{"r", "s", "e"},
			Values: []any{"not a relationship", start, end},
		}

		if _, err := FromRecord(record, DefaultIDProperty); err == nil {
			t.Fatal("expected error for wrong type")
		}
	})
}

type fakeFetcher struct {
	records []*neo4j.Record
	errs    []error
	calls   int
	cypher  string
}

func (f *fakeFetcher) FetchRecords(ctx context.Context, cypher string) ([]*neo4j.Record, error) {
	f.calls++
	f.cypher = cypher
	if len(f.errs) > 0 {
		err := f.errs[0]
		f.errs = f.errs[1:]
		return nil, err
	}
	return f.records, nil
}

func relationshipRecord(id, typ, start, end string) *neo4j.Record {
	return &neo4j.Record{
		Keys: []string{"r", "s", "e"},
		Values: []any{
			neo4j.Relationship{Type: typ, Props: map[string]any{"uuid": id}},
			neo4j.Node{Props: map[string]any{"uuid": start}},
			neo4j.Node{Props: map[string]any{"uuid": end}},
		},
	}
}

func TestNeo4jSourceRelationships(t *testing.T) {
	ctx := context.Background()

	rows := []*neo4j.Record{
		relationshipRecord("r-1", "OWNS", "n-1", "n-2"),
		relationshipRecord("r-2", "FOLLOWS", "n-2", "n-3"),
	}
	expected := []edge.Relationship{
		edge.New("r-1", "OWNS", "n-1", "n-2"),
		edge.New("r-2", "FOLLOWS", "n-2", "n-3"),
	}

	check := func(t *testing.T, got []edge.Relationship) {
		t.Helper()
		if len(got) != len(expected) {
			t.Fatalf("expected %d relationships, got %v", len(expected), got)
		}
		for i := range expected {
			if got[i] != expected[i] {
				t.Fatalf("relationship %d: got %s, want %s", i, got[i], expected[i])
			}
		}
	}

	t.Run("converts every row", func(t *testing.T) {
		fetcher := &fakeFetcher{records: rows}
		source := newNeo4jSource(fetcher, newOptions(nil))

		got, err := source.Relationships(ctx)
		if err != nil {
			t.Fatal(err)
		}
		check(t, got)

		if fetcher.cypher != relationshipsQuery {
			t.Fatalf("unexpected query %q", fetcher.cypher)
		}
	})

	t.Run("zero attempts still reads once", func(t *testing.T) {
		fetcher := &fakeFetcher{records: rows}
		source := newNeo4jSource(fetcher, newOptions([]Option{WithRetryAttempts(0)}))

		got, err := source.Relationships(ctx)
		if err != nil {
			t.Fatal(err)
		}
		check(t, got)

		if fetcher.calls != 1 {
			t.Fatalf("expected one read, got %d", fetcher.calls)
		}
	})

	t.Run("retries transient errors", func(t *testing.T) {
		transient := &neo4j.Neo4jError{Code: "Neo.TransientError.General.DatabaseUnavailable", Msg: "database unavailable"}
		fetcher := &fakeFetcher{records: rows, errs: []error{transient}}
		source := newNeo4jSource(fetcher, newOptions([]Option{WithRetryDelay(time.Millisecond)}))

		got, err := source.Relationships(ctx)
		if err != nil {
			t.Fatal(err)
		}
		check(t, got)

		if fetcher.calls != 2 {
			t.Fatalf("expected two reads, got %d", fetcher.calls)
		}
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		errSyntax := errors.New("invalid cypher")
		fetcher := &fakeFetcher{errs: []error{errSyntax}}
		source := newNeo4jSource(fetcher, newOptions([]Option{WithRetryDelay(time.Millisecond)}))

		if _, err := source.Relationships(ctx); !xerror.Is(err, errSyntax) {
			t.Fatalf("expected read error, got %v", err)
		}
		if fetcher.calls != 1 {
			t.Fatalf("expected one read, got %d", fetcher.calls)
		}
	})

	t.Run("bad row fails the read", func(t *testing.T) {
		bad := &neo4j.Record{Keys: []string{"r"}, Values: []any{"oops"}}
		fetcher := &fakeFetcher{records: append([]*neo4j.Record{bad}, rows...)}
		source := newNeo4jSource(fetcher, newOptions(nil))

		if _, err := source.Relationships(ctx); err == nil {
			t.Fatal("expected conversion error")
		}
	})

	t.Run("custom id property", func(t *testing.T) {
		record := &neo4j.Record{
			Keys: []string{"r", "s", "e"},
			Values: []any{
				neo4j.Relationship{Type: "OWNS", Props: map[string]any{"key": "k-1"}},
				neo4j.Node{Props: map[string]any{"key": "k-2"}},
				neo4j.Node{Props: map[string]any{"key": "k-3"}},
			},
		}
		source := newNeo4jSource(&fakeFetcher{records: []*neo4j.Record{record}}, newOptions([]Option{WithIDProperty("key")}))

		got, err := source.Relationships(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(got) != 1 || got[0] != edge.New("k-1", "OWNS", "k-2", "k-3") {
			t.Fatalf("unexpected relationships %v", got)
		}
	})
}
