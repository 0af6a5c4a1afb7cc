package source

import (
	"context"
	"fmt"
	"time"

	"github.com/futurxlab/graphledger/edge"
	"github.com/futurxlab/graphledger/logger"
	"github.com/futurxlab/graphledger/xerror"

	"github.com/avast/retry-go"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
)

const (
	DefaultIDProperty = "uuid"

	relationshipsQuery = `MATCH (s)-[r]->(e) RETURN r, s, e`
)

type Options struct {
	IDProperty    string
	Database      string
	RetryAttempts uint
	RetryDelay    time.Duration
	Logger        logger.ILogger
}

type Option func(*Options)

// WithIDProperty names the property holding node and relationship ids.
func WithIDProperty(property string) Option {
	return func(o *Options) {
		o.IDProperty = property
	}
}

func WithDatabase(database string) Option {
	return func(o *Options) {
		o.Database = database
	}
}

// WithRetryAttempts counts the first try, zero is treated as one.
func WithRetryAttempts(attempts uint) Option {
	return func(o *Options) {
		o.RetryAttempts = attempts
	}
}

func WithRetryDelay(delay time.Duration) Option {
	return func(o *Options) {
		o.RetryDelay = delay
	}
}

func WithLogger(logger logger.ILogger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// recordFetcher runs a read query and returns every row.
type recordFetcher interface {
	FetchRecords(ctx context.Context, cypher string) ([]*neo4j.Record, error)
}

type driverFetcher struct {
	driver   neo4j.DriverWithContext
	database string
}

func (f *driverFetcher) FetchRecords(ctx context.Context, cypher string) ([]*neo4j.Record, error) {
	session := f.driver.NewSession(ctx, neo4j.SessionConfig{
		AccessMode:   neo4j.AccessModeRead,
		DatabaseName: f.database,
	})
	defer session.Close(ctx)

	result, err := session.ExecuteRead(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		rows, err := tx.Run(ctx, cypher, nil)
		if err != nil {
			return nil, err
		}
		return rows.Collect(ctx)
	})
	if err != nil {
		return nil, err
	}

	records, ok := result.([]*neo4j.Record)
	if !ok {
		return nil, fmt.Errorf("unexpected read result type %T", result)
	}

	return records, nil
}

// Neo4jSource reads every relationship of a Neo4j database.
type Neo4jSource struct {
	fetcher       recordFetcher
	idProperty    string
	retryAttempts uint
	retryDelay    time.Duration
	logger        logger.ILogger
}

func NewNeo4jSource(driver neo4j.DriverWithContext, opts ...Option) *Neo4jSource {
	options := newOptions(opts)
	return newNeo4jSource(&driverFetcher{driver: driver, database: options.Database}, options)
}

func newOptions(opts []Option) *Options {
	options := &Options{
		IDProperty:    DefaultIDProperty,
		RetryAttempts: 3,
		RetryDelay:    time.Second,
		Logger:        logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(options)
	}

	// retry-go never calls the function with zero attempts
	if options.RetryAttempts == 0 {
		options.RetryAttempts = 1
	}

	return options
}

func newNeo4jSource(fetcher recordFetcher, options *Options) *Neo4jSource {
	return &Neo4jSource{
		fetcher:       fetcher,
		idProperty:    options.IDProperty,
		retryAttempts: options.RetryAttempts,
		retryDelay:    options.RetryDelay,
		logger:        options.Logger,
	}
}

func (s *Neo4jSource) Relationships(ctx context.Context) ([]edge.Relationship, error) {
	var relationships []edge.Relationship

	if err := retry.Do(
		func() error {
			var err error
			relationships, err = s.read(ctx)
			return err
		},
		retry.Context(ctx),
		retry.Attempts(s.retryAttempts),
		retry.Delay(s.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warnf(ctx, "retrying neo4j relationships read attempt: %d, error: %s", n, err)
		}),
		retry.RetryIf(neo4j.IsRetryable),
	); err != nil {
		return nil, xerror.Wrap(err)
	}

	s.logger.Infof(ctx, "read %d relationships from neo4j", len(relationships))

	return relationships, nil
}

func (s *Neo4jSource) read(ctx context.Context) ([]edge.Relationship, error) {
	records, err := s.fetcher.FetchRecords(ctx, relationshipsQuery)
	if err != nil {
		return nil, err
	}

	relationships := make([]edge.Relationship, 0, len(records))
	for _, record := range records {
		r, err := FromRecord(record, s.idProperty)
		if err != nil {
			return nil, err
		}
		relationships = append(relationships, r)
	}

	return relationships, nil
}

// FromRecord converts a row holding r, s and e as returned by relationshipsQuery.
func FromRecord(record *neo4j.Record, idProperty string) (edge.Relationship, error) {
	rel, err := recordValue[neo4j.Relationship](record, "r")
	if err != nil {
		return edge.Relationship{}, err
	}
	start, err := recordValue[neo4j.Node](record, "s")
	if err != nil {
		return edge.Relationship{}, err
	}
	end, err := recordValue[neo4j.Node](record, "e")
	if err != nil {
		return edge.Relationship{}, err
	}

	return FromNeo4j(rel, start, end, idProperty), nil
}

// FromNeo4j builds a relationship from driver values. Ids come from
// idProperty and fall back to the element ids assigned by the database.
func FromNeo4j(rel neo4j.Relationship, start, end neo4j.Node, idProperty string) edge.Relationship {
	return edge.New(
		stringProp(rel.Props, idProperty, rel.ElementId),
		rel.Type,
		stringProp(start.Props, idProperty, rel.StartElementId),
		stringProp(end.Props, idProperty, rel.EndElementId),
	)
}

func stringProp(props map[string]any, name string, fallback string) string {
	if value, ok := props[name].(string); ok && value != "" {
		return value
	}
	return fallback
}

func recordValue[T any](record *neo4j.Record, key string) (T, error) {
	var zero T

	raw, ok := record.Get(key)
	if !ok {
		return zero, fmt.Errorf("record has no %q column", key)
	}

	value, ok := raw.(T)
	if !ok {
		return zero, fmt.Errorf("column %q has type %T, expected %T", key, raw, zero)
	}

	return value, nil
}
