package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	ledgercontract "github.com/futurxlab/graphledger/contract"
	"github.com/futurxlab/graphledger/edge"
	"github.com/futurxlab/graphledger/logger"
	"github.com/futurxlab/graphledger/xerror"

	"github.com/avast/retry-go"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultRelationshipsKey = "relationships"

	defaultRetryAttempts = 3
	defaultRetryDelay    = 100 * time.Millisecond
)

type RedisOptions struct {
	Key           string
	RetryAttempts uint
	RetryDelay    time.Duration
	Logger        logger.ILogger
}

type RedisOption func(*RedisOptions)

// WithKey sets the redis hash holding the relationships.
func WithKey(key string) RedisOption {
	return func(o *RedisOptions) {
		o.Key = key
	}
}

// WithRetryAttempts counts the first try, zero is treated as one.
func WithRetryAttempts(attempts uint) RedisOption {
	return func(o *RedisOptions) {
		o.RetryAttempts = attempts
	}
}

func WithRetryDelay(delay time.Duration) RedisOption {
	return func(o *RedisOptions) {
		o.RetryDelay = delay
	}
}

func WithLogger(logger logger.ILogger) RedisOption {
	return func(o *RedisOptions) {
		o.Logger = logger
	}
}

// RedisStore keeps every relationship as a field of a single redis hash,
// the field being edge.Relationship.Key and the value its json form.
type RedisStore struct {
	client        redis.UniversalClient
	key           string
	retryAttempts uint
	retryDelay    time.Duration
	logger        logger.ILogger
}

func NewRedisStore(client redis.UniversalClient, opts ...RedisOption) *RedisStore {
	options := &RedisOptions{
		Key:           DefaultRelationshipsKey,
		RetryAttempts: defaultRetryAttempts,
		RetryDelay:    defaultRetryDelay,
		Logger:        logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(options)
	}

	// retry-go never calls the function with zero attempts
	if options.RetryAttempts == 0 {
		options.RetryAttempts = 1
	}

	return &RedisStore{
		client:        client,
		key:           options.Key,
		retryAttempts: options.RetryAttempts,
		retryDelay:    options.RetryDelay,
		logger:        options.Logger,
	}
}

func (s *RedisStore) Put(ctx context.Context, relationships ...edge.Relationship) error {
	if len(relationships) == 0 {
		return nil
	}

	values := make([]interface{}, 0, len(relationships)*2)
	for _, r := range relationships {
		data, err := json.Marshal(r)
		if err != nil {
			return xerror.Wrap(fmt.Errorf("failed to marshal relationship %s: %w", r.ID(), err))
		}
		values = append(values, r.Key(), data)
	}

	if err := s.do(ctx, "put", func() error {
		pipe := s.client.TxPipeline()
		pipe.HSet(ctx, s.key, values...)
		_, err := pipe.Exec(ctx)
		return err
	}); err != nil {
		return xerror.Wrap(fmt.Errorf("failed to put relationships: %w", err))
	}

	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (edge.Relationship, error) {
	var data []byte

	err := s.do(ctx, "get", func() error {
		var err error
		data, err = s.client.HGet(ctx, s.key, edge.KeyOf(id)).Bytes()
		return err
	})
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return edge.Relationship{}, xerror.Wrap(ledgercontract.ErrRelationshipNotFound)
		}
		return edge.Relationship{}, xerror.Wrap(fmt.Errorf("failed to get relationship %s: %w", id, err))
	}

	var r edge.Relationship
	if err := json.Unmarshal(data, &r); err != nil {
		return edge.Relationship{}, xerror.Wrap(fmt.Errorf("failed to unmarshal relationship %s: %w", id, err))
	}

	return r, nil
}

func (s *RedisStore) GetAll(ctx context.Context) ([]edge.Relationship, error) {
	var values []string

	err := s.do(ctx, "get all", func() error {
		var err error
		values, err = s.client.HVals(ctx, s.key).Result()
		return err
	})
	if err != nil {
		return nil, xerror.Wrap(fmt.Errorf("failed to list relationships: %w", err))
	}

	result := make([]edge.Relationship, 0, len(values))
	for _, value := range values {
		var r edge.Relationship
		if err := json.Unmarshal([]byte(value), &r); err != nil {
			return nil, xerror.Wrap(fmt.Errorf("failed to unmarshal relationship: %w", err))
		}
		result = append(result, r)
	}

	sortByID(result)

	return result, nil
}

// do retries fn unless the key is missing or ctx is done.
func (s *RedisStore) do(ctx context.Context, op string, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(s.retryAttempts),
		retry.Delay(s.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.logger.Warnf(ctx, "retrying redis %s attempt: %d, error: %s", op, n, err)
		}),
		retry.RetryIf(func(err error) bool {
			if errors.Is(err, redis.Nil) {
				return false
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return false
			}
			return true
		}),
	)
}
