package recorder

import (
	"context"
	"fmt"

	ledgercontract "github.com/futurxlab/graphledger/contract"
	"github.com/futurxlab/graphledger/edge"
	"github.com/futurxlab/graphledger/logger"
	"github.com/futurxlab/graphledger/utils"
	"github.com/futurxlab/graphledger/xerror"
)

const (
	DefaultWorkers   = 2
	DefaultBatchSize = 100
)

type Options struct {
	Workers   int
	BatchSize int
	Logger    logger.ILogger
}

type Option func(*Options)

func WithWorkers(workers int) Option {
	return func(o *Options) {
		o.Workers = workers
	}
}

func WithBatchSize(size int) Option {
	return func(o *Options) {
		o.BatchSize = size
	}
}

func WithLogger(logger logger.ILogger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// Recorder copies relationships read from a source into a store.
type Recorder struct {
	source    ledgercontract.RelationshipSource
	store     ledgercontract.RelationshipStore
	workers   int
	batchSize int
	logger    logger.ILogger
}

func NewRecorder(source ledgercontract.RelationshipSource, store ledgercontract.RelationshipStore, opts ...Option) (*Recorder, error) {
	if store == nil {
		return nil, xerror.New("store is required")
	}

	options := &Options{
		Workers:   DefaultWorkers,
		BatchSize: DefaultBatchSize,
		Logger:    logger.NewNopLogger(),
	}

	for _, opt := range opts {
		opt(options)
	}

	if options.Workers < 1 {
		return nil, xerror.Newf("workers must be positive, got %d", options.Workers)
	}
	if options.BatchSize < 1 {
		return nil, xerror.Newf("batch size must be positive, got %d", options.BatchSize)
	}

	return &Recorder{
		source:    source,
		store:     store,
		workers:   options.Workers,
		batchSize: options.BatchSize,
		logger:    options.Logger,
	}, nil
}

// Sync reads every relationship from the source and records it.
func (r *Recorder) Sync(ctx context.Context) (int, error) {
	if r.source == nil {
		return 0, xerror.New("recorder has no source")
	}

	relationships, err := r.source.Relationships(ctx)
	if err != nil {
		return 0, xerror.Wrap(err)
	}

	if err := r.Record(ctx, relationships...); err != nil {
		return 0, xerror.Wrap(err)
	}

	return len(relationships), nil
}

// Record validates all relationships before writing any of them, then
// writes them in batches. It returns the first batch error.
func (r *Recorder) Record(ctx context.Context, relationships ...edge.Relationship) error {
	for i, rel := range relationships {
		if err := rel.Validate(); err != nil {
			return xerror.Wrap(fmt.Errorf("relationship %d %s: %w", i, rel, err))
		}
	}

	batches := r.split(relationships)
	if len(batches) == 0 {
		return nil
	}

	queue := make(chan []edge.Relationship, len(batches))
	for _, batch := range batches {
		queue <- batch
	}
	close(queue)

	workers := min(r.workers, len(batches))
	errc := make(chan error, workers)

	for i := 0; i < workers; i++ {
		utils.SafeGoErr(ctx, r.logger, func() error {
			for batch := range queue {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := r.store.Put(ctx, batch...); err != nil {
					return err
				}
				r.logger.Debugf(ctx, "recorded batch of %d relationships", len(batch))
			}
			return nil
		}, errc)
	}

	var firstErr error
	for i := 0; i < workers; i++ {
		if err := <-errc; err != nil && firstErr == nil {
			firstErr = err
		}
	}

	if firstErr != nil {
		r.logger.Errorf(ctx, "recording relationships failed: %s", firstErr)
		return xerror.Wrap(firstErr)
	}

	r.logger.Infof(ctx, "recorded %d relationships in %d batches", len(relationships), len(batches))

	return nil
}

func (r *Recorder) split(relationships []edge.Relationship) [][]edge.Relationship {
	batches := make([][]edge.Relationship, 0, (len(relationships)+r.batchSize-1)/r.batchSize)
	for start := 0; start < len(relationships); start += r.batchSize {
		end := min(start+r.batchSize, len(relationships))
		batches = append(batches, relationships[start:end])
	}
	return batches
}
