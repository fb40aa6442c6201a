package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/metrics"
	"github.com/supereum/explorer-indexer/internal/rpc"
	"github.com/supereum/explorer-indexer/internal/storage"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	DEFAULT_INGEST_WORKERS      = 20
	DEFAULT_INITIAL_SYNC_BLOCKS = 10
)

// EventPublisher receives every event produced by a successful ingestion.
// The hub and the relays implement it; Publish must not block.
type EventPublisher interface {
	Publish(event common.Event)
}

type Orchestrator struct {
	rpc                     rpc.IRPCClient
	storage                 storage.IStorage
	coordinator             *Coordinator
	publishers              []EventPublisher
	workers                 int64
	initialSyncBlocks       int
	validatorTrackerEnabled bool
	chainTrackerEnabled     bool
}

type OrchestratorOption func(*Orchestrator)

func WithPublishers(publishers ...EventPublisher) OrchestratorOption {
	return func(o *Orchestrator) {
		o.publishers = append(o.publishers, publishers...)
	}
}

func WithWorkers(workers int) OrchestratorOption {
	return func(o *Orchestrator) {
		if workers > 0 {
			o.workers = int64(workers)
		}
	}
}

// WithInitialSyncBlocks sets how many leading blocks are ingested on start.
// A negative value disables the initial sync.
func WithInitialSyncBlocks(blocks int) OrchestratorOption {
	return func(o *Orchestrator) {
		o.initialSyncBlocks = blocks
	}
}

func WithTrackers(validators bool, chain bool) OrchestratorOption {
	return func(o *Orchestrator) {
		o.validatorTrackerEnabled = validators
		o.chainTrackerEnabled = chain
	}
}

func NewOrchestrator(rpc rpc.IRPCClient, storage storage.IStorage, opts ...OrchestratorOption) *Orchestrator {
	workers := int64(config.Cfg.Ingest.Workers)
	if workers <= 0 {
		workers = DEFAULT_INGEST_WORKERS
	}
	initialSync := config.Cfg.Ingest.InitialSyncBlocks
	if initialSync == 0 {
		initialSync = DEFAULT_INITIAL_SYNC_BLOCKS
	}

	o := &Orchestrator{
		rpc:                     rpc,
		storage:                 storage,
		coordinator:             NewCoordinator(rpc, storage),
		workers:                 workers,
		initialSyncBlocks:       initialSync,
		validatorTrackerEnabled: config.Cfg.Validators.Enabled,
		chainTrackerEnabled:     config.Cfg.ChainTracker.Enabled,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Coordinator() *Coordinator {
	return o.coordinator
}

// Start runs the pipeline until ctx is cancelled.
func (o *Orchestrator) Start(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	if o.chainTrackerEnabled {
		g.Go(func() error {
			NewChainTracker(o.rpc).Start(ctx)
			return nil
		})
	}

	if o.validatorTrackerEnabled {
		g.Go(func() error {
			NewValidatorTracker(o.rpc, o.storage).Start(ctx)
			return nil
		})
	}

	g.Go(func() error {
		o.initialSync(ctx)
		hints := o.rpc.StreamNotifications(ctx)
		o.consumeHints(ctx, hints)
		return nil
	})

	err := g.Wait()
	log.Info().Msg("Orchestrator stopped")
	return err
}

func (o *Orchestrator) initialSync(ctx context.Context) {
	if o.initialSyncBlocks < 0 {
		return
	}
	head, err := o.rpc.GetLatestBlockNumber(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Initial sync skipped, chain head unavailable")
		return
	}
	last := head
	if last > uint64(o.initialSyncBlocks) {
		last = uint64(o.initialSyncBlocks)
	}
	log.Info().Uint64("to", last).Msg("Starting initial sync")
	for height := uint64(0); height <= last; height++ {
		if ctx.Err() != nil {
			return
		}
		block, err := o.coordinator.IngestBlockByHeight(ctx, height)
		if err != nil {
			logFailure(fmt.Sprintf("block at height %d", height), "block", err)
			continue
		}
		o.publish(common.NewBlockEvent(block))
	}
}

// consumeHints ingests each hint on its own goroutine, bounded by the
// worker semaphore, until the hint channel closes.
func (o *Orchestrator) consumeHints(ctx context.Context, hints <-chan common.Hint) {
	sem := semaphore.NewWeighted(o.workers)
	for hint := range hints {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}
		go func(hint common.Hint) {
			defer sem.Release(1)
			o.handleHint(ctx, hint)
		}(hint)
	}
	// wait for running ingestions to finish
	if err := sem.Acquire(context.Background(), o.workers); err == nil {
		sem.Release(o.workers)
	}
}

func (o *Orchestrator) handleHint(ctx context.Context, hint common.Hint) {
	switch hint.Kind {
	case common.HintKindBlock:
		block, err := o.coordinator.IngestBlock(ctx, hint.Hash)
		if err != nil {
			logFailure(hint.String(), "block", err)
			return
		}
		o.publish(common.NewBlockEvent(block))
	case common.HintKindTransaction:
		tx, err := o.coordinator.IngestTransaction(ctx, hint.Hash)
		if err != nil {
			logFailure(hint.String(), "transaction", err)
			return
		}
		o.publish(common.NewTransactionEvent(tx))
	default:
		log.Warn().Str("hint", hint.String()).Msg("Unknown hint kind")
	}
}

// Backfill ingests every height in [from, to] and publishes the results.
// Failed heights are logged and skipped; the count of failures is returned
// in the error.
func (o *Orchestrator) Backfill(ctx context.Context, from, to uint64) error {
	if from > to {
		return fmt.Errorf("invalid range %d..%d", from, to)
	}
	var failed int
	for height := from; height <= to; height++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		block, err := o.coordinator.IngestBlockByHeight(ctx, height)
		if err != nil {
			failed++
			logFailure(fmt.Sprintf("block at height %d", height), "block", err)
			continue
		}
		o.publish(common.NewBlockEvent(block))
		if height == to {
			break
		}
	}
	log.Info().Uint64("from", from).Uint64("to", to).Int("failed", failed).Msg("Backfill finished")
	if failed > 0 {
		return fmt.Errorf("backfill %d..%d: %d blocks failed", from, to, failed)
	}
	return nil
}

func (o *Orchestrator) publish(event common.Event) {
	for _, p := range o.publishers {
		p.Publish(event)
	}
}

func logFailure(subject string, entity string, err error) {
	kind := common.FailureKind(err)
	switch {
	case errors.Is(err, common.ErrAlreadyInFlight):
		log.Debug().Str("subject", subject).Msg("Duplicate hint dropped")
		return
	case errors.Is(err, common.ErrNotFound):
		log.Debug().Err(err).Str("subject", subject).Msg("Not found on node")
	case errors.Is(err, context.Canceled):
		return
	default:
		log.Error().Err(err).Str("subject", subject).Str("kind", kind).Msg("Ingestion failed")
	}
	metrics.IngestFailures.WithLabelValues(entity, kind).Inc()
}
