package orchestrator

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/metrics"
	"github.com/supereum/explorer-indexer/internal/normalizer"
	"github.com/supereum/explorer-indexer/internal/rpc"
	"github.com/supereum/explorer-indexer/internal/storage"
)

// Coordinator turns a hash into committed rows: fetch, normalize, then one
// atomic unit. Concurrent requests for the same hash are collapsed.
type Coordinator struct {
	rpc           rpc.IRPCClient
	storage       storage.IMainStorage
	inFlight      *inFlightSet
	fetchBalances bool
	averageWindow int
}

type CoordinatorOption func(*Coordinator)

func WithBalanceFetching(enabled bool) CoordinatorOption {
	return func(c *Coordinator) {
		c.fetchBalances = enabled
	}
}

func WithAverageWindow(window int) CoordinatorOption {
	return func(c *Coordinator) {
		if window > 0 {
			c.averageWindow = window
		}
	}
}

func NewCoordinator(rpc rpc.IRPCClient, storage storage.IStorage, opts ...CoordinatorOption) *Coordinator {
	averageWindow := config.Cfg.Ingest.AverageWindow
	if averageWindow <= 0 {
		averageWindow = DEFAULT_AVERAGE_WINDOW
	}
	c := &Coordinator{
		rpc:           rpc,
		storage:       storage.MainStorage,
		inFlight:      newInFlightSet(),
		fetchBalances: config.Cfg.Ingest.FetchBalances,
		averageWindow: averageWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IngestBlock fetches the block with the given hash and commits it together
// with its transactions, address deltas, validator credit and aggregate.
func (c *Coordinator) IngestBlock(ctx context.Context, hash string) (*common.Block, error) {
	key := blockKey(hash)
	if !c.inFlight.acquire(key) {
		metrics.DuplicateHintsDropped.WithLabelValues("block").Inc()
		return nil, fmt.Errorf("block %s: %w", hash, common.ErrAlreadyInFlight)
	}
	defer c.inFlight.release(key)

	raw, err := c.rpc.FetchBlockByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("fetch block %s: %w", hash, err)
	}
	block, txs, err := normalizer.NormalizeBlock(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize block %s: %w", hash, err)
	}
	return c.commitBlock(ctx, block, txs)
}

// IngestBlockByHeight is IngestBlock for callers that only know the height.
func (c *Coordinator) IngestBlockByHeight(ctx context.Context, height uint64) (*common.Block, error) {
	key := heightKey(height)
	if !c.inFlight.acquire(key) {
		metrics.DuplicateHintsDropped.WithLabelValues("block").Inc()
		return nil, fmt.Errorf("block at height %d: %w", height, common.ErrAlreadyInFlight)
	}
	defer c.inFlight.release(key)

	raw, err := c.rpc.FetchBlockByHeight(ctx, height)
	if err != nil {
		return nil, fmt.Errorf("fetch block at height %d: %w", height, err)
	}
	block, txs, err := normalizer.NormalizeBlock(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize block at height %d: %w", height, err)
	}

	hashKey := blockKey(block.Hash)
	if !c.inFlight.acquire(hashKey) {
		metrics.DuplicateHintsDropped.WithLabelValues("block").Inc()
		return nil, fmt.Errorf("block %s: %w", block.Hash, common.ErrAlreadyInFlight)
	}
	defer c.inFlight.release(hashKey)
	return c.commitBlock(ctx, block, txs)
}

func (c *Coordinator) commitBlock(ctx context.Context, block *common.Block, txs []common.Transaction) (*common.Block, error) {
	start := time.Now()
	defer func() {
		metrics.UnitDuration.WithLabelValues("block").Observe(time.Since(start).Seconds())
	}()

	balances := c.authoritativeBalances(ctx, txs)

	var createdTxs int
	err := c.storage.ExecuteUnit(ctx, func(unit storage.IUnit) error {
		changed, err := unit.UpsertBlock(block)
		if err != nil {
			return err
		}

		for i := range txs {
			created, err := writeTransaction(unit, &txs[i], balances, block.Timestamp)
			if err != nil {
				return err
			}
			if created {
				createdTxs++
			}
		}

		if block.ProducerPoS != "" {
			if err := unit.EnsureAddress(block.ProducerPoS, block.Timestamp); err != nil {
				return err
			}
			// only credit the validator the first time this block number carries this hash
			if changed {
				if err := unit.IncrementValidatorBlocks(block.ProducerPoS, 1); err != nil {
					return err
				}
			}
		}

		_, err = refreshAggregate(unit, c.averageWindow)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("persist block %s: %w", block.Hash, err)
	}

	metrics.IngestedBlocks.Inc()
	metrics.IngestedTransactions.Add(float64(createdTxs))
	metrics.LastIngestedBlock.Set(float64(block.Number))
	log.Debug().Str("hash", block.Hash).Uint64("number", block.Number).Int("transactions", len(txs)).Msg("Block committed")
	return block, nil
}

// IngestTransaction fetches one transaction and commits it with its address
// deltas and a refreshed aggregate. No block row is written.
func (c *Coordinator) IngestTransaction(ctx context.Context, hash string) (*common.Transaction, error) {
	key := transactionKey(hash)
	if !c.inFlight.acquire(key) {
		metrics.DuplicateHintsDropped.WithLabelValues("transaction").Inc()
		return nil, fmt.Errorf("transaction %s: %w", hash, common.ErrAlreadyInFlight)
	}
	defer c.inFlight.release(key)

	start := time.Now()
	defer func() {
		metrics.UnitDuration.WithLabelValues("transaction").Observe(time.Since(start).Seconds())
	}()

	raw, err := c.rpc.FetchTransaction(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("fetch transaction %s: %w", hash, err)
	}
	tx, err := normalizer.NormalizeTransaction(raw)
	if err != nil {
		return nil, fmt.Errorf("normalize transaction %s: %w", hash, err)
	}

	balances := c.authoritativeBalances(ctx, []common.Transaction{*tx})

	var created bool
	err = c.storage.ExecuteUnit(ctx, func(unit storage.IUnit) error {
		var err error
		created, err = writeTransaction(unit, tx, balances, tx.Timestamp)
		if err != nil {
			return err
		}
		_, err = refreshAggregate(unit, c.averageWindow)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("persist transaction %s: %w", hash, err)
	}

	if created {
		metrics.IngestedTransactions.Inc()
	}
	return tx, nil
}

// writeTransaction creates missing address rows, upserts the transaction and
// applies address deltas when the row is new. It reports whether it was new.
func writeTransaction(unit storage.IUnit, tx *common.Transaction, balances map[string]decimal.Decimal, fallbackTime int64) (bool, error) {
	seenAt := tx.Timestamp
	if seenAt == 0 {
		seenAt = fallbackTime
	}
	for _, addr := range tx.Participants() {
		if err := unit.EnsureAddress(addr, seenAt); err != nil {
			return false, err
		}
	}

	created, err := unit.UpsertTransaction(tx)
	if err != nil {
		return false, err
	}
	if !created {
		return false, nil
	}

	for _, delta := range common.AddressDeltasFor(*tx, balances) {
		if err := unit.ApplyAddressDelta(delta, seenAt); err != nil {
			return false, err
		}
	}
	return true, nil
}

// authoritativeBalances asks the node for the balance of every participant.
// Failures are tolerated; those addresses fall back to derived balances.
func (c *Coordinator) authoritativeBalances(ctx context.Context, txs []common.Transaction) map[string]decimal.Decimal {
	if !c.fetchBalances {
		return nil
	}
	balances := make(map[string]decimal.Decimal)
	for _, tx := range txs {
		for _, addr := range tx.Participants() {
			if _, done := balances[addr]; done {
				continue
			}
			bal, err := c.rpc.FetchBalance(ctx, addr)
			if err != nil {
				log.Debug().Err(err).Str("address", addr).Msg("Balance unavailable, deriving locally")
				continue
			}
			balances[addr] = bal
		}
	}
	return balances
}
