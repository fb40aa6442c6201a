package storage

import (
	"context"
	"fmt"

	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/common"
)

// BlockTime is the (number, timestamp) pair used for block time averages.
type BlockTime struct {
	Number    uint64
	Timestamp int64
}

type IStorage struct {
	MainStorage IMainStorage
}

// IMainStorage is the system of record. All writes go through ExecuteUnit:
// either every write made by fn becomes visible or none does.
type IMainStorage interface {
	ExecuteUnit(ctx context.Context, fn func(unit IUnit) error) error
	GetMaxBlockNumber(ctx context.Context) (maxBlockNumber uint64, found bool, err error)
	GetNetworkAggregate(ctx context.Context) (*common.NetworkAggregate, error)
	Close() error
}

// IUnit is the write surface available inside one atomic unit.
type IUnit interface {
	// UpsertBlock reports whether the block number was new or now carries a different hash.
	UpsertBlock(block *common.Block) (changed bool, err error)
	// EnsureAddress creates a zero-balance address row if none exists.
	EnsureAddress(address string, seenAt int64) error
	// UpsertTransaction reports whether the row was created rather than updated.
	UpsertTransaction(tx *common.Transaction) (created bool, err error)
	// ApplyAddressDelta accumulates totals. A node-reported balance overwrites
	// the stored one, otherwise the balance moves by received minus sent.
	ApplyAddressDelta(delta common.AddressDelta, seenAt int64) error
	IncrementValidatorBlocks(address string, delta int64) error
	UpsertValidatorSnapshot(stat common.ValidatorStat) error

	// LockAggregate serializes aggregate recomputation across concurrent units
	// until the unit ends.
	LockAggregate() error
	// RecentBlockTimes returns up to limit blocks, highest number first.
	RecentBlockTimes(limit int) ([]BlockTime, error)
	CountBlocks() (uint64, error)
	CountTransactions() (uint64, error)
	CountActiveValidators() (uint64, error)
	SaveNetworkAggregate(aggregate common.NetworkAggregate) error
}

func NewStorageConnector(cfg *config.StorageConfig) (IStorage, error) {
	var storage IStorage
	var err error

	storage.MainStorage, err = NewConnector[IMainStorage](&cfg.Main)
	if err != nil {
		return IStorage{}, fmt.Errorf("failed to create main storage: %w", err)
	}

	return storage, nil
}

func NewConnector[T any](cfg *config.StorageConnectionConfig) (T, error) {
	var conn interface{}
	var err error
	if cfg.Memory != nil && cfg.Memory.Enabled {
		conn, err = NewMemoryConnector(cfg.Memory)
	} else if cfg.Postgres != nil && cfg.Postgres.Host != "" {
		conn, err = NewPostgresConnector(cfg.Postgres)
	} else {
		return *new(T), fmt.Errorf("no storage driver configured")
	}

	if err != nil {
		return *new(T), err
	}

	typedConn, ok := conn.(T)
	if !ok {
		return *new(T), fmt.Errorf("connector does not implement the required interface")
	}

	return typedConn, nil
}

func persistenceError(op string, err error) error {
	return fmt.Errorf("%s: %v: %w", op, err, common.ErrPersistence)
}
