package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/metrics"
	"github.com/supereum/explorer-indexer/internal/rpc"
	"github.com/supereum/explorer-indexer/internal/storage"
)

const DEFAULT_VALIDATOR_TRACKER_INTERVAL = 60000 // 1 minute

// ValidatorTracker periodically copies the node's validator snapshot into
// storage and refreshes the network aggregate.
type ValidatorTracker struct {
	rpc               rpc.IRPCClient
	storage           storage.IMainStorage
	triggerIntervalMs int
	averageWindow     int
}

func NewValidatorTracker(rpc rpc.IRPCClient, storage storage.IStorage) *ValidatorTracker {
	interval := config.Cfg.Validators.Interval
	if interval == 0 {
		interval = DEFAULT_VALIDATOR_TRACKER_INTERVAL
	}
	window := config.Cfg.Ingest.AverageWindow
	if window <= 0 {
		window = DEFAULT_AVERAGE_WINDOW
	}
	return &ValidatorTracker{
		rpc:               rpc,
		storage:           storage.MainStorage,
		triggerIntervalMs: interval,
		averageWindow:     window,
	}
}

func (vt *ValidatorTracker) Start(ctx context.Context) {
	interval := time.Duration(vt.triggerIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Debug().Msgf("Validator tracker running")
	vt.sync(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Validator tracker shutting down")
			return
		case <-ticker.C:
			vt.sync(ctx)
		}
	}
}

func (vt *ValidatorTracker) sync(ctx context.Context) {
	if err := vt.Sync(ctx); err != nil {
		log.Error().Err(err).Msg("Validator snapshot failed")
	}
}

// Sync fetches one validator snapshot and stores it in a single unit.
func (vt *ValidatorTracker) Sync(ctx context.Context) error {
	stats, err := vt.rpc.FetchValidatorSnapshot(ctx)
	if err != nil {
		return err
	}
	if len(stats) == 0 {
		log.Debug().Msg("Node reported no validators")
	}

	var active uint64
	err = vt.storage.ExecuteUnit(ctx, func(unit storage.IUnit) error {
		for _, stat := range stats {
			if err := unit.UpsertValidatorSnapshot(stat); err != nil {
				return err
			}
		}
		aggregate, err := refreshAggregate(unit, vt.averageWindow)
		if err != nil {
			return err
		}
		active = aggregate.ActiveValidatorCount
		return nil
	})
	if err != nil {
		return err
	}
	metrics.ActiveValidators.Set(float64(active))
	return nil
}
