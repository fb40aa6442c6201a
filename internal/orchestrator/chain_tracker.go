package orchestrator

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/metrics"
	"github.com/supereum/explorer-indexer/internal/rpc"
)

const DEFAULT_CHAIN_TRACKER_POLL_INTERVAL = 60000 // 1 minute

type ChainTracker struct {
	rpc               rpc.IRPCClient
	triggerIntervalMs int
}

func NewChainTracker(rpc rpc.IRPCClient) *ChainTracker {
	interval := config.Cfg.ChainTracker.Interval
	if interval == 0 {
		interval = DEFAULT_CHAIN_TRACKER_POLL_INTERVAL
	}
	return &ChainTracker{
		rpc:               rpc,
		triggerIntervalMs: interval,
	}
}

func (ct *ChainTracker) Start(ctx context.Context) {
	interval := time.Duration(ct.triggerIntervalMs) * time.Millisecond
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Debug().Msgf("Chain tracker running")
	ct.track(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Chain tracker shutting down")
			return
		case <-ticker.C:
			ct.track(ctx)
		}
	}
}

func (ct *ChainTracker) track(ctx context.Context) {
	info, err := ct.rpc.FetchChainInfo(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error getting chain info")
		return
	}
	metrics.ChainHead.Set(float64(info.Height))
	log.Debug().Uint64("height", info.Height).Str("best_hash", info.BestHash).Msg("Chain head updated")
}
