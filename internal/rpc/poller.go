package rpc

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog/log"
	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/metrics"
	"github.com/supereum/explorer-indexer/internal/normalizer"
)

// Poller walks block heights on a fixed interval and emits a hint for every
// height past the client's last-seen height.
type Poller struct {
	rpc           *Client
	out           chan<- common.Hint
	interval      time.Duration
	blocksPerPoll uint64
	seenTxs       *lru.Cache[string, struct{}]
}

func newPoller(rpc *Client, out chan<- common.Hint) *Poller {
	cacheSize := rpc.cfg.Poller.SeenTxCache
	if cacheSize <= 0 {
		cacheSize = DEFAULT_SEEN_TX_CACHE
	}
	seen, err := lru.New[string, struct{}](cacheSize)
	if err != nil {
		// only fails for non-positive sizes
		log.Fatal().Err(err).Msg("Failed to create seen transaction cache")
	}
	interval := rpc.cfg.Poller.Interval
	if interval <= 0 {
		interval = time.Duration(DEFAULT_POLL_INTERVAL) * time.Millisecond
	}
	blocksPerPoll := rpc.cfg.Poller.BlocksPerPoll
	if blocksPerPoll <= 0 {
		blocksPerPoll = DEFAULT_BLOCKS_PER_POLL
	}
	return &Poller{
		rpc:           rpc,
		out:           out,
		interval:      interval,
		blocksPerPoll: uint64(blocksPerPoll),
		seenTxs:       seen,
	}
}

// Start polls once immediately and then on every tick until ctx is done.
func (p *Poller) Start(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	log.Info().Dur("interval", p.interval).Msg("Polling fallback running")

	p.poll(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Polling fallback stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *Poller) poll(ctx context.Context) {
	head, err := p.rpc.GetLatestBlockNumber(ctx)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Msg("Failed to get chain height while polling")
		}
		return
	}

	last, known := p.rpc.lastSeenHeight()
	if !known {
		p.pollHeight(ctx, head, false)
		return
	}
	if head <= last {
		log.Debug().Uint64("head", head).Msg("No new blocks to poll")
		return
	}

	until := head
	if until-last > p.blocksPerPoll {
		until = last + p.blocksPerPoll
	}
	metrics.PolledBatchSize.Set(float64(until - last))
	for height := last + 1; height <= until; height++ {
		if !p.pollHeight(ctx, height, true) {
			return
		}
	}
}

// pollHeight fetches one block and emits its hints. Transaction hints are
// only emitted when withTransactions is set; their hashes are remembered
// either way.
func (p *Poller) pollHeight(ctx context.Context, height uint64, withTransactions bool) bool {
	raw, err := p.rpc.FetchBlockByHeight(ctx, height)
	if err != nil {
		if ctx.Err() == nil {
			log.Error().Err(err).Uint64("height", height).Msg("Failed to fetch block while polling")
		}
		return false
	}
	block, txs, err := normalizer.NormalizeBlock(raw)
	if err != nil {
		log.Error().Err(err).Uint64("height", height).Msg("Skipping unreadable block while polling")
		p.rpc.markSeen(height)
		return true
	}

	if !p.rpc.markSeen(block.Number) {
		// push already reported this height
		return true
	}

	number := block.Number
	hints := []common.Hint{{
		Kind:      common.HintKindBlock,
		Hash:      block.Hash,
		Number:    &number,
		Timestamp: block.Timestamp,
		Source:    common.HintSourcePoll,
	}}
	for _, tx := range txs {
		if ok, _ := p.seenTxs.ContainsOrAdd(tx.Hash, struct{}{}); ok {
			continue
		}
		if withTransactions {
			hints = append(hints, common.Hint{
				Kind:      common.HintKindTransaction,
				Hash:      tx.Hash,
				Timestamp: tx.Timestamp,
				Source:    common.HintSourcePoll,
			})
		}
	}

	for _, hint := range hints {
		if !emit(ctx, p.out, hint) {
			return false
		}
	}
	return true
}

func emit(ctx context.Context, out chan<- common.Hint, hint common.Hint) bool {
	select {
	case out <- hint:
		metrics.HintsEmitted.WithLabelValues(string(hint.Kind), string(hint.Source)).Inc()
		return true
	case <-ctx.Done():
		return false
	}
}
