package rpc

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/metrics"
)

// StreamNotifications returns a channel of hints that stays open until ctx is
// done. Push is preferred; while it is down the poller fills in.
func (rpc *Client) StreamNotifications(ctx context.Context) <-chan common.Hint {
	out := make(chan common.Hint, rpc.cfg.NotificationsBuffer)
	go rpc.superviseStream(ctx, out)
	return out
}

func (rpc *Client) superviseStream(ctx context.Context, out chan common.Hint) {
	defer close(out)

	fallback := &pollingFallback{poller: newPoller(rpc, out)}
	defer fallback.stop()

	if rpc.cfg.WSURL == "" {
		log.Info().Msg("No push endpoint configured, polling only")
		fallback.start(ctx)
		<-ctx.Done()
		return
	}

	for {
		err := rpc.runSession(ctx, out, fallback.stop)
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Dur("retryIn", rpc.cfg.ReconnectDelay).Msg("Push subscription unavailable, polling until reconnect")
		fallback.start(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(rpc.cfg.ReconnectDelay):
			metrics.ReconnectAttempts.Inc()
		}
	}
}

// pollingFallback runs the poller in its own goroutine. It is only touched
// by the supervising goroutine.
type pollingFallback struct {
	poller *Poller
	cancel context.CancelFunc
	done   chan struct{}
}

func (f *pollingFallback) start(ctx context.Context) {
	if f.cancel != nil {
		return
	}
	pollCtx, cancel := context.WithCancel(ctx)
	f.cancel = cancel
	f.done = make(chan struct{})
	metrics.PollingActive.Set(1)
	go func(done chan struct{}) {
		defer close(done)
		f.poller.Start(pollCtx)
	}(f.done)
}

func (f *pollingFallback) stop() {
	if f.cancel == nil {
		return
	}
	f.cancel()
	<-f.done
	f.cancel = nil
	f.done = nil
	metrics.PollingActive.Set(0)
	log.Info().Msg("Push subscription restored, polling stopped")
}

func (f *pollingFallback) running() bool {
	return f.cancel != nil
}
