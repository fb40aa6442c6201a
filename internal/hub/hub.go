package hub

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/metrics"
)

const (
	DEFAULT_HEARTBEAT_INTERVAL = 30000
	DEFAULT_SEND_QUEUE_SIZE    = 64
)

const (
	ReasonSlow      = "slow"
	ReasonHeartbeat = "heartbeat"
	ReasonWrite     = "write_error"
	ReasonClosed    = "closed"
	ReasonShutdown  = "shutdown"
)

// Hub fans every published event out to all open subscribers. Each
// subscriber gets events in publish order; nothing is replayed to late joiners.
type Hub struct {
	mu                sync.RWMutex
	subscribers       map[string]*Subscription
	queueSize         int
	heartbeatInterval time.Duration
}

type HubOption func(*Hub)

func WithQueueSize(size int) HubOption {
	return func(h *Hub) {
		if size > 0 {
			h.queueSize = size
		}
	}
}

func WithHeartbeatInterval(interval time.Duration) HubOption {
	return func(h *Hub) {
		if interval > 0 {
			h.heartbeatInterval = interval
		}
	}
}

func NewHub(opts ...HubOption) *Hub {
	heartbeat := config.Cfg.Hub.HeartbeatInterval
	if heartbeat == 0 {
		heartbeat = DEFAULT_HEARTBEAT_INTERVAL
	}
	queueSize := config.Cfg.Hub.SendQueueSize
	if queueSize <= 0 {
		queueSize = DEFAULT_SEND_QUEUE_SIZE
	}
	h := &Hub{
		subscribers:       make(map[string]*Subscription),
		queueSize:         queueSize,
		heartbeatInterval: time.Duration(heartbeat) * time.Millisecond,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a transport and returns its handle and the queue the
// send loop drains. The connection event is always the first queued event.
func (h *Hub) Subscribe(transport Transport) (*Subscription, <-chan common.Event) {
	sub := newSubscription(uuid.New().String(), transport, h.queueSize)
	sub.enqueue(common.NewConnectionEvent(sub.ID))

	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	h.mu.Unlock()

	sub.transition(StateOpen)
	metrics.HubSubscribers.Inc()
	log.Info().Str("client_id", sub.ID).Msg("Subscriber connected")
	return sub, sub.queue
}

func (h *Hub) Unsubscribe(sub *Subscription) {
	h.remove(sub, ReasonClosed)
}

func (h *Hub) remove(sub *Subscription, reason string) {
	h.mu.Lock()
	current, ok := h.subscribers[sub.ID]
	if ok && current == sub {
		delete(h.subscribers, sub.ID)
	}
	h.mu.Unlock()

	if !sub.close() {
		return
	}
	if ok {
		metrics.HubSubscribers.Dec()
	}
	if reason != ReasonClosed {
		metrics.HubSubscribersEvicted.WithLabelValues(reason).Inc()
	}
	log.Info().Str("client_id", sub.ID).Str("reason", reason).Msg("Subscriber removed")
}

// Publish never blocks. A subscriber whose queue is full is disconnected.
func (h *Hub) Publish(event common.Event) {
	metrics.HubEventsPublished.WithLabelValues(string(event.Type)).Inc()

	var slow []*Subscription
	h.mu.RLock()
	for _, sub := range h.subscribers {
		if !sub.enqueue(event) {
			slow = append(slow, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range slow {
		log.Warn().Str("client_id", sub.ID).Msg("Subscriber queue full, disconnecting")
		h.remove(sub, ReasonSlow)
	}
}

// Pump is the per-subscriber send loop. It returns when the queue is closed
// or a write fails.
func (h *Hub) Pump(sub *Subscription, events <-chan common.Event) {
	for event := range events {
		payload, err := event.Marshal()
		if err != nil {
			log.Error().Err(err).Str("event", string(event.Type)).Msg("Failed to encode event")
			continue
		}
		if err := sub.transport.Send(payload); err != nil {
			log.Debug().Err(err).Str("client_id", sub.ID).Msg("Write to subscriber failed")
			h.remove(sub, ReasonWrite)
			return
		}
	}
}

// Start runs the heartbeat until ctx is done, then closes every subscriber.
func (h *Hub) Start(ctx context.Context) {
	ticker := time.NewTicker(h.heartbeatInterval)
	defer ticker.Stop()

	log.Debug().Msgf("Hub heartbeat running every %s", h.heartbeatInterval)
	for {
		select {
		case <-ctx.Done():
			h.Close()
			return
		case <-ticker.C:
			h.heartbeat()
		}
	}
}

func (h *Hub) heartbeat() {
	var dead []*Subscription
	var pinged []*Subscription
	h.mu.RLock()
	for _, sub := range h.subscribers {
		if sub.beginHeartbeat() {
			pinged = append(pinged, sub)
		} else {
			dead = append(dead, sub)
		}
	}
	h.mu.RUnlock()

	for _, sub := range dead {
		h.remove(sub, ReasonHeartbeat)
	}
	for _, sub := range pinged {
		if err := sub.transport.Ping(); err != nil {
			log.Debug().Err(err).Str("client_id", sub.ID).Msg("Ping failed")
			h.remove(sub, ReasonWrite)
		}
	}
}

func (h *Hub) Close() {
	h.mu.RLock()
	subs := make([]*Subscription, 0, len(h.subscribers))
	for _, sub := range h.subscribers {
		subs = append(subs, sub)
	}
	h.mu.RUnlock()

	for _, sub := range subs {
		h.remove(sub, ReasonShutdown)
	}
}

// SubscriberIDs returns the ids of the registered subscribers, sorted.
func (h *Hub) SubscriberIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.subscribers))
	for id := range h.subscribers {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribers)
}
