package hub

import (
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/supereum/explorer-indexer/internal/common"
)

// Transport is the write side of one subscriber connection.
type Transport interface {
	Send(payload []byte) error
	Ping() error
	Close() error
}

type Subscription struct {
	ID        string
	transport Transport

	mu           sync.Mutex
	state        State
	queue        chan common.Event
	awaitingPong bool
}

func newSubscription(id string, transport Transport, queueSize int) *Subscription {
	return &Subscription{
		ID:        id,
		transport: transport,
		state:     StateConnecting,
		queue:     make(chan common.Event, queueSize),
	}
}

func (s *Subscription) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Ack records that the subscriber answered the last heartbeat ping.
func (s *Subscription) Ack() {
	s.mu.Lock()
	s.awaitingPong = false
	s.mu.Unlock()
}

func (s *Subscription) transition(to State) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitionLocked(to)
}

func (s *Subscription) transitionLocked(to State) bool {
	if !canTransition(s.state, to) {
		return false
	}
	s.state = to
	return true
}

// enqueue hands the event to the send loop without blocking. It returns false
// when the queue is full; sending to a closing or closed subscriber is a no-op.
func (s *Subscription) enqueue(event common.Event) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateOpen && s.state != StateConnecting {
		log.Debug().Str("client_id", s.ID).Str("state", s.state.String()).Str("event", string(event.Type)).Msg("Dropping event for closed subscriber")
		return true
	}
	select {
	case s.queue <- event:
		return true
	default:
		return false
	}
}

// beginHeartbeat marks a ping as outstanding. It returns false when the
// previous ping was never acknowledged.
func (s *Subscription) beginHeartbeat() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.awaitingPong {
		return false
	}
	s.awaitingPong = true
	return true
}

// close moves the subscription to Closing, stops the queue and releases the
// transport. It reports false if another caller already closed it.
func (s *Subscription) close() bool {
	s.mu.Lock()
	if !s.transitionLocked(StateClosing) {
		s.mu.Unlock()
		return false
	}
	close(s.queue)
	s.mu.Unlock()

	if err := s.transport.Close(); err != nil {
		log.Debug().Err(err).Str("client_id", s.ID).Msg("Error closing subscriber transport")
	}
	s.transition(StateClosed)
	return true
}
