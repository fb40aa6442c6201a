package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/metrics"
	"github.com/supereum/explorer-indexer/internal/normalizer"
)

type wsMessage struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params"`
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type notificationParams struct {
	Subscription   json.RawMessage `json:"subscription"`
	SubscriptionID json.RawMessage `json:"subscription_id"`
	Result         json.RawMessage `json:"result"`
}

// subscriptionSession tracks the subscriptions of one websocket session.
// Requests are keyed by the local request id until the node confirms them,
// then by the subscription id the node assigned.
type subscriptionSession struct {
	cfg     SubscriptionConfig
	ids     *atomic.Uint64
	pending map[string]string
	active  map[string]string
}

func newSubscriptionSession(cfg SubscriptionConfig, ids *atomic.Uint64) *subscriptionSession {
	return &subscriptionSession{
		cfg:     cfg,
		ids:     ids,
		pending: make(map[string]string),
		active:  make(map[string]string),
	}
}

func (s *subscriptionSession) subscribeRequest(topic string) rpcRequest {
	id := s.ids.Add(1)
	s.pending[strconv.FormatUint(id, 10)] = topic
	return rpcRequest{
		JSONRPC: "2.0",
		ID:      id,
		Method:  s.cfg.SubscribeMethod,
		Params:  SubscribeParams(topic),
	}
}

// handleMessage consumes one frame from the node and returns the hints it carries.
func (s *subscriptionSession) handleMessage(data []byte) []common.Hint {
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Warn().Err(err).Msg("Ignoring unreadable websocket frame")
		return nil
	}

	var params notificationParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			log.Debug().Err(err).Msg("Websocket frame params are not an object")
		}
	}

	if id := stringifyID(msg.ID); id != "" {
		if topic, ok := s.pending[id]; ok {
			s.confirm(id, topic, msg, params)
		}
	}

	if msg.Method != s.cfg.NotificationMethod || len(msg.Params) == 0 {
		return nil
	}
	return s.route(params)
}

func (s *subscriptionSession) confirm(id string, topic string, msg wsMessage, params notificationParams) {
	if msg.Error != nil {
		log.Error().Str("topic", topic).Str("error", msg.Error.Message).Msg("Subscription request rejected")
		delete(s.pending, id)
		return
	}
	subID := stringifyID(params.Subscription)
	if subID == "" {
		subID = stringifyID(params.SubscriptionID)
	}
	if subID == "" {
		subID = stringifyID(msg.Result)
	}
	if subID == "" {
		return
	}
	delete(s.pending, id)
	s.active[subID] = topic
	log.Info().Str("topic", topic).Str("requestId", id).Str("subscription", subID).Msg("Subscription confirmed")
}

func (s *subscriptionSession) route(params notificationParams) []common.Hint {
	subID := stringifyID(params.Subscription)
	if subID == "" {
		subID = stringifyID(params.SubscriptionID)
	}
	topic, ok := s.active[subID]
	if !ok {
		log.Debug().Str("subscription", subID).Msg("Notification for unknown subscription")
		return nil
	}
	if len(params.Result) == 0 {
		return nil
	}

	var (
		hint common.Hint
		err  error
	)
	switch topic {
	case s.cfg.BlocksTopic:
		hint, err = normalizer.NormalizeBlockNotification(params.Result, common.HintSourcePush)
	case s.cfg.TransactionsTopic:
		hint, err = normalizer.NormalizeTransactionNotification(params.Result, common.HintSourcePush)
	default:
		return nil
	}
	if err != nil {
		log.Warn().Err(err).Str("topic", topic).Msg("Dropping notification")
		return nil
	}
	return []common.Hint{hint}
}

// stringifyID renders a JSON id (number or string) as a plain string.
func stringifyID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	if raw[0] == '{' || raw[0] == '[' {
		return ""
	}
	return string(raw)
}

// runSession dials the push endpoint, subscribes to both topics and forwards
// hints until the connection fails or ctx is done. onOpen runs once the
// subscribe requests are written.
func (rpc *Client) runSession(ctx context.Context, out chan<- common.Hint, onOpen func()) error {
	dialer := websocket.Dialer{HandshakeTimeout: rpc.cfg.Timeout}
	conn, _, err := dialer.DialContext(ctx, rpc.cfg.WSURL, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %v: %w", rpc.cfg.WSURL, err, common.ErrTransport)
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	session := newSubscriptionSession(rpc.cfg.Subscription, &rpc.requestIDs)
	for _, topic := range []string{rpc.cfg.Subscription.BlocksTopic, rpc.cfg.Subscription.TransactionsTopic} {
		if err := conn.WriteJSON(session.subscribeRequest(topic)); err != nil {
			return fmt.Errorf("subscribe %s: %v: %w", topic, err, common.ErrTransport)
		}
	}

	log.Info().Str("url", rpc.cfg.WSURL).Msg("Push subscription connected")
	metrics.PushConnected.Set(1)
	defer metrics.PushConnected.Set(0)
	onOpen()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("read: %v: %w", err, common.ErrTransport)
		}
		for _, hint := range session.handleMessage(data) {
			if hint.Number != nil {
				rpc.markSeen(*hint.Number)
			}
			if !emit(ctx, out, hint) {
				return ctx.Err()
			}
		}
	}
}
