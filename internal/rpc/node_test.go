package rpc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
	"github.com/supereum/explorer-indexer/internal/common"
)

// fakeNode answers the named-params JSON-RPC dialect on / and push
// subscriptions on /ws.
type fakeNode struct {
	server    *httptest.Server
	head      atomic.Uint64
	acceptWS  atomic.Bool
	connected chan *websocket.Conn
	upgrader  websocket.Upgrader

	mu        sync.Mutex
	calls     map[string]int
	responses map[string]string
}

func newFakeNode(t *testing.T) *fakeNode {
	n := &fakeNode{
		connected: make(chan *websocket.Conn, 4),
		calls:     make(map[string]int),
		responses: make(map[string]string),
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/", n.handleRPC)
	mux.HandleFunc("/ws", n.handleWS)
	n.server = httptest.NewServer(mux)
	t.Cleanup(n.server.Close)
	return n
}

func (n *fakeNode) wsURL() string {
	return "ws" + strings.TrimPrefix(n.server.URL, "http") + "/ws"
}

// respond overrides the raw response body for a method.
func (n *fakeNode) respond(method string, body string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.responses[method] = body
}

func (n *fakeNode) callCount(method string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.calls[method]
}

func (n *fakeNode) handleRPC(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ID     uint64                 `json:"id"`
		Method string                 `json:"method"`
		Params map[string]interface{} `json:"params"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	n.mu.Lock()
	n.calls[req.Method]++
	override, hasOverride := n.responses[req.Method]
	n.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if hasOverride {
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,%s}`, req.ID, override)
		return
	}

	switch req.Method {
	case DEFAULT_METHOD_BLOCK_COUNT:
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":%d}`, req.ID, n.head.Load())
	case DEFAULT_METHOD_BLOCK_BY_HEIGHT:
		height := uint64(req.Params["height"].(float64))
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"result":{"hash":"0xB%d","number":%d,"timestamp":%d,"transactions":[{"hash":"0xT%d","from":"0xA","to":"0xB","value":"1"}]}}`,
			req.ID, height, height, 1700000000+height, height)
	default:
		fmt.Fprintf(w, `{"jsonrpc":"2.0","id":%d,"error":{"code":-32601,"message":"method not supported"}}`, req.ID)
	}
}

func (n *fakeNode) handleWS(w http.ResponseWriter, r *http.Request) {
	if !n.acceptWS.Load() {
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
		return
	}
	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	// answer the two subscribe requests with server-assigned ids
	for _, subID := range []string{"sub-blocks", "sub-txs"} {
		var req rpcRequest
		if err := conn.ReadJSON(&req); err != nil {
			conn.Close()
			return
		}
		_ = conn.WriteMessage(websocket.TextMessage, []byte(fmt.Sprintf(`{"jsonrpc":"2.0","id":%d,"result":"%s"}`, req.ID, subID)))
	}
	n.connected <- conn
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func notifyBlock(t *testing.T, conn *websocket.Conn, hash string, number uint64) {
	msg := fmt.Sprintf(`{"jsonrpc":"2.0","method":"sup_subscription","params":{"subscription":"sub-blocks","result":{"block_hash":"%s","block_number":%d}}}`, hash, number)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(msg)))
}

func testClientConfig(n *fakeNode) ClientConfig {
	return ClientConfig{
		URL:                 n.server.URL,
		WSURL:               n.wsURL(),
		ParamStyle:          ParamStyleNamed,
		Timeout:             2 * time.Second,
		ReconnectDelay:      50 * time.Millisecond,
		NotificationsBuffer: 64,
		Methods: Methods{
			BlockByHash:   DEFAULT_METHOD_BLOCK_BY_HASH,
			BlockByHeight: DEFAULT_METHOD_BLOCK_BY_HEIGHT,
			Transaction:   DEFAULT_METHOD_TRANSACTION,
			Balance:       DEFAULT_METHOD_BALANCE,
			ChainInfo:     DEFAULT_METHOD_CHAIN_INFO,
			Validators:    DEFAULT_METHOD_VALIDATORS,
			BlockCount:    DEFAULT_METHOD_BLOCK_COUNT,
		},
		Subscription: testSubscriptionConfig(),
		Poller: PollerConfig{
			Interval:      20 * time.Millisecond,
			BlocksPerPoll: 10,
			SeenTxCache:   100,
		},
	}
}

func testSubscriptionConfig() SubscriptionConfig {
	return SubscriptionConfig{
		SubscribeMethod:    DEFAULT_SUBSCRIBE_METHOD,
		NotificationMethod: DEFAULT_NOTIFICATION_METHOD,
		BlocksTopic:        DEFAULT_BLOCKS_TOPIC,
		TransactionsTopic:  DEFAULT_TRANSACTIONS_TOPIC,
	}
}

func newTestClient(t *testing.T, cfg ClientConfig) *Client {
	client, err := NewClient(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(client.Close)
	return client
}

func nextHint(t *testing.T, ch <-chan common.Hint) common.Hint {
	t.Helper()
	select {
	case h, ok := <-ch:
		require.True(t, ok, "hint channel closed")
		return h
	case <-time.After(3 * time.Second):
		t.Fatal("timed out waiting for hint")
	}
	return common.Hint{}
}
