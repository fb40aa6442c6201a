package hub

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supereum/explorer-indexer/internal/common"
)

type fakeTransport struct {
	mu      sync.Mutex
	sent    [][]byte
	pings   int
	closed  bool
	sendErr error
}

func (f *fakeTransport) Send(payload []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.sendErr != nil {
		return f.sendErr
	}
	f.sent = append(f.sent, payload)
	return nil
}

func (f *fakeTransport) Ping() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return nil
}

func (f *fakeTransport) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeTransport) isClosed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

func blockEvent(n uint64) common.Event {
	return common.NewBlockEvent(&common.Block{Number: n, Hash: "0xB", ProducerPoW: "0xM"})
}

func drain(t *testing.T, events <-chan common.Event, n int) []common.Event {
	t.Helper()
	out := make([]common.Event, 0, n)
	for i := 0; i < n; i++ {
		select {
		case e, ok := <-events:
			require.True(t, ok, "queue closed after %d events", i)
			out = append(out, e)
		case <-time.After(time.Second):
			t.Fatalf("timed out after %d events", i)
		}
	}
	return out
}

func TestSubscribe_ConnectionEventFirst(t *testing.T) {
	h := NewHub()
	sub, events := h.Subscribe(&fakeTransport{})

	assert.Equal(t, StateOpen, sub.State())
	assert.Equal(t, 1, h.Count())

	got := drain(t, events, 1)
	assert.Equal(t, common.EventConnection, got[0].Type)
	data := got[0].Data.(common.ConnectionData)
	assert.Equal(t, sub.ID, data.ClientID)
	assert.Equal(t, common.ConnectionMessage, data.Message)
}

func TestPublish_FanOutPreservesOrder(t *testing.T) {
	h := NewHub()
	_, first := h.Subscribe(&fakeTransport{})
	_, second := h.Subscribe(&fakeTransport{})

	for n := uint64(1); n <= 3; n++ {
		h.Publish(blockEvent(n))
	}

	for _, events := range []<-chan common.Event{first, second} {
		got := drain(t, events, 4)
		assert.Equal(t, common.EventConnection, got[0].Type)
		for i, n := range []uint64{1, 2, 3} {
			assert.Equal(t, n, got[i+1].Data.(common.NewBlockData).Number)
		}
	}
}

func TestPublish_LateSubscriberGetsNoBacklog(t *testing.T) {
	h := NewHub()
	h.Publish(blockEvent(1))
	_, events := h.Subscribe(&fakeTransport{})
	h.Publish(blockEvent(2))

	got := drain(t, events, 2)
	assert.Equal(t, common.EventConnection, got[0].Type)
	assert.Equal(t, uint64(2), got[1].Data.(common.NewBlockData).Number)
	select {
	case e := <-events:
		t.Fatalf("unexpected event %v", e)
	default:
	}
}

func TestPublish_SlowSubscriberDisconnected(t *testing.T) {
	h := NewHub(WithQueueSize(2))
	slowTransport := &fakeTransport{}
	slow, slowEvents := h.Subscribe(slowTransport)
	_, fastEvents := h.Subscribe(&fakeTransport{})

	h.Publish(blockEvent(1))
	drain(t, fastEvents, 2)
	h.Publish(blockEvent(2))
	drain(t, fastEvents, 1)

	// slow never drained: connection + block 1 filled its queue
	assert.Equal(t, StateClosed, slow.State())
	assert.True(t, slowTransport.isClosed())
	assert.Equal(t, 1, h.Count())

	got := make([]common.Event, 0)
	for e := range slowEvents {
		got = append(got, e)
	}
	assert.Len(t, got, 2)
}

func TestHeartbeat_EvictsUnacknowledged(t *testing.T) {
	h := NewHub()
	silentTransport := &fakeTransport{}
	silent, _ := h.Subscribe(silentTransport)
	alive, _ := h.Subscribe(&fakeTransport{})

	h.heartbeat()
	assert.Equal(t, 1, silentTransport.pings)
	alive.Ack()

	h.heartbeat()
	assert.Equal(t, StateClosed, silent.State())
	assert.Equal(t, StateOpen, alive.State())
	assert.Equal(t, []string{alive.ID}, h.SubscriberIDs())
}

func TestUnsubscribe_IsIdempotentAndPublishIsNoop(t *testing.T) {
	h := NewHub()
	sub, events := h.Subscribe(&fakeTransport{})
	h.Unsubscribe(sub)
	h.Unsubscribe(sub)

	assert.Equal(t, StateClosed, sub.State())
	assert.Equal(t, 0, h.Count())
	assert.True(t, sub.enqueue(blockEvent(1)))

	drain(t, events, 1)
	_, ok := <-events
	assert.False(t, ok)
}

func TestStateTransitions(t *testing.T) {
	cases := []struct {
		from, to State
		ok       bool
	}{
		{StateConnecting, StateOpen, true},
		{StateConnecting, StateClosing, true},
		{StateConnecting, StateClosed, false},
		{StateOpen, StateClosing, true},
		{StateOpen, StateConnecting, false},
		{StateOpen, StateClosed, false},
		{StateClosing, StateClosed, true},
		{StateClosing, StateOpen, false},
		{StateClosed, StateOpen, false},
		{StateClosed, StateConnecting, false},
		{StateClosed, StateClosing, false},
	}
	for _, tc := range cases {
		t.Run(tc.from.String()+"->"+tc.to.String(), func(t *testing.T) {
			assert.Equal(t, tc.ok, canTransition(tc.from, tc.to))
		})
	}
}

func TestPump_WritesEnvelopeAndRemovesOnError(t *testing.T) {
	h := NewHub()
	transport := &fakeTransport{}
	sub, events := h.Subscribe(transport)

	tx := &common.Transaction{Hash: "0xT1", Sender: "0xA", Receiver: "0xB", Amount: decimal.NewFromInt(10)}
	h.Publish(common.NewTransactionEvent(tx))

	done := make(chan struct{})
	go func() {
		h.Pump(sub, events)
		close(done)
	}()

	require.Eventually(t, func() bool {
		transport.mu.Lock()
		defer transport.mu.Unlock()
		return len(transport.sent) == 2
	}, time.Second, 10*time.Millisecond)

	var envelope map[string]interface{}
	require.NoError(t, json.Unmarshal(transport.sent[1], &envelope))
	assert.Equal(t, "new_transaction", envelope["event"])
	data := envelope["data"].(map[string]interface{})
	assert.Equal(t, "0xT1", data["hash"])
	assert.Equal(t, "0xA", data["sender"])
	assert.Equal(t, "0xB", data["receiver"])
	assert.Equal(t, "10", data["amount"])

	transport.mu.Lock()
	transport.sendErr = errors.New("broken pipe")
	transport.mu.Unlock()
	h.Publish(blockEvent(9))

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("pump did not stop")
	}
	assert.Equal(t, StateClosed, sub.State())
	assert.Equal(t, 0, h.Count())
}

func TestServeWebsocket(t *testing.T) {
	h := NewHub()
	server := httptest.NewServer(http.HandlerFunc(h.ServeWebsocket))
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	readJSON := func() map[string]interface{} {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var msg map[string]interface{}
		require.NoError(t, conn.ReadJSON(&msg))
		return msg
	}

	hello := readJSON()
	assert.Equal(t, "connection", hello["event"])
	clientID := hello["data"].(map[string]interface{})["clientId"].(string)
	assert.Equal(t, []string{clientID}, h.SubscriberIDs())

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"ping"}`)))
	pong := readJSON()
	assert.Equal(t, "pong", pong["type"])
	assert.NotZero(t, pong["timestamp"])

	h.Publish(blockEvent(42))
	block := readJSON()
	assert.Equal(t, "new_block", block["event"])
	assert.Equal(t, float64(42), block["data"].(map[string]interface{})["number"])

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return h.Count() == 0 }, 2*time.Second, 10*time.Millisecond)
}
