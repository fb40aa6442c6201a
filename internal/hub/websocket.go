package hub

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	config "github.com/supereum/explorer-indexer/configs"
)

const DEFAULT_WRITE_TIMEOUT = 10000

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// WebsocketTransport serializes writes to one gorilla connection.
type WebsocketTransport struct {
	conn         *websocket.Conn
	writeMu      sync.Mutex
	writeTimeout time.Duration
}

func NewWebsocketTransport(conn *websocket.Conn) *WebsocketTransport {
	timeout := config.Cfg.Hub.WriteTimeout
	if timeout == 0 {
		timeout = DEFAULT_WRITE_TIMEOUT
	}
	return &WebsocketTransport{conn: conn, writeTimeout: time.Duration(timeout) * time.Millisecond}
}

func (t *WebsocketTransport) Send(payload []byte) error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	if err := t.conn.SetWriteDeadline(time.Now().Add(t.writeTimeout)); err != nil {
		return err
	}
	return t.conn.WriteMessage(websocket.TextMessage, payload)
}

func (t *WebsocketTransport) Ping() error {
	return t.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(t.writeTimeout))
}

func (t *WebsocketTransport) Close() error {
	t.writeMu.Lock()
	defer t.writeMu.Unlock()
	_ = t.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
	return t.conn.Close()
}

type clientMessage struct {
	Type string `json:"type"`
}

type pongMessage struct {
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

// ServeWebsocket upgrades the request and runs the subscriber until the
// client goes away or the hub removes it.
func (h *Hub) ServeWebsocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("Websocket upgrade failed")
		return
	}

	transport := NewWebsocketTransport(conn)
	sub, events := h.Subscribe(transport)
	conn.SetPongHandler(func(string) error {
		sub.Ack()
		return nil
	})

	go h.Pump(sub, events)
	h.readLoop(sub, conn, transport)
}

// readLoop answers client text pings and returns when the connection fails.
func (h *Hub) readLoop(sub *Subscription, conn *websocket.Conn, transport *WebsocketTransport) {
	defer h.Unsubscribe(sub)
	for {
		messageType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debug().Err(err).Str("client_id", sub.ID).Msg("Subscriber connection error")
			}
			return
		}
		if messageType != websocket.TextMessage {
			continue
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			log.Debug().Str("client_id", sub.ID).Msg("Ignoring malformed client message")
			continue
		}
		if msg.Type != "ping" {
			continue
		}
		payload, _ := json.Marshal(pongMessage{Type: "pong", Timestamp: time.Now().UnixMilli()})
		if err := transport.Send(payload); err != nil {
			return
		}
	}
}
