package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/common"
	"github.com/supereum/explorer-indexer/internal/hub"
	"github.com/supereum/explorer-indexer/internal/storage"
	"github.com/supereum/explorer-indexer/test/mocks"
)

func newMemory(t *testing.T) *storage.MemoryConnector {
	m, err := storage.NewMemoryConnector(&config.MemoryConfig{Enabled: true})
	require.NoError(t, err)
	return m
}

func TestHealth(t *testing.T) {
	memory := newMemory(t)
	router := NewRouter(hub.NewHub(), memory)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	require.NoError(t, memory.ExecuteUnit(context.Background(), func(u storage.IUnit) error {
		_, err := u.UpsertBlock(&common.Block{Number: 12, Hash: "0x12"})
		return err
	}))
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.JSONEq(t, `{"status":"ok","lastBlock":12}`, w.Body.String())
}

func TestHealth_StorageDown(t *testing.T) {
	store := mocks.NewMockIMainStorage(t)
	store.On("GetMaxBlockNumber", mock.Anything).Return(uint64(0), false, fmt.Errorf("ping: %w", common.ErrPersistence))
	router := NewRouter(hub.NewHub(), store)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestWebsocketDebug(t *testing.T) {
	eventHub := hub.NewHub()
	server := httptest.NewServer(NewRouter(eventHub, newMemory(t)))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var hello common.Event
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(payload, &hello))
	assert.Equal(t, common.EventConnection, hello.Type)

	resp, err := http.Get(server.URL + "/ws-debug")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body struct {
		Clients     []string `json:"clients"`
		ClientCount int      `json:"clientCount"`
		Status      string   `json:"status"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, 1, body.ClientCount)
	assert.Equal(t, eventHub.SubscriberIDs(), body.Clients)
}

func TestWebsocketDebug_BasicAuth(t *testing.T) {
	original := config.Cfg.API
	defer func() { config.Cfg.API = original }()
	config.Cfg.API.BasicAuth = config.BasicAuthConfig{Username: "ops", Password: "secret"}

	router := NewRouter(hub.NewHub(), newMemory(t))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/ws-debug", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/ws-debug", nil)
	req.SetBasicAuth("ops", "secret")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// health stays open
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	router := NewRouter(hub.NewHub(), newMemory(t))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hub_subscribers")
}

