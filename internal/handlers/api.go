package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	config "github.com/supereum/explorer-indexer/configs"
	"github.com/supereum/explorer-indexer/internal/hub"
	"github.com/supereum/explorer-indexer/internal/middleware"
	"github.com/supereum/explorer-indexer/internal/storage"
)

const DEFAULT_WS_PATH = "/ws"

// NewRouter wires the subscriber websocket and the diagnostic endpoints.
func NewRouter(eventHub *hub.Hub, store storage.IMainStorage) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(middleware.Logger())
	r.Use(gin.Recovery())
	r.Use(middleware.Cors)

	wsPath := config.Cfg.Hub.Path
	if wsPath == "" {
		wsPath = DEFAULT_WS_PATH
	}
	r.GET(wsPath, ServeWebsocket(eventHub))

	r.GET("/health", Health(store))
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	debug := r.Group("/", middleware.BasicAuth(config.Cfg.API.BasicAuth.Username, config.Cfg.API.BasicAuth.Password))
	debug.GET("/ws-debug", WebsocketDebug(eventHub))

	return r
}
