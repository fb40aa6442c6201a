package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/supereum/explorer-indexer/api"
	"github.com/supereum/explorer-indexer/internal/hub"
	"github.com/supereum/explorer-indexer/internal/storage"
)

// Health reports ok when the store answers, with the highest stored block.
func Health(store storage.IMainStorage) gin.HandlerFunc {
	return func(c *gin.Context) {
		resp := api.HealthResponse{Status: "ok"}
		if store != nil {
			number, found, err := store.GetMaxBlockNumber(c.Request.Context())
			if err != nil {
				api.UnavailableErrorHandler(c, err)
				return
			}
			if found {
				resp.LastBlock = &number
			}
		}
		c.JSON(http.StatusOK, resp)
	}
}

func WebsocketDebug(eventHub *hub.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		ids := eventHub.SubscriberIDs()
		c.JSON(http.StatusOK, api.WebsocketDebugResponse{
			Clients:     ids,
			ClientCount: len(ids),
			Status:      "WebSocket server is running",
		})
	}
}
