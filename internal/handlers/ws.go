package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/supereum/explorer-indexer/internal/hub"
)

func ServeWebsocket(eventHub *hub.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		eventHub.ServeWebsocket(c.Writer, c.Request)
	}
}
