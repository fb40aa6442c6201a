package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type Error struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type HealthResponse struct {
	Status    string  `json:"status"`
	LastBlock *uint64 `json:"lastBlock,omitempty"`
}

type WebsocketDebugResponse struct {
	Clients     []string `json:"clients"`
	ClientCount int      `json:"clientCount"`
	Status      string   `json:"status"`
}

func writeError(c *gin.Context, message string, code int) {
	c.AbortWithStatusJSON(code, Error{Code: code, Message: message})
}

var (
	UnauthorizedErrorHandler = func(c *gin.Context, err error) {
		writeError(c, err.Error(), http.StatusUnauthorized)
	}
	UnavailableErrorHandler = func(c *gin.Context, err error) {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Dependency unavailable")
		writeError(c, "Service unavailable.", http.StatusServiceUnavailable)
	}
)
