package middleware

import (
	"crypto/subtle"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/supereum/explorer-indexer/api"
)

var ErrUnauthorized = fmt.Errorf("invalid username or password")

// BasicAuth guards diagnostic routes. Empty credentials disable the check.
func BasicAuth(username, password string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if username == "" && password == "" {
			c.Next()
			return
		}
		user, pass, ok := c.Request.BasicAuth()
		if !ok || !validateCredentials(user, pass, username, password) {
			log.Warn().Str("ip", c.ClientIP()).Str("path", c.Request.URL.Path).Msg(ErrUnauthorized.Error())
			api.UnauthorizedErrorHandler(c, ErrUnauthorized)
			return
		}
		c.Next()
	}
}

func validateCredentials(user, pass, expectedUser, expectedPass string) bool {
	userOK := subtle.ConstantTimeCompare([]byte(user), []byte(expectedUser)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(expectedPass)) == 1
	return userOK && passOK
}
