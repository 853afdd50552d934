package middleware

import (
	"crypto/subtle"

	"github.com/gin-gonic/gin"

	"sushibar/waitline/pkg/response"
)

// AdminKeyAuth guards staff endpoints with the shared admin key, taken from
// the x-admin-key header or the key query parameter. This is a capability
// check, not an identity system: one secret, no sessions.
func AdminKeyAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetHeader("x-admin-key")
		if key == "" {
			key = c.Query("key")
		}

		if subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) != 1 {
			response.Forbidden(c, "invalid admin key")
			c.Abort()
			return
		}

		c.Next()
	}
}
