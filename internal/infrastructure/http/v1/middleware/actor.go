package middleware

import (
	"github.com/gin-gonic/gin"

	appctx "fueldepot/internal/core/context"
)

const (
	HeaderActor     = "X-Actor"
	HeaderActorName = "X-Actor-Name"
)

// Actor middleware reads the acting user from request headers.
// The engine does not authenticate; it records whatever identity the
// caller supplies, falling back to "system" downstream when absent.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		actorID := c.GetHeader(HeaderActor)
		if actorID == "" {
			c.Next()
			return
		}

		actor := &appctx.Actor{
			ID:   actorID,
			Name: c.GetHeader(HeaderActorName),
		}

		ctx := appctx.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}
