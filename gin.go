package orgkit

import (
	"github.com/gin-gonic/gin"
)

// GinPrincipalExtractor returns the principal for a gin request, or nil when anonymous.
type GinPrincipalExtractor func(*gin.Context) *Principal

// GinPrincipalFromContext reads the principal placed on the request context
// by upstream authentication middleware.
func GinPrincipalFromContext(c *gin.Context) *Principal {
	return PrincipalFromContext(c.Request.Context())
}

// GinRequirePolicy returns a gin handler that aborts unless the named policy
// allows the principal. An unregistered policy panics while routes are wired.
//
// Example:
//
//	router.POST("/leases/:id/sign",
//	    orgkit.GinRequirePolicy(engine, "leases.sign", orgkit.GinPrincipalFromContext),
//	    signLease)
func GinRequirePolicy(engine *Engine, name string, extractor GinPrincipalExtractor) gin.HandlerFunc {
	engine.Registry().MustGet(name)
	if extractor == nil {
		extractor = GinPrincipalFromContext
	}

	return func(c *gin.Context) {
		ctx := c.Request.Context()

		d, err := engine.Authorize(ctx, extractor(c), name)
		if d.Outcome == "" {
			c.Abort()
			return
		}
		if err != nil || !d.Allowed() {
			c.AbortWithStatusJSON(StatusCode(d), gin.H{
				"error":  d.Reason.UserMessage(),
				"reason": string(d.Reason),
			})
			return
		}

		c.Request = c.Request.WithContext(WithDecision(ctx, d))
		c.Next()
	}
}
