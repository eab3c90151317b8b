package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/strandhq/strand/internal/contexts"
)

// WithCarrier installs a fresh context container for the request. Every
// request is its own unit of work; containers are never shared across
// requests. Teardown is implicit because the container dies with the
// request context.
func WithCarrier() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(contexts.WithFreshCarrier(c.Request.Context()))
		c.Next()
	}
}
