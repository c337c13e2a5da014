package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HealthCheck reports whether the backing store is reachable
type HealthCheck func(ctx context.Context) error

// HealthHandler returns the /health endpoint
func HealthHandler(store string, version string, check HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		if check != nil {
			if err := check(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{
					"status": "unhealthy",
					"store":  store,
					"error":  err.Error(),
				})
				return
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"store":     store,
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}
