// Package handlers implements the CORTEX API endpoint handlers.
//
// Handlers are factories returning gin.HandlerFunc so the server wires
// dependencies once at route setup and tests can build handlers against
// fakes without a full server.
package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cortexhq/cortex/internal/store"
	"github.com/gin-gonic/gin"
)

// HealthResponse is the health check payload
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Uptime    string    `json:"uptime"`
	Readings  int64     `json:"readings"`
}

// HandleHealth returns the health status of the hub. The database round-trip
// makes this an honest check: a hub with a wedged SD card reports degraded
// instead of a hollow 200.
func HandleHealth(s *store.Store, version string, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		response := HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now(),
			Version:   version,
			Uptime:    time.Since(startTime).String(),
		}

		count, err := s.ReadingCount(ctx)
		if err != nil {
			response.Status = "degraded"
			c.JSON(http.StatusServiceUnavailable, response)
			return
		}
		response.Readings = count

		c.JSON(http.StatusOK, response)
	}
}
