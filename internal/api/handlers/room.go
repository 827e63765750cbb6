package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/cortexhq/cortex/internal/analytics"
	"github.com/cortexhq/cortex/internal/ingest"
	"github.com/cortexhq/cortex/internal/link"
	"github.com/cortexhq/cortex/internal/packet"
	"github.com/cortexhq/cortex/internal/store"
	"github.com/gin-gonic/gin"
)

// HandleOccupancy returns the room occupancy estimate from the latest
// readings and the connected device count.
func HandleOccupancy(pipeline *ingest.Pipeline, links *link.Listener) gin.HandlerFunc {
	return func(c *gin.Context) {
		deviceCount := 0
		if links != nil {
			deviceCount = len(links.Sessions())
		}

		occ := analytics.EstimateOccupancy(pipeline.Latest(), deviceCount)
		c.JSON(http.StatusOK, occ)
	}
}

// SpatialResponse is the fused room view.
type SpatialResponse struct {
	Fused    map[string]analytics.RoomEstimate `json:"fused"`
	Gradient *analytics.Gradient               `json:"gradient,omitempty"`
	Nodes    int                               `json:"nodes"`
}

// HandleSpatial returns the median-fused room estimate per metric and the
// strongest temperature gradient, if any.
func HandleSpatial(pipeline *ingest.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		latest := pipeline.Latest()

		c.JSON(http.StatusOK, SpatialResponse{
			Fused:    analytics.FuseReadings(latest),
			Gradient: analytics.TemperatureGradient(latest),
			Nodes:    len(latest),
		})
	}
}

// HandleForecast extrapolates one node's metric.
// Query parameters: node (required), metric (required), horizon (minutes,
// default 30), window (minutes of history, default 120), threshold
// (optional level for time-to-threshold).
func HandleForecast(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		nodeID, ok := parseNodeID(c, c.DefaultQuery("node", ""))
		if !ok {
			return
		}

		metric := c.Query("metric")
		if !validMetricName(metric) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error":   "metric must be one of the sensor metrics",
				"metrics": packet.MetricNames,
			})
			return
		}

		horizon, ok := parsePositiveFloat(c, "horizon", 30)
		if !ok {
			return
		}
		window, ok := parsePositiveFloat(c, "window", 120)
		if !ok {
			return
		}

		threshold := math.NaN()
		if raw := c.Query("threshold"); raw != "" {
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "threshold must be a number"})
				return
			}
			threshold = v
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		since := time.Now().UTC().Add(-time.Duration(window) * time.Minute).Format(time.RFC3339Nano)
		points, err := s.MetricSeries(ctx, nodeID, metric, since)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load metric history"})
			return
		}

		forecast, err := analytics.ForecastLinear(points, horizon, threshold)
		if errors.Is(err, analytics.ErrInsufficientHistory) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "not enough data to forecast",
				"samples": len(points),
				"needed":  analytics.MinForecastSamples,
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"node_id":         nodeID,
			"metric":          metric,
			"horizon_minutes": horizon,
			"samples":         len(points),
			"forecast":        forecast,
		})
	}
}

func validMetricName(metric string) bool {
	for _, m := range packet.MetricNames {
		if m == metric {
			return true
		}
	}
	return false
}

func parsePositiveFloat(c *gin.Context, name string, def float64) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		return def, true
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": name + " must be a positive number"})
		return 0, false
	}
	return v, true
}
