package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/cortexhq/cortex/internal/ingest"
	"github.com/cortexhq/cortex/internal/store"
	"github.com/gin-gonic/gin"
)

// HandleGetCalibration returns all stored per-node offsets.
func HandleGetCalibration(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		cals, err := s.Calibrations(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load calibrations"})
			return
		}

		out := make([]*store.Calibration, 0, len(cals))
		for _, cal := range cals {
			out = append(out, cal)
		}
		c.JSON(http.StatusOK, gin.H{"calibrations": out, "count": len(out)})
	}
}

// HandleRunCalibration recomputes offsets from the stored readings and makes
// them live. Expects the nodes to have just finished a co-location burn-in;
// running it against readings from scattered nodes bakes room gradients into
// the offsets.
func HandleRunCalibration(pipeline *ingest.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
		defer cancel()

		updated, err := pipeline.Recalibrate(ctx)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "calibration failed"})
			return
		}

		out := make([]*store.Calibration, 0, len(updated))
		for _, cal := range updated {
			out = append(out, cal)
		}
		c.JSON(http.StatusOK, gin.H{"calibrations": out, "count": len(out)})
	}
}
