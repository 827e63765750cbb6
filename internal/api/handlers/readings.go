package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/cortexhq/cortex/internal/ingest"
	"github.com/cortexhq/cortex/internal/packet"
	"github.com/cortexhq/cortex/internal/store"
	"github.com/gin-gonic/gin"
)

// HandleLast returns the latest reading per node from the live cache.
func HandleLast(pipeline *ingest.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		latest := pipeline.Latest()
		c.JSON(http.StatusOK, gin.H{"readings": latest, "count": len(latest)})
	}
}

// HandleHistory returns stored readings, newest first.
// Query parameters: node (0-254), since (RFC 3339), limit (1-1000).
func HandleHistory(s *store.Store) gin.HandlerFunc {
	return func(c *gin.Context) {
		q := store.HistoryQuery{}

		if raw := c.Query("node"); raw != "" {
			nodeID, ok := parseNodeID(c, raw)
			if !ok {
				return
			}
			q.NodeID = &nodeID
		}

		if since := c.Query("since"); since != "" {
			if _, err := time.Parse(time.RFC3339, since); err != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "since must be an RFC 3339 timestamp"})
				return
			}
			q.Since = since
		}

		if raw := c.Query("limit"); raw != "" {
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 1 || limit > 1000 {
				c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 1000"})
				return
			}
			q.Limit = limit
		}

		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		readings, err := s.History(ctx, q)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to query history"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"readings": readings, "count": len(readings)})
	}
}

// postedReading is the request body for reading injection. Mirrors the wire
// fields; the hub supplies the receive timestamp.
type postedReading struct {
	MAC    string `json:"mac" binding:"required"`
	NodeID *uint8 `json:"node_id" binding:"required"`
	Seq    uint16 `json:"seq"`
	TMS    uint32 `json:"t_ms"`

	TempC       *float64 `json:"temp_c"`
	RHPct       *float64 `json:"rh_pct"`
	PressureHPa *float64 `json:"pressure_hpa"`
	Lux         *float64 `json:"lux"`
	AccelG      *float64 `json:"accel_g"`
	SoundDBFS   *float64 `json:"sound_dbfs"`
	BatteryV    *float64 `json:"battery_v"`

	LowBattery bool `json:"low_battery"`
}

// HandlePostReading injects a reading through the full pipeline: calibration,
// cache, persistence, and the IPC stream. Replay and integration tests use
// this to feed the hub without a node link.
func HandlePostReading(pipeline *ingest.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body postedReading
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if *body.NodeID > 254 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "node ID must be between 0 and 254"})
			return
		}

		r := &packet.Reading{
			TsUTC:       time.Now().UTC().Format(time.RFC3339Nano),
			MAC:         body.MAC,
			NodeID:      *body.NodeID,
			Seq:         body.Seq,
			TMS:         body.TMS,
			TempC:       body.TempC,
			RHPct:       body.RHPct,
			PressureHPa: body.PressureHPa,
			Lux:         body.Lux,
			AccelG:      body.AccelG,
			SoundDBFS:   body.SoundDBFS,
			BatteryV:    body.BatteryV,
			LowBattery:  body.LowBattery,
		}

		pipeline.Ingest(r)
		c.JSON(http.StatusAccepted, gin.H{"status": "accepted", "node_id": r.NodeID, "seq": r.Seq})
	}
}
