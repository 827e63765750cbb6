package handlers

import (
	"net/http"
	"strconv"

	"github.com/cortexhq/cortex/internal/ingest"
	"github.com/cortexhq/cortex/internal/link"
	"github.com/cortexhq/cortex/internal/packet"
	"github.com/gin-gonic/gin"
)

// NodeView merges a node's link session with its latest reading.
type NodeView struct {
	link.SessionStats
	Connected bool            `json:"connected"`
	Last      *packet.Reading `json:"last,omitempty"`
}

// HandleNodes lists every known node: currently linked ones with their
// session counters, plus nodes remembered only through the reading cache.
func HandleNodes(links *link.Listener, pipeline *ingest.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		views := make(map[uint8]*NodeView)

		if links != nil {
			for _, sess := range links.Sessions() {
				views[sess.NodeID] = &NodeView{SessionStats: sess, Connected: true}
			}
		}

		for _, r := range pipeline.Latest() {
			view, ok := views[r.NodeID]
			if !ok {
				view = &NodeView{Connected: false}
				view.NodeID = r.NodeID
				view.MAC = r.MAC
				views[r.NodeID] = view
			}
			view.Last = r
		}

		out := make([]*NodeView, 0, len(views))
		for _, v := range views {
			out = append(out, v)
		}

		c.JSON(http.StatusOK, gin.H{"nodes": out, "count": len(out)})
	}
}

// HandleNodeByID returns one node's session and latest reading.
func HandleNodeByID(links *link.Listener, pipeline *ingest.Pipeline) gin.HandlerFunc {
	return func(c *gin.Context) {
		nodeID, ok := parseNodeID(c, c.Param("id"))
		if !ok {
			return
		}

		view := &NodeView{}
		found := false

		if links != nil {
			for _, sess := range links.Sessions() {
				if sess.NodeID == nodeID {
					view.SessionStats = sess
					view.Connected = true
					found = true
					break
				}
			}
		}

		if r, ok := pipeline.LatestForNode(nodeID); ok {
			view.Last = r
			view.NodeID = nodeID
			if view.MAC == "" {
				view.MAC = r.MAC
			}
			found = true
		}

		if !found {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown node", "node_id": nodeID})
			return
		}

		c.JSON(http.StatusOK, view)
	}
}

// parseNodeID validates a node ID path or query value. Writes the error
// response itself so callers can just bail.
func parseNodeID(c *gin.Context, raw string) (uint8, bool) {
	id, err := strconv.ParseUint(raw, 10, 8)
	if err != nil || id > 254 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "node ID must be an integer between 0 and 254",
		})
		return 0, false
	}
	return uint8(id), true
}
