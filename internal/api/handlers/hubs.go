package handlers

import (
	"net/http"

	"github.com/cortexhq/cortex/internal/cluster"
	"github.com/gin-gonic/gin"
)

// HandleHubs lists the federation members. A solo hub (no federation
// configured) reports just itself absent, with an empty list.
func HandleHubs(federation *cluster.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		if federation == nil {
			c.JSON(http.StatusOK, gin.H{"hubs": []any{}, "count": 0, "federated": false})
			return
		}

		hubs := federation.Hubs()
		out := make([]*cluster.Hub, 0, len(hubs))
		for _, hub := range hubs {
			out = append(out, hub)
		}

		c.JSON(http.StatusOK, gin.H{"hubs": out, "count": len(out), "federated": true})
	}
}
