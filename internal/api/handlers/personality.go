package handlers

import (
	"net/http"

	"github.com/cortexhq/cortex/internal/personality"
	"github.com/gin-gonic/gin"
)

// PersonalityResponse is the hub state payload
type PersonalityResponse struct {
	State      string                 `json:"state"`
	Properties personality.Properties `json:"properties"`
}

// HandleGetPersonality returns the hub's current state and its properties.
func HandleGetPersonality(m *personality.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, PersonalityResponse{
			State:      m.State(),
			Properties: m.CurrentProperties(),
		})
	}
}

// HandlePutPersonality transitions the hub to a new state.
func HandlePutPersonality(m *personality.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			State string `json:"state" binding:"required"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := m.SetState(c.Request.Context(), body.State); err != nil {
			if !personality.IsValidState(body.State) {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":  err.Error(),
					"states": personality.ValidStates(),
				})
				return
			}
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to persist state"})
			return
		}

		c.JSON(http.StatusOK, PersonalityResponse{
			State:      m.State(),
			Properties: m.CurrentProperties(),
		})
	}
}
