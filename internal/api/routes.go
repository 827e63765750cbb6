package api

import (
	"github.com/gin-gonic/gin"
)

// Configures all API routes
func (s *Server) setupRoutes(router *gin.Engine) {
	// API version prefix
	v1 := router.Group("/api/v1")

	// Health check endpoint
	v1.GET("/health", s.handleHealth)

	// Node endpoints
	nodes := v1.Group("/nodes")
	{
		nodes.GET("", s.handleNodes)
		nodes.GET("/:id", s.handleNodeByID)
	}

	// Telemetry endpoints
	v1.GET("/last", s.handleLast)
	v1.GET("/history", s.handleHistory)
	v1.POST("/readings", s.handlePostReading)

	// Room analytics endpoints
	v1.GET("/occupancy", s.handleOccupancy)
	v1.GET("/spatial", s.handleSpatial)
	v1.GET("/forecast", s.handleForecast)

	// Personality endpoints
	v1.GET("/personality", s.handleGetPersonality)
	v1.PUT("/personality", s.handlePutPersonality)

	// Calibration endpoints
	v1.GET("/calibration", s.handleGetCalibration)
	v1.PUT("/calibration", s.handleRunCalibration)

	// Federation endpoint
	v1.GET("/hubs", s.handleHubs)
}
