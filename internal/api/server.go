package api

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/cortexhq/cortex/internal/api/handlers"
	"github.com/cortexhq/cortex/internal/logging"
	"github.com/gin-gonic/gin"
)

// Server is the CORTEX hub API server.
type Server struct {
	config     *Config
	httpServer *http.Server
}

var (
	startTime = time.Now()  // Track server start time for uptime calculation
	version   = "0.1.0-dev" // Version information
)

// NewServer creates a new API server instance.
func NewServer(config *Config) *Server {
	// Set Gin to release mode for production
	gin.SetMode(gin.ReleaseMode)

	return &Server{config: config}
}

// Start starts the API server.
func (s *Server) Start() error {
	logging.Info("Starting HTTP API server on %s:%d", s.config.BindAddr, s.config.BindPort)

	router := gin.New()

	// Configure Gin logging only if not already configured by CLI tools
	if !logging.IsConfiguredByCLI() {
		gin.DefaultWriter = logging.NewLevelWriter("INFO", "gin")
		gin.DefaultErrorWriter = logging.NewLevelWriter("ERROR", "gin")
	}

	router.Use(s.loggingMiddleware())
	router.Use(s.corsMiddleware())
	router.Use(gin.Recovery())

	s.setupRoutes(router)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.config.BindAddr, s.config.BindPort),
		Handler: router,
		// Timeouts for production
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Test binding first to catch errors immediately
	listener, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to bind to %s: %w", s.httpServer.Addr, err)
	}
	listener.Close()

	go func() {
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Error("HTTP server failed: %v", err)
		}
	}()

	logging.Success("HTTP API server started successfully")
	return nil
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	logging.Info("Shutting down HTTP API server...")

	if s.httpServer != nil {
		return s.httpServer.Shutdown(ctx)
	}
	return nil
}

// handleHealth delegates to handlers.HandleHealth
func (s *Server) handleHealth(c *gin.Context) {
	handlers.HandleHealth(s.config.Store, version, startTime)(c)
}

// handleNodes delegates to handlers.HandleNodes
func (s *Server) handleNodes(c *gin.Context) {
	handlers.HandleNodes(s.config.Links, s.config.Pipeline)(c)
}

// handleNodeByID delegates to handlers.HandleNodeByID
func (s *Server) handleNodeByID(c *gin.Context) {
	handlers.HandleNodeByID(s.config.Links, s.config.Pipeline)(c)
}

// handleLast delegates to handlers.HandleLast
func (s *Server) handleLast(c *gin.Context) {
	handlers.HandleLast(s.config.Pipeline)(c)
}

// handleHistory delegates to handlers.HandleHistory
func (s *Server) handleHistory(c *gin.Context) {
	handlers.HandleHistory(s.config.Store)(c)
}

// handlePostReading delegates to handlers.HandlePostReading
func (s *Server) handlePostReading(c *gin.Context) {
	handlers.HandlePostReading(s.config.Pipeline)(c)
}

// handleOccupancy delegates to handlers.HandleOccupancy
func (s *Server) handleOccupancy(c *gin.Context) {
	handlers.HandleOccupancy(s.config.Pipeline, s.config.Links)(c)
}

// handleSpatial delegates to handlers.HandleSpatial
func (s *Server) handleSpatial(c *gin.Context) {
	handlers.HandleSpatial(s.config.Pipeline)(c)
}

// handleForecast delegates to handlers.HandleForecast
func (s *Server) handleForecast(c *gin.Context) {
	handlers.HandleForecast(s.config.Store)(c)
}

// handleGetPersonality delegates to handlers.HandleGetPersonality
func (s *Server) handleGetPersonality(c *gin.Context) {
	handlers.HandleGetPersonality(s.config.Personality)(c)
}

// handlePutPersonality delegates to handlers.HandlePutPersonality
func (s *Server) handlePutPersonality(c *gin.Context) {
	handlers.HandlePutPersonality(s.config.Personality)(c)
}

// handleGetCalibration delegates to handlers.HandleGetCalibration
func (s *Server) handleGetCalibration(c *gin.Context) {
	handlers.HandleGetCalibration(s.config.Store)(c)
}

// handleRunCalibration delegates to handlers.HandleRunCalibration
func (s *Server) handleRunCalibration(c *gin.Context) {
	handlers.HandleRunCalibration(s.config.Pipeline)(c)
}

// handleHubs delegates to handlers.HandleHubs
func (s *Server) handleHubs(c *gin.Context) {
	handlers.HandleHubs(s.config.Federation)(c)
}
