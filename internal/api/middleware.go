package api

import (
	"net/http"

	"github.com/cortexhq/cortex/internal/logging"
	"github.com/gin-gonic/gin"
)

// loggingMiddleware routes gin's access log through the unified logger.
// Failed requests surface at WARN with gin's error detail attached.
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		if param.ErrorMessage != "" {
			logging.Warn("%s %s -> %d in %v from %s: %s",
				param.Method, param.Path, param.StatusCode, param.Latency,
				param.ClientIP, param.ErrorMessage)
			return ""
		}
		logging.Info("%s %s -> %d in %v from %s (%s)",
			param.Method, param.Path, param.StatusCode, param.Latency,
			param.ClientIP, param.Request.UserAgent())
		return ""
	})
}

// corsMiddleware lets a browser-based dashboard on another origin read the
// hub. Only the methods the routes actually serve are advertised.
func (s *Server) corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Accept, Content-Type")
		c.Header("Access-Control-Max-Age", "600")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
