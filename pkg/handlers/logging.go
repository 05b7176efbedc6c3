package handlers

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

// Paths to skip logging
var skipLoggingPaths = []string{
	"/healthz",
	"/favicon.ico",
}

// RequestLogging logs HTTP requests with method, path, status, and duration.
func RequestLogging(c *gin.Context) {
	for _, prefix := range skipLoggingPaths {
		if strings.HasPrefix(c.Request.URL.Path, prefix) {
			c.Next()
			return
		}
	}

	start := time.Now()
	c.Next()

	slog.Info("http request",
		"method", c.Request.Method,
		"path", c.Request.URL.Path,
		"status", c.Writer.Status(),
		"duration_ms", time.Since(start).Milliseconds(),
		"remote_addr", c.ClientIP(),
	)
}
