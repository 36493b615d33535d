package server

import (
	"io"
	"log/slog"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// requestLogger logs one line per request and records request metrics.
func requestLogger(log *slog.Logger, m *metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		dur := time.Since(start)
		m.requests.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, route).Observe(dur.Seconds())

		level := slog.LevelInfo
		if status >= 500 {
			level = slog.LevelError
		} else if status >= 400 {
			level = slog.LevelWarn
		}
		log.Log(c.Request.Context(), level, "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", route,
			"status", status,
			"dur", dur,
		)
	}
}

// recoverer turns handler panics into a 500 with the usual error body.
func recoverer(log *slog.Logger) gin.HandlerFunc {
	return gin.CustomRecoveryWithWriter(io.Discard, func(c *gin.Context, rec any) {
		log.Error("handler panic", "path", c.Request.URL.Path, "panic", rec)
		c.AbortWithStatusJSON(500, gin.H{"detail": "Internal server error"})
	})
}
