package http

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/growthml/leadscore/pkg/logger"
	"github.com/growthml/leadscore/pkg/metric"
)

const requestIdHeader = "X-Request-ID"

// RequestIdMiddleware ensures every request carries an id, either the
// caller's or a fresh one, and echoes it on the response.
func RequestIdMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestId := c.GetHeader(requestIdHeader)
		if requestId == "" {
			requestId = uuid.NewString()
		}
		c.Set("request_id", requestId)
		c.Header(requestIdHeader, requestId)
		c.Next()
	}
}

// BodyLimitMiddleware rejects oversized payloads before JSON decoding.
// Requests that lie about Content-Length still hit the MaxBytesReader cap
// during binding.
func BodyLimitMiddleware(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			requestId, _ := c.Get("request_id")
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
				"error":      fmt.Sprintf("request body exceeds the %d byte limit", maxBytes),
				"request_id": requestId,
			})
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

// TelemetryMiddleware records per-route latency and volume.
func TelemetryMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		tags := []string{"api:" + route, "status:" + strconv.Itoa(c.Writer.Status())}
		metric.Timing("leadscore.router.api.request.latency", time.Since(startTime), tags)
		metric.Count("leadscore.router.api.request.total", 1, tags)
	}
}

// AccessLogMiddleware logs one line per request. Errors and server faults
// log at error level, everything else at info.
func AccessLogMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		c.Next()

		status := c.Writer.Status()
		logVariables := []string{
			c.Request.Method,
			c.Request.URL.Path,
			strconv.Itoa(status),
			time.Since(startTime).String(),
			c.GetString("request_id"),
		}
		line := strings.Join(logVariables, " | ")
		if status >= http.StatusInternalServerError {
			logger.Error(line, nil)
		} else {
			logger.Info(line)
		}
	}
}

// SecurityHeadersMiddleware sets the standard response hardening headers.
func SecurityHeadersMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Cache-Control", "no-store")
		c.Next()
	}
}
