// internal/middleware/logging.go
package middleware

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/lease-backend/internal/services"
	"github.com/javajoker/lease-backend/internal/utils"
)

// RequestLogger tags each request with an id and logs it once it completes.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}
		c.Set("request_id", requestID)
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		entry := logrus.WithFields(logrus.Fields{
			"request_id": requestID,
			"method":     c.Request.Method,
			"path":       c.Request.URL.Path,
			"status":     status,
			"duration":   time.Since(start).Milliseconds(),
			"ip":         c.ClientIP(),
			"user":       utils.GetUsernameFromContext(c),
		})
		switch {
		case status >= http.StatusInternalServerError:
			entry.Error("Request failed")
		case status >= http.StatusBadRequest:
			entry.Warn("Request rejected")
		default:
			entry.Info("Request processed")
		}
	}
}

// AuditTrail persists one audit row per mutating request, off the request path.
func AuditTrail(audit *services.AuditService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.Method == http.MethodGet || c.Request.Method == http.MethodOptions || c.Request.Method == http.MethodHead {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		entity, id := extractEntity(c.Request.URL.Path)
		entry := services.RequestEntry{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			Status:     c.Writer.Status(),
			Duration:   time.Since(start),
			IPAddress:  c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			EntityName: entity,
			EntityID:   id,
		}
		ctx := context.WithoutCancel(c.Request.Context())
		go audit.LogRequest(ctx, entry)
	}
}

// extractEntity reads "/api/<entity>/<id>/..." into ("entity", id). The id is nil when absent or not numeric.
func extractEntity(path string) (string, *uint) {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) > 0 && parts[0] == "api" {
		parts = parts[1:]
	}
	if len(parts) == 0 || parts[0] == "" {
		return "unknown", nil
	}
	entity := parts[0]
	if len(parts) > 1 {
		if n, err := strconv.ParseUint(parts[1], 10, 64); err == nil {
			id := uint(n)
			return entity, &id
		}
	}
	return entity, nil
}
