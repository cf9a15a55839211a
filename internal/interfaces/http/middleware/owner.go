package middleware

import (
	"net/http"

	"github.com/fintrack/backend/internal/infrastructure/logger"
	"github.com/fintrack/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Context keys for owner scoping
const (
	OwnerIDKey     = "owner_id"
	OwnerHeaderKey = "X-Owner-ID"
)

// OwnerMiddlewareConfig holds configuration for owner middleware
type OwnerMiddlewareConfig struct {
	// SkipPaths are paths that don't require owner context (e.g., health check)
	SkipPaths []string
	// Required determines if owner context is mandatory
	Required bool
	// Logger for middleware logging
	Logger *zap.Logger
}

// DefaultOwnerConfig returns default owner middleware configuration
func DefaultOwnerConfig() OwnerMiddlewareConfig {
	return OwnerMiddlewareConfig{
		SkipPaths: []string{"/health", "/healthz", "/ready", "/api/v1/health"},
		Required:  true,
		Logger:    nil,
	}
}

// OwnerMiddleware extracts the owning user from the X-Owner-ID header.
// Authentication is handled upstream by the API gateway; this service trusts
// the forwarded owner identity.
func OwnerMiddleware() gin.HandlerFunc {
	return OwnerMiddlewareWithConfig(DefaultOwnerConfig())
}

// OwnerMiddlewareWithConfig returns owner middleware with custom configuration
func OwnerMiddlewareWithConfig(cfg OwnerMiddlewareConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		for _, skip := range cfg.SkipPaths {
			if path == skip {
				c.Next()
				return
			}
		}

		ownerIDStr := c.GetHeader(OwnerHeaderKey)
		if ownerIDStr == "" {
			if cfg.Required {
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
					dto.ErrCodeUnauthorized,
					"Owner identity is required",
				))
				return
			}
			c.Next()
			return
		}

		ownerID, err := uuid.Parse(ownerIDStr)
		if err != nil {
			if cfg.Logger != nil {
				cfg.Logger.Warn("Rejected request with malformed owner ID",
					zap.String("path", path),
				)
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(
				dto.ErrCodeUnauthorized,
				"Owner identity is malformed",
			))
			return
		}

		c.Set(OwnerIDKey, ownerID.String())

		// Propagate the owner into the request context for log enrichment
		ctx := logger.ContextWithOwnerID(c.Request.Context(), ownerID.String())
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// GetOwnerID returns the owner ID stored by OwnerMiddleware, or empty string
func GetOwnerID(c *gin.Context) string {
	return c.GetString(OwnerIDKey)
}
