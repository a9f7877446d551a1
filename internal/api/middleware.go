package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"reservation-service/internal/apperrors"
	"reservation-service/internal/auth"
	"reservation-service/internal/util"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	ctxUserIDKey = "user_id"
	ctxRoleKey   = "role"
	ctxNameKey   = "name"
)

// AuthMiddleware validates JWT bearer tokens and stores the caller's
// identity on the request context
func AuthMiddleware(jwtManager *auth.JWTManager, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, apperrors.NewUnauthorized("missing authorization header"))
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			c.JSON(http.StatusUnauthorized, apperrors.NewUnauthorized("invalid authorization header format"))
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				c.JSON(http.StatusUnauthorized, apperrors.NewUnauthorized("token expired"))
			} else {
				logger.Warn("Invalid token",
					zap.String("path", c.Request.URL.Path),
					zap.Error(err))
				c.JSON(http.StatusUnauthorized, apperrors.NewUnauthorized("invalid token"))
			}
			c.Abort()
			return
		}

		userID, err := claims.UserID()
		if err != nil {
			c.JSON(http.StatusUnauthorized, apperrors.NewUnauthorized("invalid token subject"))
			c.Abort()
			return
		}

		c.Set(ctxUserIDKey, userID)
		c.Set(ctxRoleKey, claims.Role)
		c.Set(ctxNameKey, claims.Name)

		c.Next()
	}
}

// callerID reads the authenticated user ID set by AuthMiddleware
func callerID(c *gin.Context) int64 {
	return c.GetInt64(ctxUserIDKey)
}

// callerRole reads the authenticated role set by AuthMiddleware
func callerRole(c *gin.Context) string {
	return c.GetString(ctxRoleKey)
}

// respondError maps service errors onto the HTTP contract
func respondError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus(), appErr)
		return
	}
	c.JSON(http.StatusInternalServerError, apperrors.NewInternal("unexpected error", err))
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}
