package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/domain"
	"github.com/marketfresh/checkoutapi/internal/repository/postgres"
)

const clientContextKey = "api_client"

// AuthMiddleware validates the bearer API key against the stored bcrypt
// hashes and attaches the matching client to the request context.
func AuthMiddleware(repos *postgres.Repositories, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		apiKey := strings.TrimPrefix(header, "Bearer ")

		client, err := repos.APIClient.GetByAPIKey(c.Request.Context(), apiKey)
		if err != nil {
			logger.Warn("rejected API key", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(clientContextKey, client)
		c.Next()
	}
}

// GetClientFromContext returns the authenticated API client, if any.
func GetClientFromContext(c *gin.Context) (*domain.APIClient, bool) {
	val, ok := c.Get(clientContextKey)
	if !ok {
		return nil, false
	}
	client, ok := val.(*domain.APIClient)
	return client, ok
}
