package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"openjournal.app/backend/internal/auth"
	"openjournal.app/backend/internal/entity"
	userRepo "openjournal.app/backend/internal/modules/user/repository"
	"openjournal.app/backend/pkg/ratelimiter"
)

const (
	gatewayRateLimit  = 100
	gatewayRateWindow = time.Minute
)

// APIKeyMiddleware authenticates the machine-facing gateway with a static
// bearer token and applies a shared-store rate limit per key. Requests act
// as the configured service account, resolved to a normal auth context.
type APIKeyMiddleware struct {
	userRepo     userRepo.UserRepository
	redisClient  *redis.Client
	apiToken     string
	serviceEmail string
}

func NewAPIKeyMiddleware(userRepo userRepo.UserRepository, redisClient *redis.Client) *APIKeyMiddleware {
	return &APIKeyMiddleware{
		userRepo:     userRepo,
		redisClient:  redisClient,
		apiToken:     os.Getenv("GATEWAY_API_TOKEN"),
		serviceEmail: os.Getenv("SUPER_ADMIN_EMAIL"),
	}
}

func (m *APIKeyMiddleware) RequireAPIKey() gin.HandlerFunc {
	return func(c *gin.Context) {
		if m.apiToken == "" {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gateway is not configured"})
			c.Abort()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			c.Abort()
			return
		}

		token := strings.TrimPrefix(authHeader, "Bearer ")
		if subtle.ConstantTimeCompare([]byte(token), []byte(m.apiToken)) != 1 {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid bearer token"})
			c.Abort()
			return
		}

		result, err := ratelimiter.Allow(c.Request.Context(), m.redisClient, "gateway:"+m.serviceEmail, gatewayRateLimit, gatewayRateWindow)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "rate limit check failed"})
			c.Abort()
			return
		}

		c.Header("X-RateLimit-Remaining", fmt.Sprintf("%d", result.Remaining))
		c.Header("X-RateLimit-Reset", fmt.Sprintf("%d", result.Reset))

		if !result.Allowed {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			c.Abort()
			return
		}

		user, err := m.userRepo.FindByEmail(c.Request.Context(), m.serviceEmail)
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "gateway service account is not provisioned"})
			c.Abort()
			return
		}

		actor := &auth.Context{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Roles:  []entity.Role{entity.RoleAuthor},
		}
		if user.Profile != nil {
			actor.Roles = user.Profile.RoleSet()
		}

		c.Set("user_id", user.ID.String())
		c.Set("auth_context", actor)
		c.Next()
	}
}
