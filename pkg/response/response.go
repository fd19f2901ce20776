package response

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"openjournal.app/backend/internal/auth"
	"openjournal.app/backend/pkg/apperror"
)

// GetUserID retrieves the authenticated user ID from the context
func GetUserID(c *gin.Context) (uuid.UUID, error) {
	userIDStr, exists := c.Get("user_id")
	if !exists {
		return uuid.Nil, apperror.ErrUnauthenticated
	}

	userID, err := uuid.Parse(userIDStr.(string))
	if err != nil {
		return uuid.Nil, apperror.ErrUnauthenticated
	}

	return userID, nil
}

// GetAuthContext retrieves the resolved auth context set by the auth middleware.
func GetAuthContext(c *gin.Context) (*auth.Context, error) {
	val, exists := c.Get("auth_context")
	if !exists {
		return nil, apperror.ErrUnauthenticated
	}

	actor, ok := val.(*auth.Context)
	if !ok {
		return nil, apperror.ErrUnauthenticated
	}

	return actor, nil
}

// ResponseError standardized error response
func ResponseError(c *gin.Context, err error) {
	code := apperror.MapErrorToStatus(err)

	// Log internal errors
	if code == http.StatusInternalServerError {
		log.Printf("[Internal Error]: %v", err)
	}

	c.JSON(code, gin.H{"error": err.Error(), "code": apperror.Kind(err)})
}
