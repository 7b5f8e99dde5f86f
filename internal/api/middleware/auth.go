package middleware

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/princeprakhar/foodiespace-backend/internal/identity"
	"github.com/princeprakhar/foodiespace-backend/internal/repositories"
	"github.com/princeprakhar/foodiespace-backend/internal/utils"
	"github.com/princeprakhar/foodiespace-backend/pkg/logger"
)

const (
	ContextUserEmail = "user_email"
	ContextUserUID   = "user_uid"
	ContextUserRole  = "user_role"
)

// AuthMiddleware resolves the bearer token to a verified email.
func AuthMiddleware(provider identity.Provider) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.SendUnauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader || strings.TrimSpace(tokenString) == "" {
			utils.SendUnauthorized(c, "Bearer token required")
			c.Abort()
			return
		}

		id, err := provider.VerifyToken(c.Request.Context(), tokenString)
		if err != nil {
			logger.Debug("token verification failed: ", err)
			utils.SendUnauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		c.Set(ContextUserEmail, strings.ToLower(id.Email))
		c.Set(ContextUserUID, id.UID)
		c.Next()
	}
}

// AdminOnly requires the authenticated caller to have an admin user record. It must run after
// AuthMiddleware.
func AdminOnly(users repositories.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString(ContextUserEmail)
		user, err := users.FindByEmail(c.Request.Context(), email)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				utils.SendForbidden(c, "Admin access required")
			} else {
				utils.SendInternalError(c, "Failed to verify admin access", nil)
			}
			c.Abort()
			return
		}
		if !user.IsAdmin() {
			utils.SendForbidden(c, "Admin access required")
			c.Abort()
			return
		}

		c.Set(ContextUserRole, user.Role)
		c.Next()
	}
}
