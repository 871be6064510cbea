package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/pos-api/pkg/logger"
	"github.com/sangkips/pos-api/pkg/utils"
)

// Context keys shared with the handlers.
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextBranchID  = "branch_id"
	ContextRequestID = "request_id"
)

// AuthMiddleware creates a JWT authentication middleware. Log entries written
// for the rest of the request carry the cashier's user_id.
func AuthMiddleware(jwtManager *utils.JWTManager, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, "Authorization header is required")
			c.Abort()
			return
		}

		// Extract token from "Bearer <token>"
		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateAccessToken(parts[1])
		if err != nil {
			response.Unauthorized(c, "Invalid or expired token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		if claims.BranchID != nil {
			c.Set(ContextBranchID, *claims.BranchID)
		}
		if log != nil {
			c.Request = c.Request.WithContext(log.WithUserID(c.Request.Context(), claims.UserID.String()))
		}

		c.Next()
	}
}
