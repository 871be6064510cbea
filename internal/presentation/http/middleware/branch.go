package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/presentation/http/dto/response"
	"github.com/sangkips/pos-api/pkg/apperror"
)

// BranchHeader names the branch a till is selling from.
const BranchHeader = "X-Branch-ID"

// BranchMiddleware reads the selling branch from the X-Branch-ID header. It
// takes precedence over the branch carried in the access token.
func BranchMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := strings.TrimSpace(c.GetHeader(BranchHeader))
		if raw == "" {
			c.Next()
			return
		}

		branchID, err := uuid.Parse(raw)
		if err != nil || branchID == uuid.Nil {
			response.Error(c, apperror.NewFieldError("branch_id", "X-Branch-ID must be a valid UUID"))
			c.Abort()
			return
		}

		c.Set(ContextBranchID, branchID)
		c.Next()
	}
}
