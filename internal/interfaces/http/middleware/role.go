package middleware

import (
	"net/http"

	"github.com/coursebill/backend/internal/infrastructure/auth"
	"github.com/coursebill/backend/internal/interfaces/http/dto"
	"github.com/gin-gonic/gin"
)

// RequireRole rejects requests whose token does not carry one of the
// allowed roles. Must run after JWTAuthMiddleware.
func RequireRole(roles ...auth.Role) gin.HandlerFunc {
	allowed := make(map[auth.Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			abortUnauthorized(c, "Authentication required")
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			requestID := c.GetString(RequestIDKey)
			c.AbortWithStatusJSON(http.StatusForbidden,
				dto.NewErrorResponseWithRequestID(dto.ErrCodeForbidden,
					"Role "+string(claims.Role)+" is not allowed to perform this action", requestID))
			return
		}
		c.Next()
	}
}
