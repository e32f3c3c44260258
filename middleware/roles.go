package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/koru-backend/apperr"
)

// RoleAuthenticated is the role the auth provider puts on signed-in users.
// Tokens minted from the public anon key carry "anon".
const RoleAuthenticated = "authenticated"

// RequireRoles allows only the listed roles. It runs after AuthMiddleware
// and answers 401 when no user was authenticated.
func RequireRoles(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := UserID(c); !ok {
			abortWithKind(c, http.StatusUnauthorized, apperr.Auth)
			return
		}

		role := c.GetString(CtxRole)
		for _, allowed := range allowedRoles {
			if role == allowed {
				c.Next()
				return
			}
		}
		abortWithKind(c, http.StatusForbidden, apperr.Auth)
	}
}
