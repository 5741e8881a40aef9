package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/bottlemart/backend/internal/app/service/user"
	"github.com/bottlemart/backend/pkg/response"
	"github.com/bottlemart/backend/pkg/types"
)

const principalKey = "principal"

// AuthMiddleware validates the Bearer token and attaches the authenticated
// principal to the gin context. Requests without a valid token get 401.
func AuthMiddleware(userSvc *user.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.ErrorT[any](response.APIResponseCodeUnauthorized, "missing bearer token"))
			return
		}

		principal, err := userSvc.ParseToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized,
				response.ErrorT[any](response.APIResponseCodeUnauthorized, "invalid token"))
			return
		}

		c.Set(principalKey, *principal)
		c.Next()
	}
}

// AdminOnlyMiddleware rejects non-admin principals. Must run after
// AuthMiddleware.
func AdminOnlyMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := GetPrincipal(c)
		if !ok || !p.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden,
				response.ErrorT[any](response.APIResponseCodeForbidden, "admin only"))
			return
		}
		c.Next()
	}
}

// GetPrincipal returns the authenticated principal set by AuthMiddleware.
func GetPrincipal(c *gin.Context) (types.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return types.Principal{}, false
	}
	p, ok := v.(types.Principal)
	return p, ok
}
