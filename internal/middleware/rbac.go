package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/lgdark7/timetable/internal/models"
	appErrors "github.com/lgdark7/timetable/pkg/errors"
	"github.com/lgdark7/timetable/pkg/response"
)

// RequireRoles admits only tokens carrying one of roles. It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		allowed[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claims := Claims(c)
		if claims == nil {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "requires role "+roleList(roles)))
			c.Abort()
			return
		}
		c.Next()
	}
}

func roleList(roles []models.UserRole) string {
	out := ""
	for i, role := range roles {
		if i > 0 {
			out += " or "
		}
		out += string(role)
	}
	return out
}
