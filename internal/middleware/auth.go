// internal/middleware/auth.go
package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/services"
	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

// AuthRequired resolves the bearer token to a stored user. Pending sellers are
// refused here so no route behind it can be reached while awaiting approval.
func AuthRequired(ac *services.AccessControl) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := ac.Authenticate(c.Request.Context(), c.GetHeader("Authorization"))
		if err != nil {
			utils.ErrorFromErr(c, err)
			c.Abort()
			return
		}

		utils.SetCurrentUser(c, user)
		c.Next()
	}
}

// RequireAction checks the caller's role against the policy for action. Ownership
// rules need the resource and are checked by the service.
func RequireAction(ac *services.AccessControl, action services.Action) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := utils.GetCurrentUser(c)
		if !ok {
			utils.ErrorFromErr(c, apperror.Unauthenticated(i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		if err := ac.Authorize(user, action); err != nil {
			utils.ErrorFromErr(c, err)
			c.Abort()
			return
		}
		c.Next()
	}
}
