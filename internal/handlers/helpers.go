// internal/handlers/helpers.go
package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/models"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

// currentUser returns the user set by the auth middleware. It writes the error
// response itself when there is none.
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := utils.GetCurrentUser(c)
	if !ok {
		utils.ErrorFromErr(c, apperror.Unauthenticated(i18n.KeyAuthRequired))
		return nil, false
	}
	return user, true
}

func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		utils.ErrorFromErr(c, apperror.Validation(i18n.KeyValidationID).Wrap(err))
		return uuid.Nil, false
	}
	return id, true
}

func pageOf(params utils.PaginationParams) repository.Page {
	return repository.Page{Number: params.Page, Limit: params.Limit}
}
