// internal/services/user_service.go
package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/models"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
)

type UserService struct {
	store repository.Store
}

type ChangeRoleRequest struct {
	Role string `json:"role" validate:"required,user_role"`
}

func NewUserService(store repository.Store) *UserService {
	return &UserService{store: store}
}

func (s *UserService) List(ctx context.Context, page repository.Page) ([]models.User, int64, error) {
	users, total, err := s.store.Users().List(ctx, page)
	if err != nil {
		return nil, 0, apperror.Internal("failed to list users", err)
	}
	return users, total, nil
}

// ChangeRole sets the role and reconciles the license state with it. Promoting to
// seller counts as approval by the admin; any other role has no license.
func (s *UserService) ChangeRole(ctx context.Context, id uuid.UUID, req *ChangeRoleRequest) (*models.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	role, err := models.ToRole(req.Role)
	if err != nil {
		return nil, apperror.Validation(i18n.KeyValidationFailed).Wrap(err)
	}

	var user *models.User
	err = s.store.WithTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByIDForUpdate(ctx, id)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.NotFound(i18n.KeyUserNotFound)
			}
			return apperror.Internal("failed to load user", err)
		}

		u.Role = role
		if role == models.RoleSeller {
			u.SetLicenseStatus(models.LicenseStatusApproved)
		} else {
			u.ClearLicense()
			u.SetLicenseStatus(models.LicenseStatusNotApplicable)
		}

		if err := tx.Users().Update(ctx, u); err != nil {
			return apperror.Internal("failed to update user", err)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User role changed")

	return user, nil
}
