// internal/services/license_service.go
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/config"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/models"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
)

// LicenseService drives the seller approval workflow. Every state change goes
// through models.NextLicenseStatus.
type LicenseService struct {
	store         repository.Store
	notifier      Notifier
	notifyTimeout time.Duration
}

type LicenseApplication struct {
	License LicenseInput `json:"license"`
}

func NewLicenseService(store repository.Store, notifier Notifier, cfg *config.Config) *LicenseService {
	return &LicenseService{
		store:         store,
		notifier:      notifier,
		notifyTimeout: time.Duration(cfg.Server.NotificationTimeout) * time.Second,
	}
}

func (s *LicenseService) ListPending(ctx context.Context) ([]models.User, error) {
	users, err := s.store.Users().ListByLicenseStatus(ctx, models.LicenseStatusPendingApproval)
	if err != nil {
		return nil, apperror.Internal("failed to list pending licenses", err)
	}
	return users, nil
}

// Approve grants the license. Approving an approved seller succeeds without change.
func (s *LicenseService) Approve(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, changed, err := s.decide(ctx, userID, models.LicenseEventApprove, func(u *models.User) {})
	if err != nil {
		return nil, err
	}

	if changed {
		s.notifyDecision(ctx, user, true)
	}
	return user, nil
}

// Reject demotes the seller to buyer and discards the license.
func (s *LicenseService) Reject(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, _, err := s.decide(ctx, userID, models.LicenseEventReject, func(u *models.User) {
		u.Role = models.RoleBuyer
		u.ClearLicense()
	})
	if err != nil {
		return nil, err
	}

	s.notifyDecision(ctx, user, false)
	return user, nil
}

// Apply turns a buyer into a seller awaiting approval.
func (s *LicenseService) Apply(ctx context.Context, userID uuid.UUID, req *LicenseApplication) (*models.User, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	var user *models.User
	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.NotFound(i18n.KeyUserNotFound)
			}
			return apperror.Internal("failed to load user", err)
		}

		next, err := models.NextLicenseStatus(u.LicenseStatus, models.LicenseEventApply)
		if err != nil || u.Role != models.RoleBuyer {
			return invalidTransition(err)
		}

		u.Role = models.RoleSeller
		u.License = req.License.toModel()
		u.SetLicenseStatus(next)

		if err := tx.Users().Update(ctx, u); err != nil {
			return apperror.Internal("failed to update user", err)
		}
		user = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	logrus.WithField("user_id", user.ID).Info("License application submitted")

	_ = notify(ctx, s.notifyTimeout, "license_application", func(ctx context.Context) error {
		return s.notifier.NotifyLicenseApplication(ctx, user)
	})
	return user, nil
}

// decide applies event to a seller's license and reports whether the status changed.
func (s *LicenseService) decide(ctx context.Context, userID uuid.UUID, event models.LicenseEvent, mutate func(*models.User)) (*models.User, bool, error) {
	var (
		user    *models.User
		changed bool
	)

	err := s.store.WithTx(ctx, func(tx repository.Store) error {
		u, err := tx.Users().GetByIDForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return apperror.NotFound(i18n.KeyLicenseSellerNotFound)
			}
			return apperror.Internal("failed to load user", err)
		}
		if u.Role != models.RoleSeller {
			return apperror.NotFound(i18n.KeyLicenseSellerNotFound)
		}

		next, err := models.NextLicenseStatus(u.LicenseStatus, event)
		if err != nil {
			return invalidTransition(err)
		}

		user = u
		if next == u.LicenseStatus {
			return nil
		}

		mutate(u)
		u.SetLicenseStatus(next)
		if err := tx.Users().Update(ctx, u); err != nil {
			return apperror.Internal("failed to update user", err)
		}
		changed = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"event":   event,
		"status":  user.LicenseStatus,
		"changed": changed,
	}).Info("License decision applied")

	return user, changed, nil
}

func (s *LicenseService) notifyDecision(ctx context.Context, user *models.User, approved bool) {
	_ = notify(ctx, s.notifyTimeout, "license_decision", func(ctx context.Context) error {
		return s.notifier.NotifyLicenseDecision(ctx, user, approved)
	})
}

func invalidTransition(err error) error {
	appErr := apperror.Conflict(i18n.KeyLicenseInvalidState).WithCode(apperror.CodeInvalidTransition)
	if err != nil {
		appErr = appErr.Wrap(err)
	}
	return appErr
}
