// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/config"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/models"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

type AuthService struct {
	store         repository.Store
	tokens        *utils.TokenManager
	notifier      Notifier
	notifyTimeout time.Duration
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type LicenseInput struct {
	Type   string     `json:"type" validate:"required,max=100"`
	Number string     `json:"number" validate:"required,max=100"`
	Expiry *time.Time `json:"expiry,omitempty"`
}

func (r *LoginRequest) normalize() {
	r.Email = normalizeEmail(r.Email)
}

func (l *LicenseInput) toModel() models.License {
	return models.License{
		Type:   strings.TrimSpace(l.Type),
		Number: strings.TrimSpace(l.Number),
		Expiry: l.Expiry,
	}
}

type RegisterRequest struct {
	Name       string        `json:"name" validate:"required,min=2,max=100"`
	Email      string        `json:"email" validate:"required,email,max=255"`
	Password   string        `json:"password" validate:"required,min=6,max=72"`
	HasLicense bool          `json:"has_license"`
	License    *LicenseInput `json:"license,omitempty" validate:"required_if=HasLicense true"`
}

func (r *RegisterRequest) normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = normalizeEmail(r.Email)
}

// AuthResponse carries no token while the account awaits license approval.
type AuthResponse struct {
	User            *models.User `json:"user"`
	Token           string       `json:"token,omitempty"`
	TokenType       string       `json:"token_type,omitempty"`
	ExpiresIn       int          `json:"expires_in,omitempty"` // in seconds
	PendingApproval bool         `json:"pending_approval"`
}

func NewAuthService(store repository.Store, tokens *utils.TokenManager, notifier Notifier, cfg *config.Config) *AuthService {
	return &AuthService{
		store:         store,
		tokens:        tokens,
		notifier:      notifier,
		notifyTimeout: time.Duration(cfg.Server.NotificationTimeout) * time.Second,
	}
}

func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	req.normalize()
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	email := req.Email

	// Check if user already exists
	if _, err := s.store.Users().GetByEmail(ctx, email); err == nil {
		return nil, emailTaken()
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperror.Internal("failed to look up user", err)
	}

	user := &models.User{
		Name:  req.Name,
		Email: email,
		Role:  models.RoleBuyer,
	}
	if req.HasLicense {
		user.Role = models.RoleSeller
		user.License = req.License.toModel()
	}
	user.SetLicenseStatus(models.InitialLicenseStatus(req.HasLicense))

	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperror.Internal("failed to hash password", err)
	}

	if err := s.store.Users().Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, emailTaken()
		}
		return nil, apperror.Internal("failed to create user", err)
	}

	logrus.WithFields(logrus.Fields{
		"user_id": user.ID,
		"role":    user.Role,
	}).Info("User registered")

	_ = notify(ctx, s.notifyTimeout, "registration", func(ctx context.Context) error {
		return s.notifier.NotifyRegistration(ctx, user)
	})

	if user.AwaitingApproval() {
		return &AuthResponse{User: user, PendingApproval: true}, nil
	}
	return s.issue(user)
}

// Login checks credentials before the license state so a pending account is only
// revealed to someone who knows its password.
func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	req.normalize()
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	user, err := s.store.Users().GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthenticated(i18n.KeyAuthInvalidCredentials)
		}
		return nil, apperror.Internal("failed to look up user", err)
	}

	// Verify password
	if err := user.CheckPassword(req.Password); err != nil {
		return nil, apperror.Unauthenticated(i18n.KeyAuthInvalidCredentials)
	}

	if user.LicenseStatus == models.LicenseStatusPendingApproval {
		return nil, apperror.Forbidden(i18n.KeyAuthLicensePending).WithCode(apperror.CodeLicensePendingApproval)
	}

	// Update last login time
	now := time.Now()
	user.LastLoginAt = &now
	if err := s.store.Users().Update(ctx, user); err != nil {
		logrus.WithError(err).WithField("user_id", user.ID).Warn("Failed to record last login")
	}

	return s.issue(user)
}

func (s *AuthService) Profile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.NotFound(i18n.KeyUserNotFound)
		}
		return nil, apperror.Internal("failed to load user", err)
	}
	return user, nil
}

func (s *AuthService) issue(user *models.User) (*AuthResponse, error) {
	token, err := s.tokens.Generate(user.ID, string(user.Role))
	if err != nil {
		return nil, apperror.Internal("failed to generate token", err)
	}

	return &AuthResponse{
		User:      user,
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(s.tokens.TTL().Seconds()),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func emailTaken() error {
	return apperror.Conflict(i18n.KeyAuthUserExists).WithCode(apperror.CodeEmailTaken)
}

func validateRequest(req interface{}) error {
	if err := utils.ValidateStruct(req); err != nil {
		return apperror.Validation(i18n.KeyValidationFailed).Wrap(err)
	}
	return nil
}
