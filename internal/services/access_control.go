// internal/services/access_control.go
package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/javajoker/pirotecnica-backend/internal/apperror"
	"github.com/javajoker/pirotecnica-backend/internal/i18n"
	"github.com/javajoker/pirotecnica-backend/internal/models"
	"github.com/javajoker/pirotecnica-backend/internal/repository"
	"github.com/javajoker/pirotecnica-backend/internal/utils"
)

type Action string

const (
	ActionProfileView = Action("profile.view")

	ActionLicenseApply       = Action("license.apply")
	ActionLicenseListPending = Action("license.list_pending")
	ActionLicenseApprove     = Action("license.approve")
	ActionLicenseReject      = Action("license.reject")

	ActionProductCreate = Action("product.create")
	ActionProductUpdate = Action("product.update")
	ActionProductDelete = Action("product.delete")

	ActionCartView   = Action("cart.view")
	ActionCartAdjust = Action("cart.adjust")
	ActionCartRemove = Action("cart.remove")

	ActionOrderCheckout     = Action("order.checkout")
	ActionOrderListOwn      = Action("order.list_own")
	ActionOrderListAll      = Action("order.list_all")
	ActionOrderUpdateStatus = Action("order.update_status")

	ActionUserList       = Action("user.list")
	ActionUserChangeRole = Action("user.change_role")
)

type Ownership int

const (
	OwnershipNone Ownership = iota
	OwnershipOwnerOrAdmin
)

type Policy struct {
	Roles     []models.Role
	Ownership Ownership
}

var (
	anyRole   = []models.Role{models.RoleBuyer, models.RoleSeller, models.RoleAdmin}
	adminOnly = []models.Role{models.RoleAdmin}
	sellers   = []models.Role{models.RoleSeller, models.RoleAdmin}
	buyers    = []models.Role{models.RoleBuyer}
)

// policies is the single source of truth for who may do what. An action missing
// from the table is denied.
var policies = map[Action]Policy{
	ActionProfileView: {Roles: anyRole},

	ActionLicenseApply:       {Roles: buyers},
	ActionLicenseListPending: {Roles: adminOnly},
	ActionLicenseApprove:     {Roles: adminOnly},
	ActionLicenseReject:      {Roles: adminOnly},

	ActionProductCreate: {Roles: sellers},
	ActionProductUpdate: {Roles: sellers, Ownership: OwnershipOwnerOrAdmin},
	ActionProductDelete: {Roles: sellers, Ownership: OwnershipOwnerOrAdmin},

	ActionCartView:   {Roles: buyers},
	ActionCartAdjust: {Roles: buyers},
	ActionCartRemove: {Roles: buyers},

	ActionOrderCheckout:     {Roles: anyRole},
	ActionOrderListOwn:      {Roles: anyRole},
	ActionOrderListAll:      {Roles: adminOnly},
	ActionOrderUpdateStatus: {Roles: adminOnly},

	ActionUserList:       {Roles: adminOnly},
	ActionUserChangeRole: {Roles: adminOnly},
}

func PolicyFor(action Action) (Policy, bool) {
	p, ok := policies[action]
	return p, ok
}

type AccessControl struct {
	store  repository.Store
	tokens *utils.TokenManager
}

func NewAccessControl(store repository.Store, tokens *utils.TokenManager) *AccessControl {
	return &AccessControl{
		store:  store,
		tokens: tokens,
	}
}

// Authenticate resolves a bearer token to its user. The user is reloaded on every
// request so role and license changes take effect immediately.
func (a *AccessControl) Authenticate(ctx context.Context, bearer string) (*models.User, error) {
	tokenString := strings.TrimSpace(strings.TrimPrefix(bearer, "Bearer "))
	if tokenString == "" {
		return nil, apperror.Unauthenticated(i18n.KeyAuthRequired)
	}

	userID, err := a.tokens.Validate(tokenString)
	if err != nil {
		return nil, apperror.Unauthenticated(i18n.KeyAuthInvalidToken).Wrap(err)
	}

	user, err := a.store.Users().GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperror.Unauthenticated(i18n.KeyAuthInvalidToken).Wrap(err)
		}
		return nil, apperror.Internal("failed to load user", err)
	}

	if user.LicenseStatus == models.LicenseStatusPendingApproval {
		return nil, apperror.Forbidden(i18n.KeyAuthLicensePending).WithCode(apperror.CodeLicensePendingApproval)
	}

	return user, nil
}

// Authorize checks the actor's role against the policy table.
func (a *AccessControl) Authorize(actor *models.User, action Action) error {
	if actor == nil {
		return apperror.Unauthenticated(i18n.KeyAuthRequired)
	}

	policy, ok := policies[action]
	if !ok || !lo.Contains(policy.Roles, actor.Role) {
		return apperror.Forbidden(i18n.KeyAuthForbidden)
	}

	// A seller without an approved license keeps the role but none of its powers.
	if actor.AwaitingApproval() {
		return apperror.Forbidden(i18n.KeyAuthLicensePending).WithCode(apperror.CodeLicensePendingApproval)
	}

	return nil
}

// AuthorizeOwnership applies the action's role check and, for owner-or-admin rules,
// requires the actor to own the resource unless they are an admin.
func (a *AccessControl) AuthorizeOwnership(actor *models.User, action Action, ownerID uuid.UUID) error {
	if err := a.Authorize(actor, action); err != nil {
		return err
	}

	if policies[action].Ownership != OwnershipOwnerOrAdmin {
		return nil
	}
	if actor.Role == models.RoleAdmin || actor.ID == ownerID {
		return nil
	}
	return apperror.Forbidden(i18n.KeyAuthNotOwner)
}
