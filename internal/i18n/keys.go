// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthRegisterSuccess    = "auth.register_success"
	KeyAuthLicensePending     = "auth.license_pending"
	KeyAuthForbidden          = "auth.forbidden"
	KeyAuthNotOwner           = "auth.not_owner"

	// User Management
	KeyUserNotFound    = "user.not_found"
	KeyUserRoleUpdated = "user.role_updated"

	// Licenses
	KeyLicenseApplied        = "license.applied"
	KeyLicenseApproved       = "license.approved"
	KeyLicenseRejected       = "license.rejected"
	KeyLicenseInvalidState   = "license.invalid_state"
	KeyLicenseSellerNotFound = "license.seller_not_found"

	// Products
	KeyProductNotFound = "product.not_found"
	KeyProductDeleted  = "product.deleted"

	// Cart
	KeyCartItemNotFound = "cart.item_not_found"
	KeyCartEmpty        = "cart.empty"
	KeyCartConflict     = "cart.conflict"
	KeyCartQuantity     = "cart.quantity_limit"

	// Orders
	KeyOrderNotFound      = "order.not_found"
	KeyOrderInvalidStatus = "order.invalid_status"
	KeyOrderTotalTooLarge = "order.total_too_large"

	// Validation
	KeyValidationInvalid = "validation.invalid"
	KeyValidationFailed  = "validation.failed"
	KeyValidationID      = "validation.invalid_id"

	// File Upload
	KeyFileInvalidType = "file.invalid_type"
	KeyFileTooLarge    = "file.too_large"

	// Generic
	KeyInternalError = "error.internal"
	KeyRateLimited   = "error.rate_limited"
)
