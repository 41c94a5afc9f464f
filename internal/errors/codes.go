package errors

// Error code constants returned in error responses.
// Format: CATEGORY_SPECIFIC_DETAIL; the client maps these to messages.

const (
	// ==================== Authentication (AUTH_) ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS"
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED"
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== Authorization (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"
	AuthzRoleNotFound = "AUTHZ_ROLE_NOT_FOUND"
	AuthzAdminOnly    = "AUTHZ_ADMIN_ONLY"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Resources (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== Catalog (CATEGORY_/PRODUCT_) ====================
	CategoryNotFound    = "CATEGORY_NOT_FOUND"
	CategoryNameExists  = "CATEGORY_NAME_EXISTS"
	CategoryHasProducts = "CATEGORY_HAS_PRODUCTS"
	ProductNotFound     = "PRODUCT_NOT_FOUND"
	ProductSlugExists   = "PRODUCT_SLUG_EXISTS"

	// ==================== Cart (CART_) ====================
	CartItemNotFound    = "CART_ITEM_NOT_FOUND"
	CartStockExceeded   = "CART_STOCK_EXCEEDED"
	CartMissingIdentity = "CART_MISSING_IDENTITY"
	CartEmpty           = "CART_EMPTY"
	CartMergeInProgress = "CART_MERGE_IN_PROGRESS"

	// ==================== Orders (ORDER_) ====================
	OrderNotFound = "ORDER_NOT_FOUND"

	// ==================== Payments (PAYMENT_) ====================
	PaymentNotFound     = "PAYMENT_NOT_FOUND"
	PaymentGatewayError = "PAYMENT_GATEWAY_ERROR"

	// ==================== Internal (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
