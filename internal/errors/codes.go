package errors

// Error codes returned in the "error" field of every error response.
// Format: CATEGORY_SPECIFIC_DETAIL. Clients map these to their own copy.

const (
	// ==================== AUTH_ ====================
	AuthUnauthorized       = "AUTH_UNAUTHORIZED"        // login required
	AuthInvalidCredentials = "AUTH_INVALID_CREDENTIALS" // wrong email or password
	AuthTokenExpired       = "AUTH_TOKEN_EXPIRED"
	AuthTokenInvalid       = "AUTH_TOKEN_INVALID"
	AuthTokenRevoked       = "AUTH_TOKEN_REVOKED" // logged out
	AuthEmailAlreadyExists = "AUTH_EMAIL_EXISTS"

	// ==================== AUTHZ_ ====================
	AuthzForbidden  = "AUTHZ_FORBIDDEN"
	AuthzOwnerOnly  = "AUTHZ_OWNER_ONLY"
	AuthzAuthorOnly = "AUTHZ_AUTHOR_ONLY"

	// ==================== VALIDATION_ ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID     = "VALIDATION_INVALID_ID"
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT"
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"
	ValidationRequired      = "VALIDATION_REQUIRED"

	// ==================== RESOURCE_ ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS"
	ResourceConflict      = "RESOURCE_CONFLICT"

	// ==================== BUSINESS_ ====================
	BusinessNotFound      = "BUSINESS_NOT_FOUND"
	BusinessUENExists     = "BUSINESS_UEN_EXISTS"
	BusinessInvalidHours  = "BUSINESS_INVALID_HOURS"
	BusinessInvalidOption = "BUSINESS_INVALID_PAYMENT_OPTION"

	// ==================== REVIEW_ ====================
	ReviewNotFound      = "REVIEW_NOT_FOUND"
	ReviewInvalidRating = "REVIEW_INVALID_RATING"

	// ==================== FORUM_ ====================
	PostNotFound  = "POST_NOT_FOUND"
	ReplyNotFound = "REPLY_NOT_FOUND"

	// ==================== REFERRAL_ / VOUCHER_ ====================
	ReferralCodeInvalid     = "REFERRAL_CODE_INVALID"
	ReferralSelf            = "REFERRAL_SELF"
	ReferralAlreadyReferred = "REFERRAL_ALREADY_REFERRED"
	ReferralNotFound        = "REFERRAL_NOT_FOUND"
	VoucherNotFound         = "VOUCHER_NOT_FOUND"
	VoucherNotRedeemable    = "VOUCHER_NOT_REDEEMABLE"

	// ==================== UPLOAD_ ====================
	UploadInvalidContentType = "UPLOAD_INVALID_FILE_TYPE"
	UploadInvalidFolder      = "UPLOAD_INVALID_FOLDER"
	UploadFailed             = "UPLOAD_FAILED"

	// ==================== INTERNAL_ ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR"
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"
)
