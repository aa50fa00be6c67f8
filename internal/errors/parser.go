package errors

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// ParseDBError classifies a driver error. Messages from both PostgreSQL and
// SQLite are recognised; anything unrecognised is a store error.
func ParseDBError(err error) *Error {
	if err == nil {
		return New(KindInternal, InternalServerError, "unknown error")
	}
	if appErr, ok := As(err); ok {
		return appErr
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &Error{Kind: KindNotFound, Code: ResourceNotFound, Message: "resource not found", Err: err}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return parseDuplicateKeyError(err)
	}

	lower := strings.ToLower(err.Error())

	switch {
	// 23505
	case strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint"):
		return parseDuplicateKeyError(err)
	// 23503
	case strings.Contains(lower, "foreign key constraint"):
		return parseForeignKeyError(err)
	// 23502
	case strings.Contains(lower, "not-null constraint") || strings.Contains(lower, "not null constraint"):
		return &Error{Kind: KindValidation, Code: ValidationRequired, Message: "a required field is missing", Err: err}
	// 23514
	case strings.Contains(lower, "check constraint"):
		return &Error{Kind: KindValidation, Code: ValidationInvalidRange, Message: "a value is out of range", Err: err}
	}

	return &Error{Kind: KindStore, Code: InternalDatabaseError, Message: "store operation failed", Err: err}
}

// IsUniqueViolation reports whether err is a unique or primary key violation.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "duplicate key") || strings.Contains(lower, "unique constraint")
}

func parseDuplicateKeyError(err error) *Error {
	lower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lower, "referrals"), strings.Contains(lower, "idx_referral_pair"):
		return &Error{Kind: KindConflict, Code: ReferralAlreadyReferred, Message: "user already referred", Err: err}
	case strings.Contains(lower, "email"):
		return &Error{Kind: KindConflict, Code: AuthEmailAlreadyExists, Message: "email already registered", Err: err}
	case strings.Contains(lower, "businesses"):
		return &Error{Kind: KindConflict, Code: BusinessUENExists, Message: "a business with this UEN already exists", Err: err}
	}
	return &Error{Kind: KindConflict, Code: ResourceAlreadyExists, Message: "resource already exists", Err: err}
}

func parseForeignKeyError(err error) *Error {
	lower := strings.ToLower(err.Error())

	switch {
	case strings.Contains(lower, "uen"), strings.Contains(lower, "fk_businesses"):
		return &Error{Kind: KindNotFound, Code: BusinessNotFound, Message: "business not found", Err: err}
	case strings.Contains(lower, "post_id"):
		return &Error{Kind: KindNotFound, Code: PostNotFound, Message: "post not found", Err: err}
	case strings.Contains(lower, "user"):
		return &Error{Kind: KindNotFound, Code: ResourceNotFound, Message: "user not found", Err: err}
	}
	return &Error{Kind: KindNotFound, Code: ResourceNotFound, Message: "referenced resource not found", Err: err}
}
