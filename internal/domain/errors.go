package domain

import (
	"errors"
	"fmt"
)

// ErrKind is used to map domain errors to HTTP status codes consistently.
type ErrKind string

const (
	KindValidation     ErrKind = "validation"     // 400
	KindAuth           ErrKind = "auth"           // 401
	KindForbidden      ErrKind = "forbidden"      // 403
	KindNotFound       ErrKind = "not_found"      // 404
	KindConflict       ErrKind = "conflict"       // 409
	KindRateLimited    ErrKind = "rate_limited"   // 429
	KindInfrastructure ErrKind = "infrastructure" // 503
	KindInternal       ErrKind = "internal"       // 500
)

// Stable machine codes. Clients and tests match on these, do not rename.
const (
	CodeEmailInUse              = "email_in_use"
	CodeInvalidCredentials      = "invalid_credentials"
	CodeEmailNotVerified        = "email_not_verified"
	CodeNotAuthorized           = "not_authorized"
	CodeAccountNotFound         = "account_not_found"
	CodeAlreadyVerified         = "already_verified"
	CodeInvalidSubscriptionTier = "invalid_subscription_tier"
	CodeMalformedHash           = "malformed_hash"
	CodeInvalidToken            = "invalid_token"
	CodeStoreUnavailable        = "store_unavailable"
	CodeContactNotFound         = "contact_not_found"
)

// Error is a structured domain error.
// - Kind: high-level category for HTTP mapping
// - Code: stable machine code
// - Message: safe summary for clients (avoid leaking sensitive details)
// - Meta: optional details (field, reason, etc.)
// - Cause: wrapped internal error for logging/diagnostics
type Error struct {
	Kind    ErrKind
	Code    string
	Message string
	Meta    map[string]string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s (%s): %s: %v", e.Kind, e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s (%s): %s", e.Kind, e.Code, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

func New(kind ErrKind, code, msg string) *Error {
	return &Error{Kind: kind, Code: code, Message: msg}
}

func Wrap(kind ErrKind, code, msg string, cause error) *Error {
	return &Error{Kind: kind, Code: code, Message: msg, Cause: cause}
}

func WithMeta(err *Error, meta map[string]string) *Error {
	err.Meta = meta
	return err
}

// Is reports whether err (or anything it wraps) is a domain error with code.
func Is(err error, code string) bool {
	var de *Error
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf returns the domain code of err, or "" for non-domain errors.
func CodeOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ----------------------
// Validation errors (400)
// ----------------------

func ErrInvalidJSON(cause error) *Error {
	return Wrap(KindValidation, "invalid_json", "invalid JSON body", cause)
}

func ErrMissingField(field string) *Error {
	return WithMeta(New(KindValidation, "missing_field", "missing required field"), map[string]string{
		"field": field,
	})
}

func ErrInvalidField(field, reason string) *Error {
	return WithMeta(New(KindValidation, "invalid_field", "invalid field"), map[string]string{
		"field":  field,
		"reason": reason,
	})
}

func ErrInvalidSubscriptionTier(tier string) *Error {
	return WithMeta(
		New(KindValidation, CodeInvalidSubscriptionTier,
			`invalid subscription type, must be one of "starter", "pro", "business"`),
		map[string]string{"subscription": tier},
	)
}

// AlreadyVerified is user facing and not a hard failure, so it maps to 400.
func ErrAlreadyVerified() *Error {
	return New(KindValidation, CodeAlreadyVerified, "verification has already been passed")
}

// ----------------------
// Auth errors (401)
// ----------------------

// Used for both "no such email" and "wrong password" to avoid user enumeration.
func ErrInvalidCredentials() *Error {
	return New(KindAuth, CodeInvalidCredentials, "email or password is wrong")
}

func ErrEmailNotVerified() *Error {
	return New(KindAuth, CodeEmailNotVerified, "email not verified")
}

func ErrNotAuthorized() *Error {
	return New(KindAuth, CodeNotAuthorized, "not authorized")
}

// Signature mismatch, malformed structure and expiry all collapse to this.
func ErrInvalidToken() *Error {
	return New(KindAuth, CodeInvalidToken, "invalid token")
}

// ----------------------
// Not Found (404)
// ----------------------

func ErrAccountNotFound() *Error {
	return New(KindNotFound, CodeAccountNotFound, "user not found")
}

func ErrContactNotFound() *Error {
	return New(KindNotFound, CodeContactNotFound, "contact not found")
}

// ----------------------
// Conflict (409)
// ----------------------

func ErrEmailInUse() *Error {
	return New(KindConflict, CodeEmailInUse, "email in use")
}

// ----------------------
// Rate limit (429)
// ----------------------

func ErrRateLimited(scope string) *Error {
	return WithMeta(New(KindRateLimited, "rate_limited", "too many requests"), map[string]string{
		"scope": scope,
	})
}

// ----------------------
// Infrastructure / internal (5xx)
// ----------------------

func ErrStoreUnavailable(cause error) *Error {
	return Wrap(KindInfrastructure, CodeStoreUnavailable, "store unavailable", cause)
}

func ErrMalformedHash(cause error) *Error {
	return Wrap(KindInternal, CodeMalformedHash, "stored credential is malformed", cause)
}

func ErrHashFailed(cause error) *Error {
	return Wrap(KindInternal, "hash_failed", "password hashing failed", cause)
}

func ErrTokenSignFailed(cause error) *Error {
	return Wrap(KindInternal, "token_sign_failed", "token signing failed", cause)
}

func ErrRandomFailed(cause error) *Error {
	return Wrap(KindInternal, "random_failed", "random generation failed", cause)
}

func ErrStorageFailed(cause error) *Error {
	return Wrap(KindInternal, "storage_failed", "file storage failed", cause)
}

func ErrInternal(cause error) *Error {
	return Wrap(KindInternal, "internal_error", "internal error", cause)
}
