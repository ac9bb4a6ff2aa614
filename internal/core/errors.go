package core

import "errors"

// Error codes for domain errors.
const (
	// Handshake rejections. These terminate a connection before it
	// ever becomes active.
	ErrCodeMissingCredential = "missing_credential"
	ErrCodeInvalidCredential = "invalid_credential"
	ErrCodeTenantMismatch    = "tenant_mismatch"
	ErrCodeRoleMismatch      = "role_mismatch"

	ErrCodeTenantForbidden = "tenant_forbidden"
	ErrCodeMalformedBatch  = "malformed_batch"
	ErrCodeNotActive       = "not_active"
	ErrCodeBadRequest      = "bad_request"
	ErrCodeSessionReplaced = "session_replaced"
)

var (
	// ErrMalformedBatch is returned for a batched message event with zero
	// descriptors. There is no first chat id to alert for, so the batch is
	// rejected up front instead of faulting later.
	ErrMalformedBatch = errors.New("malformed batch: no descriptors")

	ErrNotActive = errors.New("session not active")
)

// CoreError wraps a code and human-readable message. It travels inside
// events so clients see structured errors.
type CoreError struct {
	Code    string
	Message string
}

func (e *CoreError) Error() string {
	return e.Message
}

func coreError(code, msg string) *CoreError {
	return &CoreError{Code: code, Message: msg}
}

// AuthError rejects a handshake. Code is one of the handshake rejection
// codes above; Reason is surfaced to the client as the close reason.
type AuthError struct {
	Code   string
	Reason string
}

func (e *AuthError) Error() string {
	return e.Reason
}

func authError(code, reason string) *AuthError {
	return &AuthError{Code: code, Reason: reason}
}
