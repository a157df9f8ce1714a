package shared

import "errors"

var (
	// ErrNotFound indicates the referenced record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness violation.
	ErrAlreadyExists = errors.New("already exists")
	// ErrValidation indicates malformed or out-of-range input, rejected before any write.
	ErrValidation = errors.New("validation failed")
	// ErrStoreUnavailable indicates the underlying store could not be reached.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)

// UserSafeMessage maps an error to a message safe to show the operator.
// Store faults are reported generically so internals never leak.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "The requested record was not found."
	case errors.Is(err, ErrAlreadyExists):
		return "A record with that name already exists."
	case errors.Is(err, ErrValidation):
		return err.Error()
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid email or password."
	case errors.Is(err, ErrStoreUnavailable):
		return "The service is temporarily unavailable, please try again later."
	default:
		return "Something went wrong, please try again later."
	}
}
