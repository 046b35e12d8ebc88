package guard

import "errors"

// Precondition failures.
var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrConsentRequired = errors.New("data processing consent required")
	ErrNotOnboarded    = errors.New("complete your profile (department and graduation year) first")
	ErrForbidden       = errors.New("insufficient permissions")
)
