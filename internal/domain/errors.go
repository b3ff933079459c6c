package domain

import (
	"errors"
	"fmt"
)

// Remote errors
var (
	ErrTransport        = errors.New("remote service unreachable")
	ErrTimeout          = errors.New("remote request timed out")
	ErrMalformed        = errors.New("malformed remote response")
	ErrDuplicateAccount = errors.New("account already exists")
	ErrSignupRejected   = errors.New("signup rejected")
)

// Spin errors
var (
	ErrSpinBusy          = errors.New("a spin is already in progress")
	ErrCatalogEmpty      = errors.New("prize catalog is empty")
	ErrIdentityRequired  = errors.New("visitor identity is required")
	ErrPrizeNotInCatalog = errors.New("winning prize not found in catalog")
	ErrScreenBusy        = errors.New("another screen is active")
	ErrSpinRejected      = errors.New("spin rejected by remote service")
)

// Signup errors
var (
	ErrSubmitBusy    = errors.New("signup is already being submitted")
	ErrSignupClosed  = errors.New("signup flow is not open")
	ErrSessionClosed = errors.New("session is closed")
)

// ValidationError 代表在送往遠端服務前即被拒絕的輸入。
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
