package entities

import (
	"errors"
	"fmt"
)

// Authentication and session failures. All of these require the caller to
// re-authenticate; none are retried automatically.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAlreadyLoggedIn    = errors.New("account already logged in from another device")
	ErrInvalidToken       = errors.New("invalid token")
	ErrTokenExpired       = errors.New("token expired")
	ErrSessionMismatch    = errors.New("session invalid - logged in from another device")
	ErrSessionExpired     = errors.New("session expired - please login again")
	ErrInactivityTimeout  = errors.New("session expired due to inactivity")
	ErrSessionTerminated  = errors.New("session terminated")
)

// Provisioning and submission failures.
var (
	ErrForbidden         = errors.New("forbidden")
	ErrNoSectionAssigned = errors.New("admin has no section assigned")
	ErrUsernameTaken     = errors.New("username already exists")
	ErrHeadNotFound      = errors.New("family head not found")
	ErrSectionMismatch   = errors.New("family head does not belong to your section")
	ErrUserNotFound      = errors.New("user not found")
	ErrInvalidGroupView  = errors.New("invalid or unsupported view type")
)

// QuotaError reports the allocation limit so the UI can render the numbers.
type QuotaError struct {
	Allocated int
	Current   int
}

func (e *QuotaError) Error() string {
	return fmt.Sprintf("allocation limit exceeded: you can only create %d subusers, current: %d", e.Allocated, e.Current)
}
