package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/credguard/backend/internal/credential"
)

var (
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrInvalidEmail            = errors.New("invalid email address")
	ErrTwoFactorRequired       = errors.New("two-factor code required")
	ErrInvalidTwoFactorCode    = errors.New("invalid two-factor code")
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication is already enabled")
	ErrTwoFactorNotPending     = errors.New("no pending two-factor setup")
	ErrTwoFactorNotEnabled     = errors.New("two-factor authentication is not enabled")
	ErrSamePassword            = errors.New("new password must differ from the current one")
	ErrPasswordReused          = errors.New("password was used recently")
	ErrConcurrentUpdate        = errors.New("account was modified concurrently, retry")
	ErrUserNotFound            = errors.New("user not found")
)

// InvalidCredentialsError is returned for a wrong password on an existing
// account. It matches ErrInvalidCredentials with errors.Is.
type InvalidCredentialsError struct {
	RemainingAttempts int
}

func (e *InvalidCredentialsError) Error() string {
	return fmt.Sprintf("invalid credentials, %d attempts remaining", e.RemainingAttempts)
}

func (e *InvalidCredentialsError) Is(target error) bool {
	return target == ErrInvalidCredentials
}

type AccountLockedError struct {
	Until time.Time
}

func (e *AccountLockedError) Error() string {
	return fmt.Sprintf("account locked until %s", e.Until.UTC().Format(time.RFC3339))
}

// RetryAfter reports how long the lock still holds at now.
func (e *AccountLockedError) RetryAfter(now time.Time) time.Duration {
	return credential.LockoutRemaining(&e.Until, now)
}

// PolicyViolationError carries the full validation result so callers can
// show every violated rule and the computed strength.
type PolicyViolationError struct {
	Result credential.PasswordValidationResult
}

func (e *PolicyViolationError) Error() string {
	msgs := e.Result.Messages()
	if len(msgs) == 0 {
		return "password does not satisfy the policy"
	}
	return fmt.Sprintf("password does not satisfy the policy: %s", msgs[0])
}
