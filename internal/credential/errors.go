package credential

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidBackupCodeCount = errors.New("backup code count out of range")
	ErrRendererTimeout        = errors.New("qr rendering timed out")
)

// ProvisioningError reports a failed TOTP setup step. The setup attempt is
// lost but nothing was persisted, so the caller may simply retry. Messages
// never include the secret.
type ProvisioningError struct {
	Op  string
	Err error
}

func (e *ProvisioningError) Error() string {
	return fmt.Sprintf("totp provisioning: %s: %v", e.Op, e.Err)
}

func (e *ProvisioningError) Unwrap() error {
	return e.Err
}

func (e *ProvisioningError) Retryable() bool {
	return true
}

// MalformedStorageError is returned by ParseBackupCodes when stored backup
// codes cannot be decoded.
type MalformedStorageError struct {
	Err error
}

func (e *MalformedStorageError) Error() string {
	return fmt.Sprintf("malformed backup code storage: %v", e.Err)
}

func (e *MalformedStorageError) Unwrap() error {
	return e.Err
}
