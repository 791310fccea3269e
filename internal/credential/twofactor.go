package credential

import "time"

type TwoFactorState int

const (
	TwoFactorDisabled TwoFactorState = iota
	TwoFactorPending
	TwoFactorEnabled
)

func (s TwoFactorState) String() string {
	switch s {
	case TwoFactorPending:
		return "pending"
	case TwoFactorEnabled:
		return "enabled"
	default:
		return "disabled"
	}
}

// TwoFactorCredential is a user's second factor. A freshly generated secret
// stays Pending until one token has been verified against it, so a mis-scanned
// QR code never locks its owner out.
type TwoFactorCredential struct {
	Secret      string
	Enabled     bool
	BackupCodes []string
}

func NewPendingTwoFactor(secret string, backupCodes []string) TwoFactorCredential {
	return TwoFactorCredential{Secret: secret, BackupCodes: backupCodes}
}

func IsTwoFactorEnabled(enabled bool, secret string) bool {
	return enabled && secret != ""
}

func (c TwoFactorCredential) IsEnabled() bool {
	return IsTwoFactorEnabled(c.Enabled, c.Secret)
}

func (c TwoFactorCredential) State() TwoFactorState {
	switch {
	case c.Secret == "":
		return TwoFactorDisabled
	case c.Enabled:
		return TwoFactorEnabled
	default:
		return TwoFactorPending
	}
}

// Confirm activates a Pending credential when token verifies against its
// secret. Any other state, or a wrong token, returns c unchanged and false.
func (c TwoFactorCredential) Confirm(token string, cfg TOTPConfig, now time.Time) (TwoFactorCredential, bool) {
	if c.State() != TwoFactorPending {
		return c, false
	}
	if !VerifyTOTP(token, c.Secret, cfg, now) {
		return c, false
	}
	codes := make([]string, len(c.BackupCodes))
	copy(codes, c.BackupCodes)
	return TwoFactorCredential{Secret: c.Secret, Enabled: true, BackupCodes: codes}, true
}

// Disable discards the secret and the backup codes.
func (c TwoFactorCredential) Disable() TwoFactorCredential {
	return TwoFactorCredential{}
}
