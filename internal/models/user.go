package models

import (
	"time"

	"github.com/credguard/backend/internal/credential"
)

// User is the stored credential record. TwoFactorSecret holds the sealed
// value in the database; the store opens it on load.
type User struct {
	BaseModel
	Email               string     `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	Tenant              string     `json:"tenant" gorm:"type:varchar(64);not null;default:''"`
	PasswordHash        string     `json:"-" gorm:"type:text;not null"`
	PasswordHistory     []string   `json:"-" gorm:"type:text;serializer:json"`
	PasswordChangedAt   *time.Time `json:"passwordChangedAt,omitempty"`
	FailedLoginAttempts int        `json:"failedLoginAttempts" gorm:"not null;default:0"`
	LockedUntil         *time.Time `json:"lockedUntil,omitempty"`
	TwoFactorEnabled    bool       `json:"twoFactorEnabled" gorm:"not null;default:false"`
	TwoFactorSecret     string     `json:"-" gorm:"type:text"`
	TwoFactorVerifiedAt *time.Time `json:"twoFactorVerifiedAt,omitempty"`
	BackupCodes         string     `json:"-" gorm:"type:text"`
	IsActive            bool       `json:"isActive" gorm:"not null;default:true"`
	Version             int64      `json:"-" gorm:"not null;default:1"`
}

// TwoFactor returns the user's second-factor state. Backup codes that fail to
// parse are treated as an empty set.
func (u *User) TwoFactor() credential.TwoFactorCredential {
	return credential.TwoFactorCredential{
		Secret:      u.TwoFactorSecret,
		Enabled:     u.TwoFactorEnabled,
		BackupCodes: credential.DeserializeBackupCodes(u.BackupCodes),
	}
}

// SetTwoFactor copies cred onto the record.
func (u *User) SetTwoFactor(cred credential.TwoFactorCredential) {
	u.TwoFactorSecret = cred.Secret
	u.TwoFactorEnabled = cred.Enabled
	if cred.State() == credential.TwoFactorDisabled {
		u.BackupCodes = ""
		return
	}
	u.BackupCodes = credential.SerializeBackupCodes(cred.BackupCodes)
}
