package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/credguard/backend/internal/models"
	"github.com/credguard/backend/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	ErrNotFound        = errors.New("user not found")
	ErrEmailTaken      = errors.New("email already registered")
	ErrVersionConflict = errors.New("credential record was modified concurrently")
)

// UserStore persists credential records with gorm. Lockout counter updates
// are single atomic statements and leave the version alone; writes to
// credential material are guarded by the record's version column.
type UserStore struct {
	db     *gorm.DB
	sealer *utils.Sealer
}

// NewUserStore returns a store that seals TOTP secrets with sealer. A nil
// sealer stores them as plaintext.
func NewUserStore(db *gorm.DB, sealer *utils.Sealer) *UserStore {
	return &UserStore{db: db, sealer: sealer}
}

func (s *UserStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.findOne(ctx, "email = ?", email)
}

func (s *UserStore) FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *UserStore) findOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where(query, arg).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	user.TwoFactorSecret = s.sealer.OpenOrPlaintext(user.TwoFactorSecret)
	return &user, nil
}

// CreateUser inserts user and fills in its ID and Version.
func (s *UserStore) CreateUser(ctx context.Context, user *models.User) error {
	row := *user
	row.Version = 1
	sealed, err := s.sealer.SealOrPlaintext(user.TwoFactorSecret)
	if err != nil {
		return fmt.Errorf("seal two-factor secret: %w", err)
	}
	row.TwoFactorSecret = sealed

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.User{}).Where("email = ?", row.Email).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return ErrEmailTaken
		}
		return tx.Create(&row).Error
	})
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		// A concurrent registration won between the count and the insert.
		return ErrEmailTaken
	}
	if err != nil {
		return err
	}

	user.BaseModel = row.BaseModel
	user.Version = row.Version
	return nil
}

// FailedLogin is the counter state after RecordFailedLogin.
type FailedLogin struct {
	Attempts    int
	LockedUntil *time.Time
}

// RecordFailedLogin increments the failure counter and, when the new count
// reaches threshold, sets locked_until to lockUntil. Both happen in one
// UPDATE so concurrent failures are never lost.
func (s *UserStore) RecordFailedLogin(ctx context.Context, id uuid.UUID, threshold int, lockUntil time.Time) (FailedLogin, error) {
	var result FailedLogin
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.User{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"failed_login_attempts": gorm.Expr("failed_login_attempts + 1"),
				"locked_until": gorm.Expr(
					"CASE WHEN failed_login_attempts + 1 >= ? THEN ? ELSE locked_until END",
					threshold, lockUntil.UTC(),
				),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrNotFound
		}

		var row models.User
		if err := tx.Select("failed_login_attempts", "locked_until").
			Where("id = ?", id).
			First(&row).Error; err != nil {
			return err
		}
		result.Attempts = row.FailedLoginAttempts
		result.LockedUntil = row.LockedUntil
		return nil
	})
	return result, err
}

// ResetFailedLogins clears the counter and any lock.
func (s *UserStore) ResetFailedLogins(ctx context.Context, id uuid.UUID) error {
	return s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"failed_login_attempts": 0,
			"locked_until":          nil,
		}).Error
}

// Unlock is ResetFailedLogins for an operator, reporting unknown ids.
func (s *UserStore) Unlock(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"failed_login_attempts": 0,
			"locked_until":          nil,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *UserStore) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_active": active,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdatePassword writes the hash, history and change time from user and
// clears the lockout state. It fails with ErrVersionConflict when the record
// changed since user was loaded.
func (s *UserStore) UpdatePassword(ctx context.Context, user *models.User) error {
	values := models.User{
		PasswordHash:        user.PasswordHash,
		PasswordHistory:     user.PasswordHistory,
		PasswordChangedAt:   user.PasswordChangedAt,
		FailedLoginAttempts: 0,
		LockedUntil:         nil,
	}
	err := s.updateVersioned(ctx, user, values,
		"password_hash", "password_history", "password_changed_at", "failed_login_attempts", "locked_until")
	if err != nil {
		return err
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	return nil
}

// SaveTwoFactor writes the secret, enabled flag and backup codes from user.
func (s *UserStore) SaveTwoFactor(ctx context.Context, user *models.User) error {
	sealed, err := s.sealer.SealOrPlaintext(user.TwoFactorSecret)
	if err != nil {
		return fmt.Errorf("seal two-factor secret: %w", err)
	}
	values := models.User{
		TwoFactorEnabled:    user.TwoFactorEnabled,
		TwoFactorSecret:     sealed,
		TwoFactorVerifiedAt: user.TwoFactorVerifiedAt,
		BackupCodes:         user.BackupCodes,
	}
	return s.updateVersioned(ctx, user, values,
		"two_factor_enabled", "two_factor_secret", "two_factor_verified_at", "backup_codes")
}

// UpdateBackupCodes replaces the stored codes on user's record.
func (s *UserStore) UpdateBackupCodes(ctx context.Context, user *models.User) error {
	return s.updateVersioned(ctx, user, models.User{BackupCodes: user.BackupCodes}, "backup_codes")
}

func (s *UserStore) updateVersioned(ctx context.Context, user *models.User, values models.User, columns ...string) error {
	values.Version = user.Version + 1
	columns = append(columns, "version")

	res := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ? AND version = ?", user.ID, user.Version).
		Select(columns).
		Updates(&values)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", user.ID).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			return ErrNotFound
		}
		return ErrVersionConflict
	}

	user.Version = values.Version
	return nil
}
