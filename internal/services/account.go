package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/credguard/backend/internal/credential"
	"github.com/credguard/backend/internal/models"
	"github.com/credguard/backend/internal/store"
	"github.com/credguard/backend/pkg/logger"
	"github.com/credguard/backend/pkg/metrics"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CredentialStore is the persistence the account service needs. The gorm
// implementation lives in internal/store.
type CredentialStore interface {
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	FindUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	RecordFailedLogin(ctx context.Context, id uuid.UUID, threshold int, lockUntil time.Time) (store.FailedLogin, error)
	ResetFailedLogins(ctx context.Context, id uuid.UUID) error
	Unlock(ctx context.Context, id uuid.UUID) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	UpdatePassword(ctx context.Context, user *models.User) error
	SaveTwoFactor(ctx context.Context, user *models.User) error
	UpdateBackupCodes(ctx context.Context, user *models.User) error
}

// PolicySource resolves the password policy for a tenant.
type PolicySource interface {
	For(tenant string) credential.PasswordPolicy
}

type AccountOptions struct {
	Issuer                  string
	BackupCodeWarnThreshold int
	MaxWriteRetries         int
}

type AccountService struct {
	core     *credential.Core
	store    CredentialStore
	policies PolicySource
	audit    *AuditService
	metrics  *metrics.Metrics
	replay   *ReplayGuard
	opts     AccountOptions
}

var emailValidator = validator.New()

func NewAccountService(
	core *credential.Core,
	credStore CredentialStore,
	policies PolicySource,
	audit *AuditService,
	m *metrics.Metrics,
	replay *ReplayGuard,
	opts AccountOptions,
) *AccountService {
	if m == nil {
		m = metrics.New(nil)
	}
	if opts.MaxWriteRetries <= 0 {
		opts.MaxWriteRetries = 3
	}
	if opts.Issuer == "" {
		opts.Issuer = "Credguard"
	}
	replay.cover(core.TOTPConfig().AcceptanceWindow())
	return &AccountService{
		core:     core,
		store:    credStore,
		policies: policies,
		audit:    audit,
		metrics:  m,
		replay:   replay,
		opts:     opts,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) loadUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, err := s.store.FindUserByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

// LookupUser finds an account by email.
func (s *AccountService) LookupUser(ctx context.Context, email string) (*models.User, error) {
	user, err := s.store.FindUserByEmail(ctx, normalizeEmail(email))
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *AccountService) checkPassword(user *models.User, password string) bool {
	return password != "" && s.core.Hasher().Verify(user.PasswordHash, password)
}

type RegisterRequest struct {
	Email    string
	Password string
	Tenant   string
}

// Register creates an account whose first password seeds its history.
func (s *AccountService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	email := normalizeEmail(req.Email)
	if err := emailValidator.Var(email, "required,email,max=255"); err != nil {
		return nil, ErrInvalidEmail
	}

	policy := s.policies.For(req.Tenant)
	result := s.core.ValidatePassword(req.Password, policy)
	if !result.Valid {
		return nil, &PolicyViolationError{Result: result}
	}

	history, err := s.core.RecordPasswordHistory(req.Password, nil, policy.HistoryCount)
	if err != nil {
		return nil, err
	}
	hash := ""
	if len(history) > 0 {
		hash = history[0]
	} else if hash, err = s.core.Hasher().Hash(req.Password); err != nil {
		return nil, err
	}

	now := s.core.Now().UTC()
	user := &models.User{
		Email:             email,
		Tenant:            req.Tenant,
		PasswordHash:      hash,
		PasswordHistory:   history,
		PasswordChangedAt: &now,
		IsActive:          true,
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.audit.LogAsync(AuditEntry{
		UserID:  &user.ID,
		Action:  AuditActionRegister,
		Outcome: AuditOutcomeSuccess,
		Details: map[string]interface{}{"tenant": user.Tenant, "strength": string(result.Strength)},
	})
	logger.InfoWithUser(user.ID.String(), "user_registered", map[string]interface{}{
		"tenant": user.Tenant,
	})
	return user, nil
}

type LoginRequest struct {
	Email      string
	Password   string
	TOTPCode   string
	BackupCode string
}

type LoginResult struct {
	User                 *models.User
	PasswordExpired      bool
	DaysUntilExpiration  *int
	UsedBackupCode       bool
	BackupCodesRemaining int
	BackupCodesLow       bool
}

// Login authenticates email and password and, when the account has two
// factors enabled, a TOTP code or a backup code. A TOTP code takes
// precedence over a backup code. Wrong passwords and wrong second factors
// both count toward lockout; the counter resets only after a complete login.
func (s *AccountService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	email := normalizeEmail(req.Email)
	if email == "" || req.Password == "" {
		s.metrics.LoginAttempts.WithLabelValues(metrics.ResultUnknownAccount).Inc()
		return nil, ErrInvalidCredentials
	}

	user, err := s.store.FindUserByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) || (err == nil && !user.IsActive) {
		s.metrics.LoginAttempts.WithLabelValues(metrics.ResultUnknownAccount).Inc()
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	policy := s.policies.For(user.Tenant)

	if s.core.IsAccountLocked(user.LockedUntil) {
		s.metrics.LoginAttempts.WithLabelValues(metrics.ResultLocked).Inc()
		s.audit.LogAsync(AuditEntry{
			UserID:  &user.ID,
			Action:  AuditActionLogin,
			Outcome: AuditOutcomeFailure,
			Details: map[string]interface{}{"reason": metrics.ResultLocked},
		})
		return nil, &AccountLockedError{Until: *user.LockedUntil}
	}
	if user.LockedUntil != nil {
		// The previous lock has expired: failures count from zero again.
		if err := s.store.ResetFailedLogins(ctx, user.ID); err != nil {
			return nil, fmt.Errorf("clear expired lock: %w", err)
		}
		user.FailedLoginAttempts = 0
		user.LockedUntil = nil
	}

	if !s.checkPassword(user, req.Password) {
		return nil, s.rejectLogin(ctx, user, policy, metrics.ResultInvalidPassword)
	}

	result := &LoginResult{User: user}
	if user.TwoFactor().IsEnabled() {
		code := strings.TrimSpace(req.TOTPCode)
		backup := strings.TrimSpace(req.BackupCode)
		if code == "" && backup == "" {
			s.metrics.LoginAttempts.WithLabelValues(metrics.ResultTwoFactorRequired).Inc()
			return nil, ErrTwoFactorRequired
		}

		ok, err := s.verifySecondFactor(ctx, user, code, backup, result)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, s.rejectLogin(ctx, user, policy, metrics.ResultInvalidTwoFactor)
		}

		if result.BackupCodesRemaining <= s.opts.BackupCodeWarnThreshold {
			result.BackupCodesLow = true
			logger.WarnWithUser(user.ID.String(), "backup_codes_low", map[string]interface{}{
				"remaining": result.BackupCodesRemaining,
			})
		}
	}

	if user.FailedLoginAttempts > 0 {
		if err := s.store.ResetFailedLogins(ctx, user.ID); err != nil {
			logger.ErrorWithUser(user.ID.String(), "reset_failed_logins_failed", err, nil)
		} else {
			user.FailedLoginAttempts = 0
		}
	}

	result.PasswordExpired = s.core.IsPasswordExpired(user.PasswordChangedAt, policy.MaxAgeDays)
	result.DaysUntilExpiration = s.core.DaysUntilPasswordExpires(user.PasswordChangedAt, policy.MaxAgeDays)

	s.metrics.LoginAttempts.WithLabelValues(metrics.ResultSuccess).Inc()
	s.audit.LogAsync(AuditEntry{
		UserID:  &user.ID,
		Action:  AuditActionLogin,
		Outcome: AuditOutcomeSuccess,
		Details: map[string]interface{}{
			"password_expired": result.PasswordExpired,
			"backup_code":      result.UsedBackupCode,
		},
	})
	logger.InfoWithUser(user.ID.String(), "user_login", map[string]interface{}{
		"password_expired": result.PasswordExpired,
	})
	return result, nil
}

// rejectLogin records a failed attempt and returns the error the caller sees.
func (s *AccountService) rejectLogin(ctx context.Context, user *models.User, policy credential.PasswordPolicy, reason string) error {
	lockUntil := s.core.ComputeLockoutExpiration(policy.LockoutDurationMinutes)
	state, err := s.store.RecordFailedLogin(ctx, user.ID, policy.LockoutAttempts, lockUntil)
	if err != nil {
		return fmt.Errorf("record failed login: %w", err)
	}
	s.metrics.LoginAttempts.WithLabelValues(reason).Inc()

	if credential.ShouldLock(state.Attempts, policy) && s.core.IsAccountLocked(state.LockedUntil) {
		s.metrics.AccountLockouts.Inc()
		s.audit.LogAsync(AuditEntry{
			UserID:  &user.ID,
			Action:  AuditActionLockout,
			Outcome: AuditOutcomeFailure,
			Details: map[string]interface{}{"reason": reason, "attempts": state.Attempts},
		})
		logger.WarnWithUser(user.ID.String(), "account_locked", map[string]interface{}{
			"attempts":     state.Attempts,
			"locked_until": state.LockedUntil.UTC().Format(time.RFC3339),
		})
		return &AccountLockedError{Until: *state.LockedUntil}
	}

	s.audit.LogAsync(AuditEntry{
		UserID:  &user.ID,
		Action:  AuditActionLogin,
		Outcome: AuditOutcomeFailure,
		Details: map[string]interface{}{"reason": reason, "attempts": state.Attempts},
	})
	if reason == metrics.ResultInvalidTwoFactor {
		return ErrInvalidTwoFactorCode
	}
	return &InvalidCredentialsError{RemainingAttempts: credential.RemainingAttempts(state.Attempts, policy)}
}

func outcome(ok bool) string {
	if ok {
		return metrics.ResultSuccess
	}
	return metrics.ResultFailure
}

func (s *AccountService) verifySecondFactor(ctx context.Context, user *models.User, code, backup string, result *LoginResult) (bool, error) {
	if code != "" {
		ok := s.core.VerifyTwoFactorToken(code, user.TwoFactorSecret)
		if ok && !s.replay.Claim(user.ID, code) {
			logger.WarnWithUser(user.ID.String(), "totp_replay_rejected", nil)
			ok = false
		}
		s.metrics.TwoFactorVerifications.WithLabelValues(metrics.MethodTOTP, outcome(ok)).Inc()
		result.BackupCodesRemaining = len(user.TwoFactor().BackupCodes)
		return ok, nil
	}

	ok, remaining, err := s.consumeBackupCode(ctx, user, backup)
	if err != nil {
		return false, err
	}
	s.metrics.TwoFactorVerifications.WithLabelValues(metrics.MethodBackup, outcome(ok)).Inc()
	result.BackupCodesRemaining = remaining
	if ok {
		result.UsedBackupCode = true
		s.metrics.BackupCodesConsumed.Inc()
		s.audit.LogAsync(AuditEntry{
			UserID:  &user.ID,
			Action:  AuditActionBackupCodeUsed,
			Outcome: AuditOutcomeSuccess,
			Details: map[string]interface{}{"remaining": remaining},
		})
	}
	return ok, nil
}

// consumeBackupCode removes code from the stored set. The write is guarded
// by the record version; on conflict the record is reloaded and the check is
// repeated, so two concurrent logins cannot both spend the same code.
func (s *AccountService) consumeBackupCode(ctx context.Context, user *models.User, code string) (bool, int, error) {
	for attempt := 0; attempt < s.opts.MaxWriteRetries; attempt++ {
		if attempt > 0 {
			s.metrics.OptimisticRetries.WithLabelValues("consume_backup_code").Inc()
			fresh, err := s.store.FindUserByID(ctx, user.ID)
			if err != nil {
				return false, 0, err
			}
			*user = *fresh
		}

		tf := user.TwoFactor()
		if !tf.IsEnabled() || !s.core.VerifyBackupCode(code, tf.BackupCodes) {
			return false, len(tf.BackupCodes), nil
		}

		remaining := s.core.ConsumeBackupCode(code, tf.BackupCodes)
		user.BackupCodes = s.core.SerializeBackupCodes(remaining)
		err := s.store.UpdateBackupCodes(ctx, user)
		if err == nil {
			return true, len(remaining), nil
		}
		if !errors.Is(err, store.ErrVersionConflict) {
			return false, 0, err
		}
	}
	return false, 0, ErrConcurrentUpdate
}

type ChangePasswordRequest struct {
	UserID          uuid.UUID
	CurrentPassword string
	NewPassword     string
}

// ChangePassword re-authenticates with the current password, enforces the
// policy and history, and clears any lockout.
func (s *AccountService) ChangePassword(ctx context.Context, req ChangePasswordRequest) (credential.Strength, error) {
	user, err := s.loadUser(ctx, req.UserID)
	if err != nil {
		return "", err
	}
	policy := s.policies.For(user.Tenant)

	fail := func(reason string, err error) (credential.Strength, error) {
		s.metrics.PasswordChanges.WithLabelValues(reason).Inc()
		return "", err
	}

	if !s.checkPassword(user, req.CurrentPassword) {
		return fail(metrics.ResultInvalidPassword, ErrInvalidCredentials)
	}
	if s.core.Hasher().Verify(user.PasswordHash, req.NewPassword) {
		return fail(metrics.ResultReused, ErrSamePassword)
	}

	result := s.core.ValidatePassword(req.NewPassword, policy)
	if !result.Valid {
		s.audit.LogAsync(AuditEntry{
			UserID:  &user.ID,
			Action:  AuditActionPasswordChange,
			Outcome: AuditOutcomeFailure,
			Details: map[string]interface{}{"violations": result.Codes()},
		})
		return fail(metrics.ResultPolicyViolation, &PolicyViolationError{Result: result})
	}
	if s.core.IsPasswordReused(req.NewPassword, user.PasswordHistory) {
		return fail(metrics.ResultReused, ErrPasswordReused)
	}

	history, err := s.core.RecordPasswordHistory(req.NewPassword, user.PasswordHistory, policy.HistoryCount)
	if err != nil {
		return "", err
	}
	if len(history) == 0 {
		return "", fmt.Errorf("password history is disabled by policy")
	}

	now := s.core.Now().UTC()
	user.PasswordHash = history[0]
	user.PasswordHistory = history
	user.PasswordChangedAt = &now
	if err := s.store.UpdatePassword(ctx, user); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return fail(metrics.ResultFailure, ErrConcurrentUpdate)
		}
		return "", err
	}

	s.metrics.PasswordChanges.WithLabelValues(metrics.ResultSuccess).Inc()
	s.audit.LogAsync(AuditEntry{
		UserID:  &user.ID,
		Action:  AuditActionPasswordChange,
		Outcome: AuditOutcomeSuccess,
		Details: map[string]interface{}{"strength": string(result.Strength)},
	})
	logger.InfoWithUser(user.ID.String(), "password_changed", nil)
	return result.Strength, nil
}

// BeginTwoFactorSetup generates a secret and backup codes and stores them
// as a pending credential. A previous pending setup is replaced.
func (s *AccountService) BeginTwoFactorSetup(ctx context.Context, userID uuid.UUID) (*credential.TwoFactorSetup, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactor().IsEnabled() {
		return nil, ErrTwoFactorAlreadyEnabled
	}

	setup, err := s.core.SetupTwoFactor(ctx, user.Email, s.opts.Issuer)
	if err != nil {
		logger.ErrorWithUser(user.ID.String(), "two_factor_setup_failed", err, nil)
		return nil, err
	}

	user.SetTwoFactor(setup.Credential)
	user.TwoFactorVerifiedAt = nil
	if err := s.saveTwoFactor(ctx, user); err != nil {
		return nil, err
	}

	s.audit.LogAsync(AuditEntry{
		UserID:  &user.ID,
		Action:  AuditActionTwoFactorSetup,
		Outcome: AuditOutcomeSuccess,
	})
	return setup, nil
}

// ConfirmTwoFactorSetup enables a pending credential once token verifies.
// The confirming code is claimed and cannot be reused to log in.
func (s *AccountService) ConfirmTwoFactorSetup(ctx context.Context, userID uuid.UUID, token string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}

	tf := user.TwoFactor()
	switch tf.State() {
	case credential.TwoFactorEnabled:
		return ErrTwoFactorAlreadyEnabled
	case credential.TwoFactorDisabled:
		return ErrTwoFactorNotPending
	}

	confirmed, ok := tf.Confirm(token, s.core.TOTPConfig(), s.core.Now())
	s.metrics.TwoFactorVerifications.WithLabelValues(metrics.MethodTOTP, outcome(ok)).Inc()
	if !ok {
		s.audit.LogAsync(AuditEntry{
			UserID:  &user.ID,
			Action:  AuditActionTwoFactorEnable,
			Outcome: AuditOutcomeFailure,
		})
		return ErrInvalidTwoFactorCode
	}
	s.replay.Claim(user.ID, strings.TrimSpace(token))

	now := s.core.Now().UTC()
	user.SetTwoFactor(confirmed)
	user.TwoFactorVerifiedAt = &now
	if err := s.saveTwoFactor(ctx, user); err != nil {
		return err
	}

	s.audit.LogAsync(AuditEntry{
		UserID:  &user.ID,
		Action:  AuditActionTwoFactorEnable,
		Outcome: AuditOutcomeSuccess,
	})
	logger.InfoWithUser(user.ID.String(), "two_factor_enabled", nil)
	return nil
}

// DisableTwoFactor removes the secret and all backup codes after a password
// re-authentication. A pending setup is discarded the same way.
func (s *AccountService) DisableTwoFactor(ctx context.Context, userID uuid.UUID, password string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if !s.checkPassword(user, password) {
		return ErrInvalidCredentials
	}

	tf := user.TwoFactor()
	if tf.State() == credential.TwoFactorDisabled {
		return ErrTwoFactorNotEnabled
	}

	user.SetTwoFactor(tf.Disable())
	user.TwoFactorVerifiedAt = nil
	if err := s.saveTwoFactor(ctx, user); err != nil {
		return err
	}

	s.audit.LogAsync(AuditEntry{
		UserID:  &user.ID,
		Action:  AuditActionTwoFactorDisable,
		Outcome: AuditOutcomeSuccess,
	})
	logger.InfoWithUser(user.ID.String(), "two_factor_disabled", nil)
	return nil
}

// RegenerateBackupCodes replaces the whole batch of backup codes. It needs
// the password and an enabled second factor.
func (s *AccountService) RegenerateBackupCodes(ctx context.Context, userID uuid.UUID, password string) ([]string, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !s.checkPassword(user, password) {
		return nil, ErrInvalidCredentials
	}
	if !user.TwoFactor().IsEnabled() {
		return nil, ErrTwoFactorNotEnabled
	}

	codes, err := s.core.GenerateBackupCodes(credential.DefaultBackupCodeCount)
	if err != nil {
		return nil, err
	}
	user.BackupCodes = s.core.SerializeBackupCodes(codes)
	if err := s.store.UpdateBackupCodes(ctx, user); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return nil, ErrConcurrentUpdate
		}
		return nil, err
	}

	s.metrics.BackupCodesRegenerated.Inc()
	s.audit.LogAsync(AuditEntry{
		UserID:  &user.ID,
		Action:  AuditActionBackupCodesRenew,
		Outcome: AuditOutcomeSuccess,
		Details: map[string]interface{}{"count": len(codes)},
	})
	return codes, nil
}

func (s *AccountService) saveTwoFactor(ctx context.Context, user *models.User) error {
	if err := s.store.SaveTwoFactor(ctx, user); err != nil {
		if errors.Is(err, store.ErrVersionConflict) {
			return ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

type TwoFactorStatus struct {
	Enabled              bool       `json:"enabled"`
	State                string     `json:"state"`
	VerifiedAt           *time.Time `json:"verifiedAt,omitempty"`
	BackupCodesRemaining int        `json:"backupCodesRemaining"`
	BackupCodesLow       bool       `json:"backupCodesLow"`
}

func (s *AccountService) TwoFactorStatus(ctx context.Context, userID uuid.UUID) (*TwoFactorStatus, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.twoFactorStatus(user), nil
}

func (s *AccountService) twoFactorStatus(user *models.User) *TwoFactorStatus {
	codes, err := credential.ParseBackupCodes(user.BackupCodes)
	if err != nil {
		logger.WarnWithUser(user.ID.String(), "backup_codes_malformed", map[string]interface{}{
			"error": err.Error(),
		})
	}
	tf := credential.TwoFactorCredential{
		Secret:      user.TwoFactorSecret,
		Enabled:     user.TwoFactorEnabled,
		BackupCodes: codes,
	}
	status := &TwoFactorStatus{
		Enabled: tf.IsEnabled(),
		State:   tf.State().String(),
	}
	if tf.IsEnabled() {
		status.VerifiedAt = user.TwoFactorVerifiedAt
		status.BackupCodesRemaining = len(codes)
		status.BackupCodesLow = len(codes) <= s.opts.BackupCodeWarnThreshold
	}
	return status
}

type AccountStatus struct {
	UserID              uuid.UUID       `json:"userID"`
	Email               string          `json:"email"`
	Tenant              string          `json:"tenant"`
	Active              bool            `json:"active"`
	Locked              bool            `json:"locked"`
	LockedUntil         *time.Time      `json:"lockedUntil,omitempty"`
	FailedLoginAttempts int             `json:"failedLoginAttempts"`
	RemainingAttempts   int             `json:"remainingAttempts"`
	PasswordChangedAt   *time.Time      `json:"passwordChangedAt,omitempty"`
	PasswordExpired     bool            `json:"passwordExpired"`
	DaysUntilExpiration *int            `json:"daysUntilExpiration,omitempty"`
	TwoFactor           TwoFactorStatus `json:"twoFactor"`
}

// Status summarises the hardening state of an account for operators.
func (s *AccountService) Status(ctx context.Context, userID uuid.UUID) (*AccountStatus, error) {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	policy := s.policies.For(user.Tenant)
	locked := s.core.IsAccountLocked(user.LockedUntil)

	status := &AccountStatus{
		UserID:              user.ID,
		Email:               user.Email,
		Tenant:              user.Tenant,
		Active:              user.IsActive,
		Locked:              locked,
		FailedLoginAttempts: user.FailedLoginAttempts,
		RemainingAttempts:   credential.RemainingAttempts(user.FailedLoginAttempts, policy),
		PasswordChangedAt:   user.PasswordChangedAt,
		PasswordExpired:     s.core.IsPasswordExpired(user.PasswordChangedAt, policy.MaxAgeDays),
		DaysUntilExpiration: s.core.DaysUntilPasswordExpires(user.PasswordChangedAt, policy.MaxAgeDays),
		TwoFactor:           *s.twoFactorStatus(user),
	}
	if locked {
		status.LockedUntil = user.LockedUntil
	}
	return status, nil
}

// UnlockAccount clears the failure counter and any lock.
func (s *AccountService) UnlockAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.store.Unlock(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	s.audit.LogAsync(AuditEntry{
		UserID:  &userID,
		Action:  AuditActionUnlock,
		Outcome: AuditOutcomeSuccess,
	})
	logger.InfoWithUser(userID.String(), "account_unlocked", nil)
	return nil
}

// SetActive enables or disables an account. Inactive accounts fail login
// exactly like unknown ones.
func (s *AccountService) SetActive(ctx context.Context, userID uuid.UUID, active bool) error {
	if err := s.store.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return err
	}
	action := AuditActionDeactivate
	if active {
		action = AuditActionActivate
	}
	s.audit.LogAsync(AuditEntry{
		UserID:  &userID,
		Action:  action,
		Outcome: AuditOutcomeSuccess,
	})
	return nil
}
