package credential

import (
	"context"
	"crypto/rand"
	"io"
	"time"
)

// Clock is the wall clock used for every temporal decision.
type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Core binds the collaborators the credential functions need: a clock, a
// secure random source, a salted hasher and a QR renderer. A Core holds no
// mutable state and is safe for concurrent use.
type Core struct {
	clock    Clock
	random   io.Reader
	hasher   Hasher
	renderer QRRenderer
	totp     TOTPConfig
}

type Option func(*Core)

func WithClock(c Clock) Option {
	return func(core *Core) { core.clock = c }
}

func WithRandom(r io.Reader) Option {
	return func(core *Core) { core.random = r }
}

func WithHasher(h Hasher) Option {
	return func(core *Core) { core.hasher = h }
}

func WithRenderer(r QRRenderer) Option {
	return func(core *Core) { core.renderer = r }
}

func WithTOTPConfig(cfg TOTPConfig) Option {
	return func(core *Core) { core.totp = cfg }
}

func New(opts ...Option) *Core {
	c := &Core{
		clock:    SystemClock{},
		random:   rand.Reader,
		hasher:   NewBcryptHasher(0),
		renderer: PNGRenderer{},
		totp:     DefaultTOTPConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Core) Now() time.Time { return c.clock.Now() }

func (c *Core) TOTPConfig() TOTPConfig { return c.totp }

func (c *Core) Hasher() Hasher { return c.hasher }

func (c *Core) ValidatePassword(password string, policy PasswordPolicy) PasswordValidationResult {
	return ValidatePassword(password, policy)
}

func (c *Core) IsPasswordReused(password string, history []string) bool {
	return IsPasswordReused(c.hasher, password, history)
}

func (c *Core) RecordPasswordHistory(password string, history []string, maxCount int) ([]string, error) {
	return RecordPasswordHistory(c.hasher, password, history, maxCount)
}

func (c *Core) IsPasswordExpired(changedAt *time.Time, maxAgeDays int) bool {
	return IsPasswordExpired(changedAt, maxAgeDays, c.clock.Now())
}

func (c *Core) DaysUntilPasswordExpires(changedAt *time.Time, maxAgeDays int) *int {
	return DaysUntilPasswordExpires(changedAt, maxAgeDays, c.clock.Now())
}

func (c *Core) IsAccountLocked(lockedUntil *time.Time) bool {
	return IsAccountLocked(lockedUntil, c.clock.Now())
}

func (c *Core) ComputeLockoutExpiration(durationMinutes int) time.Time {
	return ComputeLockoutExpiration(durationMinutes, c.clock.Now())
}

// TwoFactorSetup is the outcome of starting enrolment. Credential is Pending:
// persist it as such and enable it only after ConfirmTwoFactor succeeds.
type TwoFactorSetup struct {
	Secret          string
	ProvisioningURI string
	QRImage         []byte
	BackupCodes     []string
	Credential      TwoFactorCredential
}

func (c *Core) SetupTwoFactor(ctx context.Context, label, issuer string) (*TwoFactorSetup, error) {
	key, err := GenerateTOTPKey(c.random, c.totp, label, issuer)
	if err != nil {
		return nil, &ProvisioningError{Op: "generate secret", Err: err}
	}
	secret := key.Secret()

	prov, err := provisionKey(ctx, c.totp, c.renderer, key)
	if err != nil {
		return nil, err
	}

	codes, err := GenerateBackupCodes(c.random, DefaultBackupCodeCount)
	if err != nil {
		return nil, &ProvisioningError{Op: "generate backup codes", Err: err}
	}

	return &TwoFactorSetup{
		Secret:          secret,
		ProvisioningURI: prov.URI,
		QRImage:         prov.QRImage,
		BackupCodes:     codes,
		Credential:      NewPendingTwoFactor(secret, codes),
	}, nil
}

// ConfirmTwoFactor is the Pending -> Enabled gate: it verifies the first
// token produced by a freshly enrolled authenticator.
func (c *Core) ConfirmTwoFactor(token, secret string) bool {
	return VerifyTOTP(token, secret, c.totp, c.clock.Now())
}

func (c *Core) VerifyTwoFactorToken(token, secret string) bool {
	return VerifyTOTP(token, secret, c.totp, c.clock.Now())
}

func (c *Core) GenerateBackupCodes(count int) ([]string, error) {
	return GenerateBackupCodes(c.random, count)
}

func (c *Core) VerifyBackupCode(code string, codes []string) bool {
	return VerifyBackupCode(code, codes)
}

func (c *Core) ConsumeBackupCode(code string, codes []string) []string {
	return ConsumeBackupCode(code, codes)
}

func (c *Core) SerializeBackupCodes(codes []string) string {
	return SerializeBackupCodes(codes)
}

func (c *Core) DeserializeBackupCodes(stored string) []string {
	return DeserializeBackupCodes(stored)
}
