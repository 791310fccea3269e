package credential

import (
	"context"
	"encoding/base32"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"
)

// TOTPConfig is passed by value into every TOTP call so several
// configurations (per tenant, per policy) can be used side by side.
type TOTPConfig struct {
	Period        uint          `toml:"period_seconds"`
	Skew          uint          `toml:"window_tolerance"`
	Digits        otp.Digits    `toml:"digits"`
	Algorithm     otp.Algorithm `toml:"-"`
	SecretSize    uint          `toml:"secret_size"`
	RenderTimeout time.Duration `toml:"-"`
	QRSize        int           `toml:"qr_size"`
}

func DefaultTOTPConfig() TOTPConfig {
	return TOTPConfig{
		Period:        30,
		Skew:          1,
		Digits:        otp.DigitsSix,
		Algorithm:     otp.AlgorithmSHA1,
		SecretSize:    20,
		RenderTimeout: 5 * time.Second,
		QRSize:        256,
	}
}

func (c TOTPConfig) validateOpts() totp.ValidateOpts {
	return totp.ValidateOpts{
		Period:    c.Period,
		Skew:      c.Skew,
		Digits:    c.Digits,
		Algorithm: c.Algorithm,
	}
}

// minSecretSize keeps generated secrets at or above 160 bits.
const minSecretSize = 20

var b32NoPadding = base32.StdEncoding.WithPadding(base32.NoPadding)

// AcceptanceWindow is how long a single code can be accepted: 2*Skew+1 steps.
func (c TOTPConfig) AcceptanceWindow() time.Duration {
	return time.Duration(2*c.Skew+1) * time.Duration(c.Period) * time.Second
}

// GenerateTOTPKey creates a fresh key for label and issuer with a secret read
// from r.
func GenerateTOTPKey(r io.Reader, cfg TOTPConfig, label, issuer string) (*otp.Key, error) {
	size := cfg.SecretSize
	if size < minSecretSize {
		size = minSecretSize
	}
	if r != nil {
		r = fullReader{r}
	}
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: label,
		Period:      cfg.Period,
		SecretSize:  size,
		Digits:      cfg.Digits,
		Algorithm:   cfg.Algorithm,
		Rand:        r,
	})
	if err != nil {
		return nil, fmt.Errorf("generating totp key: %w", err)
	}
	return key, nil
}

// fullReader fails a short read instead of leaving part of the secret zeroed.
type fullReader struct{ r io.Reader }

func (f fullReader) Read(p []byte) (int, error) { return io.ReadFull(f.r, p) }

// GenerateTOTPSecret returns the base32 secret of a new key for label.
func GenerateTOTPSecret(r io.Reader, cfg TOTPConfig, label, issuer string) (string, error) {
	key, err := GenerateTOTPKey(r, cfg, label, issuer)
	if err != nil {
		return "", err
	}
	return key.Secret(), nil
}

func decodeSecret(secret string) ([]byte, error) {
	cleaned := strings.ToUpper(strings.TrimRight(strings.TrimSpace(secret), "="))
	if cleaned == "" {
		return nil, errors.New("empty secret")
	}
	raw, err := b32NoPadding.DecodeString(cleaned)
	if err != nil {
		return nil, errors.New("secret is not valid base32")
	}
	return raw, nil
}

// Provisioning is what an authenticator app needs to enrol a secret.
type Provisioning struct {
	URI     string
	QRImage []byte
}

// ProvisionTOTP builds the otpauth:// URI for an existing secret and renders
// it to a QR code. Every failure is a *ProvisioningError.
func ProvisionTOTP(ctx context.Context, cfg TOTPConfig, renderer QRRenderer, secret, label, issuer string) (*Provisioning, error) {
	raw, err := decodeSecret(secret)
	if err != nil {
		return nil, &ProvisioningError{Op: "decode secret", Err: err}
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: label,
		Period:      cfg.Period,
		Secret:      raw,
		Digits:      cfg.Digits,
		Algorithm:   cfg.Algorithm,
	})
	if err != nil {
		return nil, &ProvisioningError{Op: "build uri", Err: err}
	}
	return provisionKey(ctx, cfg, renderer, key)
}

func provisionKey(ctx context.Context, cfg TOTPConfig, renderer QRRenderer, key *otp.Key) (*Provisioning, error) {
	image, err := renderWithTimeout(ctx, renderer, key.URL(), cfg.QRSize, cfg.RenderTimeout)
	if err != nil {
		return nil, &ProvisioningError{Op: "render qr", Err: err}
	}
	return &Provisioning{URI: key.URL(), QRImage: image}, nil
}

// VerifyTOTP reports whether token is the code for secret in any of the
// 2*Skew+1 time steps centred on now. Malformed tokens or secrets are simply
// not valid.
func VerifyTOTP(token, secret string, cfg TOTPConfig, now time.Time) bool {
	token = strings.TrimSpace(token)
	if token == "" || strings.TrimSpace(secret) == "" {
		return false
	}
	ok, err := totp.ValidateCustom(token, secret, now, cfg.validateOpts())
	if err != nil {
		return false
	}
	return ok
}

// GenerateTOTPCode returns the code for secret at t.
func GenerateTOTPCode(secret string, cfg TOTPConfig, t time.Time) (string, error) {
	return totp.GenerateCodeCustom(secret, t, cfg.validateOpts())
}
