package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/credguard/backend/internal/credential"
	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"github.com/pquerna/otp"
)

// EnvPrefix is prepended to every variable, e.g. CREDGUARD_DB_HOST.
const EnvPrefix = "CREDGUARD"

type Config struct {
	DB         DBConfig
	Security   SecurityConfig
	TOTP       TOTPConfig
	Log        LogConfig
	Audit      AuditConfig
	PolicyFile string `split_words:"true"`
}

type DBConfig struct {
	Driver   string `default:"postgres" validate:"oneof=postgres sqlite"`
	Host     string `default:"localhost"`
	Port     string `default:"5432"`
	User     string `default:"credguard"`
	Password string
	Name     string `default:"credguard"`
	SSLMode  string `default:"disable"`
	Path     string `default:"credguard.db"`
}

type SecurityConfig struct {
	BcryptCost    int    `split_words:"true" default:"12" validate:"gte=4,lte=31"`
	SealingSecret string `split_words:"true"`
	// ReplayWindow bounds how long an accepted TOTP code stays unusable.
	ReplayWindow            time.Duration `split_words:"true" default:"90s" validate:"gt=0"`
	BackupCodeWarnThreshold int           `split_words:"true" default:"2" validate:"gte=0"`
	MaxWriteRetries         int           `split_words:"true" default:"3" validate:"gte=1"`
}

type TOTPConfig struct {
	Issuer        string        `default:"Credguard" validate:"required"`
	Period        uint          `default:"30" validate:"gt=0"`
	Skew          uint          `default:"1"`
	Digits        int           `default:"6" validate:"oneof=6 8"`
	SecretSize    uint          `split_words:"true" default:"20" validate:"gte=20"`
	QRSize        int           `split_words:"true" default:"256" validate:"gt=0"`
	RenderTimeout time.Duration `split_words:"true" default:"5s" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `default:"info" validate:"oneof=debug info warn error"`
	Format string `default:"json" validate:"oneof=json console"`
}

type AuditConfig struct {
	QueueSize int `split_words:"true" default:"1000" validate:"gt=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads the environment and validates the result.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		var validationErrors validator.ValidationErrors
		if !errors.As(err, &validationErrors) {
			return err
		}
		msgs := make([]string, 0, len(validationErrors))
		for _, fe := range validationErrors {
			msgs = append(msgs, fmt.Sprintf("field '%s' failed validation: %s", fe.Namespace(), fe.Tag()))
		}
		return fmt.Errorf("invalid configuration: %s", strings.Join(msgs, ", "))
	}
	return nil
}

func (c DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host,
		c.Port,
		c.User,
		c.Password,
		c.Name,
		c.SSLMode,
	)
}

// Credential converts the environment settings into the core TOTP parameters.
func (c TOTPConfig) Credential() credential.TOTPConfig {
	cfg := credential.DefaultTOTPConfig()
	cfg.Period = c.Period
	cfg.Skew = c.Skew
	cfg.Digits = otp.Digits(c.Digits)
	cfg.SecretSize = c.SecretSize
	cfg.QRSize = c.QRSize
	cfg.RenderTimeout = c.RenderTimeout
	return cfg
}
