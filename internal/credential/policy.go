package credential

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

// SpecialChars is the fixed set of characters that satisfy the special
// character rule.
const SpecialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?`

type Strength string

const (
	StrengthWeak   Strength = "weak"
	StrengthMedium Strength = "medium"
	StrengthStrong Strength = "strong"
)

// PasswordPolicy is an immutable rule set. Pass it by value.
type PasswordPolicy struct {
	MinLength              int  `json:"minLength" toml:"min_length" validate:"gt=0"`
	RequireUppercase       bool `json:"requireUppercase" toml:"require_uppercase"`
	RequireLowercase       bool `json:"requireLowercase" toml:"require_lowercase"`
	RequireNumbers         bool `json:"requireNumbers" toml:"require_numbers"`
	RequireSpecialChars    bool `json:"requireSpecialChars" toml:"require_special_chars"`
	MaxAgeDays             int  `json:"maxAgeDays" toml:"max_age_days" validate:"gt=0"`
	HistoryCount           int  `json:"historyCount" toml:"history_count" validate:"gt=0"`
	LockoutAttempts        int  `json:"lockoutAttempts" toml:"lockout_attempts" validate:"gt=0"`
	LockoutDurationMinutes int  `json:"lockoutDurationMinutes" toml:"lockout_duration_minutes" validate:"gt=0"`
}

func DefaultPasswordPolicy() PasswordPolicy {
	return PasswordPolicy{
		MinLength:              12,
		RequireUppercase:       true,
		RequireLowercase:       true,
		RequireNumbers:         true,
		RequireSpecialChars:    true,
		MaxAgeDays:             90,
		HistoryCount:           5,
		LockoutAttempts:        5,
		LockoutDurationMinutes: 30,
	}
}

var policyValidator = validator.New(validator.WithRequiredStructEnabled())

// Validate reports whether every numeric field of the policy is positive.
func (p PasswordPolicy) Validate() error {
	if err := policyValidator.Struct(p); err != nil {
		return fmt.Errorf("invalid password policy: %w", err)
	}
	return nil
}

type ViolationCode string

const (
	ViolationTooShort    ViolationCode = "too_short"
	ViolationNoUppercase ViolationCode = "no_uppercase"
	ViolationNoLowercase ViolationCode = "no_lowercase"
	ViolationNoDigit     ViolationCode = "no_digit"
	ViolationNoSpecial   ViolationCode = "no_special"
)

// ValidationError is a single policy violation. It is reported inside a
// PasswordValidationResult and never returned from ValidatePassword.
type ValidationError struct {
	Code    ViolationCode `json:"code"`
	Message string        `json:"message"`
}

func (e ValidationError) Error() string {
	return e.Message
}

type PasswordValidationResult struct {
	Valid    bool              `json:"valid"`
	Errors   []ValidationError `json:"errors"`
	Strength Strength          `json:"strength"`
}

// Messages returns the violation messages in evaluation order.
func (r PasswordValidationResult) Messages() []string {
	out := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Message
	}
	return out
}

// Codes returns the violation codes in evaluation order.
func (r PasswordValidationResult) Codes() []ViolationCode {
	out := make([]ViolationCode, len(r.Errors))
	for i, e := range r.Errors {
		out[i] = e.Code
	}
	return out
}

// ValidatePassword checks password against every enabled rule of policy and
// scores its strength. Each rule is evaluated independently, so a password
// can collect several violations at once.
func ValidatePassword(password string, policy PasswordPolicy) PasswordValidationResult {
	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= '0' && r <= '9':
			hasDigit = true
		case strings.ContainsRune(SpecialChars, r):
			hasSpecial = true
		}
	}

	length := utf8.RuneCountInString(password)
	errs := make([]ValidationError, 0, 5)
	score := 0

	if length < policy.MinLength {
		errs = append(errs, ValidationError{
			Code:    ViolationTooShort,
			Message: fmt.Sprintf("password must be at least %d characters long", policy.MinLength),
		})
	} else {
		score++
	}

	classes := []struct {
		required bool
		present  bool
		code     ViolationCode
		message  string
	}{
		{policy.RequireUppercase, hasUpper, ViolationNoUppercase, "password must contain at least one uppercase letter"},
		{policy.RequireLowercase, hasLower, ViolationNoLowercase, "password must contain at least one lowercase letter"},
		{policy.RequireNumbers, hasDigit, ViolationNoDigit, "password must contain at least one digit"},
		{policy.RequireSpecialChars, hasSpecial, ViolationNoSpecial, "password must contain at least one special character"},
	}
	for _, c := range classes {
		if c.present {
			score++
			continue
		}
		if c.required {
			errs = append(errs, ValidationError{Code: c.code, Message: c.message})
		}
	}

	if length >= 16 {
		score++
	}
	if length >= 20 {
		score++
	}

	return PasswordValidationResult{
		Valid:    len(errs) == 0,
		Errors:   errs,
		Strength: strengthForScore(score),
	}
}

func strengthForScore(score int) Strength {
	switch {
	case score >= 6:
		return StrengthStrong
	case score >= 4:
		return StrengthMedium
	default:
		return StrengthWeak
	}
}
