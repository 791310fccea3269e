package credential

import (
	"math"
	"time"
)

const day = 24 * time.Hour

// PasswordExpiresAt returns changedAt plus maxAgeDays days, or nil when the
// password has no recorded change time. Days are counted in UTC so every day
// is exactly 24h, matching DaysUntilPasswordExpires.
func PasswordExpiresAt(changedAt *time.Time, maxAgeDays int) *time.Time {
	if changedAt == nil {
		return nil
	}
	expires := changedAt.UTC().AddDate(0, 0, maxAgeDays)
	return &expires
}

// IsPasswordExpired reports whether now is past the expiry of a password
// changed at changedAt. A nil changedAt never expires.
func IsPasswordExpired(changedAt *time.Time, maxAgeDays int, now time.Time) bool {
	expires := PasswordExpiresAt(changedAt, maxAgeDays)
	if expires == nil {
		return false
	}
	return now.After(*expires)
}

// DaysUntilPasswordExpires returns the whole days left before expiry, rounded
// up and never negative. It returns nil when changedAt is nil.
func DaysUntilPasswordExpires(changedAt *time.Time, maxAgeDays int, now time.Time) *int {
	expires := PasswordExpiresAt(changedAt, maxAgeDays)
	if expires == nil {
		return nil
	}

	days := 0
	if remaining := expires.Sub(now); remaining > 0 {
		days = int(math.Ceil(float64(remaining) / float64(day)))
	}
	return &days
}
