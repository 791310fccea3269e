package credential

import "time"

// IsAccountLocked reports whether lockedUntil is set and strictly after now.
// There is no timer: an expired lock simply reads as unlocked.
func IsAccountLocked(lockedUntil *time.Time, now time.Time) bool {
	return lockedUntil != nil && lockedUntil.After(now)
}

func ComputeLockoutExpiration(durationMinutes int, now time.Time) time.Time {
	return now.Add(time.Duration(durationMinutes) * time.Minute)
}

// LockoutRemaining returns how long the lock still holds, or zero.
func LockoutRemaining(lockedUntil *time.Time, now time.Time) time.Duration {
	if !IsAccountLocked(lockedUntil, now) {
		return 0
	}
	return lockedUntil.Sub(now)
}

// ShouldLock reports whether a failed-attempt count has reached the policy
// threshold. The count itself is owned by the identity store.
func ShouldLock(failedAttempts int, policy PasswordPolicy) bool {
	return failedAttempts >= policy.LockoutAttempts
}

func RemainingAttempts(failedAttempts int, policy PasswordPolicy) int {
	remaining := policy.LockoutAttempts - failedAttempts
	if remaining < 0 {
		return 0
	}
	return remaining
}
