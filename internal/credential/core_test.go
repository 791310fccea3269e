package credential

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func newTestCore(now time.Time) *Core {
	return New(
		WithClock(ClockFunc(func() time.Time { return now })),
		WithHasher(NewBcryptHasher(bcrypt.MinCost)),
	)
}

func TestCore_SetupAndConfirmTwoFactor(t *testing.T) {
	core := newTestCore(baseTime)

	setup, err := core.SetupTwoFactor(context.Background(), "alice@example.com", "Research Platform")
	require.NoError(t, err)

	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.ProvisioningURI, "otpauth://totp/")
	assert.NotEmpty(t, setup.QRImage)
	assert.Len(t, setup.BackupCodes, DefaultBackupCodeCount)
	assert.Equal(t, TwoFactorPending, setup.Credential.State())

	assert.False(t, core.ConfirmTwoFactor("000000", otherSecret))

	code, err := GenerateTOTPCode(setup.Secret, core.TOTPConfig(), baseTime)
	require.NoError(t, err)
	assert.True(t, core.ConfirmTwoFactor(code, setup.Secret))
	assert.True(t, core.VerifyTwoFactorToken(code, setup.Secret))

	later := newTestCore(baseTime.Add(5 * time.Minute))
	assert.False(t, later.VerifyTwoFactorToken(code, setup.Secret))
}

func TestCore_SetupTwoFactor_RandomFailure(t *testing.T) {
	core := New(WithClock(ClockFunc(func() time.Time { return baseTime })), WithRandom(emptyReader{}))
	_, err := core.SetupTwoFactor(context.Background(), "alice@example.com", "Research Platform")

	var provErr *ProvisioningError
	require.ErrorAs(t, err, &provErr)
	assert.Equal(t, "generate secret", provErr.Op)
}

type emptyReader struct{}

func (emptyReader) Read([]byte) (int, error) { return 0, context.Canceled }

func TestCore_TemporalDecisionsUseClock(t *testing.T) {
	core := newTestCore(baseTime)

	until := core.ComputeLockoutExpiration(30)
	assert.Equal(t, baseTime.Add(30*time.Minute), until)
	assert.True(t, core.IsAccountLocked(&until))
	assert.False(t, core.IsAccountLocked(timePtr(baseTime.Add(-10*time.Minute))))

	changedAt := baseTime.AddDate(0, 0, -100)
	assert.True(t, core.IsPasswordExpired(&changedAt, 90))
	days := core.DaysUntilPasswordExpires(&changedAt, 90)
	require.NotNil(t, days)
	assert.Equal(t, 0, *days)
}

func TestCore_HistoryAndBackupCodes(t *testing.T) {
	core := newTestCore(baseTime)

	history, err := core.RecordPasswordHistory("NewPassword123!", nil, 5)
	require.NoError(t, err)
	assert.True(t, core.IsPasswordReused("NewPassword123!", history))

	codes, err := core.GenerateBackupCodes(10)
	require.NoError(t, err)
	stored := core.SerializeBackupCodes(codes)
	restored := core.DeserializeBackupCodes(stored)
	assert.Equal(t, codes, restored)

	assert.True(t, core.VerifyBackupCode(codes[3], restored))
	remaining := core.ConsumeBackupCode(codes[3], restored)
	assert.Len(t, remaining, 9)
	assert.False(t, core.VerifyBackupCode(codes[3], remaining))

	result := core.ValidatePassword("StrongPass123!@#", DefaultPasswordPolicy())
	assert.True(t, result.Valid)
	assert.Equal(t, StrengthStrong, result.Strength)
}
