package credential

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTwoFactorCredential_State(t *testing.T) {
	tests := []struct {
		name        string
		cred        TwoFactorCredential
		wantState   TwoFactorState
		wantEnabled bool
	}{
		{"zero value", TwoFactorCredential{}, TwoFactorDisabled, false},
		{"pending", NewPendingTwoFactor(testSecret, []string{"12345678"}), TwoFactorPending, false},
		{"enabled", TwoFactorCredential{Secret: testSecret, Enabled: true}, TwoFactorEnabled, true},
		{"enabled flag without secret", TwoFactorCredential{Enabled: true}, TwoFactorDisabled, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantState, tt.cred.State())
			assert.Equal(t, tt.wantEnabled, tt.cred.IsEnabled())
		})
	}
}

func TestIsTwoFactorEnabled(t *testing.T) {
	assert.True(t, IsTwoFactorEnabled(true, testSecret))
	assert.False(t, IsTwoFactorEnabled(true, ""))
	assert.False(t, IsTwoFactorEnabled(false, testSecret))
}

func TestTwoFactorCredential_Confirm(t *testing.T) {
	cfg := DefaultTOTPConfig()
	code, err := GenerateTOTPCode(testSecret, cfg, baseTime)
	require.NoError(t, err)

	pending := NewPendingTwoFactor(testSecret, []string{"12345678", "87654321"})

	t.Run("wrong token keeps pending", func(t *testing.T) {
		wrong, err := GenerateTOTPCode(otherSecret, cfg, baseTime)
		require.NoError(t, err)
		got, ok := pending.Confirm(wrong, cfg, baseTime)
		assert.False(t, ok)
		assert.Equal(t, TwoFactorPending, got.State())
	})

	t.Run("valid token enables", func(t *testing.T) {
		got, ok := pending.Confirm(code, cfg, baseTime)
		require.True(t, ok)
		assert.Equal(t, TwoFactorEnabled, got.State())
		assert.Equal(t, pending.BackupCodes, got.BackupCodes)
		assert.Equal(t, TwoFactorPending, pending.State(), "receiver is not mutated")
	})

	t.Run("already enabled is not re-confirmed", func(t *testing.T) {
		enabled := TwoFactorCredential{Secret: testSecret, Enabled: true}
		_, ok := enabled.Confirm(code, cfg, baseTime)
		assert.False(t, ok)
	})

	t.Run("disabled cannot be confirmed", func(t *testing.T) {
		_, ok := TwoFactorCredential{}.Confirm(code, cfg, baseTime)
		assert.False(t, ok)
	})
}

func TestTwoFactorCredential_Disable(t *testing.T) {
	cred := TwoFactorCredential{Secret: testSecret, Enabled: true, BackupCodes: []string{"12345678"}}
	disabled := cred.Disable()
	assert.Equal(t, TwoFactorDisabled, disabled.State())
	assert.Empty(t, disabled.Secret)
	assert.Empty(t, disabled.BackupCodes)
}

func TestTwoFactorState_String(t *testing.T) {
	assert.Equal(t, "disabled", TwoFactorDisabled.String())
	assert.Equal(t, "pending", TwoFactorPending.String())
	assert.Equal(t, "enabled", TwoFactorEnabled.String())
}
