package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/credguard/backend/internal/credential"
	"github.com/credguard/backend/internal/models"
	"github.com/credguard/backend/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 1, 6, 12, 0, 0, 0, time.UTC)

func TestRelativeTime(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want string
	}{
		{"just now", now.Add(-10 * time.Second), "just now"},
		{"minutes ago", now.Add(-5 * time.Minute), "5m ago"},
		{"hours ago", now.Add(-3 * time.Hour), "3h ago"},
		{"days ago", now.Add(-7 * 24 * time.Hour), "7d ago"},
		{"old date", now.Add(-60 * 24 * time.Hour), "2025-11-07"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RelativeTime(tt.t, now))
		})
	}
}

func TestExpiry(t *testing.T) {
	one, ten := 1, 10
	assert.Equal(t, "expired", Expiry(true, nil))
	assert.Equal(t, "never", Expiry(false, nil))
	assert.Equal(t, "in 1 day", Expiry(false, &one))
	assert.Equal(t, "in 10 days", Expiry(false, &ten))
}

func TestPasswordReport(t *testing.T) {
	var buf bytes.Buffer
	PasswordReport(&buf, credential.ValidatePassword("short", credential.DefaultPasswordPolicy()))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Password rejected (strength: weak)"))
	assert.Contains(t, out, "at least 12 characters")
}

func TestBackupCodes_OddCount(t *testing.T) {
	var buf bytes.Buffer
	BackupCodes(&buf, []string{"11111111", "22222222", "33333333"})
	assert.Equal(t, "Backup codes (each works once):\n  11111111  22222222\n  33333333\n", buf.String())
}

func TestAccountStatus(t *testing.T) {
	until := now.Add(10 * time.Minute)
	days := 42
	var buf bytes.Buffer
	AccountStatus(&buf, &services.AccountStatus{
		UserID:              uuid.New(),
		Email:               "alice@example.com",
		Active:              true,
		Locked:              true,
		LockedUntil:         &until,
		DaysUntilExpiration: &days,
		TwoFactor:           services.TwoFactorStatus{Enabled: true, State: "enabled", BackupCodesRemaining: 2, BackupCodesLow: true},
	}, now)

	out := buf.String()
	assert.Contains(t, out, "yes, 10m0s remaining")
	assert.Contains(t, out, "in 42 days")
	assert.Contains(t, out, "2 (low)")
}

func TestAuditTable(t *testing.T) {
	var buf bytes.Buffer
	AuditTable(&buf, nil, now)
	assert.Equal(t, "No audit entries found.\n", buf.String())

	buf.Reset()
	id := uuid.New()
	AuditTable(&buf, []models.AuditLog{{UserID: &id, Action: "user.login", Outcome: "success", CreatedAt: now.Add(-2 * time.Hour)}}, now)
	assert.Contains(t, buf.String(), "user.login")
	assert.Contains(t, buf.String(), "2h ago")
	assert.Contains(t, buf.String(), id.String())
}

func TestJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSON(&buf, map[string]int{"remaining": 3}))
	assert.Equal(t, "{\n  \"remaining\": 3\n}\n", buf.String())
}
