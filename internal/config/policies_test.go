package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/credguard/backend/internal/credential"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePolicies = `
[default]
min_length = 14
history_count = 8

[tenants.research]
max_age_days = 60
require_special_chars = false

[tenants.kiosk]
lockout_attempts = 3
lockout_duration_minutes = 60
`

func TestParsePolicies_Inheritance(t *testing.T) {
	p, err := ParsePolicies(samplePolicies)
	require.NoError(t, err)

	builtin := credential.DefaultPasswordPolicy()
	assert.Equal(t, 14, p.Default.MinLength)
	assert.Equal(t, 8, p.Default.HistoryCount)
	assert.Equal(t, builtin.MaxAgeDays, p.Default.MaxAgeDays)

	research := p.For("research")
	assert.Equal(t, 14, research.MinLength, "inherits from [default]")
	assert.Equal(t, 60, research.MaxAgeDays)
	assert.False(t, research.RequireSpecialChars)
	assert.True(t, research.RequireUppercase)

	kiosk := p.For("kiosk")
	assert.Equal(t, 3, kiosk.LockoutAttempts)
	assert.Equal(t, 60, kiosk.LockoutDurationMinutes)

	assert.Equal(t, p.Default, p.For("unknown"))
	assert.Equal(t, []string{"kiosk", "research"}, p.TenantNames())
}

func TestParsePolicies_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "syntax", doc: "[default\nmin_length = 3"},
		{name: "non-positive default", doc: "[default]\nmin_length = 0"},
		{name: "non-positive tenant", doc: "[tenants.a]\nhistory_count = -1"},
		{name: "unknown key", doc: "[default]\nmin_lenght = 12"},
		{name: "wrong type", doc: "[default]\nmin_length = \"twelve\""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePolicies(tt.doc)
			assert.Error(t, err)
		})
	}
}

func TestParsePolicies_Empty(t *testing.T) {
	p, err := ParsePolicies("")
	require.NoError(t, err)
	assert.Equal(t, credential.DefaultPasswordPolicy(), p.Default)
	assert.Empty(t, p.Tenants)
}

func TestLoadPolicies(t *testing.T) {
	p, err := LoadPolicies("")
	require.NoError(t, err)
	assert.Equal(t, credential.DefaultPasswordPolicy(), p.For("any"))

	path := filepath.Join(t.TempDir(), "policies.toml")
	require.NoError(t, os.WriteFile(path, []byte(samplePolicies), 0o600))
	p, err = LoadPolicies(path)
	require.NoError(t, err)
	assert.Equal(t, 60, p.For("research").MaxAgeDays)

	_, err = LoadPolicies(filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)
}

func TestPolicies_NilFallsBackToDefault(t *testing.T) {
	var p *Policies
	assert.Equal(t, credential.DefaultPasswordPolicy(), p.For("x"))
}
