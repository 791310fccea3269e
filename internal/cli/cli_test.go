package cli

import (
	"bytes"
	"encoding/json"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/credguard/backend/internal/credential"
	"github.com/credguard/backend/internal/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const strongPassword = "StrongPass123!@#"

type cliEnv struct {
	dbPath string
}

func setupCLI(t *testing.T) *cliEnv {
	t.Helper()
	t.Setenv("CREDGUARD_DB_DRIVER", "sqlite")
	t.Setenv("CREDGUARD_SECURITY_BCRYPT_COST", "4")
	t.Setenv("CREDGUARD_SECURITY_SEALING_SECRET", "cli-test-sealing-secret")
	t.Setenv("CREDGUARD_LOG_LEVEL", "error")
	t.Setenv("CREDGUARD_POLICY_FILE", "")
	return &cliEnv{dbPath: filepath.Join(t.TempDir(), "credguard.db")}
}

// run executes one credctl invocation, as a separate process would.
func (e *cliEnv) run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root, a := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--sqlite", e.dbPath}, args...))
	err := root.Execute()
	a.close()
	return out.String(), err
}

func decodeJSON(t *testing.T, s string, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal([]byte(s), v), s)
}

func TestVersion(t *testing.T) {
	env := setupCLI(t)
	out, err := env.run(t, "", "version")
	require.NoError(t, err)
	assert.Equal(t, "credctl dev\n", out)
}

func TestPasswordCheck(t *testing.T) {
	env := setupCLI(t)

	tests := []struct {
		name     string
		password string
		wantErr  bool
		contains string
	}{
		{"strong password", strongPassword, false, "Password ok (strength: strong)"},
		{"too short", "Ab1!", true, "at least 12 characters"},
		{"no special", "NoSpecialChars123", true, "special character"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := env.run(t, tt.password+"\n", "password", "check")
			if tt.wantErr {
				assert.ErrorIs(t, err, errPasswordRejected)
			} else {
				assert.NoError(t, err)
			}
			assert.Contains(t, out, tt.contains)
		})
	}
}

func TestPasswordCheck_JSON(t *testing.T) {
	env := setupCLI(t)
	out, err := env.run(t, "weak", "--json", "password", "check")
	require.ErrorIs(t, err, errPasswordRejected)

	var result credential.PasswordValidationResult
	decodeJSON(t, out, &result)
	assert.False(t, result.Valid)
	assert.Contains(t, result.Codes(), credential.ViolationTooShort)
	assert.Equal(t, credential.StrengthWeak, result.Strength)
}

func TestPolicyShow(t *testing.T) {
	env := setupCLI(t)
	out, err := env.run(t, "", "--json", "policy", "show")
	require.NoError(t, err)

	var p credential.PasswordPolicy
	decodeJSON(t, out, &p)
	assert.Equal(t, credential.DefaultPasswordPolicy(), p)
}

func TestBackupCodesGenerate(t *testing.T) {
	env := setupCLI(t)
	out, err := env.run(t, "", "--json", "backup-codes", "generate", "--count", "3")
	require.NoError(t, err)

	var codes []string
	decodeJSON(t, out, &codes)
	assert.Len(t, codes, 3)
	for _, c := range codes {
		assert.Len(t, c, 8)
	}

	_, err = env.run(t, "", "backup-codes", "generate", "--count", "0")
	assert.ErrorIs(t, err, credential.ErrInvalidBackupCodeCount)
}

func TestTOTPCodeAndVerify(t *testing.T) {
	env := setupCLI(t)
	secret := "JBSWY3DPEHPK3PXPJBSWY3DPEHPK3PXP"

	code, err := env.run(t, secret+"\n", "totp", "code")
	require.NoError(t, err)
	code = strings.TrimSpace(code)
	assert.Len(t, code, 6)

	out, err := env.run(t, secret+"\n", "totp", "verify", code)
	require.NoError(t, err)
	assert.Equal(t, "Code accepted\n", out)

	_, err = env.run(t, "GEZDGNBVGY3TQOJQGEZDGNBVGY3TQOJQ\n", "totp", "verify", code)
	assert.ErrorIs(t, err, errCodeRejected)
}

func TestTOTPNew_WritesQRCode(t *testing.T) {
	env := setupCLI(t)
	qr := filepath.Join(t.TempDir(), "qr.png")

	out, err := env.run(t, "", "--json", "totp", "new", "--label", "alice@example.com", "--qr", qr)
	require.NoError(t, err)

	var setup struct {
		Secret          string   `json:"secret"`
		ProvisioningURI string   `json:"provisioningURI"`
		BackupCodes     []string `json:"backupCodes"`
	}
	decodeJSON(t, out, &setup)
	assert.NotEmpty(t, setup.Secret)
	assert.Contains(t, setup.ProvisioningURI, "issuer=Credguard")
	assert.Len(t, setup.BackupCodes, credential.DefaultBackupCodeCount)
	assert.FileExists(t, qr)
}

func TestAccountLifecycle(t *testing.T) {
	env := setupCLI(t)
	const email = "alice@example.com"

	out, err := env.run(t, "", "migrate")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite")

	out, err = env.run(t, strongPassword+"\n", "account", "create", email)
	require.NoError(t, err)
	assert.Contains(t, out, "Created alice@example.com")

	_, err = env.run(t, "short\n", "account", "create", "bob@example.com")
	var violation *services.PolicyViolationError
	assert.ErrorAs(t, err, &violation)

	_, err = env.run(t, "WrongPassword1!\n", "account", "login", email)
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)

	out, err = env.run(t, "", "--json", "account", "status", email)
	require.NoError(t, err)
	var st services.AccountStatus
	decodeJSON(t, out, &st)
	assert.Equal(t, 1, st.FailedLoginAttempts)
	assert.Equal(t, 4, st.RemainingAttempts)
	assert.Equal(t, "disabled", st.TwoFactor.State)

	out, err = env.run(t, "", "account", "unlock", email)
	require.NoError(t, err)
	assert.Equal(t, "Unlocked alice@example.com\n", out)

	out, err = env.run(t, strongPassword+"\n", "account", "login", email)
	require.NoError(t, err)
	assert.Contains(t, out, "Login:")

	_, err = env.run(t, "", "account", "disable", email)
	require.NoError(t, err)
	_, err = env.run(t, strongPassword+"\n", "account", "login", email)
	assert.ErrorIs(t, err, services.ErrInvalidCredentials)
	_, err = env.run(t, "", "account", "enable", email)
	require.NoError(t, err)

	out, err = env.run(t, strongPassword+"\nAnotherStrong456$%\n", "account", "passwd", email)
	require.NoError(t, err)
	assert.Contains(t, out, "Password changed")

	_, err = env.run(t, "AnotherStrong456$%\n"+strongPassword+"\n", "account", "passwd", email)
	assert.ErrorIs(t, err, services.ErrPasswordReused)

	_, err = env.run(t, "", "account", "status", "nobody@example.com")
	assert.ErrorIs(t, err, services.ErrUserNotFound)
}

func TestAccountLockout(t *testing.T) {
	env := setupCLI(t)
	const email = "carol@example.com"
	_, err := env.run(t, strongPassword+"\n", "account", "create", email)
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		_, err = env.run(t, "WrongPassword1!\n", "account", "login", email)
		require.ErrorIs(t, err, services.ErrInvalidCredentials)
	}
	_, err = env.run(t, "WrongPassword1!\n", "account", "login", email)
	var locked *services.AccountLockedError
	require.ErrorAs(t, err, &locked)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), locked.Until, time.Minute)
	assert.Contains(t, err.Error(), "retry in 30m0s")

	_, err = env.run(t, strongPassword+"\n", "account", "login", email)
	assert.ErrorAs(t, err, &locked, "correct password is refused while locked")
}

func TestTwoFactorLifecycle(t *testing.T) {
	env := setupCLI(t)
	const email = "dave@example.com"
	_, err := env.run(t, strongPassword+"\n", "account", "create", email)
	require.NoError(t, err)

	out, err := env.run(t, "", "--json", "2fa", "setup", email)
	require.NoError(t, err)
	var setup struct {
		Secret      string   `json:"secret"`
		BackupCodes []string `json:"backupCodes"`
	}
	decodeJSON(t, out, &setup)
	require.Len(t, setup.BackupCodes, credential.DefaultBackupCodeCount)

	out, err = env.run(t, "", "--json", "2fa", "status", email)
	require.NoError(t, err)
	var st services.TwoFactorStatus
	decodeJSON(t, out, &st)
	assert.Equal(t, "pending", st.State)

	_, err = env.run(t, "", "2fa", "confirm", email, "000000")
	assert.ErrorIs(t, err, services.ErrInvalidTwoFactorCode)

	code, err := credential.GenerateTOTPCode(setup.Secret, credential.DefaultTOTPConfig(), time.Now())
	require.NoError(t, err)
	out, err = env.run(t, "", "2fa", "confirm", email, code)
	require.NoError(t, err)
	assert.Equal(t, "Two-factor authentication enabled\n", out)

	_, err = env.run(t, strongPassword+"\n", "account", "login", email)
	assert.ErrorIs(t, err, services.ErrTwoFactorRequired)

	out, err = env.run(t, strongPassword+"\n", "--json", "account", "login", email, "--backup-code", setup.BackupCodes[0])
	require.NoError(t, err)
	var login map[string]interface{}
	decodeJSON(t, out, &login)
	assert.Equal(t, true, login["usedBackupCode"])
	assert.Equal(t, float64(9), login["backupCodesRemaining"])

	_, err = env.run(t, strongPassword+"\n", "account", "login", email, "--backup-code", setup.BackupCodes[0])
	assert.ErrorIs(t, err, services.ErrInvalidTwoFactorCode, "backup codes are single use")

	out, err = env.run(t, strongPassword+"\n", "--json", "2fa", "regenerate-codes", email)
	require.NoError(t, err)
	var codes []string
	decodeJSON(t, out, &codes)
	assert.Len(t, codes, credential.DefaultBackupCodeCount)

	out, err = env.run(t, strongPassword+"\n", "2fa", "disable", email)
	require.NoError(t, err)
	assert.Equal(t, "Two-factor authentication disabled\n", out)

	_, err = env.run(t, strongPassword+"\n", "account", "login", email)
	assert.NoError(t, err)

	out, err = env.run(t, "", "audit", "list", email)
	require.NoError(t, err)
	assert.Contains(t, out, services.AuditActionTwoFactorEnable)
	assert.Contains(t, out, services.AuditActionBackupCodeUsed)
}
