package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "credguard"

// Metrics holds the credential-hardening counters.
type Metrics struct {
	LoginAttempts          *prometheus.CounterVec
	AccountLockouts        prometheus.Counter
	TwoFactorVerifications *prometheus.CounterVec
	PasswordChanges        *prometheus.CounterVec
	BackupCodesConsumed    prometheus.Counter
	BackupCodesRegenerated prometheus.Counter
	OptimisticRetries      *prometheus.CounterVec
}

// New registers all metrics on reg. A nil reg yields unregistered collectors,
// which is what tests and the CLI use.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		LoginAttempts: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "login_attempts_total",
			Help:      "Login attempts by outcome",
		}, []string{"result"}),
		AccountLockouts: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_lockouts_total",
			Help:      "Accounts locked after repeated failures",
		}),
		TwoFactorVerifications: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "two_factor_verifications_total",
			Help:      "Second-factor checks by method and outcome",
		}, []string{"method", "result"}),
		PasswordChanges: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "password_changes_total",
			Help:      "Password change attempts by outcome",
		}, []string{"result"}),
		BackupCodesConsumed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_codes_consumed_total",
			Help:      "Backup codes used to complete a login",
		}),
		BackupCodesRegenerated: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backup_codes_regenerated_total",
			Help:      "Backup code batches replaced by their owner",
		}),
		OptimisticRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "optimistic_write_retries_total",
			Help:      "Credential writes retried after a version conflict",
		}, []string{"operation"}),
	}
}

const (
	ResultSuccess           = "success"
	ResultInvalidPassword   = "invalid_password"
	ResultLocked            = "locked"
	ResultTwoFactorRequired = "two_factor_required"
	ResultInvalidTwoFactor  = "invalid_two_factor"
	ResultUnknownAccount    = "unknown_account"
	ResultPolicyViolation   = "policy_violation"
	ResultReused            = "reused"
	ResultFailure           = "failure"

	MethodTOTP   = "totp"
	MethodBackup = "backup_code"
)
