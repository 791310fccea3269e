package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/credguard/backend/internal/config"
	"github.com/credguard/backend/internal/credential"
	"github.com/credguard/backend/internal/database"
	"github.com/credguard/backend/internal/services"
	"github.com/credguard/backend/internal/store"
	"github.com/credguard/backend/pkg/logger"
	"github.com/credguard/backend/pkg/metrics"
	"github.com/credguard/backend/pkg/utils"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// needsStore marks commands that open the database in PersistentPreRunE.
const (
	needsStore = "store"
	noConfig   = "no-config"
)

var storeAnnotation = map[string]string{needsStore: "true"}

type app struct {
	flagJSON   bool
	flagSQLite string

	cfg      *config.Config
	policies *config.Policies
	core     *credential.Core
	db       *gorm.DB
	audit    *services.AuditService
	accounts *services.AccountService
	metrics  *metrics.Metrics

	in *bufio.Reader
}

// newRootCmd builds the credctl command tree and the state its commands share.
func newRootCmd() (*cobra.Command, *app) {
	a := &app{}
	root := &cobra.Command{
		Use:   "credctl",
		Short: "Credguard CLI: operate password and two-factor hardening",
		Long: `credctl checks passwords against the configured policy and manages
lockout, TOTP enrolment and backup codes for stored accounts.

Get started:
  credctl migrate                      Create the schema
  credctl password check < pw.txt      Score a password
  credctl account create alice@x.org   Register an account (password on stdin)
  credctl 2fa setup alice@x.org        Start TOTP enrolment`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Annotations[noConfig] == "true" {
				return nil
			}
			if err := a.load(cmd); err != nil {
				return err
			}
			if cmd.Annotations[needsStore] == "true" {
				return a.openStore()
			}
			return nil
		},
	}

	root.PersistentFlags().BoolVar(&a.flagJSON, "json", false, "Output as JSON")
	root.PersistentFlags().StringVar(&a.flagSQLite, "sqlite", "", "Use the sqlite database at this path instead of the configured one")

	root.AddCommand(
		newVersionCmd(a),
		newMigrateCmd(a),
		newPasswordCmd(a),
		newPolicyCmd(a),
		newTOTPCmd(a),
		newBackupCodesCmd(a),
		newAccountCmd(a),
		newTwoFactorCmd(a),
		newAuditCmd(a),
	)
	return root, a
}

// Execute runs the root command.
func Execute() error {
	root, a := newRootCmd()
	err := root.Execute()
	a.close()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

func (a *app) load(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if a.flagSQLite != "" {
		cfg.DB.Driver = "sqlite"
		cfg.DB.Path = a.flagSQLite
	}
	a.cfg = cfg

	level := logger.LogLevel(cfg.Log.Level)
	if cfg.Log.Format == "console" {
		logger.SetGlobal(logger.NewConsole(cmd.ErrOrStderr(), level))
	} else {
		logger.SetGlobal(logger.New(cmd.ErrOrStderr(), level))
	}

	a.policies, err = config.LoadPolicies(cfg.PolicyFile)
	if err != nil {
		return fmt.Errorf("loading policies: %w", err)
	}

	a.core = credential.New(
		credential.WithHasher(credential.NewBcryptHasher(cfg.Security.BcryptCost)),
		credential.WithTOTPConfig(cfg.TOTP.Credential()),
	)
	a.metrics = metrics.New(nil)
	a.in = bufio.NewReader(cmd.InOrStdin())
	return nil
}

func (a *app) openStore() error {
	db, err := database.Connect(a.cfg.DB)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	a.db = db

	sealer, err := utils.NewSealer(a.cfg.Security.SealingSecret)
	if err != nil {
		return fmt.Errorf("configuring secret sealing: %w", err)
	}
	if !sealer.Enabled() {
		logger.Warn("totp_sealing_disabled", map[string]interface{}{"hint": "set CREDGUARD_SECURITY_SEALING_SECRET"})
	}

	a.audit = services.NewAuditService(db, a.cfg.Audit.QueueSize)
	a.accounts = services.NewAccountService(
		a.core,
		store.NewUserStore(db, sealer),
		a.policies,
		a.audit,
		a.metrics,
		services.NewReplayGuard(a.cfg.Security.ReplayWindow),
		services.AccountOptions{
			Issuer:                  a.cfg.TOTP.Issuer,
			BackupCodeWarnThreshold: a.cfg.Security.BackupCodeWarnThreshold,
			MaxWriteRetries:         a.cfg.Security.MaxWriteRetries,
		},
	)
	return nil
}

// close flushes pending audit entries and releases the database.
func (a *app) close() {
	if a.audit != nil {
		a.audit.Close()
		a.audit = nil
	}
	if a.db != nil {
		if err := database.Close(a.db); err != nil {
			logger.Error("database_close_failed", err, nil)
		}
		a.db = nil
	}
}

// readSecret reads one line from stdin so secrets stay out of shell history.
func (a *app) readSecret(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprintf(cmd.ErrOrStderr(), "%s: ", prompt)
	line, err := a.in.ReadString('\n')
	if err != nil && (err != io.EOF || line == "") {
		return "", fmt.Errorf("reading %s: %w", strings.ToLower(prompt), err)
	}
	fmt.Fprintln(cmd.ErrOrStderr())
	return strings.TrimRight(line, "\r\n"), nil
}

// lookup resolves an account argument given as an email or a user ID.
func (a *app) lookup(cmd *cobra.Command, ref string) (uuid.UUID, error) {
	if id, err := uuid.Parse(ref); err == nil {
		return id, nil
	}
	user, err := a.accounts.LookupUser(cmd.Context(), ref)
	if err != nil {
		return uuid.Nil, err
	}
	return user.ID, nil
}
