package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/credguard/backend/internal/output"
	"github.com/credguard/backend/internal/services"
	"github.com/spf13/cobra"
)

func newAccountCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage stored accounts",
	}

	var tenant string
	create := &cobra.Command{
		Use:         "create <email>",
		Short:       "Register an account; the password is read from stdin",
		Args:        cobra.ExactArgs(1),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.readSecret(cmd, "Password")
			if err != nil {
				return err
			}
			user, err := a.accounts.Register(cmd.Context(), services.RegisterRequest{
				Email:    args[0],
				Password: password,
				Tenant:   tenant,
			})
			if err != nil {
				var violation *services.PolicyViolationError
				if errors.As(err, &violation) && !a.flagJSON {
					output.PasswordReport(cmd.ErrOrStderr(), violation.Result)
				}
				return err
			}
			if a.flagJSON {
				return output.JSON(cmd.OutOrStdout(), map[string]interface{}{"id": user.ID, "email": user.Email, "tenant": user.Tenant})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created %s (%s)\n", user.Email, user.ID)
			return nil
		},
	}
	create.Flags().StringVar(&tenant, "tenant", "", "Tenant whose policy applies")

	var totpCode, backupCode string
	login := &cobra.Command{
		Use:         "login <email>",
		Short:       "Run a full login check; the password is read from stdin",
		Long:        "Counts toward lockout exactly like an interactive login.",
		Args:        cobra.ExactArgs(1),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.readSecret(cmd, "Password")
			if err != nil {
				return err
			}
			result, err := a.accounts.Login(cmd.Context(), services.LoginRequest{
				Email:      args[0],
				Password:   password,
				TOTPCode:   totpCode,
				BackupCode: backupCode,
			})
			var locked *services.AccountLockedError
			if errors.As(err, &locked) {
				return fmt.Errorf("%w, retry in %s", err, locked.RetryAfter(a.core.Now()).Round(time.Second))
			}
			if err != nil {
				return err
			}
			if a.flagJSON {
				return output.JSON(cmd.OutOrStdout(), map[string]interface{}{
					"userID":               result.User.ID,
					"passwordExpired":      result.PasswordExpired,
					"daysUntilExpiration":  result.DaysUntilExpiration,
					"usedBackupCode":       result.UsedBackupCode,
					"backupCodesRemaining": result.BackupCodesRemaining,
					"backupCodesLow":       result.BackupCodesLow,
				})
			}
			output.LoginResult(cmd.OutOrStdout(), result)
			return nil
		},
	}
	login.Flags().StringVar(&totpCode, "totp", "", "Current TOTP code")
	login.Flags().StringVar(&backupCode, "backup-code", "", "Backup code, used when no TOTP code is given")

	status := &cobra.Command{
		Use:         "status <email|id>",
		Short:       "Show lockout, expiry and two-factor state",
		Args:        cobra.ExactArgs(1),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			st, err := a.accounts.Status(cmd.Context(), id)
			if err != nil {
				return err
			}
			if a.flagJSON {
				return output.JSON(cmd.OutOrStdout(), st)
			}
			output.AccountStatus(cmd.OutOrStdout(), st, a.core.Now())
			return nil
		},
	}

	unlock := &cobra.Command{
		Use:         "unlock <email|id>",
		Short:       "Clear a lockout and the failed attempt counter",
		Args:        cobra.ExactArgs(1),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			if err := a.accounts.UnlockAccount(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Unlocked %s\n", args[0])
			return nil
		},
	}

	setActive := func(use, short string, active bool) *cobra.Command {
		return &cobra.Command{
			Use:         use + " <email|id>",
			Short:       short,
			Args:        cobra.ExactArgs(1),
			Annotations: storeAnnotation,
			RunE: func(cmd *cobra.Command, args []string) error {
				id, err := a.lookup(cmd, args[0])
				if err != nil {
					return err
				}
				if err := a.accounts.SetActive(cmd.Context(), id, active); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: active=%v\n", args[0], active)
				return nil
			},
		}
	}

	passwd := &cobra.Command{
		Use:         "passwd <email|id>",
		Short:       "Change a password; current and new password are read from stdin",
		Args:        cobra.ExactArgs(1),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			current, err := a.readSecret(cmd, "Current password")
			if err != nil {
				return err
			}
			next, err := a.readSecret(cmd, "New password")
			if err != nil {
				return err
			}
			strength, err := a.accounts.ChangePassword(cmd.Context(), services.ChangePasswordRequest{
				UserID:          id,
				CurrentPassword: current,
				NewPassword:     next,
			})
			if err != nil {
				var violation *services.PolicyViolationError
				if errors.As(err, &violation) && !a.flagJSON {
					output.PasswordReport(cmd.ErrOrStderr(), violation.Result)
				}
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Password changed (strength: %s)\n", strength)
			return nil
		},
	}

	cmd.AddCommand(
		create,
		login,
		status,
		unlock,
		setActive("disable", "Deactivate an account", false),
		setActive("enable", "Reactivate an account", true),
		passwd,
	)
	return cmd
}
