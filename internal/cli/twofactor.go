package cli

import (
	"fmt"
	"os"

	"github.com/credguard/backend/internal/output"
	"github.com/spf13/cobra"
)

func newTwoFactorCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "2fa",
		Short: "Enrol, confirm and disable TOTP two-factor authentication",
	}

	var qrPath string
	setup := &cobra.Command{
		Use:         "setup <email|id>",
		Short:       "Start enrolment; prints the secret and backup codes once",
		Args:        cobra.ExactArgs(1),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			s, err := a.accounts.BeginTwoFactorSetup(cmd.Context(), id)
			if err != nil {
				return err
			}
			if qrPath != "" {
				if err := os.WriteFile(qrPath, s.QRImage, 0o600); err != nil {
					return fmt.Errorf("writing QR code: %w", err)
				}
			}
			if a.flagJSON {
				return output.JSON(cmd.OutOrStdout(), setupJSON(s))
			}
			output.TwoFactorSetup(cmd.OutOrStdout(), s)
			fmt.Fprintf(cmd.OutOrStdout(), "\nConfirm with: credctl 2fa confirm %s <code>\n", args[0])
			return nil
		},
	}
	setup.Flags().StringVar(&qrPath, "qr", "", "Write the QR code PNG to this file")

	confirm := &cobra.Command{
		Use:         "confirm <email|id> <code>",
		Short:       "Enable two-factor with a code from the authenticator app",
		Args:        cobra.ExactArgs(2),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			if err := a.accounts.ConfirmTwoFactorSetup(cmd.Context(), id, args[1]); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Two-factor authentication enabled")
			return nil
		},
	}

	disable := &cobra.Command{
		Use:         "disable <email|id>",
		Short:       "Turn two-factor off; the password is read from stdin",
		Args:        cobra.ExactArgs(1),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			password, err := a.readSecret(cmd, "Password")
			if err != nil {
				return err
			}
			if err := a.accounts.DisableTwoFactor(cmd.Context(), id, password); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Two-factor authentication disabled")
			return nil
		},
	}

	status := &cobra.Command{
		Use:         "status <email|id>",
		Short:       "Show enrolment state and remaining backup codes",
		Args:        cobra.ExactArgs(1),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			st, err := a.accounts.TwoFactorStatus(cmd.Context(), id)
			if err != nil {
				return err
			}
			if a.flagJSON {
				return output.JSON(cmd.OutOrStdout(), st)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "State: %s\n", st.State)
			if st.Enabled {
				fmt.Fprintf(cmd.OutOrStdout(), "Backup codes remaining: %d\n", st.BackupCodesRemaining)
			}
			return nil
		},
	}

	regenerate := &cobra.Command{
		Use:         "regenerate-codes <email|id>",
		Short:       "Replace every backup code; the password is read from stdin",
		Args:        cobra.ExactArgs(1),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := a.lookup(cmd, args[0])
			if err != nil {
				return err
			}
			password, err := a.readSecret(cmd, "Password")
			if err != nil {
				return err
			}
			codes, err := a.accounts.RegenerateBackupCodes(cmd.Context(), id, password)
			if err != nil {
				return err
			}
			if a.flagJSON {
				return output.JSON(cmd.OutOrStdout(), codes)
			}
			output.BackupCodes(cmd.OutOrStdout(), codes)
			return nil
		},
	}

	cmd.AddCommand(setup, confirm, disable, status, regenerate)
	return cmd
}
