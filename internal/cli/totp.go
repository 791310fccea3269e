package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/credguard/backend/internal/credential"
	"github.com/credguard/backend/internal/output"
	"github.com/spf13/cobra"
)

var errCodeRejected = errors.New("code rejected")

// newTOTPCmd groups stateless TOTP helpers that never touch the database.
func newTOTPCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "totp",
		Short: "Generate and verify TOTP material offline",
	}

	var label, qrPath string
	newSecret := &cobra.Command{
		Use:   "new",
		Short: "Generate a secret, provisioning URI and backup codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			setup, err := a.core.SetupTwoFactor(cmd.Context(), label, a.cfg.TOTP.Issuer)
			if err != nil {
				return err
			}
			if qrPath != "" {
				if err := os.WriteFile(qrPath, setup.QRImage, 0o600); err != nil {
					return fmt.Errorf("writing QR code: %w", err)
				}
			}
			if a.flagJSON {
				return output.JSON(cmd.OutOrStdout(), setupJSON(setup))
			}
			output.TwoFactorSetup(cmd.OutOrStdout(), setup)
			return nil
		},
	}
	newSecret.Flags().StringVar(&label, "label", "", "Account label shown in the authenticator app")
	newSecret.Flags().StringVar(&qrPath, "qr", "", "Write the QR code PNG to this file")
	_ = newSecret.MarkFlagRequired("label")

	code := &cobra.Command{
		Use:   "code",
		Short: "Print the current code for a secret read from stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := a.readSecret(cmd, "Secret")
			if err != nil {
				return err
			}
			c, err := credential.GenerateTOTPCode(secret, a.core.TOTPConfig(), a.core.Now())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), c)
			return nil
		},
	}

	verify := &cobra.Command{
		Use:   "verify <code>",
		Short: "Check a code against a secret read from stdin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			secret, err := a.readSecret(cmd, "Secret")
			if err != nil {
				return err
			}
			if !a.core.VerifyTwoFactorToken(args[0], secret) {
				return errCodeRejected
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Code accepted")
			return nil
		},
	}

	cmd.AddCommand(newSecret, code, verify)
	return cmd
}

func setupJSON(s *credential.TwoFactorSetup) map[string]interface{} {
	return map[string]interface{}{
		"secret":          s.Secret,
		"provisioningURI": s.ProvisioningURI,
		"backupCodes":     s.BackupCodes,
	}
}

func newBackupCodesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup-codes",
		Short: "Generate single-use recovery codes",
	}

	var count int
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Print a fresh batch of backup codes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			codes, err := a.core.GenerateBackupCodes(count)
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
	generate.Flags().IntVar(&count, "count", credential.DefaultBackupCodeCount, "Number of codes")

	cmd.AddCommand(generate)
	return cmd
}
