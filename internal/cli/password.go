package cli

import (
	"errors"
	"fmt"

	"github.com/credguard/backend/internal/output"
	"github.com/spf13/cobra"
)

var errPasswordRejected = errors.New("password does not satisfy the policy")

func newPasswordCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "password",
		Short: "Check passwords against the policy",
	}

	var tenant string
	check := &cobra.Command{
		Use:   "check",
		Short: "Validate a password read from stdin and score its strength",
		Long: `Validate a password against the default policy or a tenant override.

  echo 'Correct-Horse-9' | credctl password check --tenant research

Exits non-zero when any rule is violated.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := a.readSecret(cmd, "Password")
			if err != nil {
				return err
			}
			result := a.core.ValidatePassword(password, a.policies.For(tenant))
			if a.flagJSON {
				if err := output.JSON(cmd.OutOrStdout(), result); err != nil {
					return err
				}
			} else {
				output.PasswordReport(cmd.OutOrStdout(), result)
			}
			if !result.Valid {
				return errPasswordRejected
			}
			return nil
		},
	}
	check.Flags().StringVar(&tenant, "tenant", "", "Tenant whose policy applies (default policy when empty)")

	cmd.AddCommand(check)
	return cmd
}

func newPolicyCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "policy",
		Short: "Inspect the loaded password policies",
	}

	var tenant string
	show := &cobra.Command{
		Use:   "show",
		Short: "Print the effective policy for a tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p := a.policies.For(tenant)
			if a.flagJSON {
				return output.JSON(cmd.OutOrStdout(), p)
			}
			name := tenant
			if name == "" {
				name = "default"
			}
			output.Policy(cmd.OutOrStdout(), name, p)
			return nil
		},
	}
	show.Flags().StringVar(&tenant, "tenant", "", "Tenant name")

	list := &cobra.Command{
		Use:   "tenants",
		Short: "List tenants with a policy override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			names := a.policies.TenantNames()
			if a.flagJSON {
				return output.JSON(cmd.OutOrStdout(), names)
			}
			if len(names) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No tenant overrides configured.")
				return nil
			}
			for _, n := range names {
				fmt.Fprintln(cmd.OutOrStdout(), n)
			}
			return nil
		},
	}

	cmd.AddCommand(show, list)
	return cmd
}
