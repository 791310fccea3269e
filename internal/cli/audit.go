package cli

import (
	"github.com/credguard/backend/internal/output"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func newAuditCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Read the security audit trail",
	}

	var limit int
	list := &cobra.Command{
		Use:         "list [email|id]",
		Short:       "List recent audit entries, optionally for one account",
		Args:        cobra.MaximumNArgs(1),
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			var userID *uuid.UUID
			if len(args) == 1 {
				id, err := a.lookup(cmd, args[0])
				if err != nil {
					return err
				}
				userID = &id
			}
			rows, err := a.audit.Recent(cmd.Context(), userID, limit)
			if err != nil {
				return err
			}
			if a.flagJSON {
				return output.JSON(cmd.OutOrStdout(), rows)
			}
			output.AuditTable(cmd.OutOrStdout(), rows, a.core.Now())
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "Maximum number of entries")

	cmd.AddCommand(list)
	return cmd
}
