package cli

import (
	"fmt"

	"github.com/credguard/backend/internal/database"
	"github.com/spf13/cobra"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func newVersionCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "version",
		Short:       "Print the CLI version",
		Annotations: map[string]string{noConfig: "true"},
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "credctl %s\n", Version)
		},
	}
}

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:         "migrate",
		Short:       "Create or update the database schema",
		Annotations: storeAnnotation,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := database.Migrate(a.db); err != nil {
				return fmt.Errorf("migrating: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Schema is up to date (%s)\n", a.cfg.DB.Driver)
			return nil
		},
	}
}
