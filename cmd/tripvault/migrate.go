package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var flagMigrateForce bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Import legacy flat-file trip data",
	Long: `Import trips from the legacy flat-file store into the structured
backend. The import runs at most once; pass --force to clear the completion
flag and run it again.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// The startup sequence already ran the import once this process.
		if flagMigrateForce {
			if err := tripStore.ResetMigrationFlag(); err != nil {
				return fmt.Errorf("reset migration flag: %w", err)
			}
			if err := tripStore.MigrateFromLegacy(); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Migration complete")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&flagMigrateForce, "force", false, "clear the completion flag and re-run the import")
}
