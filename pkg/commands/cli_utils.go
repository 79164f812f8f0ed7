package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/iota-uz/campus-sdk/migrations"
)

// NewUtilityCommands creates the database maintenance commands (migrate, seed-employees).
func NewUtilityCommands() []*cobra.Command {
	return []*cobra.Command{
		newMigrateCmd(),
		newSeedEmployeesCmd(),
	}
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate <" + strings.Join(migrations.Commands, "|") + "> [version]",
		Short: "Apply or inspect database migrations",
		Long:  `Runs the embedded goose migrations for employees, dtr_records and dtr_outbox against the configured database.`,
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return Migrate(cmd.Context(), args[0], args[1:]...)
		},
	}
}

func newSeedEmployeesCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "seed-employees",
		Short: "Create employees from a YAML staff file",
		Long:  `Creates every employee listed in the staff file. Entries whose device id is already assigned are skipped.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := SeedEmployees(cmd.Context(), path)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "created %d, skipped %d\n", res.Created, res.Skipped)
			return err
		},
	}
	cmd.Flags().StringVar(&path, "file", "config/dtr/staff.yaml", "Staff YAML file")
	return cmd
}
