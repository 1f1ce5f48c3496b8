package cmd

import (
	"github.com/spf13/cobra"

	"github.com/docintake/docintake-backend/migrations"
	"github.com/docintake/docintake-backend/pkg/database"
)

func newMigrateCommand(a *app) *cobra.Command {
	var down bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if down {
				return database.Rollback(&a.cfg.Database, migrations.FS, a.log)
			}
			return database.Migrate(&a.cfg.Database, migrations.FS, a.log)
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back all migrations")
	return cmd
}
