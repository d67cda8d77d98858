package main

import (
	"github.com/spf13/cobra"
)

func newMigrateCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back the database schema",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "up",
			Short: "Apply pending migrations",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := a.openDatabase(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()
				return a.migrations().Up(db.SQLDB())
			},
		},
		&cobra.Command{
			Use:   "down",
			Short: "Roll back every migration, dropping all tables",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				db, err := a.openDatabase(cmd.Context())
				if err != nil {
					return err
				}
				defer db.Close()
				return a.migrations().Down(db.SQLDB())
			},
		},
	)
	return cmd
}
