package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"active-terrain/internal/store"
)

func newMigrateCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply save database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			down, _ := cmd.Flags().GetBool("down")
			db, err := store.Open(c.cfg.Save.Path, c.log.With("component", "store"))
			if err != nil {
				return err
			}
			defer db.Close()

			if down {
				err = db.MigrateDown()
			} else {
				err = db.Migrate()
			}
			if err != nil {
				return err
			}
			version, dirty, err := db.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s at schema version %d (dirty=%t)\n", c.cfg.Save.Path, version, dirty)
			return nil
		},
	}
	cmd.Flags().Bool("down", false, "roll back the most recent migration")
	return cmd
}
