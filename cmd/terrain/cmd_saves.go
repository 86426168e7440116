package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

func newSavesCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "saves",
		Short: "Manage region saves",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List saves, most recent first",
			RunE: func(cmd *cobra.Command, args []string) error {
				jsonOut, _ := cmd.Flags().GetBool("json")
				db, err := c.openStore()
				if err != nil {
					return err
				}
				defer db.Close()

				list, err := db.ListRegions(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				if jsonOut {
					return json.NewEncoder(out).Encode(list)
				}
				if len(list) == 0 {
					fmt.Fprintln(out, "No saves.")
					return nil
				}
				tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "NAME\tSIZE\tTICK\tSEED\tTERRAIN\tSAVED")
				for _, s := range list {
					fmt.Fprintf(tw, "%s\t%dx%d\t%d\t%d\t%d\t%s\n",
						s.Name, s.Width, s.Height, s.Tick, s.Seed, s.Instances, s.SavedAt.Format(time.RFC3339))
				}
				return tw.Flush()
			},
		},
		&cobra.Command{
			Use:   "delete NAME",
			Short: "Delete a save",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				db, err := c.openStore()
				if err != nil {
					return err
				}
				defer db.Close()
				if err := db.DeleteRegion(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", args[0])
				return nil
			},
		},
	)
	return cmd
}
