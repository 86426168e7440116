package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newKindsCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "Print the terrain kind catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			cat, err := c.catalog()
			if err != nil {
				return err
			}
			snap := cat.Parameters()
			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(snap)
			}
			for _, g := range snap.Groups {
				if g.Summary != "" {
					fmt.Fprintf(out, "%s [%s]\n", g.Name, g.Summary)
				} else {
					fmt.Fprintln(out, g.Name)
				}
				for _, p := range g.Params {
					fmt.Fprintf(out, "  %-28s %s\n", p.Label, p.Value)
				}
			}
			return nil
		},
	}
}
