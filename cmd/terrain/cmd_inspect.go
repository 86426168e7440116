package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"active-terrain/internal/core"
	"active-terrain/internal/sim"
	"active-terrain/internal/terrain"
)

// instanceReport is one row of inspect output.
type instanceReport struct {
	X          int               `json:"x"`
	Y          int               `json:"y"`
	Kind       string            `json:"kind"`
	Label      string            `json:"label"`
	Components []string          `json:"components"`
	State      []json.RawMessage `json:"state,omitempty"`
}

func newInspectCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect NAME",
		Short: "Load a save and list its terrain instances",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			db, err := c.openStore()
			if err != nil {
				return err
			}
			defer db.Close()

			save, err := db.LoadRegion(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			session, err := c.session()
			if err != nil {
				return err
			}
			defer session.Close()
			if err := session.Activate(sim.State{Seed: save.Seed, World: save.World, Terrain: save.Terrain}); err != nil {
				return err
			}

			saved := make(map[core.Cell]terrain.InstanceState, len(save.Terrain.Instances))
			for _, is := range save.Terrain.Instances {
				saved[is.Cell()] = is
			}
			reg := session.Registry()
			world := session.World()
			var rows []instanceReport
			for _, cell := range reg.Cells() {
				inst, _ := reg.At(cell)
				row := instanceReport{
					X:     cell.X,
					Y:     cell.Y,
					Kind:  inst.Kind().Name,
					Label: reg.Label(cell, world.TerrainAt(cell)),
				}
				for _, comp := range inst.Components() {
					row.Components = append(row.Components, string(comp.Type()))
				}
				for _, cs := range saved[cell].Components {
					row.State = append(row.State, cs.State)
				}
				rows = append(rows, row)
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(rows)
			}
			fmt.Fprintf(out, "%s: %dx%d at tick %d, seed %d, saved %s\n",
				save.Name, save.World.Width, save.World.Height, save.World.Ticks, save.Seed,
				save.SavedAt.Format(time.RFC3339))
			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CELL\tKIND\tLABEL\tCOMPONENTS\tSTATE")
			for _, r := range rows {
				state := make([]string, len(r.State))
				for i, s := range r.State {
					state[i] = string(s)
				}
				fmt.Fprintf(tw, "(%d, %d)\t%s\t%s\t%s\t%s\n",
					r.X, r.Y, r.Kind, r.Label, strings.Join(r.Components, ","), strings.Join(state, " "))
			}
			return tw.Flush()
		},
	}
}
