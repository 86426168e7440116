package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"active-terrain/internal/core"
	"active-terrain/internal/sim"
	"active-terrain/internal/store"
)

func newRunCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run a region headlessly",
		Long: `Run builds the configured scenario (or resumes a save), advances it
for the requested number of ticks and prints a summary. Interrupting the run
stops it early; the region is still saved when --save is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks, _ := cmd.Flags().GetInt("ticks")
			realtime, _ := cmd.Flags().GetBool("realtime")
			saveName, _ := cmd.Flags().GetString("save")
			resumeName, _ := cmd.Flags().GetString("resume")
			jsonOut, _ := cmd.Flags().GetBool("json")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			session, err := c.session()
			if err != nil {
				return err
			}
			defer session.Close()

			var db *store.Store
			if saveName != "" || resumeName != "" {
				if db, err = c.openStore(); err != nil {
					return err
				}
				defer db.Close()
			}
			if resumeName != "" {
				if err := c.resume(ctx, session, db, resumeName); err != nil {
					return fmt.Errorf("resume %s: %w", resumeName, err)
				}
			} else if err := session.ResetScenario(c.cfg.World.Scenario, c.cfg.World.Seed); err != nil {
				return err
			}

			var pacer *core.FixedStep
			if realtime {
				pacer = core.NewFixedStep(c.cfg.Sim.TPS)
			}
			ran, err := runTicks(ctx, session, ticks, c.cfg.Sim.FramesPerTick, pacer)
			if err != nil {
				c.log.Warn("run interrupted", "ticks", ran, "err", err)
			}

			if saveName != "" {
				st, err := session.Snapshot()
				if err != nil {
					return err
				}
				save := &store.Save{Name: saveName, Seed: st.Seed, World: st.World, Terrain: st.Terrain}
				// The run context may be cancelled; the save still goes through.
				if err := db.SaveRegion(context.WithoutCancel(ctx), save); err != nil {
					return err
				}
			}
			return printSummary(cmd.OutOrStdout(), summarize(session, ran), jsonOut)
		},
	}
	cmd.Flags().Int("ticks", 600, "ticks to simulate")
	cmd.Flags().Bool("realtime", false, "pace ticks at sim.tps")
	cmd.Flags().String("save", "", "save the region under this name when done")
	cmd.Flags().String("resume", "", "resume the named save instead of building a scenario")
	return cmd
}

// runTicks advances the session n ticks, running the frame hook
// framesPerTick times before each tick. A nil pacer runs unpaced. It
// returns the number of ticks run and the context error if cancelled.
func runTicks(ctx context.Context, s *sim.Session, n, framesPerTick int, pacer *core.FixedStep) (int, error) {
	if framesPerTick <= 0 {
		framesPerTick = 1
	}
	step := func() {
		for f := 0; f < framesPerTick; f++ {
			s.Frame()
		}
		s.Step()
		s.World().TakeDirty()
	}

	if pacer == nil {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return i, err
			}
			step()
		}
		return n, nil
	}

	ticker := time.NewTicker(pacer.Interval())
	defer ticker.Stop()
	done := 0
	for done < n {
		select {
		case <-ctx.Done():
			return done, ctx.Err()
		case <-ticker.C:
			for due := pacer.Pending(); due > 0 && done < n; due-- {
				step()
				done++
			}
		}
	}
	return done, nil
}

// Summary is the run report.
type Summary struct {
	Ticks        int       `json:"ticks"`
	WorldTick    int       `json:"world_tick"`
	Seed         int64     `json:"seed"`
	Terrain      int       `json:"terrain"`
	Lights       int       `json:"lights"`
	Consumers    int       `json:"consumers"`
	Draw         float64   `json:"draw_watts"`
	Filth        int       `json:"filth"`
	Outdoor      float64   `json:"outdoor_temp"`
	OutdoorHeat  float64   `json:"outdoor_heat"`
	Rooms        []float64 `json:"room_temps"`
	TerrainKinds []string  `json:"terrain_kinds"`
}

func summarize(s *sim.Session, ran int) Summary {
	w := s.World()
	sum := Summary{
		Ticks:       ran,
		WorldTick:   w.Ticks(),
		Seed:        s.Seed(),
		Terrain:     s.Registry().Len(),
		Lights:      len(w.Lights()),
		Consumers:   w.Consumers(),
		Draw:        w.TotalDraw(),
		Filth:       w.TotalFilth(),
		Outdoor:     w.OutdoorTemperature(),
		OutdoorHeat: w.OutdoorHeat(),
	}
	for _, r := range w.Rooms() {
		sum.Rooms = append(sum.Rooms, r.Temperature)
	}
	seen := make(map[string]bool)
	for _, c := range s.Registry().Cells() {
		inst, _ := s.Registry().At(c)
		if name := inst.Kind().Name; !seen[name] {
			seen[name] = true
			sum.TerrainKinds = append(sum.TerrainKinds, name)
		}
	}
	return sum
}

func printSummary(w io.Writer, sum Summary, jsonOut bool) error {
	if jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(sum)
	}
	fmt.Fprintf(w, "ran %d ticks (world tick %d, seed %d)\n", sum.Ticks, sum.WorldTick, sum.Seed)
	fmt.Fprintf(w, "terrain: %d instances %v\n", sum.Terrain, sum.TerrainKinds)
	fmt.Fprintf(w, "power: %d consumers drawing %.1fW\n", sum.Consumers, sum.Draw)
	fmt.Fprintf(w, "lights: %d  filth: %d\n", sum.Lights, sum.Filth)
	fmt.Fprintf(w, "outdoor: %.2fC (pushed %.1f)\n", sum.Outdoor, sum.OutdoorHeat)
	for i, t := range sum.Rooms {
		fmt.Fprintf(w, "room %d: %.2fC\n", i+1, t)
	}
	return nil
}
