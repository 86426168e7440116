package main

import (
	"fmt"
	"io"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"active-terrain/internal/logging"
	"active-terrain/internal/sim"
	"active-terrain/internal/terrain"
)

type sweepParams struct {
	outdoor float64
	leak    float64
	seed    int64
}

func (p sweepParams) String() string {
	return fmt.Sprintf("outdoor=%.1f leak=%.4f seed=%d", p.outdoor, p.leak, p.seed)
}

type sweepResult struct {
	params      sweepParams
	finalTemp   float64
	tickReached int
	peakDraw    float64
	err         error
}

func newSweepCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Measure how the demo room heats across climates",
		Long: `Sweep runs the demo scenario for every combination of outdoor
temperature, room leak and seed, in parallel, and reports how warm the
heated room gets and how quickly it reaches its thermostat target.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ticks, _ := cmd.Flags().GetInt("ticks")
			workers, _ := cmd.Flags().GetInt("workers")
			outdoors, _ := cmd.Flags().GetFloat64Slice("outdoor")
			leaks, _ := cmd.Flags().GetFloat64Slice("leak")
			seeds, _ := cmd.Flags().GetInt64Slice("seed")
			if workers <= 0 {
				workers = 1
			}

			cat, err := c.catalog()
			if err != nil {
				return err
			}
			var sets []sweepParams
			for _, o := range outdoors {
				for _, l := range leaks {
					for _, s := range seeds {
						sets = append(sets, sweepParams{outdoor: o, leak: l, seed: s})
					}
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Sweeping %d parameter sets (%d workers, %d ticks)\n", len(sets), workers, ticks)
			start := time.Now()
			results := sweep(c.cfg.Session(), cat, sets, ticks, workers)
			printSweep(out, results, time.Since(start))
			return nil
		},
	}
	cmd.Flags().Int("ticks", 3600, "ticks to simulate per parameter set")
	cmd.Flags().Int("workers", runtime.NumCPU(), "number of worker goroutines")
	cmd.Flags().Float64Slice("outdoor", []float64{-20, -5, 10}, "outdoor temperatures")
	cmd.Flags().Float64Slice("leak", []float64{0.0005, 0.002}, "room leak rates")
	cmd.Flags().Int64Slice("seed", []int64{1337}, "scenario seeds")
	return cmd
}

// sweep runs every parameter set on its own session. Results are sorted
// by final room temperature, warmest first.
func sweep(base sim.Config, cat *terrain.Catalog, sets []sweepParams, ticks, workers int) []sweepResult {
	jobs := make(chan sweepParams)
	results := make(chan sweepResult)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for params := range jobs {
				results <- runSweepScenario(base, cat, params, ticks)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()
	go func() {
		for _, params := range sets {
			jobs <- params
		}
		close(jobs)
	}()

	var all []sweepResult
	for res := range results {
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool {
		if all[i].finalTemp != all[j].finalTemp {
			return all[i].finalTemp > all[j].finalTemp
		}
		return all[i].params.String() < all[j].params.String()
	})
	return all
}

func runSweepScenario(base sim.Config, cat *terrain.Catalog, params sweepParams, ticks int) sweepResult {
	cfg := base
	cfg.Scenario = "demo"
	cfg.Seed = params.seed
	cfg.Host.OutdoorTemperature = params.outdoor
	cfg.Host.RoomLeak = params.leak
	res := sweepResult{params: params}

	session := sim.NewSession(cfg, cat, logging.Discard())
	defer session.Close()
	if err := session.ResetScenario(cfg.Scenario, params.seed); err != nil {
		res.err = err
		return res
	}
	rooms := session.World().Rooms()
	if len(rooms) == 0 {
		res.err = fmt.Errorf("demo scenario built no room")
		return res
	}
	room := rooms[0]
	target := room.Temperature
	if th, ok := room.Thermostat(); ok {
		target = th.TargetTemperature()
	}
	for step := 0; step < ticks; step++ {
		session.Step()
		if draw := session.World().TotalDraw(); draw > res.peakDraw {
			res.peakDraw = draw
		}
		if res.tickReached == 0 && room.Temperature >= target-0.5 {
			res.tickReached = step + 1
		}
	}
	res.finalTemp = room.Temperature
	return res
}

func printSweep(w io.Writer, results []sweepResult, elapsed time.Duration) {
	fmt.Fprintf(w, "\nResults (elapsed %s):\n", elapsed.Round(time.Millisecond))
	for i, res := range results {
		if res.err != nil {
			fmt.Fprintf(w, "%2d) %s: %v\n", i+1, res.params, res.err)
			continue
		}
		reached := "never"
		if res.tickReached > 0 {
			reached = fmt.Sprintf("tick %d", res.tickReached)
		}
		fmt.Fprintf(w, "%2d) room=%.2fC target reached %s peakDraw=%.0fW %s\n",
			i+1, res.finalTemp, reached, res.peakDraw, res.params)
	}
}
