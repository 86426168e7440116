//go:build ebiten

package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"

	"active-terrain/internal/app"
	"active-terrain/internal/config"
	"active-terrain/internal/core"
	"active-terrain/internal/sim"
	"active-terrain/internal/store"
)

func main() {
	configPath := flag.String("config", "", "YAML config file")
	scale := flag.Int("scale", 12, "pixel scale multiplier")
	saveName := flag.String("save", "quick", "save name used by F5")
	resume := flag.String("resume", "", "resume the named save")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}
	logger := cfg.Logger(os.Stderr)
	slog.SetDefault(logger)
	if _, err := cfg.Catalog(); err != nil {
		log.Fatal(err)
	}

	db, err := store.Open(cfg.Save.Path, logger.With("component", "store"))
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		log.Fatal(err)
	}

	factory, ok := core.Sims()[cfg.Sim.Name]
	if !ok {
		log.Fatalf("unknown sim %q", cfg.Sim.Name)
	}
	session, ok := factory(cfg.SimParams()).(*sim.Session)
	if !ok {
		log.Fatalf("sim %q has no terrain session to view", cfg.Sim.Name)
	}
	defer session.Close()
	if *resume != "" {
		save, err := db.LoadRegion(context.Background(), *resume)
		if err != nil {
			log.Fatal(err)
		}
		if err := session.Activate(sim.State{Seed: save.Seed, World: save.World, Terrain: save.Terrain}); err != nil {
			log.Fatal(err)
		}
	} else if err := session.ResetScenario(cfg.World.Scenario, cfg.World.Seed); err != nil {
		log.Fatal(err)
	}

	game := app.New(session, app.Options{
		Scale:         *scale,
		FramesPerTick: cfg.Sim.FramesPerTick,
		Saver:         db,
		SaveName:      *saveName,
		Logger:        logger,
	})
	size := session.Size()

	ebiten.SetWindowTitle(session.Name() + ": " + cfg.World.Scenario)
	ebiten.SetTPS(cfg.Sim.TPS * cfg.Sim.FramesPerTick)
	ebiten.SetWindowSize(size.W*(*scale), size.H*(*scale))

	if err := ebiten.RunGame(game); err != nil && !errors.Is(err, ebiten.Termination) {
		log.Fatal(err)
	}
}
