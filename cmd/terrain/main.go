// Command terrain runs, saves and inspects special-terrain regions headlessly.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"active-terrain/internal/config"
	"active-terrain/internal/sim"
	"active-terrain/internal/store"
	"active-terrain/internal/terrain"
)

// cli carries state resolved by the root command for its subcommands.
type cli struct {
	cfg *config.Config
	log *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	rootCmd := &cobra.Command{
		Use:   "terrain",
		Short: "Special terrain simulation tools",
		Long: `terrain runs regions whose special floors heat rooms, clean filth,
glow and draw power, and stores them in a sqlite save database.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.load(cmd)
		},
	}

	rootCmd.PersistentFlags().String("config", "", "YAML config file")
	rootCmd.PersistentFlags().StringToString("set", nil, "override config keys (e.g. --set world.width=64)")
	rootCmd.PersistentFlags().String("log-level", "", "log level: error, warn, info, debug, trace")
	rootCmd.PersistentFlags().String("db", "", "save database path (overrides save.path)")
	rootCmd.PersistentFlags().Bool("json", false, "output as JSON")

	rootCmd.AddCommand(
		newRunCmd(c),
		newSweepCmd(c),
		newInspectCmd(c),
		newSavesCmd(c),
		newKindsCmd(c),
		newMigrateCmd(c),
	)
	return rootCmd
}

func (c *cli) load(cmd *cobra.Command) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	overrides, _ := cmd.Flags().GetStringToString("set")
	if err := cfg.ApplyOverrides(overrides); err != nil {
		return err
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if db, _ := cmd.Flags().GetString("db"); db != "" {
		cfg.Save.Path = db
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	c.cfg = cfg
	c.log = cfg.Logger(cmd.ErrOrStderr())
	return nil
}

func (c *cli) catalog() (*terrain.Catalog, error) {
	cat, err := c.cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("load kinds: %w", err)
	}
	return cat, nil
}

func (c *cli) session() (*sim.Session, error) {
	cat, err := c.catalog()
	if err != nil {
		return nil, err
	}
	return sim.NewSession(c.cfg.Session(), cat, c.log), nil
}

// openStore opens and migrates the save database.
func (c *cli) openStore() (*store.Store, error) {
	s, err := store.Open(c.cfg.Save.Path, c.log.With("component", "store"))
	if err != nil {
		return nil, err
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

// resume loads a save into session.
func (c *cli) resume(ctx context.Context, session *sim.Session, s *store.Store, name string) error {
	save, err := s.LoadRegion(ctx, name)
	if err != nil {
		return err
	}
	return session.Activate(sim.State{Seed: save.Seed, World: save.World, Terrain: save.Terrain})
}
