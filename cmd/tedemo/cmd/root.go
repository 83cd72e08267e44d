package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/ganot/agentic-te/internal/config"
	"github.com/ganot/agentic-te/internal/fixtures"
	"github.com/ganot/agentic-te/internal/sqlite"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time via ldflags
	Version = "dev"

	// Global flags
	fixturesDir string
	jsonOutput  bool
)

var rootCmd = &cobra.Command{
	Use:   "tedemo",
	Short: "Play the travel & expense agent demo from a terminal",
	Long: `tedemo runs the scripted agent scenarios and the fixture-backed flows
without starting the server.

Scenarios play on a simulated clock unless --realtime is given, so a full
expense flow prints in an instant.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&fixturesDir, "fixtures-dir", "", "directory of JSON fixtures overriding the built-in set (default: $TANDE_FIXTURES_DIR)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output as JSON")

	rootCmd.Version = Version
	rootCmd.SetVersionTemplate("tedemo {{.Version}}\n")
}

// loadConfig reads .env and TANDE_* settings; flags win.
func loadConfig() (config.Config, error) {
	if err := config.LoadDotEnv(); err != nil {
		return config.Config{}, err
	}
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if fixturesDir != "" {
		cfg.Demo.FixturesDir = fixturesDir
	}
	return cfg, nil
}

// openCatalog seeds an in-memory database with the fixtures.
func openCatalog(ctx context.Context, cfg config.Config) (*sqlite.FixtureRepository, func(), error) {
	set, err := fixtures.Layered(cfg.Demo.FixturesDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading fixtures: %w", err)
	}
	db, err := sqlite.Open(":memory:")
	if err != nil {
		return nil, nil, err
	}
	repo := sqlite.NewFixtureRepository(db)
	if err := repo.Seed(ctx, set); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repo, func() { db.Close() }, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
