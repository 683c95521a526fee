// Package cli wires configuration, logging and the catalog into the
// truth-eroder commands.
package cli

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"

	"github.com/spf13/cobra"

	"github.com/tatianab/truth-eroder/internal/config"
	"github.com/tatianab/truth-eroder/internal/data"
	"github.com/tatianab/truth-eroder/internal/engine"
	"github.com/tatianab/truth-eroder/internal/game"
	"github.com/tatianab/truth-eroder/internal/logger"
	"github.com/tatianab/truth-eroder/internal/mapgen"
	"github.com/tatianab/truth-eroder/internal/models"
)

var v = config.New()

var rootCmd = &cobra.Command{
	Use:   "truth-eroder",
	Short: "A word-combination roguelike",
	Long: `Truth Eroder is a terminal roguelike. Chain glyphs into combos to erode
enemies' existence or bend their logic until they accept your correction.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.Int64("seed", 0, "random seed, 0 for time-based")
	pf.String("save-dir", "", "directory runs are saved under")
	pf.String("catalog", "", "directory with catalog YAML files, empty for the built-in one")
	pf.String("log-level", "", "log level (debug, info, warn, error)")

	_ = v.BindPFlag("seed", pf.Lookup("seed"))
	_ = v.BindPFlag("save_dir", pf.Lookup("save-dir"))
	_ = v.BindPFlag("catalog_dir", pf.Lookup("catalog"))
	_ = v.BindPFlag("log_level", pf.Lookup("log-level"))
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every command starts from.
type env struct {
	cfg     *config.Config
	catalog *data.Catalog
	logs    io.Closer
}

// setup loads config and the catalog. Logs go to the configured file when
// toFile is set, so a full-screen UI is not drawn over.
func setup(toFile bool) (*env, error) {
	cfg, err := config.LoadConfig(v)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	opts := logger.Options{Level: cfg.LogLevel, Format: cfg.LogFormat}
	if toFile {
		opts.File = cfg.LogFile
	}
	closer, err := logger.Init(opts)
	if err != nil {
		return nil, fmt.Errorf("opening log: %w", err)
	}

	models.SaveDir = cfg.SaveDir

	var c *data.Catalog
	if cfg.CatalogDir != "" {
		c, err = data.LoadDir(cfg.CatalogDir)
	} else {
		c, err = data.Load()
	}
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("loading catalog: %w", err)
	}
	logger.Log.WithField("identities", len(c.Identities)).WithField("combos", len(c.Combos)).Info("Catalog loaded")
	return &env{cfg: cfg, catalog: c, logs: closer}, nil
}

func (e *env) Close() { e.logs.Close() }

func (e *env) options() game.Options {
	opts := game.DefaultOptions()
	opts.Map = mapgen.Config{
		Size:            e.cfg.MapSize,
		Mines:           e.cfg.MapMines,
		DangerThreshold: e.cfg.DangerThreshold,
		Content:         mapgen.DefaultConfig().Content,
	}
	opts.Start = models.Coord{X: e.cfg.MapSize / 2, Y: e.cfg.MapSize / 2}
	opts.InventoryCap = e.cfg.InventoryCap
	return opts
}

// flavor picks Gemini when a key is configured, always backed by the static
// text. The returned func releases the client.
func (e *env) flavor(ctx context.Context) (engine.Provider, func(), error) {
	if e.cfg.Offline() {
		logger.Log.Info("No Gemini API key, using static flavor text")
		return engine.Static{}, func() {}, nil
	}
	eng, err := engine.NewEngine(ctx, e.cfg.GeminiAPIKey, e.cfg.GeminiModel)
	if err != nil {
		return nil, nil, fmt.Errorf("creating engine: %w", err)
	}
	return engine.WithFallback(eng, engine.Static{}), eng.Close, nil
}

func (e *env) deps(flavor game.FlavorSource, seed int64) (game.Deps, error) {
	return game.NewDeps(e.catalog, flavor, rand.New(rand.NewSource(seed)))
}
