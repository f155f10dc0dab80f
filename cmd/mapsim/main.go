package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/san-kum/mapsim/internal/config"
	"github.com/san-kum/mapsim/internal/dynamo"
	"github.com/san-kum/mapsim/internal/experiment"
	"github.com/san-kum/mapsim/internal/logbus"
	"github.com/san-kum/mapsim/internal/storage"
	"github.com/san-kum/mapsim/internal/viz"
)

var (
	configFile string
	dataDir    string
	mapsDir    string
	logLevel   string
)

// env is what every command works against, built once the global flags
// are parsed.
type env struct {
	cfg    *config.Config
	log    *log.Logger
	reg    *experiment.Registry
	store  *storage.Store
	logbus *logbus.Queue
}

var app env

func main() {
	os.Exit(run(os.Args[1:]))
}

// run executes the command line and returns the process exit code, so the
// signal handler is released before main exits.
func run(args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCmd()
	rootCmd.SetArgs(args)
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:               "mapsim",
		Short:             "iterated map lab",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), "")
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file path (yaml)")
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultDataDir, "run data directory")
	rootCmd.PersistentFlags().StringVar(&mapsDir, "maps", config.DefaultMapsDir, "directory of map definition files")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newListCmd(),
		newShowCmd(),
		newOrbitCmd(),
		newPermuteCmd(),
		newWalkCmd(),
		newLyapunovCmd(),
		newSweepCmd(),
		newSpectrumCmd(),
		newRunsCmd(),
		newPlotCmd(),
		newPhaseCmd(),
		newExportCSVCmd(),
		newExportJSONCmd(),
		newDeleteCmd(),
		newScenarioCmd(),
		newPresetsCmd(),
		newLiveCmd(),
		newValidateCmd(),
	)
	return rootCmd
}

// setup loads the config, applies global flags that were set explicitly,
// and builds the logger, registry and run store.
func setup(cmd *cobra.Command, args []string) error {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}
	flags := cmd.Flags()
	if flags.Changed("data") || cfg.DataDir == "" {
		cfg.DataDir = dataDir
	}
	if flags.Changed("maps") || cfg.MapsDir == "" {
		cfg.MapsDir = mapsDir
	}
	if flags.Changed("log-level") || cfg.LogLevel == "" {
		cfg.LogLevel = logLevel
	}

	level, err := log.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("log level %q: %w", cfg.LogLevel, err)
	}
	logger := log.NewWithOptions(os.Stderr, log.Options{Level: level, Prefix: "mapsim"})

	if cfg.Workers > 0 {
		dynamo.Workers = cfg.Workers
	}

	reg := experiment.NewRegistry(logger)
	if _, err := reg.LoadDir(cfg.MapsDir); err != nil {
		return err
	}

	app = env{
		cfg:   cfg,
		log:   logger,
		reg:   reg,
		store: storage.New(cfg.DataDir, logger),
	}
	return nil
}

// runTUI starts the terminal UI with logging redirected into the log tab.
func runTUI(ctx context.Context, startMap string) error {
	q := logbus.New(logbus.DefaultCapacity)
	app.log.SetOutput(q)
	defer func() {
		q.Close()
		app.log.SetOutput(os.Stderr)
	}()

	if err := app.store.Init(); err != nil {
		return err
	}
	return viz.Run(ctx, viz.Options{
		Registry: app.reg,
		Store:    app.store,
		Config:   app.cfg,
		Logger:   app.log,
		Logs:     q,
	}, startMap)
}

// parseAssignments turns repeated NAME=VALUE flags into a map.
func parseAssignments(pairs []string) (map[string]float64, error) {
	out := make(map[string]float64, len(pairs))
	for _, pair := range pairs {
		name, raw, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("expected NAME=VALUE, got %q", pair)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return nil, fmt.Errorf("constant %s: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

// mergeConstants layers overrides on top of base without touching either.
func mergeConstants(base, overrides map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(base)+len(overrides))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range overrides {
		out[k] = v
	}
	return out
}
