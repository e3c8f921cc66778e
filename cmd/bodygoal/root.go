// ABOUTME: Root Cobra command for the bodygoal CLI.
// ABOUTME: Loads config, sets up logging, and manages storage via PersistentPre/PostRunE.
package main

import (
	"fmt"
	"io"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/harperreed/bodygoal/internal/config"
	"github.com/harperreed/bodygoal/internal/goals"
	"github.com/harperreed/bodygoal/internal/logging"
	"github.com/harperreed/bodygoal/internal/metrics"
	"github.com/harperreed/bodygoal/internal/storage"
)

// skipStorage marks commands that open their own backends or none at all.
const skipStorage = "skip-storage"

var (
	cfg       *config.Config
	repo      storage.Repository
	logCloser io.Closer

	// goalMetrics is set by the mcp command when metrics are served.
	goalMetrics *metrics.Manager

	flagBackend  string
	flagDataDir  string
	flagUser     string
	flagLogLevel string
)

var rootCmd = &cobra.Command{
	Use:   "bodygoal",
	Short: "Body-composition goal tracker",
	Long: `bodygoal tracks body-composition goals and how you are progressing toward them.

WHAT IT TRACKS:

  weight        kg
  body_fat      percent
  muscle_mass   kg

QUICK START:

  $ bodygoal measure add --weight 84.2 --body-fat 24.5
  $ bodygoal goal set lose --weight 78 --weight-rate -0.5
  $ bodygoal measure add --weight 83.6
  $ bodygoal progress

GOALS:

  A goal targets any subset of the three metrics. Start values are taken
  from your latest measurement when the goal is set. Only one goal is
  active at a time; setting a new one retires the old one.

  $ bodygoal goal set gain --muscle 40 --by 2026-12-31
  $ bodygoal goal update abc12345 --weight 76
  $ bodygoal goal history

SYNC:

  Use the charm backend to sync across devices via Charm Cloud.
  Data is E2E encrypted with your SSH key.

  $ bodygoal --backend charm sync link

MCP INTEGRATION:

  Run 'bodygoal mcp' to start the Model Context Protocol server:

  {
    "mcpServers": {
      "bodygoal": { "command": "bodygoal", "args": ["mcp"] }
    }
  }

DATA STORAGE:

  SQLite (default) at ~/.local/share/bodygoal/bodygoal.db.
  Settings live in ~/.config/bodygoal/config.json.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "help" || cmd.Name() == "version" {
			return nil
		}

		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		applyFlagOverrides(cfg)

		logCloser = logging.Setup(logging.Params{
			Level:    cfg.GetLogLevel(),
			FilePath: config.ExpandPath(cfg.LogFile),
			Quiet:    cmd.Name() == "mcp",
		})

		if cmd.Annotations[skipStorage] == "true" {
			return nil
		}

		repo, err = cfg.OpenStorage()
		if err != nil {
			return fmt.Errorf("failed to open %s storage: %w", cfg.GetBackend(), err)
		}
		log.WithField("backend", cfg.GetBackend()).Debug("storage opened")
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		return closeAll()
	},
}

// Execute runs the root command, releasing storage even when a command fails.
func Execute() error {
	err := rootCmd.Execute()
	if closeErr := closeAll(); err == nil {
		err = closeErr
	}
	return err
}

func closeAll() error {
	var err error
	if repo != nil {
		err = repo.Close()
		repo = nil
	}
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
	return err
}

func applyFlagOverrides(c *config.Config) {
	if flagBackend != "" {
		c.Backend = flagBackend
	}
	if flagDataDir != "" {
		c.DataDir = flagDataDir
	}
	if flagUser != "" {
		c.UserID = flagUser
	}
	if flagLogLevel != "" {
		c.LogLevel = flagLogLevel
	}
}

// goalOptions configures the goal engine from settings.
func goalOptions() []goals.Option {
	opts := []goals.Option{
		goals.WithWindowDays(cfg.GetWindowDays()),
		goals.WithProgressBounds(cfg.ProgressBounds()),
	}
	if goalMetrics != nil {
		opts = append(opts, goals.WithMetrics(goalMetrics))
	}
	return opts
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagBackend, "backend", "", "storage backend: sqlite or charm")
	rootCmd.PersistentFlags().StringVar(&flagDataDir, "data-dir", "", "data directory (sqlite)")
	rootCmd.PersistentFlags().StringVarP(&flagUser, "user", "u", "", "user id (default \"local\")")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "log level: debug, info, warn, error")
}
