// ABOUTME: CLI command for copying data between storage backends.
// ABOUTME: Moves every measurement and goal from one backend to another.
package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/bodygoal/internal/config"
	"github.com/harperreed/bodygoal/internal/storage"
)

var (
	migrateFrom   string
	migrateTo     string
	migrateDryRun bool
	migrateForce  bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Copy data between storage backends",
	Long: `Copy every measurement and goal from one storage backend to another.

BACKENDS:

  sqlite   Local database in the data directory
  charm    Charm KV, synced through Charm Cloud

IMPORTANT:

  - The destination should be empty; duplicate IDs cause errors
  - A non-empty SQLite data directory needs --force
  - Run with --dry-run first to see what would be copied

USAGE:

  bodygoal migrate --from charm --to sqlite --dry-run
  bodygoal migrate --from sqlite --to charm`,
	Annotations: map[string]string{skipStorage: "true"},
	Args:        cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if migrateFrom == migrateTo {
			return fmt.Errorf("--from and --to must differ")
		}
		out := cmd.OutOrStdout()
		dataDir := cfg.GetDataDir()

		src, err := config.OpenBackend(migrateFrom, dataDir)
		if err != nil {
			return fmt.Errorf("failed to open source %s: %w", migrateFrom, err)
		}
		defer src.Close()

		if migrateDryRun {
			data, err := storage.CollectExportData(cmd.Context(), src)
			if err != nil {
				return fmt.Errorf("failed to read source: %w", err)
			}
			color.New(color.FgYellow).Fprintln(out, "Dry run mode - no changes will be made")
			fmt.Fprintf(out, "Would copy %d measurements and %d goals from %s to %s\n",
				len(data.Measurements), len(data.Goals), migrateFrom, migrateTo)
			return nil
		}

		if migrateTo == config.BackendSQLite && !migrateForce {
			nonEmpty, err := storage.IsDirNonEmpty(dataDir)
			if err != nil {
				return err
			}
			if nonEmpty {
				return fmt.Errorf("data directory %s is not empty; use --force to merge into it", dataDir)
			}
		}

		dst, err := config.OpenBackend(migrateTo, dataDir)
		if err != nil {
			return fmt.Errorf("failed to open destination %s: %w", migrateTo, err)
		}
		defer dst.Close()

		summary, err := storage.MigrateData(cmd.Context(), src, dst)
		if err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}

		color.New(color.FgGreen).Fprintf(out, "✓ Migrated %d measurements and %d goals from %s to %s\n",
			summary.Measurements, summary.Goals, migrateFrom, migrateTo)
		return nil
	},
}

func init() {
	migrateCmd.Flags().StringVar(&migrateFrom, "from", config.BackendCharm, "source backend")
	migrateCmd.Flags().StringVar(&migrateTo, "to", config.BackendSQLite, "destination backend")
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "preview migration without making changes")
	migrateCmd.Flags().BoolVar(&migrateForce, "force", false, "write into a non-empty data directory")
	rootCmd.AddCommand(migrateCmd)
}
