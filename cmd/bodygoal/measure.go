// ABOUTME: CLI commands for recording, listing, and deleting measurements.
// ABOUTME: Measurements feed goal start values, current values, and trends.
package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/bodygoal/internal/models"
	"github.com/harperreed/bodygoal/internal/storage"
)

var (
	measureWeight  float64
	measureBodyFat float64
	measureMuscle  float64
	measureAt      string
	measureNotes   string
	measureLimit   int
)

var measureCmd = &cobra.Command{
	Use:     "measure",
	Aliases: []string{"m"},
	Short:   "Record and review body-composition measurements",
}

var measureAddCmd = &cobra.Command{
	Use:     "add",
	Aliases: []string{"a"},
	Short:   "Record a measurement",
	Long: `Record a body-composition measurement. Give at least one value.

Examples:
  bodygoal measure add --weight 82.5
  bodygoal measure add --weight 82.1 --body-fat 23.8 --muscle 36.4
  bodygoal measure add --body-fat 24 --at "2025-06-01 07:00" --notes "fasted"`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		m := models.NewMeasurement(cfg.GetUserID())

		flags := cmd.Flags()
		if flags.Changed("weight") {
			m.WithValue(models.MetricWeight, measureWeight)
		}
		if flags.Changed("body-fat") {
			m.WithValue(models.MetricBodyFat, measureBodyFat)
		}
		if flags.Changed("muscle") {
			m.WithValue(models.MetricMuscleMass, measureMuscle)
		}

		if measureAt != "" {
			t, err := parseTime(measureAt)
			if err != nil {
				return fmt.Errorf("invalid timestamp: %s", measureAt)
			}
			m.WithRecordedAt(t)
		}
		if measureNotes != "" {
			m.WithNotes(measureNotes)
		}

		if err := m.Validate(); err != nil {
			return err
		}
		if err := repo.CreateMeasurement(cmd.Context(), m); err != nil {
			return fmt.Errorf("failed to record measurement: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintln(out, "✓ Recorded measurement")
		fmt.Fprintf(out, "  %s %s\n", color.New(color.Faint).Sprint(shortID(m.ID.String())), formatValues(m))
		return nil
	},
}

var measureListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List recent measurements",
	Long: `List recent measurements, newest first.

Each line shows: ID  TIMESTAMP  VALUES  (NOTES)

The ID is an 8-character prefix you can use with 'measure delete'.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := repo.ListMeasurements(cmd.Context(), cfg.GetUserID(), measureLimit)
		if err != nil {
			return fmt.Errorf("failed to list measurements: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No measurements found.")
			return nil
		}

		printMeasurements(out, list)
		return nil
	},
}

var measureDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a measurement",
	Long: `Delete a measurement by its ID or ID prefix.

Goals keep the start values they captured, so deleting an old measurement
does not change an existing goal.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idOrPrefix := args[0]

		m, err := storage.GetUserMeasurement(cmd.Context(), repo, cfg.GetUserID(), idOrPrefix)
		if err != nil {
			return fmt.Errorf("measurement %s: %w", idOrPrefix, err)
		}
		if err := repo.DeleteMeasurement(cmd.Context(), m.ID.String()); err != nil {
			return fmt.Errorf("failed to delete measurement: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgYellow).Fprintln(out, "✗ Deleted measurement")
		fmt.Fprintf(out, "  %s %s\n", color.New(color.Faint).Sprint(shortID(m.ID.String())), formatValues(m))
		return nil
	},
}

func printMeasurements(out io.Writer, list []*models.Measurement) {
	faint := color.New(color.Faint)
	for _, m := range list {
		notes := ""
		if m.Notes != nil && *m.Notes != "" {
			notes = faint.Sprintf(" (%s)", truncate(*m.Notes, 30))
		}
		fmt.Fprintf(out, "%s %s %s%s\n",
			faint.Sprint(shortID(m.ID.String())),
			faint.Sprint(m.RecordedAt.Local().Format("2006-01-02 15:04")),
			formatValues(m),
			notes)
	}
}

// formatValues renders the recorded metrics of m, e.g. "weight 82.5 kg, body_fat 23.8 %".
func formatValues(m *models.Measurement) string {
	var parts []string
	for _, metric := range models.AllMetrics {
		if v, ok := m.Value(metric); ok {
			parts = append(parts, fmt.Sprintf("%s %.1f %s", metric, v, metric.Unit()))
		}
	}
	return strings.Join(parts, ", ")
}

func parseTime(s string) (time.Time, error) {
	formats := []string{
		"2006-01-02 15:04",
		"2006-01-02T15:04",
		"2006-01-02",
	}
	for _, f := range formats {
		if t, err := time.ParseInLocation(f, s, time.Local); err == nil {
			return t, nil
		}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized time format")
}

func shortID(id string) string {
	if len(id) < 8 {
		return id
	}
	return id[:8]
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func padRight(s string, length int) string {
	if len(s) >= length {
		return s
	}
	return s + strings.Repeat(" ", length-len(s))
}

func init() {
	measureAddCmd.Flags().Float64Var(&measureWeight, "weight", 0, "weight in kg")
	measureAddCmd.Flags().Float64Var(&measureBodyFat, "body-fat", 0, "body fat in percent")
	measureAddCmd.Flags().Float64Var(&measureMuscle, "muscle", 0, "muscle mass in kg")
	measureAddCmd.Flags().StringVar(&measureAt, "at", "", "timestamp (YYYY-MM-DD HH:MM)")
	measureAddCmd.Flags().StringVar(&measureNotes, "notes", "", "notes for the measurement")

	measureListCmd.Flags().IntVarP(&measureLimit, "limit", "n", 20, "max number of results")

	measureCmd.AddCommand(measureAddCmd)
	measureCmd.AddCommand(measureListCmd)
	measureCmd.AddCommand(measureDeleteCmd)
	rootCmd.AddCommand(measureCmd)
}
