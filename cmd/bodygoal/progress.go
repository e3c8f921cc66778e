// ABOUTME: CLI command for reporting progress toward the active goal.
// ABOUTME: Renders per-metric bars, trends, projections, and milestones.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/bodygoal/internal/goals"
	"github.com/harperreed/bodygoal/internal/progress"
)

const barWidth = 20

var (
	progressPrevious float64
	progressJSON     bool
)

var progressCmd = &cobra.Command{
	Use:     "progress",
	Aliases: []string{"p", "status"},
	Short:   "Show progress toward the active goal",
	Long: `Show progress toward the active goal.

For each targeted metric: the percentage of the way from start to target,
what remains, the trend over the recent window, and when the target will
be reached at that pace.

Pass --previous with the overall percentage from your last check to see
which milestones (25/50/75/100%) were crossed since.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var previous *float64
		if cmd.Flags().Changed("previous") {
			previous = &progressPrevious
		}

		svc := goals.NewService(repo, goalOptions()...)
		data, err := svc.GetProgress(cmd.Context(), cfg.GetUserID(), previous)

		out := cmd.OutOrStdout()
		switch {
		case errors.Is(err, goals.ErrNoActiveGoal):
			fmt.Fprintln(out, "No active goal. Set one with 'bodygoal goal set'.")
			return nil
		case errors.Is(err, goals.ErrNoBodyCompositionData):
			fmt.Fprintln(out, "No measurements yet. Record one with 'bodygoal measure add'.")
			return nil
		case err != nil:
			return fmt.Errorf("failed to compute progress: %w", err)
		}

		if progressJSON {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(data)
		}

		printProgress(out, data)
		return nil
	},
}

func printProgress(out io.Writer, data *goals.ProgressData) {
	faint := color.New(color.Faint)
	bold := color.New(color.Bold)

	bold.Fprintf(out, "%s goal ", data.Goal.GoalType)
	faint.Fprintf(out, "%s, set %s\n\n", shortID(data.Goal.ID.String()), data.Goal.CreatedAt.Local().Format("2006-01-02"))

	fmt.Fprintf(out, "%s %s %5.1f%%\n", padRight("overall", 12), bar(data.OverallProgress), data.OverallProgress)

	for _, metric := range data.Goal.SetMetrics() {
		mp := data.Metric(metric)
		if mp == nil {
			continue
		}
		unit := metric.Unit()

		current := "no data"
		if mp.Current != nil {
			current = fmt.Sprintf("%.1f", *mp.Current)
		}
		fmt.Fprintf(out, "%s %s %5.1f%%  %.1f → %.1f %s, now %s, %.1f to go\n",
			padRight(string(metric), 12),
			bar(mp.Progress.Percentage),
			mp.Progress.Percentage,
			mp.Start, mp.Target, unit, current, mp.Progress.Remaining)

		if mp.Trend == nil {
			faint.Fprintf(out, "%s not enough data for a trend\n", padRight("", 12))
			continue
		}
		fmt.Fprintf(out, "%s trend %+.2f %s/week over %d samples (%d-day window)\n",
			padRight("", 12), mp.Trend.WeeklyRate(), unit, mp.Trend.SampleCount, mp.Trend.WindowDays)

		if mp.Projection != nil {
			eta := "not reachable at this pace"
			if mp.Projection.EstimatedCompletionDate != nil {
				eta = "reach target " + mp.Projection.EstimatedCompletionDate.Format("2006-01-02")
			}
			track := color.New(color.FgGreen).Sprint("on track")
			if !mp.Projection.IsOnTrack {
				track = color.New(color.FgYellow).Sprint("behind plan")
			}
			fmt.Fprintf(out, "%s %s, %s\n", padRight("", 12), eta, track)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintf(out, "milestones: %s\n", milestoneList(data.AchievedMilestones))
	for _, m := range data.NewlyAchievedMilestones {
		color.New(color.FgGreen).Fprintf(out, "✓ reached %s (%.0f%%)\n", m, m.Threshold())
	}
	faint.Fprintf(out, "%d measurements in window\n", data.DataPointsCount)
}

func bar(percentage float64) string {
	filled := int(percentage / 100 * barWidth)
	if filled > barWidth {
		filled = barWidth
	}
	if filled < 0 {
		filled = 0
	}
	return "[" + strings.Repeat("#", filled) + strings.Repeat(".", barWidth-filled) + "]"
}

func milestoneList(ms []progress.Milestone) string {
	if len(ms) == 0 {
		return "none yet"
	}
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.String()
	}
	return strings.Join(names, ", ")
}

func init() {
	progressCmd.Flags().Float64Var(&progressPrevious, "previous", 0, "overall percentage from the last check")
	progressCmd.Flags().BoolVar(&progressJSON, "json", false, "print the full report as JSON")
	rootCmd.AddCommand(progressCmd)
}
