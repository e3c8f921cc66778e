// ABOUTME: CLI commands for setting, updating, and reviewing goals.
// ABOUTME: Wraps the goal manager; one goal per user is active at a time.
package main

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/harperreed/bodygoal/internal/goals"
	"github.com/harperreed/bodygoal/internal/models"
	"github.com/harperreed/bodygoal/internal/storage"
)

var (
	goalWeight      float64
	goalBodyFat     float64
	goalMuscle      float64
	goalWeightRate  float64
	goalBodyFatRate float64
	goalMuscleRate  float64
	goalBy          string
	goalCalories    int
	goalType        string
	goalActivate    bool
	goalDeactivate  bool
)

var goalCmd = &cobra.Command{
	Use:     "goal",
	Aliases: []string{"g"},
	Short:   "Manage body-composition goals",
}

var goalSetCmd = &cobra.Command{
	Use:   "set <lose|maintain|gain>",
	Short: "Set a new active goal",
	Long: `Set a new active goal, replacing the current one.

Start values come from your latest measurement, so record one first.
Give weekly rates or a --by date, not both. A maintain goal with no
targets holds your current weight.

Examples:
  bodygoal goal set lose --weight 78 --weight-rate -0.5
  bodygoal goal set lose --weight 78 --body-fat 20 --by 2026-03-01
  bodygoal goal set gain --muscle 40 --calories 2800
  bodygoal goal set maintain`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"lose", "maintain", "gain"},
	RunE: func(cmd *cobra.Command, args []string) error {
		if !models.IsValidGoalType(args[0]) {
			return fmt.Errorf("unknown goal type: %s (use lose, maintain, or gain)", args[0])
		}

		targetDate, err := parseGoalDate(goalBy)
		if err != nil {
			return err
		}

		params := goals.SetGoalParams{
			UserID:      cfg.GetUserID(),
			GoalType:    models.GoalType(args[0]),
			Targets:     targetFlags(cmd),
			WeeklyRates: rateFlags(cmd),
			TargetDate:  targetDate,
		}
		if cmd.Flags().Changed("calories") {
			params.DailyCalorieTarget = &goalCalories
		}

		g, err := goals.NewManager(repo, goalOptions()...).SetGoal(cmd.Context(), params)
		if err != nil {
			return fmt.Errorf("failed to set goal: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintf(out, "✓ Set %s goal\n", g.GoalType)
		printGoal(out, g)
		return nil
	},
}

var goalUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an existing goal",
	Long: `Update an existing goal by ID or ID prefix. Only the flags you pass change.
Start values are never rewritten.

Examples:
  bodygoal goal update abc12345 --weight 76
  bodygoal goal update abc12345 --type maintain --weight-rate 0
  bodygoal goal update abc12345 --activate`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		existing, err := storage.GetUserGoal(cmd.Context(), repo, cfg.GetUserID(), args[0])
		if err != nil {
			return err
		}

		if goalActivate && goalDeactivate {
			return fmt.Errorf("--activate and --deactivate are mutually exclusive")
		}

		targetDate, err := parseGoalDate(goalBy)
		if err != nil {
			return err
		}

		params := goals.UpdateGoalParams{
			Targets:     targetFlags(cmd),
			WeeklyRates: rateFlags(cmd),
			TargetDate:  targetDate,
		}
		if goalType != "" {
			if !models.IsValidGoalType(goalType) {
				return fmt.Errorf("unknown goal type: %s", goalType)
			}
			gt := models.GoalType(goalType)
			params.GoalType = &gt
		}
		if cmd.Flags().Changed("calories") {
			params.DailyCalorieTarget = &goalCalories
		}
		if goalActivate || goalDeactivate {
			active := goalActivate
			params.IsActive = &active
		}

		g, err := goals.NewManager(repo, goalOptions()...).UpdateGoal(cmd.Context(), existing.ID, params)
		if err != nil {
			return fmt.Errorf("failed to update goal: %w", err)
		}

		out := cmd.OutOrStdout()
		color.New(color.FgGreen).Fprintln(out, "✓ Updated goal")
		printGoal(out, g)
		return nil
	},
}

var goalShowCmd = &cobra.Command{
	Use:   "show [id]",
	Short: "Show the active goal, or a goal by ID",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()

		var g *models.Goal
		var err error
		if len(args) == 1 {
			g, err = storage.GetUserGoal(cmd.Context(), repo, cfg.GetUserID(), args[0])
		} else {
			g, err = repo.FetchActiveGoal(cmd.Context(), cfg.GetUserID())
		}
		if err != nil {
			return fmt.Errorf("failed to load goal: %w", err)
		}
		if g == nil {
			fmt.Fprintln(out, "No active goal. Set one with 'bodygoal goal set'.")
			return nil
		}

		printGoal(out, g)
		return nil
	},
}

var goalHistoryCmd = &cobra.Command{
	Use:     "history",
	Aliases: []string{"list", "ls"},
	Short:   "List all goals, active first",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		list, err := repo.ListGoals(cmd.Context(), cfg.GetUserID())
		if err != nil {
			return fmt.Errorf("failed to list goals: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(list) == 0 {
			fmt.Fprintln(out, "No goals found.")
			return nil
		}

		faint := color.New(color.Faint)
		for _, g := range list {
			status := faint.Sprint("inactive")
			if g.IsActive {
				status = color.New(color.FgGreen).Sprint("active  ")
			}
			fmt.Fprintf(out, "%s %s %s %s %s\n",
				faint.Sprint(shortID(g.ID.String())),
				faint.Sprint(g.CreatedAt.Local().Format("2006-01-02")),
				status,
				padRight(string(g.GoalType), 9),
				storage.DescribeTargets(g))
		}
		return nil
	},
}

func printGoal(out io.Writer, g *models.Goal) {
	faint := color.New(color.Faint)
	state := "inactive"
	if g.IsActive {
		state = "active"
	}
	fmt.Fprintf(out, "  %s %s goal (%s), set %s\n",
		faint.Sprint(shortID(g.ID.String())),
		g.GoalType,
		state,
		g.CreatedAt.Local().Format("2006-01-02"))
	for _, metric := range g.SetMetrics() {
		t := g.Target(metric)
		rate := ""
		if t.WeeklyRate != nil {
			rate = faint.Sprintf("  %+.2f %s/week", *t.WeeklyRate, metric.Unit())
		}
		fmt.Fprintf(out, "  %s %.1f → %.1f %s%s\n",
			padRight(string(metric), 12), t.Start, t.Target, metric.Unit(), rate)
	}
	if g.DailyCalorieTarget != nil {
		fmt.Fprintf(out, "  %s %d kcal/day\n", padRight("calories", 12), *g.DailyCalorieTarget)
	}
}

func targetFlags(cmd *cobra.Command) map[models.Metric]float64 {
	return changedMetricFlags(cmd, map[string]metricFlag{
		"weight":   {models.MetricWeight, &goalWeight},
		"body-fat": {models.MetricBodyFat, &goalBodyFat},
		"muscle":   {models.MetricMuscleMass, &goalMuscle},
	})
}

func rateFlags(cmd *cobra.Command) map[models.Metric]float64 {
	return changedMetricFlags(cmd, map[string]metricFlag{
		"weight-rate":   {models.MetricWeight, &goalWeightRate},
		"body-fat-rate": {models.MetricBodyFat, &goalBodyFatRate},
		"muscle-rate":   {models.MetricMuscleMass, &goalMuscleRate},
	})
}

type metricFlag struct {
	metric models.Metric
	value  *float64
}

func changedMetricFlags(cmd *cobra.Command, flags map[string]metricFlag) map[models.Metric]float64 {
	out := make(map[models.Metric]float64)
	for name, f := range flags {
		if cmd.Flags().Changed(name) {
			out[f.metric] = *f.value
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseGoalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid date format: %s (use YYYY-MM-DD)", s)
	}
	return &t, nil
}

func addGoalValueFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&goalWeight, "weight", 0, "target weight in kg")
	cmd.Flags().Float64Var(&goalBodyFat, "body-fat", 0, "target body fat in percent")
	cmd.Flags().Float64Var(&goalMuscle, "muscle", 0, "target muscle mass in kg")
	cmd.Flags().Float64Var(&goalWeightRate, "weight-rate", 0, "planned weight change per week (kg, negative to lose)")
	cmd.Flags().Float64Var(&goalBodyFatRate, "body-fat-rate", 0, "planned body fat change per week (percent)")
	cmd.Flags().Float64Var(&goalMuscleRate, "muscle-rate", 0, "planned muscle mass change per week (kg)")
	cmd.Flags().StringVar(&goalBy, "by", "", "reach the targets by this date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&goalCalories, "calories", 0, "daily calorie target (kcal)")
}

func init() {
	addGoalValueFlags(goalSetCmd)
	addGoalValueFlags(goalUpdateCmd)
	goalUpdateCmd.Flags().StringVarP(&goalType, "type", "t", "", "change goal type: lose, maintain, or gain")
	goalUpdateCmd.Flags().BoolVar(&goalActivate, "activate", false, "make this the active goal")
	goalUpdateCmd.Flags().BoolVar(&goalDeactivate, "deactivate", false, "deactivate this goal")

	goalCmd.AddCommand(goalSetCmd)
	goalCmd.AddCommand(goalUpdateCmd)
	goalCmd.AddCommand(goalShowCmd)
	goalCmd.AddCommand(goalHistoryCmd)
	rootCmd.AddCommand(goalCmd)
}
