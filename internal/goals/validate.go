// ABOUTME: Goal validation: realistic bounds, rate caps, and direction consistency.
// ABOUTME: Returns *ValidationError describing the first rule broken.
package goals

import (
	"math"
	"time"

	"github.com/harperreed/bodygoal/internal/models"
)

const (
	MinDailyCalories = 800
	MaxDailyCalories = 10000
)

// ValidateGoal checks a fully assembled goal.
func ValidateGoal(g *models.Goal) error {
	if !models.IsValidGoalType(string(g.GoalType)) {
		return invalid("unknown goal type %q", g.GoalType)
	}
	if g.GoalType != models.GoalMaintain && len(g.Targets) == 0 {
		return invalid("a %s goal needs at least one target", g.GoalType)
	}

	for _, metric := range g.SetMetrics() {
		if err := validateTarget(metric, g.Target(metric)); err != nil {
			return err
		}
	}
	for metric := range g.Targets {
		if !models.IsValidMetric(string(metric)) {
			return invalid("unknown metric %q", metric)
		}
	}

	if err := validateGoalDirection(g); err != nil {
		return err
	}

	if kcal := g.DailyCalorieTarget; kcal != nil {
		if *kcal < MinDailyCalories || *kcal > MaxDailyCalories {
			return invalid("daily calorie target %d outside %d-%d kcal", *kcal, MinDailyCalories, MaxDailyCalories)
		}
	}
	return nil
}

func validateTarget(metric models.Metric, t *models.MetricTarget) error {
	lim := models.Limits[metric]
	if t.Target < lim.Min || t.Target > lim.Max {
		return invalid("%s target %.1f%s outside %.0f-%.0f", metric, t.Target, metric.Unit(), lim.Min, lim.Max)
	}
	if t.WeeklyRate == nil {
		return nil
	}

	rate := *t.WeeklyRate
	if math.Abs(rate) > lim.MaxWeeklyRate {
		return invalid("%s weekly rate %.2f exceeds %.1f%s per week", metric, rate, lim.MaxWeeklyRate, metric.Unit())
	}

	delta := t.Target - t.Start
	switch {
	case rate == 0:
	case math.Abs(delta) < 1e-9:
		return invalid("%s is already at target but weekly rate is %.2f", metric, rate)
	case math.Signbit(rate) != math.Signbit(delta):
		return invalid("%s weekly rate %.2f moves away from target %.1f", metric, rate, t.Target)
	}
	return nil
}

func validateGoalDirection(g *models.Goal) error {
	w := g.Target(models.MetricWeight)
	if w == nil {
		return nil
	}

	switch g.GoalType {
	case models.GoalLose:
		if w.WeeklyRate != nil && *w.WeeklyRate > 0 {
			return invalid("lose goal cannot have a positive weight rate")
		}
		if w.Target > w.Start {
			return invalid("lose goal target weight %.1f is above start %.1f", w.Target, w.Start)
		}
	case models.GoalGain:
		if w.WeeklyRate != nil && *w.WeeklyRate < 0 {
			return invalid("gain goal cannot have a negative weight rate")
		}
		if w.Target < w.Start {
			return invalid("gain goal target weight %.1f is below start %.1f", w.Target, w.Start)
		}
	case models.GoalMaintain:
		if w.WeeklyRate != nil && *w.WeeklyRate != 0 {
			return invalid("maintain goal requires a zero weight rate")
		}
	}
	return nil
}

// weeklyRateUntil returns the rate that moves start to target by targetDate.
func weeklyRateUntil(start, target float64, targetDate, now time.Time) (float64, error) {
	if !targetDate.After(now) {
		return 0, invalid("target date %s is not in the future", targetDate.Format("2006-01-02"))
	}
	weeks := targetDate.Sub(now).Hours() / 24 / 7
	return (target - start) / weeks, nil
}
