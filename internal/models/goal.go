// ABOUTME: Goal model with sparse per-metric targets and start snapshots.
// ABOUTME: Only one goal per user is active at a time; goals are never hard-deleted.
package models

import (
	"time"

	"github.com/google/uuid"
)

// GoalType is the user's intent for the goal.
type GoalType string

const (
	GoalLose     GoalType = "lose"
	GoalMaintain GoalType = "maintain"
	GoalGain     GoalType = "gain"
)

// AllGoalTypes returns all valid goal types.
var AllGoalTypes = []GoalType{GoalLose, GoalMaintain, GoalGain}

// IsValidGoalType checks if a string is a valid goal type.
func IsValidGoalType(s string) bool {
	for _, gt := range AllGoalTypes {
		if string(gt) == s {
			return true
		}
	}
	return false
}

// MetricTarget is the target for a single metric. Start is captured from the
// latest measurement when the goal is created and is never rewritten.
type MetricTarget struct {
	Start      float64  `json:"start" yaml:"start"`
	Target     float64  `json:"target" yaml:"target"`
	WeeklyRate *float64 `json:"weekly_rate,omitempty" yaml:"weekly_rate,omitempty"`
}

// Goal is a user's body-composition goal.
type Goal struct {
	ID                 uuid.UUID                `json:"id" yaml:"id"`
	UserID             string                   `json:"user_id" yaml:"user_id"`
	GoalType           GoalType                 `json:"goal_type" yaml:"goal_type"`
	Targets            map[Metric]*MetricTarget `json:"targets" yaml:"targets"`
	DailyCalorieTarget *int                     `json:"daily_calorie_target,omitempty" yaml:"daily_calorie_target,omitempty"`
	IsActive           bool                     `json:"is_active" yaml:"is_active"`
	CreatedAt          time.Time                `json:"created_at" yaml:"created_at"`
	UpdatedAt          time.Time                `json:"updated_at" yaml:"updated_at"`
}

// NewGoal creates an active Goal with generated UUID and current timestamp.
func NewGoal(userID string, goalType GoalType) *Goal {
	now := time.Now()
	return &Goal{
		ID:        uuid.New(),
		UserID:    userID,
		GoalType:  goalType,
		Targets:   make(map[Metric]*MetricTarget),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithTarget sets the target for a metric.
func (g *Goal) WithTarget(metric Metric, start, target float64) *Goal {
	if g.Targets == nil {
		g.Targets = make(map[Metric]*MetricTarget)
	}
	g.Targets[metric] = &MetricTarget{Start: start, Target: target}
	return g
}

// WithWeeklyRate sets the weekly rate for an already-targeted metric.
func (g *Goal) WithWeeklyRate(metric Metric, rate float64) *Goal {
	if t, ok := g.Targets[metric]; ok {
		t.WeeklyRate = &rate
	}
	return g
}

// WithDailyCalorieTarget sets the daily calorie target.
func (g *Goal) WithDailyCalorieTarget(kcal int) *Goal {
	g.DailyCalorieTarget = &kcal
	return g
}

// Target returns the target for a metric, or nil when it is not set.
func (g *Goal) Target(metric Metric) *MetricTarget {
	if g.Targets == nil {
		return nil
	}
	return g.Targets[metric]
}

// SetMetrics returns the targeted metrics in display order.
func (g *Goal) SetMetrics() []Metric {
	var out []Metric
	for _, m := range AllMetrics {
		if g.Target(m) != nil {
			out = append(out, m)
		}
	}
	return out
}

func (g *Goal) targetValue(metric Metric) *float64 {
	t := g.Target(metric)
	if t == nil {
		return nil
	}
	v := t.Target
	return &v
}

func (g *Goal) startValue(metric Metric) *float64 {
	t := g.Target(metric)
	if t == nil {
		return nil
	}
	v := t.Start
	return &v
}

func (g *Goal) TargetWeight() *float64     { return g.targetValue(MetricWeight) }
func (g *Goal) TargetBodyFatPct() *float64 { return g.targetValue(MetricBodyFat) }
func (g *Goal) TargetMuscleMass() *float64 { return g.targetValue(MetricMuscleMass) }
func (g *Goal) StartWeight() *float64      { return g.startValue(MetricWeight) }
func (g *Goal) StartBodyFatPct() *float64  { return g.startValue(MetricBodyFat) }
func (g *Goal) StartMuscleMass() *float64  { return g.startValue(MetricMuscleMass) }

// Clone returns a deep copy of the goal.
func (g *Goal) Clone() *Goal {
	c := *g
	c.Targets = make(map[Metric]*MetricTarget, len(g.Targets))
	for m, t := range g.Targets {
		tc := *t
		if t.WeeklyRate != nil {
			r := *t.WeeklyRate
			tc.WeeklyRate = &r
		}
		c.Targets[m] = &tc
	}
	if g.DailyCalorieTarget != nil {
		k := *g.DailyCalorieTarget
		c.DailyCalorieTarget = &k
	}
	return &c
}
