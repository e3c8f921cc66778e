// ABOUTME: Progress calculator for body-composition goals.
// ABOUTME: Direction-aware, clamped percentages per metric and their mean across a goal.
package progress

import (
	"math"

	"github.com/harperreed/bodygoal/internal/models"
)

// Direction says whether reaching the target needs a decrease or an increase.
type Direction string

const (
	DirectionLoss Direction = "loss"
	DirectionGain Direction = "gain"
)

// Default clamp for reported percentages. Below zero would read as regression
// past the start; above the max adds nothing for milestones.
const (
	DefaultMinPercentage = 0.0
	DefaultMaxPercentage = 150.0
)

// Bounds is the clamp applied to raw progress percentages.
type Bounds struct {
	Min float64
	Max float64
}

// DefaultBounds is the 0–150 clamp.
var DefaultBounds = Bounds{Min: DefaultMinPercentage, Max: DefaultMaxPercentage}

// Valid reports whether b keeps every result reachable: zero progress at the
// start and the Complete milestone at the target.
func (b Bounds) Valid() bool {
	return b.Min <= 0 && b.Max >= Complete.Threshold()
}

// wholeTolerance is the float-noise policy: a percentage this close to a
// whole number is that number, so 74.99999999999822 from 0.3/0.4 reads as 75.
// Values further away are taken as they are, so 24.999 stays below Quarter.
const wholeTolerance = 1e-9

// Result is the progress of a single metric.
type Result struct {
	Percentage float64   `json:"percentage"`
	Remaining  float64   `json:"remaining"`
	Direction  Direction `json:"direction"`
}

// GoalProgress is the progress of every targeted metric of a goal.
type GoalProgress struct {
	Metrics  map[models.Metric]Result `json:"metrics"`
	Overall  float64                  `json:"overall"`
	Achieved []Milestone              `json:"achieved"`
}

// Calculator computes progress percentages. It holds no mutable state and is
// safe for concurrent use.
type Calculator struct {
	bounds Bounds
}

// NewCalculator returns a Calculator that clamps to bounds. Bounds that are
// not Valid fall back to DefaultBounds.
func NewCalculator(bounds Bounds) *Calculator {
	if !bounds.Valid() {
		bounds = DefaultBounds
	}
	return &Calculator{bounds: bounds}
}

// Bounds returns the clamp in use.
func (c *Calculator) Bounds() Bounds {
	return c.bounds
}

// CalculateProgress computes how far current has moved from start toward target.
func (c *Calculator) CalculateProgress(current, start, target float64) Result {
	r := Result{
		Direction: DirectionGain,
		Remaining: math.Abs(target - current),
	}
	if target < start {
		r.Direction = DirectionLoss
	}

	// No change required: reached only when sitting exactly on the target.
	if nearlyEqual(start, target) {
		if nearlyEqual(current, target) {
			r.Percentage = c.clamp(100)
		} else {
			r.Percentage = c.clamp(0)
		}
		return r
	}

	raw := (current - start) / (target - start) * 100
	r.Percentage = c.clamp(snapWhole(raw))
	return r
}

// CalculateGoalProgress computes progress for every metric the goal targets,
// using the matching current value. Untargeted metrics are omitted. A target
// with no current value is measured against its start (zero progress).
//
// Callers must pass a goal with at least one target; an empty goal yields
// zero overall progress and no milestones.
func (c *Calculator) CalculateGoalProgress(goal *models.Goal, currentWeight, currentBodyFatPct, currentMuscleMass *float64) GoalProgress {
	current := map[models.Metric]*float64{
		models.MetricWeight:     currentWeight,
		models.MetricBodyFat:    currentBodyFatPct,
		models.MetricMuscleMass: currentMuscleMass,
	}

	gp := GoalProgress{
		Metrics:  make(map[models.Metric]Result),
		Achieved: []Milestone{},
	}

	var sum float64
	for _, metric := range goal.SetMetrics() {
		t := goal.Target(metric)
		value := t.Start
		if v := current[metric]; v != nil {
			value = *v
		}
		r := c.CalculateProgress(value, t.Start, t.Target)
		gp.Metrics[metric] = r
		sum += r.Percentage
	}

	if len(gp.Metrics) == 0 {
		return gp
	}

	gp.Overall = snapWhole(sum / float64(len(gp.Metrics)))
	gp.Achieved = DetectMilestones(gp.Overall)
	return gp
}

func (c *Calculator) clamp(v float64) float64 {
	return math.Max(c.bounds.Min, math.Min(c.bounds.Max, v))
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < wholeTolerance
}

func snapWhole(v float64) float64 {
	if r := math.Round(v); math.Abs(v-r) < wholeTolerance {
		return r
	}
	return v
}

var defaultCalculator = NewCalculator(DefaultBounds)

// CalculateProgress computes single-metric progress with the default 0–150 clamp.
func CalculateProgress(current, start, target float64) Result {
	return defaultCalculator.CalculateProgress(current, start, target)
}
