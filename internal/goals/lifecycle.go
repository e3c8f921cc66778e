// ABOUTME: Goal lifecycle: create with start snapshot, update preserving history fields.
// ABOUTME: Keeps exactly one active goal per user by switching goals under a user lock.
package goals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/harperreed/bodygoal/internal/metrics"
	"github.com/harperreed/bodygoal/internal/models"
)

// SetGoalParams describes a new goal. Give either WeeklyRates or TargetDate;
// with a TargetDate the rate for each target is derived from the start value.
type SetGoalParams struct {
	UserID             string
	GoalType           models.GoalType
	Targets            map[models.Metric]float64
	WeeklyRates        map[models.Metric]float64
	TargetDate         *time.Time
	DailyCalorieTarget *int
}

// UpdateGoalParams overlays an existing goal. Nil and empty fields are left
// untouched.
type UpdateGoalParams struct {
	GoalType           *models.GoalType
	Targets            map[models.Metric]float64
	WeeklyRates        map[models.Metric]float64
	TargetDate         *time.Time
	DailyCalorieTarget *int
	IsActive           *bool
}

func (p UpdateGoalParams) isEmpty() bool {
	return p.GoalType == nil && len(p.Targets) == 0 && len(p.WeeklyRates) == 0 &&
		p.TargetDate == nil && p.DailyCalorieTarget == nil && p.IsActive == nil
}

// Manager sets and updates goals against a Store.
type Manager struct {
	store   Store
	now     func() time.Time
	metrics *metrics.Manager
}

// NewManager returns a Manager over store.
func NewManager(store Store, opts ...Option) *Manager {
	s := applyOptions(opts)
	return &Manager{
		store:   store,
		now:     s.now,
		metrics: s.metrics,
	}
}

// SetGoal creates a new active goal for the user, snapshotting start values
// from the latest measurement and deactivating any previous goal.
func (m *Manager) SetGoal(ctx context.Context, params SetGoalParams) (*models.Goal, error) {
	if params.UserID == "" {
		return nil, invalid("user id is required")
	}
	if !models.IsValidGoalType(string(params.GoalType)) {
		return nil, invalid("unknown goal type %q", params.GoalType)
	}
	if err := checkMetricKeys(params.Targets, params.WeeklyRates); err != nil {
		return nil, err
	}
	if params.GoalType != models.GoalMaintain && len(params.Targets) == 0 {
		return nil, invalid("a %s goal needs at least one target", params.GoalType)
	}
	if len(params.WeeklyRates) > 0 && params.TargetDate != nil {
		return nil, invalid("give either weekly rates or a target date, not both")
	}
	for metric := range params.WeeklyRates {
		if _, ok := params.Targets[metric]; !ok && len(params.Targets) > 0 {
			return nil, invalid("weekly rate for %s has no matching target", metric)
		}
	}

	latest, err := m.store.FetchLatestMeasurement(ctx, params.UserID)
	if err != nil {
		return nil, m.fetchFailed("fetch latest measurement", err)
	}
	if latest == nil {
		return nil, ErrNoBodyCompositionData
	}

	now := m.now()
	goal := models.NewGoal(params.UserID, params.GoalType)
	goal.CreatedAt = now
	goal.UpdatedAt = now
	goal.DailyCalorieTarget = params.DailyCalorieTarget

	targets := params.Targets
	if params.GoalType == models.GoalMaintain && len(targets) == 0 {
		w, ok := latest.Value(models.MetricWeight)
		if !ok {
			return nil, fmt.Errorf("%w: latest measurement has no weight to maintain", ErrNoBodyCompositionData)
		}
		targets = map[models.Metric]float64{models.MetricWeight: w}
	}

	for metric, target := range targets {
		start, ok := latest.Value(metric)
		if !ok {
			return nil, fmt.Errorf("%w: latest measurement has no %s", ErrNoBodyCompositionData, metric)
		}
		goal.WithTarget(metric, start, target)

		switch {
		case params.TargetDate != nil:
			rate, err := weeklyRateUntil(start, target, *params.TargetDate, now)
			if err != nil {
				return nil, err
			}
			goal.WithWeeklyRate(metric, rate)
		case params.WeeklyRates != nil:
			if rate, ok := params.WeeklyRates[metric]; ok {
				goal.WithWeeklyRate(metric, rate)
			}
		}
		if params.GoalType == models.GoalMaintain && goal.Target(metric).WeeklyRate == nil {
			goal.WithWeeklyRate(metric, 0)
		}
	}

	if err := ValidateGoal(goal); err != nil {
		return nil, err
	}

	err = m.store.WithUserLock(ctx, params.UserID, func(tx Store) error {
		if err := tx.DeactivateAllGoals(ctx, params.UserID); err != nil {
			return m.fetchFailed("deactivate goals", err)
		}
		if err := tx.CreateGoal(ctx, goal); err != nil {
			return m.fetchFailed("create goal", err)
		}
		return nil
	})
	if err != nil {
		return nil, m.asFetchError("set goal", err)
	}

	m.metrics.GoalSet()
	log.WithFields(log.Fields{
		"user":    params.UserID,
		"goal":    goal.ID.String(),
		"type":    goal.GoalType,
		"metrics": goal.SetMetrics(),
	}).Info("goal set")

	return goal, nil
}

// UpdateGoal overlays params onto the goal with goalID. Start values, ID,
// UserID and CreatedAt never change; UpdatedAt is always refreshed.
func (m *Manager) UpdateGoal(ctx context.Context, goalID uuid.UUID, params UpdateGoalParams) (*models.Goal, error) {
	if err := checkMetricKeys(params.Targets, params.WeeklyRates); err != nil {
		return nil, err
	}
	if len(params.WeeklyRates) > 0 && params.TargetDate != nil {
		return nil, invalid("give either weekly rates or a target date, not both")
	}

	existing, err := m.store.FetchGoalByID(ctx, goalID)
	if err != nil {
		return nil, m.fetchFailed("fetch goal", err)
	}
	if existing == nil {
		return nil, ErrGoalNotFound
	}

	now := m.now()
	updated := existing.Clone()

	if params.GoalType != nil {
		if !models.IsValidGoalType(string(*params.GoalType)) {
			return nil, invalid("unknown goal type %q", *params.GoalType)
		}
		updated.GoalType = *params.GoalType
	}
	for metric, target := range params.Targets {
		t := updated.Target(metric)
		if t == nil {
			return nil, invalid("%s has no start value on this goal; set a new goal to track it", metric)
		}
		t.Target = target
	}
	for metric, rate := range params.WeeklyRates {
		t := updated.Target(metric)
		if t == nil {
			return nil, invalid("%s is not targeted by this goal", metric)
		}
		r := rate
		t.WeeklyRate = &r
	}
	if params.TargetDate != nil {
		for _, metric := range updated.SetMetrics() {
			t := updated.Target(metric)
			rate, err := weeklyRateUntil(t.Start, t.Target, *params.TargetDate, now)
			if err != nil {
				return nil, err
			}
			t.WeeklyRate = &rate
		}
	}
	if params.DailyCalorieTarget != nil {
		kcal := *params.DailyCalorieTarget
		updated.DailyCalorieTarget = &kcal
	}
	if params.IsActive != nil {
		updated.IsActive = *params.IsActive
	}

	updated.ID = existing.ID
	updated.UserID = existing.UserID
	updated.CreatedAt = existing.CreatedAt
	for metric, t := range updated.Targets {
		t.Start = existing.Targets[metric].Start
	}
	updated.UpdatedAt = now

	if err := ValidateGoal(updated); err != nil {
		return nil, err
	}

	activating := updated.IsActive && !existing.IsActive
	if activating {
		err = m.store.WithUserLock(ctx, updated.UserID, func(tx Store) error {
			if err := tx.DeactivateAllGoals(ctx, updated.UserID); err != nil {
				return m.fetchFailed("deactivate goals", err)
			}
			if err := tx.UpdateGoal(ctx, updated); err != nil {
				return m.fetchFailed("update goal", err)
			}
			return nil
		})
		err = m.asFetchError("update goal", err)
	} else if err = m.store.UpdateGoal(ctx, updated); err != nil {
		err = m.fetchFailed("update goal", err)
	}
	if err != nil {
		return nil, err
	}

	m.metrics.GoalUpdated()
	entry := log.WithFields(log.Fields{"user": updated.UserID, "goal": updated.ID.String()})
	if params.isEmpty() {
		entry.Debug("goal touched without changes")
	} else {
		entry.Info("goal updated")
	}

	return updated, nil
}

func checkMetricKeys(targets, rates map[models.Metric]float64) error {
	for metric := range targets {
		if !models.IsValidMetric(string(metric)) {
			return invalid("unknown metric %q", metric)
		}
	}
	for metric := range rates {
		if !models.IsValidMetric(string(metric)) {
			return invalid("unknown metric %q", metric)
		}
	}
	return nil
}

func (m *Manager) fetchFailed(op string, err error) error {
	m.metrics.StoreFailure(op)
	return &FetchError{Op: op, Err: err}
}

// asFetchError leaves errors already typed by the closure alone and wraps
// failures of the unit of work itself.
func (m *Manager) asFetchError(op string, err error) error {
	if err == nil {
		return nil
	}
	var fe *FetchError
	if errors.As(err, &fe) {
		return err
	}
	return m.fetchFailed(op, err)
}
