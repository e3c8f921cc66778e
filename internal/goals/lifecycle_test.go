// ABOUTME: Tests for goal creation, update, and validation.
// ABOUTME: Uses the in-memory store for invariants and gomock for failure paths.
package goals_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/mock/gomock"

	"github.com/harperreed/bodygoal/internal/goals"
	"github.com/harperreed/bodygoal/internal/metrics"
	"github.com/harperreed/bodygoal/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }

func seededStore(t *testing.T) *memStore {
	t.Helper()
	s := newMemStore()
	s.addMeasurement(models.NewMeasurement("alice").
		WithValue(models.MetricWeight, 80).
		WithValue(models.MetricBodyFat, 25).
		WithRecordedAt(fixedNow.Add(-time.Hour)))
	return s
}

func TestManager_SetGoal(t *testing.T) {
	store := seededStore(t)
	m := metrics.NewTestManager()
	mgr := goals.NewManager(store, goals.WithClock(fixedClock), goals.WithMetrics(m))

	goal, err := mgr.SetGoal(context.Background(), goals.SetGoalParams{
		UserID:             "alice",
		GoalType:           models.GoalLose,
		Targets:            map[models.Metric]float64{models.MetricWeight: 75, models.MetricBodyFat: 20},
		WeeklyRates:        map[models.Metric]float64{models.MetricWeight: -0.5},
		DailyCalorieTarget: intPtr(2000),
	})
	require.NoError(t, err)

	assert.True(t, goal.IsActive)
	assert.Equal(t, fixedNow, goal.CreatedAt)
	assert.Equal(t, 80.0, *goal.StartWeight())
	assert.Equal(t, 25.0, *goal.StartBodyFatPct())
	assert.Equal(t, 75.0, *goal.TargetWeight())
	assert.Nil(t, goal.TargetMuscleMass())
	assert.Equal(t, -0.5, *goal.Target(models.MetricWeight).WeeklyRate)
	assert.Nil(t, goal.Target(models.MetricBodyFat).WeeklyRate)

	stored, err := store.FetchActiveGoal(context.Background(), "alice")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, goal.ID, stored.ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterGoalsSet))
}

func TestManager_SetGoal_ReplacesActiveGoal(t *testing.T) {
	store := seededStore(t)
	mgr := goals.NewManager(store, goals.WithClock(fixedClock))
	ctx := context.Background()

	first, err := mgr.SetGoal(ctx, goals.SetGoalParams{
		UserID:   "alice",
		GoalType: models.GoalLose,
		Targets:  map[models.Metric]float64{models.MetricWeight: 75},
	})
	require.NoError(t, err)

	second, err := mgr.SetGoal(ctx, goals.SetGoalParams{
		UserID:   "alice",
		GoalType: models.GoalLose,
		Targets:  map[models.Metric]float64{models.MetricWeight: 72},
	})
	require.NoError(t, err)

	active := store.activeGoals("alice")
	require.Len(t, active, 1)
	assert.Equal(t, second.ID, active[0].ID)

	old, err := store.FetchGoalByID(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, old, "replaced goals are kept")
	assert.False(t, old.IsActive)
}

func TestManager_SetGoal_ConcurrentCallsLeaveOneActive(t *testing.T) {
	store := seededStore(t)
	mgr := goals.NewManager(store, goals.WithClock(fixedClock))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(target float64) {
			defer wg.Done()
			_, err := mgr.SetGoal(context.Background(), goals.SetGoalParams{
				UserID:   "alice",
				GoalType: models.GoalLose,
				Targets:  map[models.Metric]float64{models.MetricWeight: target},
			})
			assert.NoError(t, err)
		}(70 + float64(i))
	}
	wg.Wait()

	assert.Len(t, store.activeGoals("alice"), 1)
	assert.Equal(t, 10, store.goalCount())
}

func TestManager_SetGoal_NoBodyCompositionData(t *testing.T) {
	ctx := context.Background()

	t.Run("NoMeasurement", func(t *testing.T) {
		store := newMemStore()
		prior := models.NewGoal("alice", models.GoalLose).WithTarget(models.MetricWeight, 80, 75)
		store.addGoal(prior)
		mgr := goals.NewManager(store, goals.WithClock(fixedClock))

		_, err := mgr.SetGoal(ctx, goals.SetGoalParams{
			UserID:   "alice",
			GoalType: models.GoalLose,
			Targets:  map[models.Metric]float64{models.MetricWeight: 70},
		})
		require.ErrorIs(t, err, goals.ErrNoBodyCompositionData)

		active := store.activeGoals("alice")
		require.Len(t, active, 1, "a failed set must not deactivate the current goal")
		assert.Equal(t, prior.ID, active[0].ID)
	})

	t.Run("MissingTargetedMetric", func(t *testing.T) {
		store := seededStore(t)
		mgr := goals.NewManager(store, goals.WithClock(fixedClock))

		_, err := mgr.SetGoal(ctx, goals.SetGoalParams{
			UserID:   "alice",
			GoalType: models.GoalGain,
			Targets:  map[models.Metric]float64{models.MetricMuscleMass: 40},
		})
		require.ErrorIs(t, err, goals.ErrNoBodyCompositionData)
		assert.Zero(t, store.goalCount())
	})
}

func TestManager_SetGoal_MaintainDefaults(t *testing.T) {
	store := seededStore(t)
	mgr := goals.NewManager(store, goals.WithClock(fixedClock))

	goal, err := mgr.SetGoal(context.Background(), goals.SetGoalParams{
		UserID:   "alice",
		GoalType: models.GoalMaintain,
	})
	require.NoError(t, err)

	w := goal.Target(models.MetricWeight)
	require.NotNil(t, w)
	assert.Equal(t, 80.0, w.Start)
	assert.Equal(t, 80.0, w.Target)
	require.NotNil(t, w.WeeklyRate)
	assert.Zero(t, *w.WeeklyRate)
}

func TestManager_SetGoal_TargetDate(t *testing.T) {
	store := seededStore(t)
	mgr := goals.NewManager(store, goals.WithClock(fixedClock))
	ctx := context.Background()

	inFourWeeks := fixedNow.AddDate(0, 0, 28)
	goal, err := mgr.SetGoal(ctx, goals.SetGoalParams{
		UserID:     "alice",
		GoalType:   models.GoalLose,
		Targets:    map[models.Metric]float64{models.MetricWeight: 76},
		TargetDate: &inFourWeeks,
	})
	require.NoError(t, err)
	assert.InDelta(t, -1.0, *goal.Target(models.MetricWeight).WeeklyRate, 1e-9)

	yesterday := fixedNow.AddDate(0, 0, -1)
	_, err = mgr.SetGoal(ctx, goals.SetGoalParams{
		UserID:     "alice",
		GoalType:   models.GoalLose,
		Targets:    map[models.Metric]float64{models.MetricWeight: 76},
		TargetDate: &yesterday,
	})
	assert.True(t, goals.IsValidation(err), "got %v", err)

	_, err = mgr.SetGoal(ctx, goals.SetGoalParams{
		UserID:      "alice",
		GoalType:    models.GoalLose,
		Targets:     map[models.Metric]float64{models.MetricWeight: 76},
		WeeklyRates: map[models.Metric]float64{models.MetricWeight: -0.5},
		TargetDate:  &inFourWeeks,
	})
	assert.True(t, goals.IsValidation(err), "got %v", err)
}

func TestManager_SetGoal_Validation(t *testing.T) {
	testCases := []struct {
		name   string
		params goals.SetGoalParams
	}{
		{
			name:   "LoseWithoutTargets",
			params: goals.SetGoalParams{GoalType: models.GoalLose},
		},
		{
			name:   "UnknownGoalType",
			params: goals.SetGoalParams{GoalType: "bulk", Targets: map[models.Metric]float64{models.MetricWeight: 75}},
		},
		{
			name:   "UnknownMetric",
			params: goals.SetGoalParams{GoalType: models.GoalLose, Targets: map[models.Metric]float64{"height": 180}},
		},
		{
			name:   "WeightOutOfBounds",
			params: goals.SetGoalParams{GoalType: models.GoalLose, Targets: map[models.Metric]float64{models.MetricWeight: 15}},
		},
		{
			name:   "BodyFatOutOfBounds",
			params: goals.SetGoalParams{GoalType: models.GoalLose, Targets: map[models.Metric]float64{models.MetricBodyFat: 1}},
		},
		{
			name: "RateTooFast",
			params: goals.SetGoalParams{
				GoalType:    models.GoalLose,
				Targets:     map[models.Metric]float64{models.MetricWeight: 70},
				WeeklyRates: map[models.Metric]float64{models.MetricWeight: -2.5},
			},
		},
		{
			name: "RateAwayFromTarget",
			params: goals.SetGoalParams{
				GoalType:    models.GoalMaintain,
				Targets:     map[models.Metric]float64{models.MetricBodyFat: 20},
				WeeklyRates: map[models.Metric]float64{models.MetricBodyFat: 0.5},
			},
		},
		{
			name: "LoseWithPositiveRate",
			params: goals.SetGoalParams{
				GoalType:    models.GoalLose,
				Targets:     map[models.Metric]float64{models.MetricWeight: 80},
				WeeklyRates: map[models.Metric]float64{models.MetricWeight: 0.5},
			},
		},
		{
			name:   "LoseTargetAboveStart",
			params: goals.SetGoalParams{GoalType: models.GoalLose, Targets: map[models.Metric]float64{models.MetricWeight: 85}},
		},
		{
			name: "GainWithNegativeRate",
			params: goals.SetGoalParams{
				GoalType:    models.GoalGain,
				Targets:     map[models.Metric]float64{models.MetricWeight: 85},
				WeeklyRates: map[models.Metric]float64{models.MetricWeight: -0.5},
			},
		},
		{
			name: "MaintainWithWeightRate",
			params: goals.SetGoalParams{
				GoalType:    models.GoalMaintain,
				Targets:     map[models.Metric]float64{models.MetricWeight: 78},
				WeeklyRates: map[models.Metric]float64{models.MetricWeight: -0.25},
			},
		},
		{
			name: "CaloriesTooLow",
			params: goals.SetGoalParams{
				GoalType:           models.GoalLose,
				Targets:            map[models.Metric]float64{models.MetricWeight: 75},
				DailyCalorieTarget: intPtr(500),
			},
		},
		{
			name: "RateWithoutTarget",
			params: goals.SetGoalParams{
				GoalType:    models.GoalLose,
				Targets:     map[models.Metric]float64{models.MetricWeight: 75},
				WeeklyRates: map[models.Metric]float64{models.MetricBodyFat: -0.2},
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			store := seededStore(t)
			mgr := goals.NewManager(store, goals.WithClock(fixedClock))

			params := tc.params
			params.UserID = "alice"
			_, err := mgr.SetGoal(context.Background(), params)

			var ve *goals.ValidationError
			require.ErrorAs(t, err, &ve)
			assert.NotEmpty(t, ve.Reason)
			assert.Zero(t, store.goalCount())
		})
	}
}

func TestManager_SetGoal_CreateFailureRollsBack(t *testing.T) {
	store := seededStore(t)
	prior := models.NewGoal("alice", models.GoalLose).WithTarget(models.MetricWeight, 82, 78)
	store.addGoal(prior)
	store.createErr = errors.New("disk full")

	m := metrics.NewTestManager()
	mgr := goals.NewManager(store, goals.WithClock(fixedClock), goals.WithMetrics(m))

	_, err := mgr.SetGoal(context.Background(), goals.SetGoalParams{
		UserID:   "alice",
		GoalType: models.GoalLose,
		Targets:  map[models.Metric]float64{models.MetricWeight: 75},
	})

	var fe *goals.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "create goal", fe.Op)
	assert.ErrorIs(t, err, store.createErr)

	active := store.activeGoals("alice")
	require.Len(t, active, 1)
	assert.Equal(t, prior.ID, active[0].ID)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CounterStoreFailures.WithLabelValues("create goal")))
}

func TestManager_SetGoal_FetchFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	storeMock := NewMockStore(ctrl)
	mgr := goals.NewManager(storeMock, goals.WithClock(fixedClock))

	boom := errors.New("connection reset")
	storeMock.EXPECT().FetchLatestMeasurement(gomock.Any(), "alice").Return(nil, boom)

	goal, err := mgr.SetGoal(context.Background(), goals.SetGoalParams{
		UserID:   "alice",
		GoalType: models.GoalLose,
		Targets:  map[models.Metric]float64{models.MetricWeight: 75},
	})
	require.Error(t, err)
	assert.Nil(t, goal)
	assert.ErrorIs(t, err, boom)

	var fe *goals.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "fetch latest measurement", fe.Op)
}

func TestManager_UpdateGoal(t *testing.T) {
	ctx := context.Background()
	created := fixedNow.AddDate(0, 0, -10)

	newGoal := func() *models.Goal {
		g := models.NewGoal("alice", models.GoalLose).
			WithTarget(models.MetricWeight, 80, 75).
			WithWeeklyRate(models.MetricWeight, -0.5)
		g.CreatedAt = created
		g.UpdatedAt = created
		return g
	}

	t.Run("NotFound", func(t *testing.T) {
		mgr := goals.NewManager(newMemStore(), goals.WithClock(fixedClock))
		_, err := mgr.UpdateGoal(ctx, uuid.New(), goals.UpdateGoalParams{})
		assert.ErrorIs(t, err, goals.ErrGoalNotFound)
	})

	t.Run("EmptyUpdateOnlyTouchesUpdatedAt", func(t *testing.T) {
		store := newMemStore()
		original := newGoal()
		store.addGoal(original)
		mgr := goals.NewManager(store, goals.WithClock(fixedClock))

		updated, err := mgr.UpdateGoal(ctx, original.ID, goals.UpdateGoalParams{})
		require.NoError(t, err)

		assert.Equal(t, fixedNow, updated.UpdatedAt)
		updated.UpdatedAt = original.UpdatedAt
		assert.Equal(t, original, updated)
	})

	t.Run("OverlayPreservesStart", func(t *testing.T) {
		store := newMemStore()
		original := newGoal()
		store.addGoal(original)
		mgr := goals.NewManager(store, goals.WithClock(fixedClock))

		updated, err := mgr.UpdateGoal(ctx, original.ID, goals.UpdateGoalParams{
			Targets:            map[models.Metric]float64{models.MetricWeight: 72},
			WeeklyRates:        map[models.Metric]float64{models.MetricWeight: -0.75},
			DailyCalorieTarget: intPtr(1900),
		})
		require.NoError(t, err)

		assert.Equal(t, original.ID, updated.ID)
		assert.Equal(t, "alice", updated.UserID)
		assert.Equal(t, created, updated.CreatedAt)
		assert.Equal(t, 80.0, *updated.StartWeight())
		assert.Equal(t, 72.0, *updated.TargetWeight())
		assert.Equal(t, -0.75, *updated.Target(models.MetricWeight).WeeklyRate)
		assert.Equal(t, 1900, *updated.DailyCalorieTarget)

		stored, err := store.FetchGoalByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, updated, stored)
	})

	t.Run("AddingMetricWithoutStartIsRejected", func(t *testing.T) {
		store := newMemStore()
		original := newGoal()
		store.addGoal(original)
		mgr := goals.NewManager(store, goals.WithClock(fixedClock))

		_, err := mgr.UpdateGoal(ctx, original.ID, goals.UpdateGoalParams{
			Targets: map[models.Metric]float64{models.MetricBodyFat: 18},
		})
		assert.True(t, goals.IsValidation(err), "got %v", err)
	})

	t.Run("InvalidOverlayIsRejected", func(t *testing.T) {
		store := newMemStore()
		original := newGoal()
		store.addGoal(original)
		mgr := goals.NewManager(store, goals.WithClock(fixedClock))

		_, err := mgr.UpdateGoal(ctx, original.ID, goals.UpdateGoalParams{
			WeeklyRates: map[models.Metric]float64{models.MetricWeight: -4},
		})
		assert.True(t, goals.IsValidation(err), "got %v", err)

		stored, err := store.FetchGoalByID(ctx, original.ID)
		require.NoError(t, err)
		assert.Equal(t, -0.5, *stored.Target(models.MetricWeight).WeeklyRate)
	})

	t.Run("ReactivationDeactivatesOthers", func(t *testing.T) {
		store := newMemStore()
		old := newGoal()
		old.IsActive = false
		current := newGoal()
		store.addGoal(old)
		store.addGoal(current)
		mgr := goals.NewManager(store, goals.WithClock(fixedClock))

		active := true
		_, err := mgr.UpdateGoal(ctx, old.ID, goals.UpdateGoalParams{IsActive: &active})
		require.NoError(t, err)

		got := store.activeGoals("alice")
		require.Len(t, got, 1)
		assert.Equal(t, old.ID, got[0].ID)
	})
}

func TestManager_UpdateGoal_StoreFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	storeMock := NewMockStore(ctrl)
	mgr := goals.NewManager(storeMock, goals.WithClock(fixedClock))

	goal := models.NewGoal("alice", models.GoalLose).WithTarget(models.MetricWeight, 80, 75)
	boom := errors.New("database is locked")

	storeMock.EXPECT().FetchGoalByID(gomock.Any(), goal.ID).Return(goal, nil)
	storeMock.EXPECT().UpdateGoal(gomock.Any(), gomock.Any()).Return(boom)

	_, err := mgr.UpdateGoal(context.Background(), goal.ID, goals.UpdateGoalParams{
		Targets: map[models.Metric]float64{models.MetricWeight: 74},
	})
	assert.ErrorIs(t, err, boom)

	var fe *goals.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "update goal", fe.Op)
}
