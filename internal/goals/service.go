// ABOUTME: Progress orchestration: fetch goal and measurements, compute progress and trends.
// ABOUTME: Reads fan out concurrently; store failures surface as *FetchError.
package goals

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/bodygoal/internal/metrics"
	"github.com/harperreed/bodygoal/internal/models"
	"github.com/harperreed/bodygoal/internal/progress"
	"github.com/harperreed/bodygoal/internal/trend"
)

// MetricProgress is the computed state of one targeted metric.
type MetricProgress struct {
	Metric     models.Metric     `json:"metric"`
	Start      float64           `json:"start"`
	Target     float64           `json:"target"`
	Current    *float64          `json:"current,omitempty"`
	Progress   progress.Result   `json:"progress"`
	Trend      *trend.Result     `json:"trend,omitempty"`
	Projection *trend.Projection `json:"projection,omitempty"`
}

// ProgressData is the full progress report for a user's active goal.
type ProgressData struct {
	Goal                    *models.Goal                      `json:"goal"`
	CurrentMeasurement      *models.Measurement               `json:"current_measurement"`
	Metrics                 map[models.Metric]*MetricProgress `json:"metrics"`
	OverallProgress         float64                           `json:"overall_progress"`
	AchievedMilestones      []progress.Milestone              `json:"achieved_milestones"`
	NewlyAchievedMilestones []progress.Milestone              `json:"newly_achieved_milestones,omitempty"`
	DataPointsCount         int                               `json:"data_points_count"`
	GeneratedAt             time.Time                         `json:"generated_at"`
}

// Metric returns the progress for metric, or nil when the goal does not target it.
func (p *ProgressData) Metric(metric models.Metric) *MetricProgress {
	return p.Metrics[metric]
}

// Service assembles progress reports for a user's active goal.
type Service struct {
	store      Store
	calculator *progress.Calculator
	projector  *trend.Projector
	windowDays int
	now        func() time.Time
	metrics    *metrics.Manager
}

// NewService returns a Service over store.
func NewService(store Store, opts ...Option) *Service {
	s := applyOptions(opts)
	return &Service{
		store:      store,
		calculator: progress.NewCalculator(s.bounds),
		projector: trend.NewProjector(
			trend.WithWindowDays(s.windowDays),
			trend.WithMaxProjectionDays(s.maxProjectionDays),
			trend.WithClock(s.now),
		),
		windowDays: s.windowDays,
		now:        s.now,
		metrics:    s.metrics,
	}
}

// GetProgress computes the progress report for the user's active goal.
// previousProgress, when given, is the overall percentage from an earlier
// report and enables NewlyAchievedMilestones.
func (s *Service) GetProgress(ctx context.Context, userID string, previousProgress *float64) (*ProgressData, error) {
	var (
		goal   *models.Goal
		latest *models.Measurement
		window []*models.Measurement
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if goal, err = s.store.FetchActiveGoal(gctx, userID); err != nil {
			return s.fetchFailed("fetch active goal", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if latest, err = s.store.FetchLatestMeasurement(gctx, userID); err != nil {
			return s.fetchFailed("fetch latest measurement", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if window, err = s.store.FetchRecentMeasurements(gctx, userID, s.windowDays); err != nil {
			return s.fetchFailed("fetch recent measurements", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if goal == nil {
		return nil, ErrNoActiveGoal
	}
	if latest == nil {
		return nil, ErrNoBodyCompositionData
	}

	current := make(map[models.Metric]*float64, len(models.AllMetrics))
	for _, metric := range goal.SetMetrics() {
		current[metric] = currentValue(metric, latest, window)
		if current[metric] == nil {
			log.WithFields(log.Fields{"user": userID, "metric": metric}).
				Warn("no recent value for targeted metric, measuring from start")
		}
	}

	gp := s.calculator.CalculateGoalProgress(goal,
		current[models.MetricWeight],
		current[models.MetricBodyFat],
		current[models.MetricMuscleMass],
	)

	data := &ProgressData{
		Goal:               goal,
		CurrentMeasurement: latest,
		Metrics:            make(map[models.Metric]*MetricProgress, len(gp.Metrics)),
		OverallProgress:    gp.Overall,
		AchievedMilestones: gp.Achieved,
		DataPointsCount:    len(window),
		GeneratedAt:        s.now(),
	}

	for _, metric := range goal.SetMetrics() {
		t := goal.Target(metric)
		mp := &MetricProgress{
			Metric:   metric,
			Start:    t.Start,
			Target:   t.Target,
			Current:  current[metric],
			Progress: gp.Metrics[metric],
		}

		mp.Trend = s.projector.CalculateTrend(window, metric)
		if mp.Trend != nil {
			value := t.Start
			if mp.Current != nil {
				value = *mp.Current
			}
			proj := s.projector.ProjectCompletionDate(goal, value, mp.Trend, metric)
			mp.Projection = &proj
		}
		data.Metrics[metric] = mp
	}

	if previousProgress != nil {
		data.NewlyAchievedMilestones = progress.DetectNewMilestones(gp.Overall, *previousProgress)
		for _, ms := range data.NewlyAchievedMilestones {
			s.metrics.MilestoneReached(ms.String())
		}
	}

	s.metrics.ProgressComputed(gp.Overall)
	log.WithFields(log.Fields{
		"user":    userID,
		"goal":    goal.ID.String(),
		"overall": gp.Overall,
		"samples": len(window),
	}).Debug("progress computed")

	return data, nil
}

// currentValue prefers the latest measurement, then the newest window entry
// that carries the metric.
func currentValue(metric models.Metric, latest *models.Measurement, window []*models.Measurement) *float64 {
	if v := latest.ValuePtr(metric); v != nil {
		return v
	}
	for i := len(window) - 1; i >= 0; i-- {
		if window[i] == nil {
			continue
		}
		if v := window[i].ValuePtr(metric); v != nil {
			return v
		}
	}
	return nil
}

func (s *Service) fetchFailed(op string, err error) error {
	s.metrics.StoreFailure(op)
	return &FetchError{Op: op, Err: err}
}
