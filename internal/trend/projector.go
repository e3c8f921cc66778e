// ABOUTME: Trend fitting and completion-date projection for goal metrics.
// ABOUTME: Fits an OLS line over a recent measurement window and extrapolates to the target.
package trend

import (
	"math"
	"sort"
	"time"

	"github.com/harperreed/bodygoal/internal/models"
)

const (
	// DefaultWindowDays is the recent window the trend is fitted over.
	DefaultWindowDays = 14
	// DefaultMaxProjectionDays caps how far ahead a completion date is reported.
	DefaultMaxProjectionDays = 3650
	// MinDistinctDays is the fewest calendar days with samples needed for a trend.
	MinDistinctDays = 2
)

const epsilon = 1e-9

// Result is a fitted linear trend for one metric.
type Result struct {
	SlopePerDay float64 `json:"slope_per_day"`
	SampleCount int     `json:"sample_count"`
	WindowDays  int     `json:"window_days"`
}

// WeeklyRate returns the slope expressed in units per week.
func (r *Result) WeeklyRate() float64 {
	return r.SlopePerDay * 7
}

// Projection is the extrapolated completion of a metric target.
type Projection struct {
	EstimatedCompletionDate *time.Time `json:"estimated_completion_date,omitempty"`
	IsOnTrack               bool       `json:"is_on_track"`
}

// Projector fits trends and projects completion dates.
type Projector struct {
	windowDays        int
	maxProjectionDays int
	now               func() time.Time
}

// Option configures a Projector.
type Option func(*Projector)

// WithWindowDays sets the window length reported on trends.
func WithWindowDays(days int) Option {
	return func(p *Projector) {
		if days > 0 {
			p.windowDays = days
		}
	}
}

// WithMaxProjectionDays caps projected completion dates.
func WithMaxProjectionDays(days int) Option {
	return func(p *Projector) {
		if days > 0 {
			p.maxProjectionDays = days
		}
	}
}

// WithClock overrides the source of "today".
func WithClock(now func() time.Time) Option {
	return func(p *Projector) {
		p.now = now
	}
}

// NewProjector creates a Projector with defaults overridden by opts.
func NewProjector(opts ...Option) *Projector {
	p := &Projector{
		windowDays:        DefaultWindowDays,
		maxProjectionDays: DefaultMaxProjectionDays,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// WindowDays returns the configured window length.
func (p *Projector) WindowDays() int {
	return p.windowDays
}

type sample struct {
	at    time.Time
	value float64
}

// CalculateTrend fits value against elapsed days with ordinary least squares.
// Records without a value for metric are skipped. Returns nil when the samples
// span fewer than MinDistinctDays calendar days; that is "no signal yet", not
// an error.
func (p *Projector) CalculateTrend(records []*models.Measurement, metric models.Metric) *Result {
	var samples []sample
	days := make(map[string]struct{})
	for _, r := range records {
		if r == nil {
			continue
		}
		v, ok := r.Value(metric)
		if !ok {
			continue
		}
		samples = append(samples, sample{at: r.RecordedAt, value: v})
		days[r.RecordedAt.Format("2006-01-02")] = struct{}{}
	}

	if len(days) < MinDistinctDays {
		return nil
	}

	sort.Slice(samples, func(i, j int) bool {
		return samples[i].at.Before(samples[j].at)
	})

	origin := samples[0].at
	n := float64(len(samples))
	var meanX, meanY float64
	xs := make([]float64, len(samples))
	for i, s := range samples {
		xs[i] = s.at.Sub(origin).Hours() / 24
		meanX += xs[i]
		meanY += s.value
	}
	meanX /= n
	meanY /= n

	var sxy, sxx float64
	for i, s := range samples {
		dx := xs[i] - meanX
		sxy += dx * (s.value - meanY)
		sxx += dx * dx
	}
	if sxx == 0 {
		return nil
	}

	return &Result{
		SlopePerDay: sxy / sxx,
		SampleCount: len(samples),
		WindowDays:  p.windowDays,
	}
}

// ProjectCompletionDate extrapolates trend from currentValue to the goal's
// target for metric. A flat trend or one heading away from the target never
// yields a date. A date is still reported when the trend is slower than the
// goal's planned weekly rate; IsOnTrack is false in that case.
func (p *Projector) ProjectCompletionDate(goal *models.Goal, currentValue float64, trend *Result, metric models.Metric) Projection {
	target := goal.Target(metric)
	if target == nil || trend == nil {
		return Projection{}
	}

	today := startOfDay(p.now())
	remaining := target.Target - currentValue
	if math.Abs(remaining) < epsilon {
		return Projection{EstimatedCompletionDate: &today, IsOnTrack: true}
	}

	weeklyRate := trend.WeeklyRate()
	if weeklyRate == 0 || math.Signbit(weeklyRate) != math.Signbit(remaining) {
		return Projection{}
	}

	daysToGoal := remaining / trend.SlopePerDay
	if daysToGoal > float64(p.maxProjectionDays) {
		return Projection{}
	}

	date := today.AddDate(0, 0, int(math.Ceil(daysToGoal-epsilon)))
	onTrack := true
	if planned := target.WeeklyRate; planned != nil && *planned != 0 {
		onTrack = math.Abs(weeklyRate)+epsilon >= math.Abs(*planned)
	}

	return Projection{EstimatedCompletionDate: &date, IsOnTrack: onTrack}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
