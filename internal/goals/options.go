// ABOUTME: Functional options shared by Manager and Service.
// ABOUTME: Clock, metrics, trend window, and progress clamp.
package goals

import (
	"time"

	"github.com/harperreed/bodygoal/internal/metrics"
	"github.com/harperreed/bodygoal/internal/progress"
	"github.com/harperreed/bodygoal/internal/trend"
)

type settings struct {
	now               func() time.Time
	metrics           *metrics.Manager
	windowDays        int
	maxProjectionDays int
	bounds            progress.Bounds
}

func defaultSettings() settings {
	return settings{
		now:               time.Now,
		windowDays:        trend.DefaultWindowDays,
		maxProjectionDays: trend.DefaultMaxProjectionDays,
		bounds:            progress.DefaultBounds,
	}
}

// Option configures a Manager or Service.
type Option func(*settings)

// WithClock overrides the time source; nil keeps time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *settings) {
		if now != nil {
			s.now = now
		}
	}
}

// WithMetrics records goal and progress events on m.
func WithMetrics(m *metrics.Manager) Option {
	return func(s *settings) {
		s.metrics = m
	}
}

// WithWindowDays sets how many days of measurements feed the trend fit.
func WithWindowDays(days int) Option {
	return func(s *settings) {
		if days > 0 {
			s.windowDays = days
		}
	}
}

// WithMaxProjectionDays caps how far ahead completion dates are projected.
func WithMaxProjectionDays(days int) Option {
	return func(s *settings) {
		if days > 0 {
			s.maxProjectionDays = days
		}
	}
}

// WithProgressBounds sets the clamp applied to progress percentages. Bounds
// that cannot reach the Complete milestone fall back to the default.
func WithProgressBounds(b progress.Bounds) Option {
	return func(s *settings) {
		s.bounds = b
	}
}

func applyOptions(opts []Option) settings {
	s := defaultSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
