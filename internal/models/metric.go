// ABOUTME: Metric enum for the body-composition values a goal can target.
// ABOUTME: Carries units and the realistic bounds used by goal validation.
package models

// Metric identifies one body-composition value.
type Metric string

const (
	MetricWeight     Metric = "weight"
	MetricBodyFat    Metric = "body_fat"
	MetricMuscleMass Metric = "muscle_mass"
)

// AllMetrics lists every metric in display order.
var AllMetrics = []Metric{MetricWeight, MetricBodyFat, MetricMuscleMass}

// MetricUnits maps metrics to their display units.
var MetricUnits = map[Metric]string{
	MetricWeight:     "kg",
	MetricBodyFat:    "%",
	MetricMuscleMass: "kg",
}

// MetricLimits holds the realistic range for a metric and the fastest
// sustainable weekly change.
type MetricLimits struct {
	Min           float64
	Max           float64
	MaxWeeklyRate float64
}

// Limits maps metrics to their realistic bounds.
var Limits = map[Metric]MetricLimits{
	MetricWeight:     {Min: 20, Max: 400, MaxWeeklyRate: 2},
	MetricBodyFat:    {Min: 2, Max: 70, MaxWeeklyRate: 1},
	MetricMuscleMass: {Min: 10, Max: 150, MaxWeeklyRate: 1},
}

// IsValidMetric checks if a string names a known metric.
func IsValidMetric(s string) bool {
	for _, m := range AllMetrics {
		if string(m) == s {
			return true
		}
	}
	return false
}

// Unit returns the display unit for the metric.
func (m Metric) Unit() string {
	return MetricUnits[m]
}
