// ABOUTME: Measurement model for timestamped body-composition snapshots.
// ABOUTME: Each entry may carry any subset of weight, body fat, and muscle mass.
package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Measurement is a single body-composition snapshot.
type Measurement struct {
	ID         uuid.UUID `json:"id" yaml:"id"`
	UserID     string    `json:"user_id" yaml:"user_id"`
	RecordedAt time.Time `json:"recorded_at" yaml:"recorded_at"`
	Weight     *float64  `json:"weight,omitempty" yaml:"weight,omitempty"`
	BodyFatPct *float64  `json:"body_fat_pct,omitempty" yaml:"body_fat_pct,omitempty"`
	MuscleMass *float64  `json:"muscle_mass,omitempty" yaml:"muscle_mass,omitempty"`
	Notes      *string   `json:"notes,omitempty" yaml:"notes,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
}

// NewMeasurement creates an empty Measurement with generated UUID and current timestamp.
func NewMeasurement(userID string) *Measurement {
	now := time.Now()
	return &Measurement{
		ID:         uuid.New(),
		UserID:     userID,
		RecordedAt: now,
		CreatedAt:  now,
	}
}

// WithValue sets the value for a metric.
func (m *Measurement) WithValue(metric Metric, v float64) *Measurement {
	switch metric {
	case MetricWeight:
		m.Weight = &v
	case MetricBodyFat:
		m.BodyFatPct = &v
	case MetricMuscleMass:
		m.MuscleMass = &v
	}
	return m
}

// WithRecordedAt sets a custom recorded_at timestamp.
func (m *Measurement) WithRecordedAt(t time.Time) *Measurement {
	m.RecordedAt = t
	return m
}

// WithNotes sets notes on the measurement.
func (m *Measurement) WithNotes(notes string) *Measurement {
	m.Notes = &notes
	return m
}

// Value returns the recorded value for a metric and whether it was recorded.
func (m *Measurement) Value(metric Metric) (float64, bool) {
	p := m.ValuePtr(metric)
	if p == nil {
		return 0, false
	}
	return *p, true
}

// ValuePtr returns the recorded value for a metric, or nil.
func (m *Measurement) ValuePtr(metric Metric) *float64 {
	switch metric {
	case MetricWeight:
		return m.Weight
	case MetricBodyFat:
		return m.BodyFatPct
	case MetricMuscleMass:
		return m.MuscleMass
	}
	return nil
}

// IsEmpty reports whether no metric value is recorded.
func (m *Measurement) IsEmpty() bool {
	return m.Weight == nil && m.BodyFatPct == nil && m.MuscleMass == nil
}

// Validate checks that at least one metric is recorded and every recorded
// value lies inside its realistic range.
func (m *Measurement) Validate() error {
	if m.IsEmpty() {
		return errors.New("measurement needs at least one of weight, body fat, or muscle mass")
	}
	for _, metric := range AllMetrics {
		v, ok := m.Value(metric)
		if !ok {
			continue
		}
		lim := Limits[metric]
		if v < lim.Min || v > lim.Max {
			return fmt.Errorf("%s %.1f %s is outside %.0f-%.0f", metric, v, metric.Unit(), lim.Min, lim.Max)
		}
	}
	return nil
}
