// ABOUTME: Export and import functionality for body-composition data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats for any Repository.
package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/harperreed/bodygoal/internal/goals"
	"github.com/harperreed/bodygoal/internal/models"
)

const (
	ExportVersion = "1.0"
	ExportTool    = "bodygoal"
)

// ExportData represents the full export format.
type ExportData struct {
	Version      string                `json:"version" yaml:"version"`
	ExportedAt   time.Time             `json:"exported_at" yaml:"exported_at"`
	Tool         string                `json:"tool" yaml:"tool"`
	Measurements []*models.Measurement `json:"measurements" yaml:"measurements"`
	Goals        []*models.Goal        `json:"goals" yaml:"goals"`
}

// CollectExportData gathers every record in r.
func CollectExportData(ctx context.Context, r Repository) (*ExportData, error) {
	measurements, err := r.ListMeasurements(ctx, "", 0)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}

	goalList, err := r.ListGoals(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	return &ExportData{
		Version:      ExportVersion,
		ExportedAt:   time.Now(),
		Tool:         ExportTool,
		Measurements: measurements,
		Goals:        goalList,
	}, nil
}

// ImportInto writes data into r. Goals are imported inactive first and the
// exported active goal of each user is re-activated under the user lock, so
// a partial import never leaves two active goals.
func ImportInto(ctx context.Context, r Repository, data *ExportData) error {
	for _, m := range data.Measurements {
		if err := r.CreateMeasurement(ctx, m); err != nil {
			return fmt.Errorf("import measurement %s: %w", m.ID, err)
		}
	}

	var active []*models.Goal
	for _, g := range data.Goals {
		c := g.Clone()
		if c.IsActive {
			active = append(active, g)
			c.IsActive = false
		}
		if err := r.CreateGoal(ctx, c); err != nil {
			return fmt.Errorf("import goal %s: %w", g.ID, err)
		}
	}

	for _, g := range active {
		err := r.WithUserLock(ctx, g.UserID, func(tx goals.Store) error {
			if err := tx.DeactivateAllGoals(ctx, g.UserID); err != nil {
				return err
			}
			return tx.UpdateGoal(ctx, g)
		})
		if err != nil {
			return fmt.Errorf("activate goal %s: %w", g.ID, err)
		}
	}

	return nil
}

// GetAllData retrieves all data for export.
func (d *DB) GetAllData(ctx context.Context) (*ExportData, error) {
	return CollectExportData(ctx, d)
}

// ImportData imports data from an export file.
func (d *DB) ImportData(ctx context.Context, data *ExportData) error {
	return ImportInto(ctx, d, data)
}

// ExportJSON renders data as indented JSON.
func ExportJSON(data *ExportData) ([]byte, error) {
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML renders data as YAML.
func ExportYAML(data *ExportData) ([]byte, error) {
	return yaml.Marshal(data)
}

// ExportMarkdown renders measurements since the given time, and every goal,
// as Markdown tables.
func ExportMarkdown(data *ExportData, since *time.Time) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("# Body Composition Export - %s\n\n", data.ExportedAt.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", data.ExportedAt.Format(time.RFC3339)))

	var measurements []*models.Measurement
	for _, m := range data.Measurements {
		if since != nil && m.RecordedAt.Before(*since) {
			continue
		}
		measurements = append(measurements, m)
	}
	sort.Slice(measurements, func(i, j int) bool {
		return measurements[i].RecordedAt.After(measurements[j].RecordedAt)
	})

	sb.WriteString("## Measurements\n\n")
	sb.WriteString("| Date | Weight | Body Fat | Muscle | Notes |\n")
	sb.WriteString("|------|--------|----------|--------|-------|\n")
	for _, m := range measurements {
		notes := ""
		if m.Notes != nil {
			notes = *m.Notes
		}
		sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s | %s |\n",
			m.RecordedAt.Format("2006-01-02 15:04"),
			formatValue(m.Weight, models.MetricWeight),
			formatValue(m.BodyFatPct, models.MetricBodyFat),
			formatValue(m.MuscleMass, models.MetricMuscleMass),
			notes))
	}

	if len(data.Goals) > 0 {
		sb.WriteString("\n## Goals\n\n")
		sb.WriteString("| Created | Type | Targets | Status |\n")
		sb.WriteString("|---------|------|---------|--------|\n")
		for _, g := range data.Goals {
			status := "inactive"
			if g.IsActive {
				status = "active"
			}
			sb.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				g.CreatedAt.Format("2006-01-02"),
				g.GoalType,
				DescribeTargets(g),
				status))
		}
	}

	return sb.String()
}

// DescribeTargets summarizes a goal's targets as "weight 80.0→75.0 kg, ...".
func DescribeTargets(g *models.Goal) string {
	var parts []string
	for _, metric := range g.SetMetrics() {
		t := g.Target(metric)
		part := fmt.Sprintf("%s %.1f→%.1f %s", metric, t.Start, t.Target, metric.Unit())
		if t.WeeklyRate != nil {
			part += fmt.Sprintf(" (%+.2f/wk)", *t.WeeklyRate)
		}
		parts = append(parts, part)
	}
	return strings.Join(parts, ", ")
}

func formatValue(v *float64, metric models.Metric) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.1f %s", *v, metric.Unit())
}

// ParseExport decodes an export file. YAML is tried when the content is not JSON.
func ParseExport(raw []byte) (*ExportData, error) {
	var data ExportData
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal(raw, &data); err != nil {
			return nil, fmt.Errorf("unmarshal JSON: %w", err)
		}
		return &data, nil
	}
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("unmarshal YAML: %w", err)
	}
	return &data, nil
}
