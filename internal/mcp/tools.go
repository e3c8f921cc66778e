// ABOUTME: MCP tool implementations for body-composition goals.
// ABOUTME: Exposes progress, goal set/update, and measurement recording.
package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bodygoal/internal/goals"
	"github.com/harperreed/bodygoal/internal/models"
	"github.com/harperreed/bodygoal/internal/storage"
)

func (s *Server) registerTools() {
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_progress",
		Description: "Get progress, trends, projections, and milestones for the active body-composition goal",
	}, s.handleGetProgress)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "set_goal",
		Description: "Create a new active goal, replacing any current one. Start values come from the latest measurement",
	}, s.handleSetGoal)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "update_goal",
		Description: "Change an existing goal's type, targets, rates, calories, or active flag",
	}, s.handleUpdateGoal)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_measurement",
		Description: "Record a body-composition measurement (weight, body fat, muscle mass)",
	}, s.handleAddMeasurement)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_measurements",
		Description: "List recent measurements, newest first",
	}, s.handleListMeasurements)

	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_goals",
		Description: "List goals, active first then newest",
	}, s.handleListGoals)
}

// Tool input/output types

type getProgressInput struct {
	PreviousProgress *float64 `json:"previous_progress,omitempty" jsonschema:"Overall progress from the last check, used to report newly crossed milestones"`
}

type setGoalInput struct {
	GoalType         string   `json:"goal_type" jsonschema:"One of lose, maintain, gain"`
	TargetWeight     *float64 `json:"target_weight,omitempty" jsonschema:"Target weight in kg"`
	TargetBodyFatPct *float64 `json:"target_body_fat_pct,omitempty" jsonschema:"Target body fat in percent"`
	TargetMuscleMass *float64 `json:"target_muscle_mass,omitempty" jsonschema:"Target muscle mass in kg"`
	WeightRate       *float64 `json:"weekly_weight_rate,omitempty" jsonschema:"Planned weight change per week in kg, negative to lose"`
	BodyFatRate      *float64 `json:"weekly_body_fat_rate,omitempty" jsonschema:"Planned body fat change per week in percent"`
	MuscleMassRate   *float64 `json:"weekly_muscle_mass_rate,omitempty" jsonschema:"Planned muscle mass change per week in kg"`
	TargetDate       string   `json:"target_date,omitempty" jsonschema:"Date to reach the targets (YYYY-MM-DD); derives weekly rates"`
	DailyCalories    *int     `json:"daily_calorie_target,omitempty" jsonschema:"Daily calorie budget in kcal"`
}

type updateGoalInput struct {
	ID               string   `json:"id" jsonschema:"Goal ID or prefix"`
	GoalType         string   `json:"goal_type,omitempty" jsonschema:"One of lose, maintain, gain"`
	IsActive         *bool    `json:"is_active,omitempty" jsonschema:"Activate or deactivate the goal"`
	TargetWeight     *float64 `json:"target_weight,omitempty" jsonschema:"Target weight in kg"`
	TargetBodyFatPct *float64 `json:"target_body_fat_pct,omitempty" jsonschema:"Target body fat in percent"`
	TargetMuscleMass *float64 `json:"target_muscle_mass,omitempty" jsonschema:"Target muscle mass in kg"`
	WeightRate       *float64 `json:"weekly_weight_rate,omitempty" jsonschema:"Planned weight change per week in kg, negative to lose"`
	BodyFatRate      *float64 `json:"weekly_body_fat_rate,omitempty" jsonschema:"Planned body fat change per week in percent"`
	MuscleMassRate   *float64 `json:"weekly_muscle_mass_rate,omitempty" jsonschema:"Planned muscle mass change per week in kg"`
	TargetDate       string   `json:"target_date,omitempty" jsonschema:"Date to reach the targets (YYYY-MM-DD); derives weekly rates"`
	DailyCalories    *int     `json:"daily_calorie_target,omitempty" jsonschema:"Daily calorie budget in kcal"`
}

type addMeasurementInput struct {
	Weight     *float64 `json:"weight,omitempty" jsonschema:"Weight in kg"`
	BodyFatPct *float64 `json:"body_fat_pct,omitempty" jsonschema:"Body fat in percent"`
	MuscleMass *float64 `json:"muscle_mass,omitempty" jsonschema:"Muscle mass in kg"`
	RecordedAt string   `json:"recorded_at,omitempty" jsonschema:"Timestamp (ISO 8601), defaults to now"`
	Notes      string   `json:"notes,omitempty" jsonschema:"Optional notes"`
}

type measurementOutput struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type listMeasurementsInput struct {
	Limit int `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type goalOutput struct {
	Goal    *models.Goal `json:"goal"`
	Message string       `json:"message"`
}

// Tool handlers

func (s *Server) handleGetProgress(ctx context.Context, req *mcp.CallToolRequest, input getProgressInput) (*mcp.CallToolResult, any, error) {
	data, err := s.service.GetProgress(ctx, s.userID, input.PreviousProgress)
	switch {
	case errors.Is(err, goals.ErrNoActiveGoal):
		return nil, map[string]any{"message": "No active goal. Use set_goal to create one."}, nil
	case errors.Is(err, goals.ErrNoBodyCompositionData):
		return nil, map[string]any{"message": "No measurements recorded yet. Use add_measurement first."}, nil
	case err != nil:
		return nil, nil, fmt.Errorf("failed to get progress: %w", err)
	}
	return nil, data, nil
}

func (s *Server) handleSetGoal(ctx context.Context, req *mcp.CallToolRequest, input setGoalInput) (*mcp.CallToolResult, any, error) {
	if !models.IsValidGoalType(input.GoalType) {
		return nil, nil, fmt.Errorf("unknown goal type: %s", input.GoalType)
	}
	targetDate, err := parseDate(input.TargetDate)
	if err != nil {
		return nil, nil, err
	}

	g, err := s.manager.SetGoal(ctx, goals.SetGoalParams{
		UserID:             s.userID,
		GoalType:           models.GoalType(input.GoalType),
		Targets:            targetsOf(input.TargetWeight, input.TargetBodyFatPct, input.TargetMuscleMass),
		WeeklyRates:        targetsOf(input.WeightRate, input.BodyFatRate, input.MuscleMassRate),
		TargetDate:         targetDate,
		DailyCalorieTarget: input.DailyCalories,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set goal: %w", err)
	}

	return nil, goalOutput{
		Goal:    g,
		Message: fmt.Sprintf("Set %s goal: %s (ID: %s)", g.GoalType, storage.DescribeTargets(g), g.ID.String()[:8]),
	}, nil
}

func (s *Server) handleUpdateGoal(ctx context.Context, req *mcp.CallToolRequest, input updateGoalInput) (*mcp.CallToolResult, any, error) {
	existing, err := storage.GetUserGoal(ctx, s.repo, s.userID, input.ID)
	if err != nil {
		return nil, nil, err
	}

	params := goals.UpdateGoalParams{
		Targets:            targetsOf(input.TargetWeight, input.TargetBodyFatPct, input.TargetMuscleMass),
		WeeklyRates:        targetsOf(input.WeightRate, input.BodyFatRate, input.MuscleMassRate),
		DailyCalorieTarget: input.DailyCalories,
		IsActive:           input.IsActive,
	}
	if input.GoalType != "" {
		if !models.IsValidGoalType(input.GoalType) {
			return nil, nil, fmt.Errorf("unknown goal type: %s", input.GoalType)
		}
		gt := models.GoalType(input.GoalType)
		params.GoalType = &gt
	}
	if params.TargetDate, err = parseDate(input.TargetDate); err != nil {
		return nil, nil, err
	}

	g, err := s.manager.UpdateGoal(ctx, existing.ID, params)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to update goal: %w", err)
	}

	return nil, goalOutput{
		Goal:    g,
		Message: fmt.Sprintf("Updated goal %s: %s", g.ID.String()[:8], storage.DescribeTargets(g)),
	}, nil
}

func (s *Server) handleAddMeasurement(ctx context.Context, req *mcp.CallToolRequest, input addMeasurementInput) (*mcp.CallToolResult, measurementOutput, error) {
	m := models.NewMeasurement(s.userID)
	m.Weight = input.Weight
	m.BodyFatPct = input.BodyFatPct
	m.MuscleMass = input.MuscleMass

	if input.RecordedAt != "" {
		t, err := time.Parse(time.RFC3339, input.RecordedAt)
		if err != nil {
			t, err = time.ParseInLocation("2006-01-02 15:04", input.RecordedAt, time.Local)
		}
		if err != nil {
			return nil, measurementOutput{}, fmt.Errorf("invalid recorded_at: %s", input.RecordedAt)
		}
		m.WithRecordedAt(t)
	}
	if input.Notes != "" {
		m.WithNotes(input.Notes)
	}

	if err := m.Validate(); err != nil {
		return nil, measurementOutput{}, err
	}
	if err := s.repo.CreateMeasurement(ctx, m); err != nil {
		return nil, measurementOutput{}, fmt.Errorf("failed to create measurement: %w", err)
	}

	return nil, measurementOutput{
		ID:      m.ID.String()[:8],
		Message: fmt.Sprintf("Recorded %s (ID: %s)", describeMeasurement(m), m.ID.String()[:8]),
	}, nil
}

func (s *Server) handleListMeasurements(ctx context.Context, req *mcp.CallToolRequest, input listMeasurementsInput) (*mcp.CallToolResult, any, error) {
	if input.Limit <= 0 {
		input.Limit = 20
	}

	measurements, err := s.repo.ListMeasurements(ctx, s.userID, input.Limit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list measurements: %w", err)
	}

	if len(measurements) == 0 {
		return nil, map[string]any{"message": "No measurements found."}, nil
	}

	return nil, map[string]any{"measurements": measurements}, nil
}

func (s *Server) handleListGoals(ctx context.Context, req *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, any, error) {
	list, err := s.repo.ListGoals(ctx, s.userID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list goals: %w", err)
	}

	if len(list) == 0 {
		return nil, map[string]any{"message": "No goals found."}, nil
	}

	return nil, map[string]any{"goals": list}, nil
}

func targetsOf(weight, bodyFat, muscle *float64) map[models.Metric]float64 {
	return collect(map[models.Metric]*float64{
		models.MetricWeight:     weight,
		models.MetricBodyFat:    bodyFat,
		models.MetricMuscleMass: muscle,
	})
}

func collect(values map[models.Metric]*float64) map[models.Metric]float64 {
	out := make(map[models.Metric]float64)
	for metric, v := range values {
		if v != nil {
			out[metric] = *v
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return nil, fmt.Errorf("invalid target_date %q: want YYYY-MM-DD", s)
	}
	return &t, nil
}

func describeMeasurement(m *models.Measurement) string {
	desc := ""
	for _, metric := range models.AllMetrics {
		if v, ok := m.Value(metric); ok {
			if desc != "" {
				desc += ", "
			}
			desc += fmt.Sprintf("%s %.1f %s", metric, v, metric.Unit())
		}
	}
	return desc
}
