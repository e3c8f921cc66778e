// ABOUTME: MCP resource implementations for body-composition goals.
// ABOUTME: Provides bodygoal://progress, bodygoal://goal, and bodygoal://measurements/recent.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/harperreed/bodygoal/internal/goals"
)

const (
	progressURI = "bodygoal://progress"
	goalURI     = "bodygoal://goal"
	recentURI   = "bodygoal://measurements/recent"
)

func (s *Server) registerResources() {
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         progressURI,
		Name:        "Goal Progress",
		Description: "Progress, trends, projections, and milestones for the active goal",
		MIMEType:    "application/json",
	}, s.handleProgressResource)

	s.mcpServer.AddResource(&mcp.Resource{
		URI:         goalURI,
		Name:        "Active Goal",
		Description: "The active body-composition goal with start and target values",
		MIMEType:    "application/json",
	}, s.handleGoalResource)

	// Last 10 measurements
	s.mcpServer.AddResource(&mcp.Resource{
		URI:         recentURI,
		Name:        "Recent Measurements",
		Description: "Last 10 body-composition measurements",
		MIMEType:    "application/json",
	}, s.handleRecentResource)
}

// Resource handlers

func (s *Server) handleProgressResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	var result any
	data, err := s.service.GetProgress(ctx, s.userID, nil)
	switch {
	case errors.Is(err, goals.ErrNoActiveGoal), errors.Is(err, goals.ErrNoBodyCompositionData):
		result = map[string]any{"message": err.Error()}
	case err != nil:
		return nil, fmt.Errorf("failed to get progress: %w", err)
	default:
		result = data
	}
	return jsonResource(progressURI, result)
}

func (s *Server) handleGoalResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	g, err := s.repo.FetchActiveGoal(ctx, s.userID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch goal: %w", err)
	}

	result := map[string]any{"goal": g}
	if g == nil {
		result = map[string]any{"message": "No active goal."}
	}
	return jsonResource(goalURI, result)
}

func (s *Server) handleRecentResource(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	measurements, err := s.repo.ListMeasurements(ctx, s.userID, 10)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}

	return jsonResource(recentURI, map[string]any{
		"measurements": measurements,
		"count":        len(measurements),
	})
}

func jsonResource(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal result: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
