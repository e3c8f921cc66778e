// ABOUTME: Repository interface for body-composition data storage.
// ABOUTME: Extends the goal engine's Store with measurement CRUD, listing, and export.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/harperreed/bodygoal/internal/goals"
	"github.com/harperreed/bodygoal/internal/models"
)

// ErrNotFound is returned when an ID or prefix matches nothing.
var ErrNotFound = errors.New("not found")

// ErrAmbiguousPrefix is returned when an ID prefix matches several records.
var ErrAmbiguousPrefix = errors.New("ambiguous prefix")

// Repository defines the storage interface for measurements and goals.
// This interface allows swapping implementations (e.g., for testing).
type Repository interface {
	goals.Store

	// Measurement operations
	CreateMeasurement(ctx context.Context, m *models.Measurement) error
	GetMeasurement(ctx context.Context, idOrPrefix string) (*models.Measurement, error)
	// ListMeasurements returns newest first. An empty userID lists every user.
	ListMeasurements(ctx context.Context, userID string, limit int) ([]*models.Measurement, error)
	DeleteMeasurement(ctx context.Context, idOrPrefix string) error

	// Goal operations
	GetGoal(ctx context.Context, idOrPrefix string) (*models.Goal, error)
	// ListGoals returns the active goal first, then newest first. An empty
	// userID lists every user.
	ListGoals(ctx context.Context, userID string) ([]*models.Goal, error)

	// Export/Import
	GetAllData(ctx context.Context) (*ExportData, error)
	ImportData(ctx context.Context, data *ExportData) error

	// Lifecycle
	Close() error
}

// GetUserGoal resolves idOrPrefix to a goal owned by userID. Another user's
// goal is reported as goals.ErrGoalNotFound; lookup failures are wrapped.
func GetUserGoal(ctx context.Context, r Repository, userID, idOrPrefix string) (*models.Goal, error) {
	g, err := r.GetGoal(ctx, idOrPrefix)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("%w: %s", goals.ErrGoalNotFound, idOrPrefix)
	case err != nil:
		return nil, fmt.Errorf("get goal %s: %w", idOrPrefix, err)
	case g.UserID != userID:
		return nil, fmt.Errorf("%w: %s", goals.ErrGoalNotFound, idOrPrefix)
	}
	return g, nil
}

// GetUserMeasurement resolves idOrPrefix to a measurement owned by userID.
// Another user's measurement is reported as ErrNotFound.
func GetUserMeasurement(ctx context.Context, r Repository, userID, idOrPrefix string) (*models.Measurement, error) {
	m, err := r.GetMeasurement(ctx, idOrPrefix)
	switch {
	case errors.Is(err, ErrNotFound):
		return nil, err
	case err != nil:
		return nil, fmt.Errorf("get measurement %s: %w", idOrPrefix, err)
	case m.UserID != userID:
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	return m, nil
}
