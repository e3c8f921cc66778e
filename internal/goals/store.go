// ABOUTME: Persistence contract the goal engine depends on.
// ABOUTME: Implemented by the SQLite and Charm KV backends.
package goals

import (
	"context"

	"github.com/google/uuid"

	"github.com/harperreed/bodygoal/internal/models"
)

//go:generate mockgen -source=$GOFILE -destination=mocks_test.go -package=goals_test

// Store is the read/write surface used by Manager and Service. Fetches of
// absent records return (nil, nil).
type Store interface {
	FetchActiveGoal(ctx context.Context, userID string) (*models.Goal, error)
	FetchGoalByID(ctx context.Context, goalID uuid.UUID) (*models.Goal, error)
	FetchLatestMeasurement(ctx context.Context, userID string) (*models.Measurement, error)
	// FetchRecentMeasurements returns measurements recorded in the last days
	// days, oldest first.
	FetchRecentMeasurements(ctx context.Context, userID string, days int) ([]*models.Measurement, error)

	CreateGoal(ctx context.Context, goal *models.Goal) error
	UpdateGoal(ctx context.Context, goal *models.Goal) error
	DeactivateAllGoals(ctx context.Context, userID string) error

	// WithUserLock runs fn as one unit of work for userID. Writes made through
	// the Store passed to fn are visible to others only when fn returns nil.
	WithUserLock(ctx context.Context, userID string, fn func(Store) error) error
}
