// ABOUTME: Goal persistence for SQLite storage.
// ABOUTME: Goals live in two tables: the goal row and one row per targeted metric.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/harperreed/bodygoal/internal/models"
)

const goalColumns = `id, user_id, goal_type, daily_calorie_target, is_active, created_at, updated_at`

// CreateGoal stores a new goal and its targets.
func (d *DB) CreateGoal(ctx context.Context, g *models.Goal) error {
	return d.atomically(ctx, "create goal", func(tx *DB) error {
		return tx.createGoal(ctx, g)
	})
}

func (d *DB) createGoal(ctx context.Context, g *models.Goal) error {
	query := `
		INSERT INTO goals (` + goalColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := d.q.ExecContext(ctx, query,
		g.ID.String(),
		g.UserID,
		string(g.GoalType),
		g.DailyCalorieTarget,
		g.IsActive,
		formatTime(g.CreatedAt),
		formatTime(g.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("create goal: %w", err)
	}

	if err := d.writeTargets(ctx, g); err != nil {
		return fmt.Errorf("create goal: %w", err)
	}
	return nil
}

// UpdateGoal overwrites a goal and replaces its targets. Readers see either
// the old targets or the new ones, never an empty set.
func (d *DB) UpdateGoal(ctx context.Context, g *models.Goal) error {
	return d.atomically(ctx, "update goal", func(tx *DB) error {
		return tx.updateGoal(ctx, g)
	})
}

func (d *DB) updateGoal(ctx context.Context, g *models.Goal) error {
	query := `
		UPDATE goals
		SET goal_type = ?, daily_calorie_target = ?, is_active = ?, updated_at = ?
		WHERE id = ?
	`
	result, err := d.q.ExecContext(ctx, query,
		string(g.GoalType),
		g.DailyCalorieTarget,
		g.IsActive,
		formatTime(g.UpdatedAt),
		g.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("update goal: %w: %s", ErrNotFound, g.ID)
	}

	if _, err := d.q.ExecContext(ctx, "DELETE FROM goal_targets WHERE goal_id = ?", g.ID.String()); err != nil {
		return fmt.Errorf("update goal targets: %w", err)
	}
	if err := d.writeTargets(ctx, g); err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	return nil
}

// DeactivateAllGoals marks every goal of the user inactive.
func (d *DB) DeactivateAllGoals(ctx context.Context, userID string) error {
	_, err := d.q.ExecContext(ctx, "UPDATE goals SET is_active = 0 WHERE user_id = ? AND is_active = 1", userID)
	if err != nil {
		return fmt.Errorf("deactivate goals: %w", err)
	}
	return nil
}

// FetchActiveGoal returns the user's active goal, or nil.
func (d *DB) FetchActiveGoal(ctx context.Context, userID string) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE user_id = ? AND is_active = 1 LIMIT 1`
	g, err := d.loadGoal(ctx, d.q.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

// FetchGoalByID returns the goal with the given ID, or nil.
func (d *DB) FetchGoalByID(ctx context.Context, goalID uuid.UUID) (*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals WHERE id = ?`
	g, err := d.loadGoal(ctx, d.q.QueryRowContext(ctx, query, goalID.String()))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return g, err
}

// GetGoal retrieves a goal by ID or ID prefix.
func (d *DB) GetGoal(ctx context.Context, idOrPrefix string) (*models.Goal, error) {
	id, err := d.resolveID(ctx, "goals", idOrPrefix)
	if err != nil {
		return nil, err
	}
	goalID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}

	g, err := d.FetchGoalByID(ctx, goalID)
	if err != nil {
		return nil, err
	}
	if g == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	return g, nil
}

// ListGoals returns goals with the active one first, then newest first.
func (d *DB) ListGoals(ctx context.Context, userID string) ([]*models.Goal, error) {
	query := `SELECT ` + goalColumns + ` FROM goals`
	var args []any
	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY is_active DESC, created_at DESC`

	rows, err := d.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}

	var out []*models.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, fmt.Errorf("list goals: %w", err)
	}
	rows.Close()

	// Targets are loaded after the goal cursor is closed; a transaction has
	// a single connection.
	for _, g := range out {
		if err := d.readTargets(ctx, g); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *DB) writeTargets(ctx context.Context, g *models.Goal) error {
	query := `
		INSERT INTO goal_targets (goal_id, metric, start_value, target_value, weekly_rate)
		VALUES (?, ?, ?, ?, ?)
	`
	for _, metric := range g.SetMetrics() {
		t := g.Target(metric)
		if _, err := d.q.ExecContext(ctx, query, g.ID.String(), string(metric), t.Start, t.Target, t.WeeklyRate); err != nil {
			return fmt.Errorf("write %s target: %w", metric, err)
		}
	}
	return nil
}

func (d *DB) readTargets(ctx context.Context, g *models.Goal) error {
	rows, err := d.q.QueryContext(ctx,
		`SELECT metric, start_value, target_value, weekly_rate FROM goal_targets WHERE goal_id = ?`,
		g.ID.String())
	if err != nil {
		return fmt.Errorf("read goal targets: %w", err)
	}
	defer rows.Close()

	g.Targets = make(map[models.Metric]*models.MetricTarget)
	for rows.Next() {
		var metric string
		var t models.MetricTarget
		var rate sql.NullFloat64
		if err := rows.Scan(&metric, &t.Start, &t.Target, &rate); err != nil {
			return fmt.Errorf("scan goal target: %w", err)
		}
		t.WeeklyRate = nullFloat(rate)
		g.Targets[models.Metric(metric)] = &t
	}
	return rows.Err()
}

func (d *DB) loadGoal(ctx context.Context, row *sql.Row) (*models.Goal, error) {
	g, err := scanGoal(row)
	if err != nil {
		return nil, err
	}
	if err := d.readTargets(ctx, g); err != nil {
		return nil, err
	}
	return g, nil
}

func scanGoal(row rowScanner) (*models.Goal, error) {
	var g models.Goal
	var idStr, goalType, createdAt, updatedAt string
	var kcal sql.NullInt64

	err := row.Scan(&idStr, &g.UserID, &goalType, &kcal, &g.IsActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan goal: %w", err)
	}

	g.ID, _ = uuid.Parse(idStr)
	g.GoalType = models.GoalType(goalType)
	g.CreatedAt = parseTime(createdAt)
	g.UpdatedAt = parseTime(updatedAt)
	if kcal.Valid {
		v := int(kcal.Int64)
		g.DailyCalorieTarget = &v
	}
	return &g, nil
}
