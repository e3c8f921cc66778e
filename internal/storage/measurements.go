// ABOUTME: Measurement CRUD operations for SQLite storage.
// ABOUTME: Implements the measurement half of Repository plus the engine's fetches.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/harperreed/bodygoal/internal/models"
)

const measurementColumns = `id, user_id, recorded_at, weight, body_fat_pct, muscle_mass, notes, created_at`

// CreateMeasurement stores a new measurement in the database.
func (d *DB) CreateMeasurement(ctx context.Context, m *models.Measurement) error {
	query := `
		INSERT INTO measurements (` + measurementColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`
	_, err := d.q.ExecContext(ctx, query,
		m.ID.String(),
		m.UserID,
		formatTime(m.RecordedAt),
		m.Weight,
		m.BodyFatPct,
		m.MuscleMass,
		m.Notes,
		formatTime(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create measurement: %w", err)
	}
	return nil
}

// GetMeasurement retrieves a measurement by ID or ID prefix.
func (d *DB) GetMeasurement(ctx context.Context, idOrPrefix string) (*models.Measurement, error) {
	id, err := d.resolveID(ctx, "measurements", idOrPrefix)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + measurementColumns + ` FROM measurements WHERE id = ?`
	m, err := scanMeasurement(d.q.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	return m, err
}

// ListMeasurements retrieves measurements, most recent first.
func (d *DB) ListMeasurements(ctx context.Context, userID string, limit int) ([]*models.Measurement, error) {
	query := `SELECT ` + measurementColumns + ` FROM measurements`
	var args []any

	if userID != "" {
		query += ` WHERE user_id = ?`
		args = append(args, userID)
	}
	query += ` ORDER BY recorded_at DESC`

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list measurements: %w", err)
	}
	defer rows.Close()

	return scanMeasurements(rows)
}

// DeleteMeasurement removes a measurement by ID or prefix.
func (d *DB) DeleteMeasurement(ctx context.Context, idOrPrefix string) error {
	id, err := d.resolveID(ctx, "measurements", idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}

	result, err := d.q.ExecContext(ctx, "DELETE FROM measurements WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete measurement: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}

	return nil
}

// FetchLatestMeasurement returns the user's most recent measurement, or nil.
func (d *DB) FetchLatestMeasurement(ctx context.Context, userID string) (*models.Measurement, error) {
	query := `
		SELECT ` + measurementColumns + `
		FROM measurements
		WHERE user_id = ?
		ORDER BY recorded_at DESC
		LIMIT 1
	`
	m, err := scanMeasurement(d.q.QueryRowContext(ctx, query, userID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return m, err
}

// FetchRecentMeasurements returns the user's measurements from the last
// days days, oldest first.
func (d *DB) FetchRecentMeasurements(ctx context.Context, userID string, days int) ([]*models.Measurement, error) {
	since := d.now().AddDate(0, 0, -days)
	query := `
		SELECT ` + measurementColumns + `
		FROM measurements
		WHERE user_id = ? AND recorded_at >= ?
		ORDER BY recorded_at ASC
	`
	rows, err := d.q.QueryContext(ctx, query, userID, formatTime(since))
	if err != nil {
		return nil, fmt.Errorf("fetch recent measurements: %w", err)
	}
	defer rows.Close()

	return scanMeasurements(rows)
}

// resolveID finds the full ID from a prefix.
func (d *DB) resolveID(ctx context.Context, table, idOrPrefix string) (string, error) {
	// If it looks like a full UUID, use it directly
	if len(idOrPrefix) == 36 && strings.Count(idOrPrefix, "-") == 4 {
		return idOrPrefix, nil
	}
	if idOrPrefix == "" {
		return "", fmt.Errorf("%w: empty id", ErrNotFound)
	}

	// table is one of our own constants, never user input
	query := `SELECT id FROM ` + table + ` WHERE id LIKE ? || '%'`
	rows, err := d.q.QueryContext(ctx, query, idOrPrefix)
	if err != nil {
		return "", fmt.Errorf("resolve ID: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan ID: %w", err)
		}
		matches = append(matches, id)
	}
	if err := rows.Err(); err != nil {
		return "", fmt.Errorf("resolve ID: %w", err)
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("%w: %s", ErrNotFound, idOrPrefix)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("%w %s: matches multiple records", ErrAmbiguousPrefix, idOrPrefix)
	}

	return matches[0], nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeasurement(row rowScanner) (*models.Measurement, error) {
	var m models.Measurement
	var idStr, recordedAt, createdAt string
	var weight, bodyFat, muscle sql.NullFloat64
	var notes sql.NullString

	err := row.Scan(&idStr, &m.UserID, &recordedAt, &weight, &bodyFat, &muscle, &notes, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan measurement: %w", err)
	}

	m.ID, _ = uuid.Parse(idStr)
	m.RecordedAt = parseTime(recordedAt)
	m.CreatedAt = parseTime(createdAt)
	m.Weight = nullFloat(weight)
	m.BodyFatPct = nullFloat(bodyFat)
	m.MuscleMass = nullFloat(muscle)
	if notes.Valid {
		m.Notes = &notes.String
	}

	return &m, nil
}

func scanMeasurements(rows *sql.Rows) ([]*models.Measurement, error) {
	var out []*models.Measurement
	for rows.Next() {
		m, err := scanMeasurement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
