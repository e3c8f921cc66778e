// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for measurements, goals, and per-metric goal targets.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS measurements (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		recorded_at TEXT NOT NULL,
		weight REAL,
		body_fat_pct REAL,
		muscle_mass REAL,
		notes TEXT,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		goal_type TEXT NOT NULL,
		daily_calorie_target INTEGER,
		is_active INTEGER NOT NULL DEFAULT 1,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS goal_targets (
		goal_id TEXT NOT NULL,
		metric TEXT NOT NULL,
		start_value REAL NOT NULL,
		target_value REAL NOT NULL,
		weekly_rate REAL,
		PRIMARY KEY (goal_id, metric),
		FOREIGN KEY (goal_id) REFERENCES goals(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_measurements_user_recorded ON measurements(user_id, recorded_at DESC);
	CREATE INDEX IF NOT EXISTS idx_goals_user ON goals(user_id, created_at DESC);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_goals_one_active ON goals(user_id) WHERE is_active = 1;
	`

	_, err := d.db.Exec(schema)
	return err
}
