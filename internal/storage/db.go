// ABOUTME: SQLite database connection and lifecycle management.
// ABOUTME: Uses modernc.org/sqlite (pure Go, no CGO required).
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/harperreed/bodygoal/internal/goals"
)

// querier is the subset of *sql.DB and *sql.Tx the queries run against.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB wraps the SQLite database connection.
type DB struct {
	db     *sql.DB
	q      querier
	dbPath string
	now    func() time.Time

	// txMu serializes units of work so goal switches never interleave.
	txMu *sync.Mutex
	inTx bool
}

type Option func(*DB)

// WithClock overrides the clock used for recent-measurement windows.
func WithClock(now func() time.Time) Option {
	return func(d *DB) {
		d.now = now
	}
}

// Open opens or creates a SQLite database at the given path.
func Open(dbPath string, opts ...Option) (*DB, error) {
	// Ensure parent directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Set file permissions
	if err := os.Chmod(dbPath, 0600); err != nil && !os.IsNotExist(err) {
		_ = db.Close()
		return nil, fmt.Errorf("set database permissions: %w", err)
	}

	d := &DB{db: db, q: db, dbPath: dbPath, now: time.Now, txMu: &sync.Mutex{}}
	for _, opt := range opts {
		opt(d)
	}

	if err := d.configurePragmas(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("configure pragmas: %w", err)
	}

	if err := d.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return d, nil
}

// OpenDefault opens the database at the default XDG data path.
func OpenDefault() (*DB, error) {
	return Open(DefaultDBPath())
}

// DataDir returns the default data directory following XDG spec.
func DataDir() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, "bodygoal")
}

// DefaultDBPath returns the default database path following XDG spec.
func DefaultDBPath() string {
	return filepath.Join(DataDir(), "bodygoal.db")
}

// Path returns the database file path.
func (d *DB) Path() string {
	return d.dbPath
}

// Close closes the database connection.
func (d *DB) Close() error {
	if d.inTx {
		return nil
	}
	if d.db != nil {
		return d.db.Close()
	}
	return nil
}

// WithUserLock runs fn inside a single transaction. The Store passed to fn
// reads and writes through that transaction; it is rolled back when fn fails.
func (d *DB) WithUserLock(ctx context.Context, userID string, fn func(goals.Store) error) error {
	if d.inTx {
		return fn(d)
	}

	d.txMu.Lock()
	defer d.txMu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction for %s: %w", userID, err)
	}

	txDB := &DB{db: d.db, q: tx, dbPath: d.dbPath, now: d.now, txMu: d.txMu, inTx: true}
	if err := fn(txDB); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction for %s: %w", userID, err)
	}
	return nil
}

// atomically runs fn in a transaction of its own, or in the current one
// when called inside WithUserLock.
func (d *DB) atomically(ctx context.Context, op string, fn func(tx *DB) error) error {
	if d.inTx {
		return fn(d)
	}

	d.txMu.Lock()
	defer d.txMu.Unlock()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: begin transaction: %w", op, err)
	}

	txDB := &DB{db: d.db, q: tx, dbPath: d.dbPath, now: d.now, txMu: d.txMu, inTx: true}
	if err := fn(txDB); err != nil {
		_ = tx.Rollback()
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: commit: %w", op, err)
	}
	return nil
}

// configurePragmas sets up SQLite for optimal performance.
func (d *DB) configurePragmas() error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
	}
	for _, pragma := range pragmas {
		if _, err := d.db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %s: %w", pragma, err)
		}
	}
	return nil
}

// timeLayout is fixed-width UTC so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
