package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	// SQLite driver
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteStore keeps simulation results in a SQLite database file.
type SQLiteStore struct {
	db  *sql.DB
	cfg Config
}

// timeLayout is fixed-width so created_at sorts chronologically as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Config holds SQLite store configuration.
type Config struct {
	Path            string        `yaml:"path"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

// NewSQLiteStore creates a store for the database at cfg.Path. Nothing is
// opened until Init.
func NewSQLiteStore(cfg Config) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("database path is required")
	}
	return &SQLiteStore{cfg: cfg}, nil
}

// Open is NewSQLiteStore, Init and Migrate in one call.
func Open(ctx context.Context, cfg Config) (*SQLiteStore, error) {
	s, err := NewSQLiteStore(cfg)
	if err != nil {
		return nil, err
	}
	if err := s.Init(ctx); err != nil {
		return nil, err
	}
	if err := s.Migrate(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Init opens the database connection.
func (s *SQLiteStore) Init(ctx context.Context) error {
	cfg := s.cfg
	dsn := cfg.Path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}

	maxOpen := cfg.MaxOpenConns
	if maxOpen <= 0 || cfg.Path == ":memory:" {
		// Each connection to :memory: is a separate database.
		maxOpen = 1
	}
	db.SetMaxOpenConns(maxOpen)
	lifetime := cfg.ConnMaxLifetime
	if lifetime == 0 {
		lifetime = 5 * time.Minute
	}
	db.SetConnMaxLifetime(lifetime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	s.db = db
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Migrate applies the embedded schema migrations.
func (s *SQLiteStore) Migrate(_ context.Context) error {
	if s.db == nil {
		return fmt.Errorf("database not initialized")
	}
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}
	driver, err := sqlite.WithInstance(s.db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("failed to create database driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", sourceDriver, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// Save inserts sim, assigning an id and creation time when unset.
func (s *SQLiteStore) Save(ctx context.Context, sim *Simulation) error {
	if sim.ID == "" {
		sim.ID = uuid.NewString()
	}
	if sim.CreatedAt.IsZero() {
		sim.CreatedAt = time.Now()
	}
	query := `
		INSERT INTO simulations (id, process_id, process_def, duration, results, stats, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.ExecContext(ctx, query,
		sim.ID,
		sim.ProcessID,
		string(sim.ProcessDef),
		sim.Duration,
		string(sim.Results),
		string(sim.Stats),
		sim.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to save simulation: %w", err)
	}
	logrus.Infof("stored simulation %s (process %q, duration %g)", sim.ID, sim.ProcessID, sim.Duration)
	return nil
}

// Get retrieves a simulation by id.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*Simulation, error) {
	query := `
		SELECT id, process_id, process_def, duration, results, stats, created_at
		FROM simulations
		WHERE id = ?
	`
	var sim Simulation
	var def, results, stats, createdAt string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sim.ID,
		&sim.ProcessID,
		&def,
		&sim.Duration,
		&results,
		&stats,
		&createdAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get simulation: %w", err)
	}
	sim.ProcessDef = []byte(def)
	sim.Results = []byte(results)
	sim.Stats = []byte(stats)
	if sim.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, err
	}
	return &sim, nil
}

// List returns stored simulations, newest first. A non-empty processID keeps
// only the runs of that process.
func (s *SQLiteStore) List(ctx context.Context, processID string) ([]Summary, error) {
	query := `
		SELECT id, process_id, duration, created_at
		FROM simulations
		WHERE (? = '' OR process_id = ?)
		ORDER BY created_at DESC, id
	`
	rows, err := s.db.QueryContext(ctx, query, processID, processID)
	if err != nil {
		return nil, fmt.Errorf("failed to list simulations: %w", err)
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			createdAt string
		)
		if err := rows.Scan(&sum.ID, &sum.ProcessID, &sum.Duration, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan simulation: %w", err)
		}
		if sum.CreatedAt, err = parseTime(createdAt); err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list simulations: %w", err)
	}
	return out, nil
}

// Delete removes a simulation by id.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM simulations WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete simulation: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete simulation: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	logrus.Infof("deleted simulation %s", id)
	return nil
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid created_at %q: %w", s, err)
	}
	return t, nil
}
