package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// Store provides SQLite-based persistence for scan results.
type Store struct {
	db *sql.DB
}

// FindingRecord represents a discovered negative/critical cycle stored in the
// database. CycleKey is the rotation-normalised dedup key from
// internal/scanner, Ratio the cost/time ratio, and Cycle a caller-serialised
// edge-payload list kept opaque to this layer.
type FindingRecord struct {
	CycleKey     string
	SourceNode   string
	Ratio        float64
	Cycle        string
	DiscoveredAt time.Time
}

// RatioRecord represents the last-known best ratio for a watched source node.
type RatioRecord struct {
	SourceNode string
	Ratio      float64
	UpdatedAt  time.Time
}

// NewStore creates a new SQLite store and runs migrations.
func NewStore(dbPath string) (*Store, error) {
	// Ensure directory exists
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	store := &Store{db: db}

	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return store, nil
}

// migrate runs database schema migrations.
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS findings (
			cycle_key TEXT PRIMARY KEY,
			source_node TEXT NOT NULL,
			ratio REAL NOT NULL,
			cycle TEXT NOT NULL,
			discovered_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_source ON findings(source_node)`,
		`CREATE INDEX IF NOT EXISTS idx_findings_ratio ON findings(ratio)`,
		`CREATE TABLE IF NOT EXISTS ratio_history (
			source_node TEXT PRIMARY KEY,
			ratio REAL NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS system_state (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	log.Info().Msg("database migrations completed")
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// InsertFinding records a newly discovered cycle, ignoring duplicates by
// cycle_key (the scanner is expected to have already deduplicated within a
// run, but restarts can rediscover the same cycle).
func (s *Store) InsertFinding(ctx context.Context, f FindingRecord) error {
	query := `INSERT INTO findings (cycle_key, source_node, ratio, cycle, discovered_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(cycle_key) DO NOTHING`

	_, err := s.db.ExecContext(ctx, query, f.CycleKey, f.SourceNode, f.Ratio, f.Cycle, f.DiscoveredAt)
	return err
}

// GetFindingsBySource retrieves findings for a given source node, most
// recent first.
func (s *Store) GetFindingsBySource(ctx context.Context, sourceNode string, limit int) ([]FindingRecord, error) {
	query := `SELECT cycle_key, source_node, ratio, cycle, discovered_at
		FROM findings
		WHERE source_node = ?
		ORDER BY discovered_at DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, sourceNode, limit)
	if err != nil {
		return nil, fmt.Errorf("querying findings: %w", err)
	}
	defer rows.Close()

	var findings []FindingRecord
	for rows.Next() {
		var f FindingRecord
		if err := rows.Scan(&f.CycleKey, &f.SourceNode, &f.Ratio, &f.Cycle, &f.DiscoveredAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		findings = append(findings, f)
	}

	return findings, rows.Err()
}

// UpsertRatio records the latest best ratio found for a source node.
func (s *Store) UpsertRatio(ctx context.Context, r RatioRecord) error {
	query := `INSERT INTO ratio_history (source_node, ratio, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(source_node) DO UPDATE SET ratio = excluded.ratio, updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query, r.SourceNode, r.Ratio, r.UpdatedAt)
	return err
}

// GetRatio retrieves the last-known ratio for a source node.
func (s *Store) GetRatio(ctx context.Context, sourceNode string) (*RatioRecord, error) {
	query := `SELECT source_node, ratio, updated_at FROM ratio_history WHERE source_node = ?`

	var r RatioRecord
	err := s.db.QueryRowContext(ctx, query, sourceNode).Scan(&r.SourceNode, &r.Ratio, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// FindingCount returns the total number of recorded findings.
func (s *Store) FindingCount(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM findings").Scan(&count)
	return count, err
}

// SetSystemState stores a key-value pair in system state.
func (s *Store) SetSystemState(ctx context.Context, key, value string) error {
	query := `INSERT INTO system_state (key, value, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query, key, value, time.Now())
	return err
}

// GetSystemState retrieves a value from system state.
func (s *Store) GetSystemState(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM system_state WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	return value, err
}
