package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements StateStore using SQLite.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore creates a new SQLite state store instance.
func NewSQLiteStore() *SQLiteStore {
	return &SQLiteStore{}
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(path string) error {
	dsn := path
	if path != ":memory:" {
		dsn = fmt.Sprintf("%s?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)", path)
	} else {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	return nil
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

// --- Run operations ---

// CreateRun creates a new check run.
func (s *SQLiteStore) CreateRun(root string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Root:      root,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	_, err := s.db.Exec(
		`INSERT INTO runs (id, root, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Root, run.Status, run.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return run, nil
}

// CompleteRun marks a run as completed with its final counts.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, theorems, certified, failed int, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	now := time.Now().UTC()
	var errorPtr *string
	if errMsg != "" {
		errorPtr = &errMsg
	}

	result, err := s.db.Exec(
		`UPDATE runs SET status = ?, completed_at = ?, theorems = ?, certified = ?, failed = ?, error = ? WHERE id = ?`,
		status, now, theorems, certified, failed, errorPtr, id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}

	rowsAffected, _ := result.RowsAffected()
	if rowsAffected == 0 {
		return fmt.Errorf("run not found: %s", id)
	}

	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{}
	var completedAt sql.NullTime
	var errMsg sql.NullString

	err := s.db.QueryRow(
		`SELECT id, root, status, started_at, completed_at, theorems, certified, failed, error
		 FROM runs WHERE id = ?`,
		id,
	).Scan(&run.ID, &run.Root, &run.Status, &run.StartedAt, &completedAt, &run.Theorems, &run.Certified, &run.Failed, &errMsg)

	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	if completedAt.Valid {
		run.CompletedAt = &completedAt.Time
	}
	if errMsg.Valid {
		run.Error = errMsg.String
	}

	return run, nil
}

// ListRuns retrieves the most recent runs, newest first.
func (s *SQLiteStore) ListRuns(limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.Query(
		`SELECT id, root, status, started_at, completed_at, theorems, certified, failed, error
		 FROM runs ORDER BY started_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run := &Run{}
		var completedAt sql.NullTime
		var errMsg sql.NullString

		err := rows.Scan(&run.ID, &run.Root, &run.Status, &run.StartedAt, &completedAt, &run.Theorems, &run.Certified, &run.Failed, &errMsg)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		if completedAt.Valid {
			run.CompletedAt = &completedAt.Time
		}
		if errMsg.Valid {
			run.Error = errMsg.String
		}
		runs = append(runs, run)
	}

	return runs, rows.Err()
}

// --- Theorem result operations ---

// RecordTheorem records one theorem's outcome in a run.
func (s *SQLiteStore) RecordTheorem(result *TheoremResult) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	if result.ID == "" {
		result.ID = generateID()
	}

	_, err := s.db.Exec(
		`INSERT INTO theorem_results (id, run_id, name, module, status, certificate, uses_todo, duration_ms, error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.ID, result.RunID, result.Name, result.Module, result.Status,
		result.Certificate, result.UsesTodo, result.DurationMS, result.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record theorem result: %w", err)
	}

	return nil
}

// GetTheoremsForRun retrieves all theorem results for a run, by name.
func (s *SQLiteStore) GetTheoremsForRun(runID string) ([]*TheoremResult, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT id, run_id, name, module, status, certificate, uses_todo, duration_ms, error
		 FROM theorem_results WHERE run_id = ? ORDER BY name`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get theorem results: %w", err)
	}
	defer rows.Close()

	var results []*TheoremResult
	for rows.Next() {
		r := &TheoremResult{}
		var errMsg sql.NullString
		var cert sql.NullString

		err := rows.Scan(&r.ID, &r.RunID, &r.Name, &r.Module, &r.Status, &cert, &r.UsesTodo, &r.DurationMS, &errMsg)
		if err != nil {
			return nil, fmt.Errorf("failed to scan theorem result: %w", err)
		}

		if cert.Valid {
			r.Certificate = cert.String
		}
		if errMsg.Valid {
			r.Error = errMsg.String
		}
		results = append(results, r)
	}

	return results, rows.Err()
}

// Ensure SQLiteStore implements StateStore interface
var _ StateStore = (*SQLiteStore)(nil)
