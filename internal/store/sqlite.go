package store

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/nhle/mytodo/internal/model"
)

// SQLiteStore implements the Store interface using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Enable WAL mode so the notification poller's reads interleave
	// cleanly with interactive writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// rowScanner abstracts sqlx.Row and sqlx.Rows for the scan helpers.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanList scans a list row.
func scanList(row rowScanner) (model.List, error) {
	var (
		list       model.List
		defaultInt int
	)

	err := row.Scan(
		&list.ID, &list.Name, &defaultInt,
		&list.CreatedAt, &list.UpdatedAt,
	)
	if err != nil {
		return model.List{}, err
	}

	list.IsDefault = defaultInt != 0
	return list, nil
}

// scanTask scans a task row.
func scanTask(row rowScanner) (model.Task, error) {
	var (
		task        model.Task
		recurrence  string
		dueDate     *time.Time
		completedAt *time.Time
	)

	err := row.Scan(
		&task.ID, &task.ListID, &task.Title, &task.Description,
		&task.Status, &task.Priority, &dueDate, &recurrence,
		&task.CreatedAt, &completedAt, &task.UpdatedAt,
	)
	if err != nil {
		return model.Task{}, err
	}

	task.Recurrence = model.Recurrence(recurrence)
	task.DueDate = dueDate
	task.CompletedAt = completedAt
	return task, nil
}

// scanSubtask scans a subtask row.
func scanSubtask(row rowScanner) (model.Subtask, error) {
	var (
		sub     model.Subtask
		doneInt int
	)

	err := row.Scan(
		&sub.ID, &sub.TaskID, &sub.Title, &doneInt,
		&sub.SortOrder, &sub.CreatedAt,
	)
	if err != nil {
		return model.Subtask{}, err
	}

	sub.Done = doneInt != 0
	return sub, nil
}

// boolToInt converts a boolean to 0 or 1 for SQLite storage.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
