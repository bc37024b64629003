package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/mytodo/internal/model"
)

// CreateList inserts a new list. Duplicate names are rejected with
// ErrDuplicateListName before anything is written.
func (s *SQLiteStore) CreateList(ctx context.Context, list model.List) (*model.List, error) {
	list.Name = strings.TrimSpace(list.Name)
	if list.Name == "" {
		return nil, fmt.Errorf("list name must not be empty")
	}

	taken, err := s.listNameTaken(ctx, list.Name, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("creating list %q: %w", list.Name, ErrDuplicateListName)
	}

	if list.ID == "" {
		list.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	list.CreatedAt = now
	list.UpdatedAt = now

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO lists (id, name, is_default, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		list.ID, list.Name, boolToInt(list.IsDefault), list.CreatedAt, list.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating list: %w", err)
	}
	return &list, nil
}

// RenameList changes a list's name, rejecting duplicates.
func (s *SQLiteStore) RenameList(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("list name must not be empty")
	}

	taken, err := s.listNameTaken(ctx, name, id)
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("renaming list to %q: %w", name, ErrDuplicateListName)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE lists SET name = ?, updated_at = ? WHERE id = ?",
		name, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("renaming list %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("renaming list %s: %w", id, ErrNotFound)
	}
	return nil
}

// SetDefaultList marks one list as the default and clears the flag on
// all others, keeping exactly one default at steady state.
func (s *SQLiteStore) SetDefaultList(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "UPDATE lists SET is_default = 0"); err != nil {
		return fmt.Errorf("clearing default flags: %w", err)
	}

	result, err := tx.ExecContext(ctx,
		"UPDATE lists SET is_default = 1, updated_at = ? WHERE id = ?",
		time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("setting default list %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("setting default list %s: %w", id, ErrNotFound)
	}

	return tx.Commit()
}

// DeleteList removes a list and everything it owns. The cascade is
// explicit: subtasks of the list's tasks, then the tasks, then the list,
// all in one transaction. Deleting a list that does not exist is a no-op.
func (s *SQLiteStore) DeleteList(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		"DELETE FROM subtasks WHERE task_id IN (SELECT id FROM tasks WHERE list_id = ?)", id)
	if err != nil {
		return fmt.Errorf("deleting subtasks for list %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE list_id = ?", id); err != nil {
		return fmt.Errorf("deleting tasks for list %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM lists WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting list %s: %w", id, err)
	}

	return tx.Commit()
}

// GetListByID retrieves a single list by ID.
func (s *SQLiteStore) GetListByID(ctx context.Context, id string) (*model.List, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM lists WHERE id = ?", id)

	list, err := scanList(row)
	if err != nil {
		return nil, fmt.Errorf("getting list %s: %w", id, err)
	}
	return &list, nil
}

// GetLists retrieves all lists in creation order.
func (s *SQLiteStore) GetLists(ctx context.Context) ([]model.List, error) {
	rows, err := s.db.QueryxContext(ctx, "SELECT * FROM lists ORDER BY created_at")
	if err != nil {
		return nil, fmt.Errorf("querying lists: %w", err)
	}
	defer rows.Close()

	var lists []model.List
	for rows.Next() {
		list, err := scanList(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning list row: %w", err)
		}
		lists = append(lists, list)
	}
	return lists, rows.Err()
}

// EnsureDefaultList creates a default list with the given name when the
// database holds no lists at all, and returns the current default
// (falling back to the first list when none carries the flag).
func (s *SQLiteStore) EnsureDefaultList(ctx context.Context, name string) (*model.List, error) {
	lists, err := s.GetLists(ctx)
	if err != nil {
		return nil, err
	}

	if len(lists) == 0 {
		return s.CreateList(ctx, model.List{Name: name, IsDefault: true})
	}

	for _, l := range lists {
		if l.IsDefault {
			return &l, nil
		}
	}
	return &lists[0], nil
}

// listNameTaken reports whether another list already uses name.
func (s *SQLiteStore) listNameTaken(ctx context.Context, name, excludeID string) (bool, error) {
	var count int
	err := s.db.GetContext(ctx, &count,
		"SELECT COUNT(*) FROM lists WHERE name = ? AND id != ?", name, excludeID)
	if err != nil {
		return false, fmt.Errorf("checking list name %q: %w", name, err)
	}
	return count > 0, nil
}
