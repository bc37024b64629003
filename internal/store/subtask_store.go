package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/mytodo/internal/model"
)

// AddSubtask inserts a new subtask for a task.
func (s *SQLiteStore) AddSubtask(ctx context.Context, sub model.Subtask) (*model.Subtask, error) {
	sub.Title = strings.TrimSpace(sub.Title)
	if sub.Title == "" {
		return nil, fmt.Errorf("subtask title must not be empty")
	}
	if sub.TaskID == "" {
		return nil, fmt.Errorf("subtask must belong to a task")
	}
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	sub.CreatedAt = time.Now().UTC()

	// Default sort_order to max+1 within the task.
	if sub.SortOrder == 0 {
		var maxOrder int
		err := s.db.GetContext(ctx, &maxOrder,
			"SELECT COALESCE(MAX(sort_order), 0) FROM subtasks WHERE task_id = ?",
			sub.TaskID)
		if err != nil {
			return nil, fmt.Errorf("getting max subtask sort_order: %w", err)
		}
		sub.SortOrder = maxOrder + 1
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subtasks (id, task_id, title, done, sort_order, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sub.ID, sub.TaskID, sub.Title, boolToInt(sub.Done),
		sub.SortOrder, sub.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("adding subtask: %w", err)
	}
	return &sub, nil
}

// UpdateSubtask updates title and done state of a subtask.
func (s *SQLiteStore) UpdateSubtask(ctx context.Context, sub model.Subtask) error {
	if strings.TrimSpace(sub.Title) == "" {
		return fmt.Errorf("subtask title must not be empty")
	}
	result, err := s.db.ExecContext(ctx,
		"UPDATE subtasks SET title = ?, done = ? WHERE id = ?",
		sub.Title, boolToInt(sub.Done), sub.ID,
	)
	if err != nil {
		return fmt.Errorf("updating subtask %s: %w", sub.ID, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating subtask %s: %w", sub.ID, ErrNotFound)
	}
	return nil
}

// DeleteSubtask removes a subtask by ID. Deleting a missing subtask is
// a no-op.
func (s *SQLiteStore) DeleteSubtask(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM subtasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("deleting subtask %s: %w", id, err)
	}
	return nil
}

// GetSubtasks returns all subtasks for a task, unchecked first, then by
// sort order.
func (s *SQLiteStore) GetSubtasks(ctx context.Context, taskID string) ([]model.Subtask, error) {
	rows, err := s.db.QueryxContext(ctx,
		"SELECT * FROM subtasks WHERE task_id = ? ORDER BY done, sort_order",
		taskID)
	if err != nil {
		return nil, fmt.Errorf("querying subtasks: %w", err)
	}
	defer rows.Close()

	var subs []model.Subtask
	for rows.Next() {
		sub, err := scanSubtask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning subtask row: %w", err)
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// ToggleSubtask flips the done state of a subtask.
func (s *SQLiteStore) ToggleSubtask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE subtasks SET done = CASE WHEN done = 0 THEN 1 ELSE 0 END WHERE id = ?",
		id)
	if err != nil {
		return fmt.Errorf("toggling subtask %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("toggling subtask %s: %w", id, ErrNotFound)
	}
	return nil
}
