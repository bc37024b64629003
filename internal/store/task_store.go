package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/nhle/mytodo/internal/model"
	"github.com/nhle/mytodo/internal/recur"
)

// validateTask enforces the write-boundary rules shared by create and
// update: non-empty title, a known priority, and a known recurrence.
// Invalid recurrence values are rejected here and never reach the
// recurrence engine.
func validateTask(task *model.Task) error {
	if strings.TrimSpace(task.Title) == "" {
		return fmt.Errorf("task title must not be empty")
	}
	if task.Priority == "" {
		task.Priority = model.PriorityMedium
	}
	if !model.ValidPriority(task.Priority) {
		return fmt.Errorf("invalid priority %q", task.Priority)
	}
	if !task.Recurrence.Valid() {
		return fmt.Errorf("invalid recurrence %q", task.Recurrence)
	}
	return nil
}

// CreateTask inserts a new task. Generates a UUID if ID is empty.
func (s *SQLiteStore) CreateTask(ctx context.Context, task model.Task) (*model.Task, error) {
	if err := validateTask(&task); err != nil {
		return nil, err
	}
	if task.ListID == "" {
		return nil, fmt.Errorf("task must belong to a list")
	}
	if _, err := s.GetListByID(ctx, task.ListID); err != nil {
		return nil, fmt.Errorf("task list %s: %w", task.ListID, ErrNotFound)
	}

	if task.ID == "" {
		task.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Status == "" {
		task.Status = model.TaskStatusOpen
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (
			id, list_id, title, description, status, priority,
			due_date, recurrence, created_at, completed_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.ListID, task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, string(task.Recurrence), task.CreatedAt, task.CompletedAt, task.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}
	return &task, nil
}

// UpdateTask updates an existing task by ID.
func (s *SQLiteStore) UpdateTask(ctx context.Context, task model.Task) error {
	if err := validateTask(&task); err != nil {
		return err
	}

	now := time.Now().UTC()
	task.UpdatedAt = now

	// Auto-manage completed_at based on status.
	if task.Status == model.TaskStatusComplete && task.CompletedAt == nil {
		task.CompletedAt = &now
	} else if task.Status == model.TaskStatusOpen {
		task.CompletedAt = nil
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, status = ?, priority = ?,
			due_date = ?, recurrence = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		task.Title, task.Description, task.Status, task.Priority,
		task.DueDate, string(task.Recurrence), task.CompletedAt, task.UpdatedAt,
		task.ID,
	)
	if err != nil {
		return fmt.Errorf("updating task %s: %w", task.ID, err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("updating task %s: %w", task.ID, ErrNotFound)
	}
	return nil
}

// DeleteTask removes a task and its subtasks in one transaction.
// Deleting a task that does not exist is a no-op.
func (s *SQLiteStore) DeleteTask(ctx context.Context, id string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM subtasks WHERE task_id = ?", id); err != nil {
		return fmt.Errorf("deleting subtasks for task %s: %w", id, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting task %s: %w", id, err)
	}

	return tx.Commit()
}

// MoveTask reassigns a task to another list.
func (s *SQLiteStore) MoveTask(ctx context.Context, id, listID string) error {
	if _, err := s.GetListByID(ctx, listID); err != nil {
		return fmt.Errorf("target list %s: %w", listID, ErrNotFound)
	}

	result, err := s.db.ExecContext(ctx,
		"UPDATE tasks SET list_id = ?, updated_at = ? WHERE id = ?",
		listID, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("moving task %s: %w", id, err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return fmt.Errorf("moving task %s: %w", id, ErrNotFound)
	}
	return nil
}

// GetTaskByID retrieves a single task by ID, including its subtasks.
func (s *SQLiteStore) GetTaskByID(ctx context.Context, id string) (*model.Task, error) {
	row := s.db.QueryRowxContext(ctx, "SELECT * FROM tasks WHERE id = ?", id)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("getting task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("getting task %s: %w", id, err)
	}

	subs, err := s.GetSubtasks(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading subtasks for task %s: %w", id, err)
	}
	task.Subtasks = subs

	return &task, nil
}

// GetTasks retrieves tasks matching the filter, with subtasks attached.
func (s *SQLiteStore) GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error) {
	query, args := buildTaskQuery(filter)

	rows, err := s.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range tasks {
		subs, err := s.GetSubtasks(ctx, tasks[i].ID)
		if err != nil {
			return nil, fmt.Errorf("loading subtasks for task %s: %w", tasks[i].ID, err)
		}
		tasks[i].Subtasks = subs
	}

	return tasks, nil
}

// GetDueTasks retrieves open tasks whose due date falls in [from, before).
// The notification poller calls this on its own store handle.
func (s *SQLiteStore) GetDueTasks(ctx context.Context, from, before time.Time) ([]model.Task, error) {
	rows, err := s.db.QueryxContext(ctx, `
		SELECT * FROM tasks
		WHERE status = 'open' AND due_date >= ? AND due_date < ?
		ORDER BY due_date`,
		from, before,
	)
	if err != nil {
		return nil, fmt.Errorf("querying due tasks: %w", err)
	}
	defer rows.Close()

	var tasks []model.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}

// ToggleTask flips a task between open and complete. On the open to
// complete transition of a recurring task with a due date it also
// materializes the next occurrence: a new task copying title,
// description, priority, recurrence, and list, due at the next computed
// date, while the completed original has its recurrence cleared. Both
// writes commit in the same transaction, so readers never observe the
// flag flipped without the new task or vice versa.
//
// Completing a recurring task with no due date is a plain completion:
// there is no anchor to compute "next" from.
func (s *SQLiteStore) ToggleTask(ctx context.Context, id string) (*ToggleResult, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	row := tx.QueryRowxContext(ctx, "SELECT * FROM tasks WHERE id = ?", id)
	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("toggling task %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("toggling task %s: %w", id, err)
	}

	now := time.Now().UTC()
	var created *model.Task

	if task.Status == model.TaskStatusComplete {
		// Un-completing never materializes anything.
		task.Status = model.TaskStatusOpen
		task.CompletedAt = nil
	} else {
		task.Status = model.TaskStatusComplete
		task.CompletedAt = &now

		if task.Recurrence != model.RecurrenceNone && task.DueDate != nil {
			next := recur.Next(*task.DueDate, task.Recurrence)
			nt := model.Task{
				ID:          uuid.New().String(),
				ListID:      task.ListID,
				Title:       task.Title,
				Description: task.Description,
				Status:      model.TaskStatusOpen,
				Priority:    task.Priority,
				DueDate:     &next,
				Recurrence:  task.Recurrence,
				CreatedAt:   now,
				UpdatedAt:   now,
			}
			_, err = tx.ExecContext(ctx, `
				INSERT INTO tasks (
					id, list_id, title, description, status, priority,
					due_date, recurrence, created_at, completed_at, updated_at
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				nt.ID, nt.ListID, nt.Title, nt.Description, nt.Status, nt.Priority,
				nt.DueDate, string(nt.Recurrence), nt.CreatedAt, nt.CompletedAt, nt.UpdatedAt,
			)
			if err != nil {
				return nil, fmt.Errorf("materializing next occurrence of %s: %w", id, err)
			}

			// Recurrence is a one-shot handoff: the completed instance
			// becomes a plain record.
			task.Recurrence = model.RecurrenceNone
			created = &nt
		}
	}

	task.UpdatedAt = now
	_, err = tx.ExecContext(ctx, `
		UPDATE tasks SET status = ?, recurrence = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		task.Status, string(task.Recurrence), task.CompletedAt, task.UpdatedAt, task.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("toggling task %s: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing toggle of %s: %w", id, err)
	}

	return &ToggleResult{Task: task, Created: created}, nil
}

// taskOrderings maps TaskFilter.Sort values to ORDER BY clauses.
// The "(due_date IS NULL)" key pushes tasks without a due date to the
// end regardless of direction.
var taskOrderings = map[string]string{
	SortOpenFirst:     "(tasks.status = 'complete'), tasks.created_at",
	SortDueAsc:        "(tasks.due_date IS NULL), tasks.due_date",
	SortDueDesc:       "(tasks.due_date IS NULL), tasks.due_date DESC",
	SortDueThenStatus: "(tasks.due_date IS NULL), tasks.due_date, (tasks.status = 'complete')",
}

// buildTaskQuery constructs the SQL query and args for a TaskFilter.
func buildTaskQuery(filter TaskFilter) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.ListID != "" {
		conditions = append(conditions, "tasks.list_id = ?")
		args = append(args, filter.ListID)
	}
	if filter.Status != nil {
		conditions = append(conditions, "tasks.status = ?")
		args = append(args, *filter.Status)
	}
	if filter.DueFrom != nil {
		conditions = append(conditions, "tasks.due_date >= ?")
		args = append(args, *filter.DueFrom)
	}
	if filter.DueBefore != nil {
		conditions = append(conditions, "tasks.due_date < ?")
		args = append(args, *filter.DueBefore)
	}
	if filter.HasRecurrence {
		conditions = append(conditions, "tasks.recurrence != '' AND tasks.due_date IS NOT NULL")
	}
	if filter.Query != "" {
		conditions = append(conditions, "LOWER(tasks.title) LIKE ?")
		args = append(args, "%"+strings.ToLower(filter.Query)+"%")
	}

	query := "SELECT tasks.* FROM tasks"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}

	orderBy := "tasks.created_at"
	if clause, ok := taskOrderings[filter.Sort]; ok {
		orderBy = clause
	}
	query += " ORDER BY " + orderBy

	return query, args
}
