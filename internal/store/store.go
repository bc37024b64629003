package store

import (
	"context"
	"errors"
	"time"

	"github.com/nhle/mytodo/internal/model"
)

// ErrNotFound is returned when an operation targets a record that does
// not exist. Deletes are idempotent and never return it.
var ErrNotFound = errors.New("not found")

// ErrDuplicateListName is returned when creating or renaming a list to a
// name already in use. It is a validation failure, not a storage error.
var ErrDuplicateListName = errors.New("list name already exists")

// Sort orders accepted by TaskFilter. Null due dates always sort last.
const (
	SortOpenFirst     = "open_first"     // incomplete before complete, then creation time
	SortDueAsc        = "due_asc"        // due date ascending
	SortDueDesc       = "due_desc"       // due date descending
	SortDueThenStatus = "due_then_open"  // due date ascending, then incomplete first
)

// TaskFilter controls filtering and ordering for task queries.
type TaskFilter struct {
	ListID        string     // scope to a list; empty = all lists
	Status        *string    // "open", "complete", or nil (all)
	DueFrom       *time.Time // due_date >= DueFrom
	DueBefore     *time.Time // due_date < DueBefore
	HasRecurrence bool       // only tasks with both a recurrence rule and a due date
	Query         string     // case-insensitive title substring
	Sort          string     // one of the Sort* constants; empty = creation order
}

// ToggleResult reports the outcome of a completion toggle.
type ToggleResult struct {
	// Task is the toggled task as persisted.
	Task model.Task

	// Created is the next occurrence materialized when an open recurring
	// task with a due date was completed, nil otherwise.
	Created *model.Task
}

// Store defines the persistence interface for lists, tasks, and subtasks.
type Store interface {
	// === Lists ===

	CreateList(ctx context.Context, list model.List) (*model.List, error)
	RenameList(ctx context.Context, id, name string) error
	SetDefaultList(ctx context.Context, id string) error
	DeleteList(ctx context.Context, id string) error
	GetListByID(ctx context.Context, id string) (*model.List, error)
	GetLists(ctx context.Context) ([]model.List, error)
	EnsureDefaultList(ctx context.Context, name string) (*model.List, error)

	// === Tasks ===

	CreateTask(ctx context.Context, task model.Task) (*model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) error
	DeleteTask(ctx context.Context, id string) error
	MoveTask(ctx context.Context, id, listID string) error
	GetTaskByID(ctx context.Context, id string) (*model.Task, error)
	GetTasks(ctx context.Context, filter TaskFilter) ([]model.Task, error)
	GetDueTasks(ctx context.Context, from, before time.Time) ([]model.Task, error)
	ToggleTask(ctx context.Context, id string) (*ToggleResult, error)

	// === Subtasks ===

	AddSubtask(ctx context.Context, sub model.Subtask) (*model.Subtask, error)
	UpdateSubtask(ctx context.Context, sub model.Subtask) error
	DeleteSubtask(ctx context.Context, id string) error
	GetSubtasks(ctx context.Context, taskID string) ([]model.Subtask, error)
	ToggleSubtask(ctx context.Context, id string) error
}
