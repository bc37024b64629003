package model

import "time"

// Task status constants.
const (
	TaskStatusOpen     = "open"
	TaskStatusComplete = "complete"
)

// Priority levels.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// ValidPriority reports whether p is one of the accepted priority levels.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// Recurrence is the repeat rule attached to a task. The zero value means
// the task does not recur.
type Recurrence string

// Recurrence rules.
const (
	RecurrenceNone    Recurrence = ""
	RecurrenceDaily   Recurrence = "daily"
	RecurrenceWeekly  Recurrence = "weekly"
	RecurrenceMonthly Recurrence = "monthly"
)

// Valid reports whether r is one of the accepted recurrence values.
// Validity is checked at the write boundary so the recurrence engine
// never sees anything else.
func (r Recurrence) Valid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// List is a named collection of tasks. Exactly one list is marked
// default at steady state.
type List struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	IsDefault bool      `json:"is_default" db:"is_default"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Task is a user-created unit of work owned by a list.
type Task struct {
	ID          string     `json:"id" db:"id"`
	ListID      string     `json:"list_id" db:"list_id"`
	Title       string     `json:"title" db:"title"`
	Description string     `json:"description" db:"description"`
	Status      string     `json:"status" db:"status"`
	Priority    string     `json:"priority" db:"priority"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	Recurrence  Recurrence `json:"recurrence,omitempty" db:"recurrence"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" db:"completed_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	// Subtasks is populated by queries that join with subtasks.
	Subtasks []Subtask `json:"subtasks,omitempty" db:"-"`
}

// Subtask is a checklist entry within a task. Its lifecycle is bound to
// the parent task (deleted together with it).
type Subtask struct {
	ID        string    `json:"id" db:"id"`
	TaskID    string    `json:"task_id" db:"task_id"`
	Title     string    `json:"title" db:"title"`
	Done      bool      `json:"done" db:"done"`
	SortOrder int       `json:"sort_order" db:"sort_order"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// SubtaskCounts returns how many subtasks are done and the total.
func (t Task) SubtaskCounts() (done, total int) {
	for _, s := range t.Subtasks {
		if s.Done {
			done++
		}
	}
	return done, len(t.Subtasks)
}
