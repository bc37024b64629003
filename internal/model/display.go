package model

import "time"

// DisplayTask is the common interface for entries in a resolved view.
// Both Task (persisted) and Projection (computed per render) implement it.
type DisplayTask interface {
	GetID() string
	GetListID() string
	GetTitle() string
	GetDescription() string
	GetPriority() string
	GetDueDate() *time.Time
	GetRecurrence() Recurrence
	IsCompleted() bool
	IsProjection() bool
	SubtaskProgress() (done, total int)
}

// Task implements DisplayTask.

func (t Task) GetID() string              { return t.ID }
func (t Task) GetListID() string          { return t.ListID }
func (t Task) GetTitle() string           { return t.Title }
func (t Task) GetDescription() string     { return t.Description }
func (t Task) GetPriority() string        { return t.Priority }
func (t Task) GetDueDate() *time.Time     { return t.DueDate }
func (t Task) GetRecurrence() Recurrence  { return t.Recurrence }
func (t Task) IsCompleted() bool          { return t.Status == TaskStatusComplete }
func (t Task) IsProjection() bool         { return false }
func (t Task) SubtaskProgress() (int, int) { return t.SubtaskCounts() }

// IsOverdue reports whether the task has a due date in the past and is
// still open.
func (t Task) IsOverdue(now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && t.Status != TaskStatusComplete
}

// Projection is a read-only forecast of a future occurrence of a
// recurring task, shown only in the Upcoming view. It has no identity
// and no subtasks, and it cannot be passed to any store mutation because
// those take Task values.
type Projection struct {
	ListID      string
	Title       string
	Description string
	Priority    string
	Recurrence  Recurrence
	DueDate     time.Time
}

// Projection implements DisplayTask.

func (p Projection) GetID() string              { return "" }
func (p Projection) GetListID() string          { return p.ListID }
func (p Projection) GetTitle() string           { return p.Title }
func (p Projection) GetDescription() string     { return p.Description }
func (p Projection) GetPriority() string        { return p.Priority }
func (p Projection) GetDueDate() *time.Time     { d := p.DueDate; return &d }
func (p Projection) GetRecurrence() Recurrence  { return p.Recurrence }
func (p Projection) IsCompleted() bool          { return false }
func (p Projection) IsProjection() bool         { return true }
func (p Projection) SubtaskProgress() (int, int) { return 0, 0 }
