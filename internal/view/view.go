// Package view resolves what a list shows for a given tab: filtering,
// search, ordering, recurrence projection, and day grouping. It reads
// the store and never writes.
package view

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/nhle/mytodo/internal/model"
	"github.com/nhle/mytodo/internal/recur"
	"github.com/nhle/mytodo/internal/store"
)

// Tab identifies one of the filtered views over a list's tasks.
type Tab string

// Tabs in display order.
const (
	TabInbox    Tab = "Inbox"
	TabToday    Tab = "Today"
	TabUpcoming Tab = "Upcoming"
	TabOverdue  Tab = "Overdue"
	TabPending  Tab = "Pending"
	TabDone     Tab = "Done"
)

// Tabs lists all tabs in display order.
var Tabs = []Tab{TabInbox, TabToday, TabUpcoming, TabOverdue, TabPending, TabDone}

// projectionHorizon is how far past tomorrow the Upcoming tab forecasts
// occurrences of recurring tasks.
const projectionHorizon = 30 * 24 * time.Hour

// noDateHeader groups tasks without a due date in the Upcoming view.
const noDateHeader = "No Date"

// Section is a contiguous run of tasks sharing a day header in the
// already-sorted sequence.
type Section struct {
	Header string
	Tasks  []model.DisplayTask
}

// Result is the resolved content of a view.
type Result struct {
	// Tasks is the full ordered sequence, real and projected.
	Tasks []model.DisplayTask

	// Sections is set only for the Upcoming tab when not searching.
	Sections []Section

	// Query echoes the search string the view was resolved with, so an
	// empty result can be rendered as "no tasks" or "no results for X".
	Query string
}

// Empty reports whether the view has nothing to show.
func (r Result) Empty() bool { return len(r.Tasks) == 0 }

// TaskSource is the subset of the store the resolver reads.
type TaskSource interface {
	GetTasks(ctx context.Context, filter store.TaskFilter) ([]model.Task, error)
}

// Resolver turns (list, tab, search) into an ordered display sequence.
// Resolution is a pure function of the stored tasks and the clock:
// resolving twice without intervening writes yields identical output.
type Resolver struct {
	source TaskSource
	now    func() time.Time
}

// NewResolver creates a resolver over the given task source.
func NewResolver(source TaskSource) *Resolver {
	return &Resolver{source: source, now: time.Now}
}

// Resolve returns the tasks to display for a list and tab, optionally
// narrowed by a case-insensitive title search.
//
// Only the Upcoming tab merges in projected occurrences of recurring
// tasks, and only when not searching: search matches persisted data
// exclusively. The other tabs intentionally never project.
func (r *Resolver) Resolve(ctx context.Context, listID string, tab Tab, search string) (Result, error) {
	now := r.now()
	startOfToday := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	startOfTomorrow := startOfToday.AddDate(0, 0, 1)
	search = strings.TrimSpace(search)

	filter := store.TaskFilter{ListID: listID, Query: search}
	switch tab {
	case TabToday:
		filter.DueFrom = &startOfToday
		filter.DueBefore = &startOfTomorrow
		filter.Sort = store.SortOpenFirst
	case TabUpcoming:
		filter.DueFrom = &startOfTomorrow
		filter.Sort = store.SortDueThenStatus
	case TabOverdue:
		open := model.TaskStatusOpen
		filter.Status = &open
		filter.DueBefore = &now
		filter.Sort = store.SortDueAsc
	case TabDone:
		complete := model.TaskStatusComplete
		filter.Status = &complete
		filter.Sort = store.SortDueDesc
	case TabPending:
		open := model.TaskStatusOpen
		filter.Status = &open
		filter.Sort = store.SortDueAsc
	default: // Inbox
		filter.Sort = store.SortOpenFirst
	}

	tasks, err := r.source.GetTasks(ctx, filter)
	if err != nil {
		return Result{}, err
	}

	display := make([]model.DisplayTask, 0, len(tasks))
	for _, t := range tasks {
		display = append(display, t)
	}

	grouped := tab == TabUpcoming && search == ""
	if grouped {
		projected, err := r.projectUpcoming(ctx, listID, startOfTomorrow)
		if err != nil {
			return Result{}, err
		}
		if len(projected) > 0 {
			display = append(display, projected...)
			sortByDue(display)
		}
	}

	result := Result{Tasks: display, Query: search}
	if grouped {
		result.Sections = groupByDay(display, startOfTomorrow)
	}
	return result, nil
}

// projectUpcoming gathers every open recurring task in the list and
// forecasts its occurrences over a fixed horizon starting tomorrow.
// Projections are built fresh on every call and never persisted.
func (r *Resolver) projectUpcoming(ctx context.Context, listID string, startOfTomorrow time.Time) ([]model.DisplayTask, error) {
	open := model.TaskStatusOpen
	recurring, err := r.source.GetTasks(ctx, store.TaskFilter{
		ListID:        listID,
		Status:        &open,
		HasRecurrence: true,
	})
	if err != nil {
		return nil, err
	}

	horizonEnd := startOfTomorrow.Add(projectionHorizon)
	var projected []model.DisplayTask
	for _, t := range recurring {
		// HasRecurrence guarantees a due date; a task without one never
		// participates in projection.
		if t.DueDate == nil {
			continue
		}
		for _, due := range recur.Project(*t.DueDate, t.Recurrence, startOfTomorrow, horizonEnd) {
			projected = append(projected, model.Projection{
				ListID:      t.ListID,
				Title:       t.Title,
				Description: t.Description,
				Priority:    t.Priority,
				Recurrence:  t.Recurrence,
				DueDate:     due,
			})
		}
	}
	return projected, nil
}

// sortByDue orders the combined real and projected sequence by due date
// ascending, tasks without a due date last. The sort is stable so the
// store's ordering breaks ties.
func sortByDue(tasks []model.DisplayTask) {
	sort.SliceStable(tasks, func(i, j int) bool {
		di, dj := tasks[i].GetDueDate(), tasks[j].GetDueDate()
		switch {
		case di == nil:
			return false
		case dj == nil:
			return true
		default:
			return di.Before(*dj)
		}
	})
}

// groupByDay partitions the sorted sequence into day sections: "Tomorrow"
// for the day immediately following today, a weekday header otherwise,
// and "No Date" for tasks without a due date. A header is emitted once
// per contiguous run.
func groupByDay(tasks []model.DisplayTask, startOfTomorrow time.Time) []Section {
	var sections []Section
	for _, t := range tasks {
		header := noDateHeader
		if due := t.GetDueDate(); due != nil {
			day := time.Date(due.Year(), due.Month(), due.Day(), 0, 0, 0, 0, due.Location())
			if day.Equal(startOfTomorrow) {
				header = "Tomorrow"
			} else {
				header = due.Format("Monday, Jan 02")
			}
		}

		if len(sections) == 0 || sections[len(sections)-1].Header != header {
			sections = append(sections, Section{Header: header})
		}
		last := &sections[len(sections)-1]
		last.Tasks = append(last.Tasks, t)
	}
	return sections
}
