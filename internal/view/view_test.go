package view

import (
	"context"
	"testing"
	"time"

	"github.com/nhle/mytodo/internal/model"
	"github.com/nhle/mytodo/internal/store"
	"github.com/nhle/mytodo/tests/testutil"
)

// fixedNow anchors every test to a known clock: Wednesday 2024-06-12.
var fixedNow = time.Date(2024, 6, 12, 14, 30, 0, 0, time.UTC)

func newFixture(t *testing.T) (*Resolver, *store.SQLiteStore, *model.List) {
	t.Helper()
	s := testutil.NewTestStore(t)
	list, err := s.CreateList(context.Background(), model.List{Name: "Personal"})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	r := NewResolver(s)
	r.now = func() time.Time { return fixedNow }
	return r, s, list
}

func mustCreate(t *testing.T, s *store.SQLiteStore, task model.Task) *model.Task {
	t.Helper()
	created, err := s.CreateTask(context.Background(), task)
	if err != nil {
		t.Fatalf("create task %q: %v", task.Title, err)
	}
	return created
}

func titles(tasks []model.DisplayTask) []string {
	out := make([]string, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, t.GetTitle())
	}
	return out
}

func TestResolveTodayWindow(t *testing.T) {
	r, s, list := newFixture(t)
	ctx := context.Background()

	today := time.Date(2024, 6, 12, 9, 0, 0, 0, time.UTC)
	yesterday := today.AddDate(0, 0, -1)
	tomorrow := today.AddDate(0, 0, 1)
	mustCreate(t, s, model.Task{ListID: list.ID, Title: "today", DueDate: &today})
	mustCreate(t, s, model.Task{ListID: list.ID, Title: "yesterday", DueDate: &yesterday})
	mustCreate(t, s, model.Task{ListID: list.ID, Title: "tomorrow", DueDate: &tomorrow})
	mustCreate(t, s, model.Task{ListID: list.ID, Title: "undated"})

	res, err := r.Resolve(ctx, list.ID, TabToday, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := titles(res.Tasks); len(got) != 1 || got[0] != "today" {
		t.Fatalf("expected only today's task, got %v", got)
	}
}

func TestResolveOverdueOnlyOpenPastDue(t *testing.T) {
	r, s, list := newFixture(t)
	ctx := context.Background()

	past := fixedNow.Add(-2 * time.Hour)
	older := fixedNow.AddDate(0, 0, -3)
	future := fixedNow.Add(2 * time.Hour)
	mustCreate(t, s, model.Task{ListID: list.ID, Title: "late", DueDate: &past})
	mustCreate(t, s, model.Task{ListID: list.ID, Title: "older", DueDate: &older})
	mustCreate(t, s, model.Task{ListID: list.ID, Title: "future", DueDate: &future})
	finished := mustCreate(t, s, model.Task{ListID: list.ID, Title: "finished", DueDate: &past})
	if _, err := s.ToggleTask(ctx, finished.ID); err != nil {
		t.Fatalf("toggle: %v", err)
	}

	res, err := r.Resolve(ctx, list.ID, TabOverdue, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got := titles(res.Tasks)
	if len(got) != 2 || got[0] != "older" || got[1] != "late" {
		t.Fatalf("expected [older late], got %v", got)
	}
}

func TestResolveDoneNewestDueFirst(t *testing.T) {
	r, s, list := newFixture(t)
	ctx := context.Background()

	early := fixedNow.AddDate(0, 0, -5)
	late := fixedNow.AddDate(0, 0, -1)
	a := mustCreate(t, s, model.Task{ListID: list.ID, Title: "early", DueDate: &early})
	b := mustCreate(t, s, model.Task{ListID: list.ID, Title: "late", DueDate: &late})
	mustCreate(t, s, model.Task{ListID: list.ID, Title: "still open"})
	for _, id := range []string{a.ID, b.ID} {
		if _, err := s.ToggleTask(ctx, id); err != nil {
			t.Fatalf("toggle: %v", err)
		}
	}

	res, err := r.Resolve(ctx, list.ID, TabDone, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	got := titles(res.Tasks)
	if len(got) != 2 || got[0] != "late" || got[1] != "early" {
		t.Fatalf("expected [late early], got %v", got)
	}
}

func TestResolveSearchIsCaseInsensitive(t *testing.T) {
	r, s, list := newFixture(t)
	ctx := context.Background()

	mustCreate(t, s, model.Task{ListID: list.ID, Title: "Learn Go"})
	mustCreate(t, s, model.Task{ListID: list.ID, Title: "groceries"})

	res, err := r.Resolve(ctx, list.ID, TabInbox, "learn")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if got := titles(res.Tasks); len(got) != 1 || got[0] != "Learn Go" {
		t.Fatalf("expected [Learn Go], got %v", got)
	}
	if res.Query != "learn" {
		t.Fatalf("expected query echoed, got %q", res.Query)
	}
}

func TestResolveUpcomingMergesProjections(t *testing.T) {
	r, s, list := newFixture(t)
	ctx := context.Background()

	// Recurring task due tomorrow morning projects into the horizon.
	anchor := time.Date(2024, 6, 13, 8, 0, 0, 0, time.UTC)
	mustCreate(t, s, model.Task{
		ListID:     list.ID,
		Title:      "daily review",
		DueDate:    &anchor,
		Recurrence: model.RecurrenceDaily,
	})

	res, err := r.Resolve(ctx, list.ID, TabUpcoming, "")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}

	persisted, projected := 0, 0
	var prev *time.Time
	for _, dt := range res.Tasks {
		if dt.IsProjection() {
			projected++
			if dt.GetID() != "" {
				t.Fatalf("projection must have no identity")
			}
		} else {
			persisted++
		}
		due := dt.GetDueDate()
		if due == nil {
			t.Fatalf("upcoming entries here all carry due dates")
		}
		if prev != nil && due.Before(*prev) {
			t.Fatalf("sequence not ordered by due date")
		}
		prev = due
	}
	if persisted != 1 {
		t.Fatalf("expected exactly 1 persisted task, got %d", persisted)
	}
	if projected == 0 {
		t.Fatalf("expected projected occurrences")
	}
	if len(res.Sections) == 0 {
		t.Fatalf("expected day sections for upcoming")
	}
	if res.Sections[0].Header != "Tomorrow" {
		t.Fatalf("expected first section Tomorrow, got %q", res.Sections[0].Header)
	}
}

func TestResolveUpcomingSearchSuppressesProjections(t *testing.T) {
	r, s, list := newFixture(t)
	ctx := context.Background()

	anchor := time.Date(2024, 6, 13, 8, 0, 0, 0, time.UTC)
	mustCreate(t, s, model.Task{
		ListID:     list.ID,
		Title:      "daily review",
		DueDate:    &anchor,
		Recurrence: model.RecurrenceDaily,
	})

	res, err := r.Resolve(ctx, list.ID, TabUpcoming, "review")
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	for _, dt := range res.Tasks {
		if dt.IsProjection() {
			t.Fatalf("search must only match persisted tasks")
		}
	}
	if len(res.Tasks) != 1 {
		t.Fatalf("expected the single stored task, got %d", len(res.Tasks))
	}
	if len(res.Sections) != 0 {
		t.Fatalf("search results are flat, got %d sections", len(res.Sections))
	}
}

func TestResolveIsIdempotentUnderFixedClock(t *testing.T) {
	r, s, list := newFixture(t)
	ctx := context.Background()

	anchor := time.Date(2024, 6, 13, 8, 0, 0, 0, time.UTC)
	mustCreate(t, s, model.Task{
		ListID:     list.ID,
		Title:      "weekly sync",
		DueDate:    &anchor,
		Recurrence: model.RecurrenceWeekly,
	})

	first, err := r.Resolve(ctx, list.ID, TabUpcoming, "")
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := r.Resolve(ctx, list.ID, TabUpcoming, "")
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if len(first.Tasks) != len(second.Tasks) {
		t.Fatalf("resolve changed output: %d then %d", len(first.Tasks), len(second.Tasks))
	}
	for i := range first.Tasks {
		a, b := first.Tasks[i], second.Tasks[i]
		if a.GetTitle() != b.GetTitle() || !a.GetDueDate().Equal(*b.GetDueDate()) {
			t.Fatalf("entry %d differs between resolves", i)
		}
	}

	// Nothing was persisted by resolving.
	stored, err := s.GetTasks(ctx, store.TaskFilter{ListID: list.ID})
	if err != nil {
		t.Fatalf("get tasks: %v", err)
	}
	if len(stored) != 1 {
		t.Fatalf("projection must not persist tasks, found %d", len(stored))
	}
}

func TestGroupByDayHeaders(t *testing.T) {
	startOfTomorrow := time.Date(2024, 6, 13, 0, 0, 0, 0, time.UTC)
	tomorrow := startOfTomorrow.Add(9 * time.Hour)
	friday := time.Date(2024, 6, 14, 9, 0, 0, 0, time.UTC)

	tasks := []model.DisplayTask{
		model.Task{Title: "a", DueDate: &tomorrow},
		model.Task{Title: "b", DueDate: &tomorrow},
		model.Task{Title: "c", DueDate: &friday},
		model.Task{Title: "d"},
	}

	sections := groupByDay(tasks, startOfTomorrow)
	if len(sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(sections))
	}
	if sections[0].Header != "Tomorrow" || len(sections[0].Tasks) != 2 {
		t.Fatalf("unexpected first section: %q with %d tasks", sections[0].Header, len(sections[0].Tasks))
	}
	if sections[1].Header != "Friday, Jun 14" {
		t.Fatalf("expected weekday header, got %q", sections[1].Header)
	}
	if sections[2].Header != noDateHeader {
		t.Fatalf("expected %q, got %q", noDateHeader, sections[2].Header)
	}
}
