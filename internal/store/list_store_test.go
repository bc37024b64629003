package store_test

import (
	"context"
	"errors"
	"testing"

	"github.com/nhle/mytodo/internal/model"
	"github.com/nhle/mytodo/internal/store"
	"github.com/nhle/mytodo/tests/testutil"
)

func TestCreateListRejectsDuplicateName(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if _, err := s.CreateList(ctx, model.List{Name: "Work"}); err != nil {
		t.Fatalf("create list: %v", err)
	}

	_, err := s.CreateList(ctx, model.List{Name: "Work"})
	if !errors.Is(err, store.ErrDuplicateListName) {
		t.Fatalf("expected ErrDuplicateListName, got %v", err)
	}

	lists, err := s.GetLists(ctx)
	if err != nil {
		t.Fatalf("get lists: %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("expected 1 list after rejected duplicate, got %d", len(lists))
	}
}

func TestRenameListRejectsDuplicateName(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	work, err := s.CreateList(ctx, model.List{Name: "Work"})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	if _, err := s.CreateList(ctx, model.List{Name: "Home"}); err != nil {
		t.Fatalf("create list: %v", err)
	}

	if err := s.RenameList(ctx, work.ID, "Home"); !errors.Is(err, store.ErrDuplicateListName) {
		t.Fatalf("expected ErrDuplicateListName, got %v", err)
	}

	// Renaming to its own name is not a duplicate.
	if err := s.RenameList(ctx, work.ID, "Work"); err != nil {
		t.Fatalf("rename to own name: %v", err)
	}
}

func TestDeleteListCascades(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	doomed, err := s.CreateList(ctx, model.List{Name: "Doomed"})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	kept, err := s.CreateList(ctx, model.List{Name: "Kept"})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	for i := 0; i < 2; i++ {
		task, err := s.CreateTask(ctx, model.Task{ListID: doomed.ID, Title: "victim"})
		if err != nil {
			t.Fatalf("create task: %v", err)
		}
		if _, err := s.AddSubtask(ctx, model.Subtask{TaskID: task.ID, Title: "step"}); err != nil {
			t.Fatalf("add subtask: %v", err)
		}
	}
	survivor, err := s.CreateTask(ctx, model.Task{ListID: kept.ID, Title: "survivor"})
	if err != nil {
		t.Fatalf("create task: %v", err)
	}

	if err := s.DeleteList(ctx, doomed.ID); err != nil {
		t.Fatalf("delete list: %v", err)
	}

	if _, err := s.GetListByID(ctx, doomed.ID); err == nil {
		t.Fatalf("expected deleted list to be gone")
	}
	tasks, err := s.GetTasks(ctx, store.TaskFilter{ListID: doomed.ID})
	if err != nil {
		t.Fatalf("get tasks: %v", err)
	}
	if len(tasks) != 0 {
		t.Fatalf("expected no tasks in deleted list, got %d", len(tasks))
	}

	if _, err := s.GetTaskByID(ctx, survivor.ID); err != nil {
		t.Fatalf("task in other list should survive: %v", err)
	}
}

func TestDeleteListIsIdempotent(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	if err := s.DeleteList(ctx, "no-such-list"); err != nil {
		t.Fatalf("deleting a missing list should be a no-op, got %v", err)
	}
}

func TestSetDefaultListKeepsSingleDefault(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	a, err := s.CreateList(ctx, model.List{Name: "A", IsDefault: true})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}
	b, err := s.CreateList(ctx, model.List{Name: "B"})
	if err != nil {
		t.Fatalf("create list: %v", err)
	}

	if err := s.SetDefaultList(ctx, b.ID); err != nil {
		t.Fatalf("set default: %v", err)
	}

	lists, err := s.GetLists(ctx)
	if err != nil {
		t.Fatalf("get lists: %v", err)
	}
	for _, l := range lists {
		switch l.ID {
		case a.ID:
			if l.IsDefault {
				t.Fatalf("old default should have lost the flag")
			}
		case b.ID:
			if !l.IsDefault {
				t.Fatalf("new default should carry the flag")
			}
		}
	}
}

func TestEnsureDefaultList(t *testing.T) {
	s := testutil.NewTestStore(t)
	ctx := context.Background()

	created, err := s.EnsureDefaultList(ctx, "Personal")
	if err != nil {
		t.Fatalf("ensure default: %v", err)
	}
	if created.Name != "Personal" || !created.IsDefault {
		t.Fatalf("expected default list Personal, got %+v", created)
	}

	// A second call finds the existing default instead of creating another.
	again, err := s.EnsureDefaultList(ctx, "Personal")
	if err != nil {
		t.Fatalf("ensure default again: %v", err)
	}
	if again.ID != created.ID {
		t.Fatalf("expected the same list, got %s and %s", created.ID, again.ID)
	}

	lists, err := s.GetLists(ctx)
	if err != nil {
		t.Fatalf("get lists: %v", err)
	}
	if len(lists) != 1 {
		t.Fatalf("expected 1 list, got %d", len(lists))
	}
}
