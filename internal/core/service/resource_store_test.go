package service

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/pkg/validation"
)

func newTestProjectStore(t *testing.T) (*ProjectStore, *stubGateway) {
	t.Helper()
	gw := newStubGateway(nil)
	s := NewProjectStore(gw, nil, validation.New(), zerolog.Nop())
	t.Cleanup(s.Close)
	return s, gw
}

func newTestTaskStore(t *testing.T) (*TaskStore, *stubGateway) {
	t.Helper()
	gw := newStubGateway(nil)
	s := NewTaskStore(gw, nil, validation.New(), zerolog.Nop())
	t.Cleanup(s.Close)
	return s, gw
}

func projectRecords(ids ...int64) []map[string]any {
	out := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		out = append(out, map[string]any{"id": id, "name": "p", "members": []int64{}})
	}
	return out
}

func ids[T domain.Resource](items []T) []int64 {
	out := make([]int64, 0, len(items))
	for _, item := range items {
		out = append(out, item.ResourceID())
	}
	return out
}

func TestResourceStore_LoadAppliesHighestResolvedSequence(t *testing.T) {
	// Each permutation is the order in which three loads resolve. Load i
	// answers with a single project whose id is i+1.
	orders := [][]int{
		{0, 1, 2}, {0, 2, 1}, {1, 0, 2}, {1, 2, 0}, {2, 0, 1}, {2, 1, 0},
	}
	for _, order := range orders {
		s, gw := newTestProjectStore(t)
		gw.holdCalls()

		held := make([]*heldCall, 3)
		dones := make([]chan struct{}, 3)
		for i := 0; i < 3; i++ {
			dones[i] = make(chan struct{})
			go func(done chan struct{}) {
				defer close(done)
				_, _ = s.Load(context.Background())
			}(dones[i])
			// Loads are issued one at a time so the call order matches the
			// sequence order.
			held[i] = gw.next(t)
		}

		highest := -1
		for _, i := range order {
			held[i].release(http.StatusOK, projectRecords(int64(i+1)))
			wait(t, dones[i])
			if i > highest {
				highest = i
			}
			got := ids(s.Items())
			if len(got) != 1 || got[0] != int64(highest+1) {
				t.Fatalf("order %v: after resolving load %d expected [%d], got %v", order, i, highest+1, got)
			}
		}
	}
}

func TestResourceStore_FailedLoadKeepsCollection(t *testing.T) {
	s, gw := newTestProjectStore(t)
	gw.reply(http.MethodGet, pathProjects, http.StatusOK, projectRecords(1, 2))
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	gw.reply(http.MethodGet, pathProjects, http.StatusInternalServerError, nil)
	if _, err := s.Load(context.Background()); err == nil {
		t.Fatalf("expected load failure")
	}
	if got := ids(s.Items()); !reflect.DeepEqual(got, []int64{1, 2}) {
		t.Fatalf("failed load changed the collection: %v", got)
	}
}

func TestProjectStore_Create(t *testing.T) {
	s, gw := newTestProjectStore(t)
	gw.reply(http.MethodGet, pathProjects, http.StatusOK, projectRecords(1))
	_, _ = s.Load(context.Background())

	gw.reply(http.MethodPost, pathProjects, http.StatusCreated, map[string]any{"id": 5, "name": "Launch"})
	created, err := s.Create(context.Background(), domain.ProjectDraft{Name: "Launch"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if created.ID != 5 {
		t.Fatalf("expected server id, got %d", created.ID)
	}
	if got := ids(s.Items()); !reflect.DeepEqual(got, []int64{1, 5}) {
		t.Fatalf("expected exactly one appended record, got %v", got)
	}

	// The backend answering with an id already held replaces it.
	if _, err := s.Create(context.Background(), domain.ProjectDraft{Name: "Launch"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := ids(s.Items()); !reflect.DeepEqual(got, []int64{1, 5}) {
		t.Fatalf("expected no duplicate, got %v", got)
	}
}

func TestProjectStore_CreateRejected(t *testing.T) {
	s, gw := newTestProjectStore(t)
	gw.reply(http.MethodGet, pathProjects, http.StatusOK, projectRecords(1, 2))
	_, _ = s.Load(context.Background())
	gw.reply(http.MethodPost, pathProjects, http.StatusBadRequest, map[string]string{"detail": "group with this name already exists."})

	_, err := s.Create(context.Background(), domain.ProjectDraft{Name: "dup"})
	if domain.Message(err) != "group with this name already exists." {
		t.Fatalf("expected backend reason, got %v", err)
	}
	if len(s.Items()) != 2 {
		t.Fatalf("rejection changed the collection length")
	}

	if _, err := s.Create(context.Background(), domain.ProjectDraft{}); !errors.Is(err, domain.ErrValidationRejected) {
		t.Fatalf("expected client-side rejection for an empty name, got %v", err)
	}
	if n := gw.callCount(http.MethodPost, pathProjects); n != 1 {
		t.Fatalf("invalid draft reached the backend")
	}
}

func TestProjectStore_UpdateReplacesWithServerRecord(t *testing.T) {
	s, gw := newTestProjectStore(t)
	gw.reply(http.MethodGet, pathProjects, http.StatusOK, []map[string]any{
		{"id": 1, "name": "old", "progress": 0},
		{"id": 2, "name": "other"},
	})
	_, _ = s.Load(context.Background())
	gw.reply(http.MethodPatch, projectPath(1), http.StatusOK, map[string]any{"id": 1, "name": "new", "progress": 50})

	name := "new"
	if _, err := s.Update(context.Background(), 1, domain.ProjectPatch{Name: &name}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, ok := s.Find(1)
	if !ok || got.Name != "new" || got.Progress != 50 {
		t.Fatalf("expected the server representation, got %+v", got)
	}
	if ids(s.Items())[0] != 1 {
		t.Fatalf("update must keep server order")
	}
}

func TestProjectStore_UpdateRejectedKeepsRecord(t *testing.T) {
	s, gw := newTestProjectStore(t)
	gw.reply(http.MethodGet, pathProjects, http.StatusOK, []map[string]any{{"id": 1, "name": "keep", "progress": 25, "members": []int64{3}}})
	_, _ = s.Load(context.Background())
	before, _ := s.Find(1)

	gw.reply(http.MethodPatch, projectPath(1), http.StatusForbidden, map[string]string{"detail": "You do not have permission to perform this action."})
	name := "changed"
	if _, err := s.Update(context.Background(), 1, domain.ProjectPatch{Name: &name}); err == nil {
		t.Fatalf("expected rejection")
	}
	after, _ := s.Find(1)
	if !reflect.DeepEqual(before, after) {
		t.Fatalf("rejected update changed the record: %+v -> %+v", before, after)
	}
}

func TestProjectStore_UpdateNotFoundLeavesRecord(t *testing.T) {
	s, gw := newTestProjectStore(t)
	gw.reply(http.MethodGet, pathProjects, http.StatusOK, projectRecords(1))
	_, _ = s.Load(context.Background())

	name := "x"
	_, err := s.Update(context.Background(), 1, domain.ProjectPatch{Name: &name})
	if !errors.Is(err, domain.ErrNotFound) || !errors.Is(err, domain.ErrValidationRejected) {
		t.Fatalf("expected not found treated as rejection, got %v", err)
	}
	if _, ok := s.Find(1); !ok {
		t.Fatalf("not found on mutate must not remove the record")
	}
}

func TestProjectStore_Delete(t *testing.T) {
	s, gw := newTestProjectStore(t)
	gw.reply(http.MethodGet, pathProjects, http.StatusOK, projectRecords(1, 2, 3))
	_, _ = s.Load(context.Background())

	gw.reply(http.MethodDelete, projectPath(3), http.StatusForbidden, map[string]string{"detail": "nope"})
	if err := s.Delete(context.Background(), 3); err == nil {
		t.Fatalf("expected rejection")
	}
	if got := ids(s.Items()); !reflect.DeepEqual(got, []int64{1, 2, 3}) {
		t.Fatalf("rejected delete changed the collection: %v", got)
	}

	gw.reply(http.MethodDelete, projectPath(2), http.StatusNoContent, nil)
	if err := s.Delete(context.Background(), 2); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if got := ids(s.Items()); !reflect.DeepEqual(got, []int64{1, 3}) {
		t.Fatalf("expected only id 2 removed, got %v", got)
	}
}

func TestProjectStore_DeleteNotRemovedBeforeConfirmation(t *testing.T) {
	s, gw := newTestProjectStore(t)
	gw.reply(http.MethodGet, pathProjects, http.StatusOK, projectRecords(1, 2))
	_, _ = s.Load(context.Background())
	gw.holdCalls()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Delete(context.Background(), 1)
	}()
	h := gw.next(t)
	if _, ok := s.Find(1); !ok {
		t.Fatalf("record removed before the backend confirmed")
	}
	h.release(http.StatusNoContent, nil)
	wait(t, done)
	if _, ok := s.Find(1); ok {
		t.Fatalf("record still present after confirmation")
	}
}

func TestProjectStore_GetRefreshesHeldRecord(t *testing.T) {
	s, gw := newTestProjectStore(t)
	gw.reply(http.MethodGet, pathProjects, http.StatusOK, []map[string]any{{"id": 1, "name": "p", "progress": 0}})
	_, _ = s.Load(context.Background())
	gw.reply(http.MethodGet, projectPath(1), http.StatusOK, map[string]any{"id": 1, "name": "p", "progress": 100})

	got, err := s.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Progress != 100 {
		t.Fatalf("unexpected record %+v", got)
	}
	if held, _ := s.Find(1); held.Progress != 100 {
		t.Fatalf("held record not refreshed: %+v", held)
	}
}

func TestResourceStore_ResetDiscardsInFlightMutation(t *testing.T) {
	s, gw := newTestProjectStore(t)
	gw.holdCalls()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = s.Create(context.Background(), domain.ProjectDraft{Name: "late"})
	}()
	h := gw.next(t)
	s.Reset()
	h.release(http.StatusCreated, map[string]any{"id": 9, "name": "late"})
	wait(t, done)

	if len(s.Items()) != 0 {
		t.Fatalf("mutation issued before reset reached the collection: %v", ids(s.Items()))
	}
}

func TestTaskStore_ConcurrentUpdatesLastResponseWins(t *testing.T) {
	s, gw := newTestTaskStore(t)
	gw.reply(http.MethodGet, pathMyTasks, http.StatusOK, []map[string]any{
		{"id": 7, "title": "ship", "status": "todo", "priority": "low"},
	})
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}
	gw.holdCalls()

	statusDone, priorityDone := make(chan struct{}), make(chan struct{})
	go func() {
		defer close(statusDone)
		_, _ = s.SetStatus(context.Background(), 7, domain.TaskInProgress)
	}()
	statusCall := gw.next(t)
	go func() {
		defer close(priorityDone)
		high := "high"
		_, _ = s.Update(context.Background(), 7, domain.TaskPatch{Priority: &high})
	}()
	priorityCall := gw.next(t)

	statusCall.release(http.StatusOK, map[string]any{"id": 7, "title": "ship", "status": "in_progress", "priority": "low"})
	wait(t, statusDone)
	priorityCall.release(http.StatusOK, map[string]any{"id": 7, "title": "ship", "status": "in_progress", "priority": "high"})
	wait(t, priorityDone)

	got, _ := s.Find(7)
	if got.Priority != "high" || got.Status != domain.TaskInProgress {
		t.Fatalf("expected the last server representation, got %+v", got)
	}
}

func TestTaskStore_LoadGroupScopesQuery(t *testing.T) {
	s, gw := newTestTaskStore(t)
	gw.reply(http.MethodGet, pathMyTasks, http.StatusOK, []map[string]any{{"id": 1, "title": "t", "group": 3}})

	if _, err := s.LoadGroup(context.Background(), 3); err != nil {
		t.Fatalf("LoadGroup: %v", err)
	}
	gw.mu.Lock()
	last := gw.calls[len(gw.calls)-1]
	gw.mu.Unlock()
	if last.Query.Get("group_id") != "3" {
		t.Fatalf("expected group_id=3, got %q", last.Query.Encode())
	}
}

func TestTaskStore_CreateAcceptsWrappedAndBareRecords(t *testing.T) {
	s, gw := newTestTaskStore(t)
	gw.reply(http.MethodPost, pathTaskCreate, http.StatusCreated, map[string]any{
		"message": "Task created successfully",
		"task":    map[string]any{"id": 11, "title": "wrapped"},
	})
	if task, err := s.Create(context.Background(), domain.TaskDraft{Title: "wrapped"}); err != nil || task.ID != 11 {
		t.Fatalf("wrapped create: %+v %v", task, err)
	}

	gw.reply(http.MethodPost, pathTaskCreate, http.StatusCreated, map[string]any{"id": 12, "title": "bare"})
	if task, err := s.Create(context.Background(), domain.TaskDraft{Title: "bare"}); err != nil || task.ID != 12 {
		t.Fatalf("bare create: %+v %v", task, err)
	}

	gw.reply(http.MethodPost, pathTaskCreate, http.StatusCreated, map[string]any{"message": "ok"})
	if _, err := s.Create(context.Background(), domain.TaskDraft{Title: "no id"}); err == nil {
		t.Fatalf("expected an error for a response without an id")
	}
	if got := ids(s.Items()); !reflect.DeepEqual(got, []int64{11, 12}) {
		t.Fatalf("unexpected collection %v", got)
	}
}

func TestTaskStore_SetStatusRejectsUnknownStatus(t *testing.T) {
	s, gw := newTestTaskStore(t)
	if _, err := s.SetStatus(context.Background(), 1, "archived"); !errors.Is(err, domain.ErrValidationRejected) {
		t.Fatalf("expected rejection, got %v", err)
	}
	if n := gw.callCount(http.MethodPatch, taskPath(1)); n != 0 {
		t.Fatalf("unknown status reached the backend")
	}
}

func TestTaskStore_HandsOutIndependentCopies(t *testing.T) {
	s, gw := newTestTaskStore(t)
	gw.reply(http.MethodGet, pathMyTasks, http.StatusOK, []map[string]any{
		{"id": 7, "title": "ship", "assigned_to": []int64{2, 3}, "group": 4},
	})
	if _, err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	items := s.Items()
	items[0].AssignedTo[0] = 99
	*items[0].Group = 99
	found, _ := s.Find(7)
	found.AssignedTo[1] = 98

	got, ok := s.Find(7)
	if !ok {
		t.Fatalf("task 7 not held")
	}
	if !reflect.DeepEqual(got.AssignedTo, []int64{2, 3}) || got.Group == nil || *got.Group != 4 {
		t.Fatalf("cached task changed through a returned copy: %+v", got)
	}
}

func TestProjectStore_CreateReturnsIndependentCopy(t *testing.T) {
	s, gw := newTestProjectStore(t)
	gw.reply(http.MethodPost, pathProjects, http.StatusCreated, map[string]any{"id": 5, "name": "Apollo", "members": []int64{2}})

	created, err := s.Create(context.Background(), domain.ProjectDraft{Name: "Apollo"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	created.Members[0] = 99

	if got, _ := s.Find(5); !reflect.DeepEqual(got.Members, []int64{2}) {
		t.Fatalf("cached project changed through the created record: %+v", got.Members)
	}
}
