package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
)

// TaskStore caches the current user's tasks, optionally scoped to a project.
type TaskStore struct {
	*resourceStore[domain.Task]
	validator ports.Validator
}

func NewTaskStore(gw ports.Gateway, guard ports.SessionGuard, validator ports.Validator, log zerolog.Logger) *TaskStore {
	return &TaskStore{
		resourceStore: newResourceStore[domain.Task](gw, guard, "task", log),
		validator:     validator,
	}
}

// Load replaces the collection with the user's tasks across all projects.
func (s *TaskStore) Load(ctx context.Context) ([]domain.Task, error) {
	return s.load(ctx, pathMyTasks, nil)
}

// LoadGroup replaces the collection with the user's tasks in one project.
func (s *TaskStore) LoadGroup(ctx context.Context, groupID int64) ([]domain.Task, error) {
	return s.load(ctx, pathMyTasks, url.Values{"group_id": {strconv.FormatInt(groupID, 10)}})
}

// Create sends draft and appends the created task on success.
func (s *TaskStore) Create(ctx context.Context, draft domain.TaskDraft) (domain.Task, error) {
	if err := validate(s.validator, draft); err != nil {
		return domain.Task{}, err
	}
	return s.create(ctx, pathTaskCreate, draft, decodeCreatedTask)
}

// Update applies patch on the backend and replaces the held record with the
// server's representation.
func (s *TaskStore) Update(ctx context.Context, id int64, patch domain.TaskPatch) (domain.Task, error) {
	if err := validate(s.validator, patch); err != nil {
		return domain.Task{}, err
	}
	return s.update(ctx, id, taskPath(id), patch, decodeTask)
}

// SetStatus is an Update restricted to the status field.
func (s *TaskStore) SetStatus(ctx context.Context, id int64, status domain.TaskStatus) (domain.Task, error) {
	if !status.Valid() {
		return domain.Task{}, domain.Rejected("status: must be one of todo, in_progress, review, completed")
	}
	return s.Update(ctx, id, domain.TaskPatch{Status: &status})
}

// Delete removes the task once the backend confirms.
func (s *TaskStore) Delete(ctx context.Context, id int64) error {
	return s.remove(ctx, id, taskPath(id))
}

func decodeTask(body []byte) (domain.Task, error) {
	return decodeRecord[domain.Task](body, "task")
}

// decodeCreatedTask accepts {"message": ..., "task": {...}} as well as a bare
// task record.
func decodeCreatedTask(body []byte) (domain.Task, error) {
	var wrapped struct {
		Task json.RawMessage `json:"task"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return domain.Task{}, fmt.Errorf("decode task: %w", err)
	}
	if len(wrapped.Task) > 0 && string(wrapped.Task) != "null" {
		return decodeTask(wrapped.Task)
	}
	return decodeTask(body)
}
