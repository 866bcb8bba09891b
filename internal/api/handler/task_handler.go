package handler

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/infrastructure/memdb"
)

var errUnassigned = &memdb.FieldError{
	Field:   "non_field_errors",
	Message: "Task must be assigned to at least one employee or a group.",
}

type TaskHandler struct {
	store *memdb.Store
	log   zerolog.Logger
}

func NewTaskHandler(store *memdb.Store, log zerolog.Logger) *TaskHandler {
	return &TaskHandler{store: store, log: log.With().Str("component", "task_handler").Logger()}
}

type createTaskResponse struct {
	Message string      `json:"message"`
	Task    domain.Task `json:"task"`
}

type statusPatch struct {
	Status *domain.TaskStatus `json:"status" validate:"omitempty,oneof=todo in_progress review completed"`
}

// Create adds a task. Assignees are the listed users plus the members of the
// group; with neither, the creator is assigned.
func (h *TaskHandler) Create(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var draft domain.TaskDraft
	if err := bindValid(c, &draft); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if err := h.checkRefs(ctx, draft.AssignedTo, draft.Group); err != nil {
		return err
	}
	if len(draft.AssignedTo) == 0 && draft.Group == nil {
		return errUnassigned
	}

	assignees := h.assignees(ctx, draft.AssignedTo, draft.Group)
	if len(assignees) == 0 {
		assignees = []int64{actor.ID}
	}
	createdBy := actor.ID
	task := h.store.CreateTask(ctx, domain.Task{
		Title:       draft.Title,
		Description: draft.Description,
		AssignedTo:  assignees,
		Group:       draft.Group,
		Status:      draft.Status,
		Priority:    draft.Priority,
		DueDate:     draft.DueDate,
		CreatedBy:   &createdBy,
	})

	h.log.Info().Int64("task_id", task.ID).Str("by", actor.Username).Ints64("assigned_to", assignees).Msg("task created")
	h.notify(ctx, assignees, "Task Assigned", fmt.Sprintf("You have been assigned to task '%s'", task.Title), "task_assigned")
	h.notifyRole(ctx, domain.RoleAdmin, "New Task Created", fmt.Sprintf("New task '%s' created by %s", task.Title, actor.Username), "admin_task_created")
	return c.JSON(http.StatusCreated, createTaskResponse{Message: "Task created successfully", Task: task})
}

// List returns every task to staff and the assigned tasks to everyone else,
// optionally narrowed by ?group_id=.
func (h *TaskHandler) List(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	var group int64
	if raw := c.QueryParam("group_id"); raw != "" {
		if group, err = strconv.ParseInt(raw, 10, 64); err != nil {
			return &memdb.FieldError{Field: "group_id", Message: "A valid integer is required."}
		}
	}

	tasks := h.store.Tasks(c.Request().Context(), func(t domain.Task) bool {
		if !isStaff(user) && !assigned(t, user.ID) {
			return false
		}
		return group == 0 || (t.Group != nil && *t.Group == group)
	})
	return c.JSON(http.StatusOK, tasks)
}

// Update lets staff patch any field. Other users may only change the status
// of tasks assigned to them.
func (h *TaskHandler) Update(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	current, err := h.store.Task(ctx, id)
	if err != nil {
		return err
	}

	var updated domain.Task
	if isStaff(user) {
		if updated, err = h.staffUpdate(c, current); err != nil {
			return err
		}
	} else {
		if !assigned(current, user.ID) {
			return c.JSON(http.StatusForbidden, map[string]string{"error": "Not allowed"})
		}
		var patch statusPatch
		if err := bindValid(c, &patch); err != nil {
			return err
		}
		if updated, err = h.store.UpdateTask(ctx, id, func(t *domain.Task) { setIf(&t.Status, patch.Status) }); err != nil {
			return err
		}
	}

	h.notify(ctx, h.employees(ctx, updated.AssignedTo), "Task Updated", fmt.Sprintf("Task '%s' has been updated", updated.Title), "task_updated")
	h.notifyRole(ctx, domain.RoleAdmin, "Task Update", fmt.Sprintf("Task '%s' updated by %s", updated.Title, user.Username), "admin_task_updated")
	return c.JSON(http.StatusOK, updated)
}

func (h *TaskHandler) staffUpdate(c echo.Context, current domain.Task) (domain.Task, error) {
	var patch domain.TaskPatch
	if err := bindValid(c, &patch); err != nil {
		return domain.Task{}, err
	}
	ctx := c.Request().Context()
	var assignedTo []int64
	if patch.AssignedTo != nil {
		assignedTo = *patch.AssignedTo
	}
	if err := h.checkRefs(ctx, assignedTo, patch.Group); err != nil {
		return domain.Task{}, err
	}

	// The assignment rule holds for the merged record.
	effectiveAssigned := current.AssignedTo
	if patch.AssignedTo != nil {
		effectiveAssigned = assignedTo
	}
	effectiveGroup := current.Group
	if patch.Group != nil {
		effectiveGroup = patch.Group
	}
	if len(effectiveAssigned) == 0 && effectiveGroup == nil {
		return domain.Task{}, errUnassigned
	}

	var assignees []int64
	reassign := patch.AssignedTo != nil || patch.Group != nil
	if reassign {
		assignees = h.assignees(ctx, assignedTo, patch.Group)
	}
	return h.store.UpdateTask(ctx, current.ID, func(t *domain.Task) {
		setIf(&t.Title, patch.Title)
		setIf(&t.Description, patch.Description)
		setIf(&t.Status, patch.Status)
		setIf(&t.Priority, patch.Priority)
		if patch.DueDate != nil {
			t.DueDate = patch.DueDate
		}
		if patch.Group != nil {
			t.Group = patch.Group
		}
		if reassign {
			t.AssignedTo = assignees
		}
	})
}

// Delete removes a task. Only staff may delete.
func (h *TaskHandler) Delete(c echo.Context) error {
	user, err := currentUser(c)
	if err != nil {
		return err
	}
	if !isStaff(user) {
		return c.JSON(http.StatusForbidden, map[string]string{"error": "Employees cannot delete tasks"})
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.store.DeleteTask(c.Request().Context(), id); err != nil {
		return err
	}
	h.log.Info().Int64("task_id", id).Str("by", user.Username).Msg("task deleted")
	return c.JSON(http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func (h *TaskHandler) checkRefs(ctx context.Context, users []int64, group *int64) error {
	if fe := unknownUser(ctx, h.store, "assigned_to", users); fe != nil {
		return fe
	}
	if group != nil {
		if _, err := h.store.Project(ctx, *group); err != nil {
			return &memdb.FieldError{Field: "group", Message: fmt.Sprintf("Invalid pk \"%d\" - object does not exist.", *group)}
		}
	}
	return nil
}

// assignees is the union of users and the group's members, in first-seen
// order.
func (h *TaskHandler) assignees(ctx context.Context, users []int64, group *int64) []int64 {
	seen := make(map[int64]struct{})
	out := make([]int64, 0, len(users))
	add := func(id int64) {
		if _, ok := seen[id]; !ok {
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	for _, id := range users {
		add(id)
	}
	if group != nil {
		if p, err := h.store.Project(ctx, *group); err == nil {
			for _, id := range p.Members {
				add(id)
			}
		}
	}
	return out
}

func (h *TaskHandler) employees(ctx context.Context, ids []int64) []int64 {
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if u, err := h.store.User(ctx, id); err == nil && u.Role == domain.RoleEmployee {
			out = append(out, id)
		}
	}
	return out
}

func (h *TaskHandler) notify(ctx context.Context, userIDs []int64, title, message, kind string) {
	for _, id := range userIDs {
		h.store.Notify(ctx, id, domain.Notification{Title: title, Message: message, NotifType: kind})
	}
}

func (h *TaskHandler) notifyRole(ctx context.Context, role domain.Role, title, message, kind string) {
	for _, u := range h.store.Users(ctx) {
		if u.Role == role {
			h.store.Notify(ctx, u.ID, domain.Notification{Title: title, Message: message, NotifType: kind})
		}
	}
}

func assigned(t domain.Task, userID int64) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}
