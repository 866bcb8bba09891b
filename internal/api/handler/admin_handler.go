package handler

import (
	"net/http"
	"sort"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/infrastructure/memdb"
)

// AdminHandler serves /admin-dashboard/.
type AdminHandler struct {
	store *memdb.Store
	now   func() time.Time
}

func NewAdminHandler(store *memdb.Store) *AdminHandler {
	return &AdminHandler{store: store, now: time.Now}
}

func (h *AdminHandler) Dashboard(c echo.Context) error {
	ctx := c.Request().Context()
	var stats domain.DashboardStats
	for _, u := range h.store.Users(ctx) {
		switch u.Role {
		case domain.RoleEmployee, domain.RoleClient:
			stats.TotalEmployees++
		case domain.RoleManager:
			stats.TotalManagers++
		}
	}
	for _, t := range h.store.Tasks(ctx, nil) {
		stats.TotalTasks++
		switch t.Status {
		case domain.TaskCompleted:
			stats.CompletedTasks++
		case domain.TaskTodo, domain.TaskInProgress:
			stats.ActiveTasks++
		}
	}
	stats.TotalProjects = len(h.store.Projects(ctx))
	return c.JSON(http.StatusOK, stats)
}

func (h *AdminHandler) Users(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Users(c.Request().Context()))
}

func (h *AdminHandler) Tasks(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Tasks(c.Request().Context(), nil))
}

type countRow struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// Analytics reports user, task and manager breakdowns. Tasks still open
// after their due date count as overdue.
func (h *AdminHandler) Analytics(c echo.Context) error {
	ctx := c.Request().Context()
	users := h.store.Users(ctx)
	tasks := h.store.Tasks(ctx, nil)
	today := h.now().Format(time.DateOnly)

	usernames := make(map[int64]string, len(users))
	roles := make(map[domain.Role]int)
	departments := make(map[string]int)
	for _, u := range users {
		usernames[u.ID] = u.Username
		roles[u.Role]++
		if u.Role == domain.RoleEmployee {
			departments[u.Department]++
		}
	}
	groupNames := make(map[int64]string)
	for _, p := range h.store.Projects(ctx) {
		groupNames[p.ID] = p.Name
	}

	byStatus := make(map[string]int)
	byGroup := make(map[string]int)
	byManager := make(map[string]int)
	overdueByManager := make(map[string]int)
	completedByDay := make(map[string]int)
	perEmployee := make(map[int64]int)
	employeesInGroup := make(map[string]map[int64]struct{})
	overdue := 0
	for _, t := range tasks {
		byStatus[string(t.Status)]++
		group := ""
		if t.Group != nil {
			group = groupNames[*t.Group]
		}
		byGroup[group]++
		creator := ""
		if t.CreatedBy != nil {
			creator = usernames[*t.CreatedBy]
		}
		byManager[creator]++
		if t.Status == domain.TaskCompleted {
			completedByDay[t.CreatedAt.Format(time.DateOnly)]++
		}
		open := t.Status == domain.TaskTodo || t.Status == domain.TaskInProgress
		if open && t.DueDate != nil && *t.DueDate < today {
			overdue++
			overdueByManager[creator]++
		}
		for _, id := range t.AssignedTo {
			perEmployee[id]++
			if t.Group != nil {
				if employeesInGroup[group] == nil {
					employeesInGroup[group] = make(map[int64]struct{})
				}
				employeesInGroup[group][id] = struct{}{}
			}
		}
	}

	active := 0
	tasksByEmployee := make([]map[string]any, 0)
	for _, u := range users {
		if u.Role != domain.RoleEmployee {
			continue
		}
		if perEmployee[u.ID] > 0 {
			active++
		}
		tasksByEmployee = append(tasksByEmployee, map[string]any{"employee": u.Username, "tasks_count": perEmployee[u.ID]})
	}
	perGroup := make(map[string]int, len(employeesInGroup))
	for name, members := range employeesInGroup {
		perGroup[name] = len(members)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"user_role_analytics": map[string]any{
			"total_admins":             roles[domain.RoleAdmin],
			"total_managers":           roles[domain.RoleManager],
			"total_employees":          roles[domain.RoleEmployee],
			"active_employees":         active,
			"inactive_employees":       roles[domain.RoleEmployee] - active,
			"employees_per_department": rows(departments),
			"employees_per_group":      rows(perGroup),
		},
		"task_analytics": map[string]any{
			"total_tasks":            len(tasks),
			"tasks_by_status":        rows(byStatus),
			"overdue_tasks_count":    overdue,
			"tasks_by_group":         rows(byGroup),
			"tasks_by_employee":      tasksByEmployee,
			"task_completion_trends": rows(completedByDay),
		},
		"manager_analytics": map[string]any{
			"tasks_per_manager":         rows(byManager),
			"overdue_tasks_per_manager": rows(overdueByManager),
		},
	})
}

// rows flattens counts into key-sorted rows.
func rows(counts map[string]int) []countRow {
	out := make([]countRow, 0, len(counts))
	for k, n := range counts {
		out = append(out, countRow{Key: k, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}
