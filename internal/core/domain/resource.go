package domain

import "time"

// Resource is a server-owned record identified by a stable numeric id.
type Resource interface {
	ResourceID() int64
}

// Project is a task group on the backend.
type Project struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Members     []int64   `json:"members"`
	CreatedBy   *int64    `json:"created_by"`
	CreatedAt   time.Time `json:"created_at"`
	// Progress is computed by the server from the group's tasks.
	Progress float64 `json:"progress"`
}

func (p Project) ResourceID() int64 { return p.ID }

// Clone returns a copy sharing no memory with p.
func (p Project) Clone() Project {
	p.Members = cloneIDs(p.Members)
	p.CreatedBy = clonePtr(p.CreatedBy)
	return p
}

// ProjectDraft is the payload for creating a project.
type ProjectDraft struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description string  `json:"description,omitempty"`
	Members     []int64 `json:"members,omitempty"`
}

// ProjectPatch is a partial update; nil fields are left untouched.
type ProjectPatch struct {
	Name        *string  `json:"name,omitempty" validate:"omitempty,min=1,max=100"`
	Description *string  `json:"description,omitempty"`
	Members     *[]int64 `json:"members,omitempty"`
}

// TaskStatus is the workflow state of a task.
type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in_progress"
	TaskReview     TaskStatus = "review"
	TaskCompleted  TaskStatus = "completed"
)

// Valid reports whether s is one of the backend's status choices.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskReview, TaskCompleted:
		return true
	}
	return false
}

// Task is a unit of work, optionally belonging to a project (Group) and
// assigned to any number of users.
type Task struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	AssignedTo  []int64    `json:"assigned_to"`
	Group       *int64     `json:"group"`
	Status      TaskStatus `json:"status"`
	Priority    string     `json:"priority,omitempty"`
	DueDate     *string    `json:"due_date"`
	CreatedBy   *int64     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func (t Task) ResourceID() int64 { return t.ID }

// Clone returns a copy sharing no memory with t.
func (t Task) Clone() Task {
	t.AssignedTo = cloneIDs(t.AssignedTo)
	t.Group = clonePtr(t.Group)
	t.DueDate = clonePtr(t.DueDate)
	t.CreatedBy = clonePtr(t.CreatedBy)
	return t
}

// TaskDraft is the payload for creating a task.
type TaskDraft struct {
	Title       string     `json:"title" validate:"required,max=255"`
	Description string     `json:"description,omitempty"`
	AssignedTo  []int64    `json:"assigned_to,omitempty"`
	Group       *int64     `json:"group,omitempty"`
	Status      TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress review completed"`
	Priority    string     `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	DueDate     *string    `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// TaskPatch is a partial update; nil fields are left untouched.
type TaskPatch struct {
	Title       *string     `json:"title,omitempty" validate:"omitempty,min=1,max=255"`
	Description *string     `json:"description,omitempty"`
	AssignedTo  *[]int64    `json:"assigned_to,omitempty"`
	Group       *int64      `json:"group,omitempty"`
	Status      *TaskStatus `json:"status,omitempty" validate:"omitempty,oneof=todo in_progress review completed"`
	Priority    *string     `json:"priority,omitempty" validate:"omitempty,oneof=low medium high"`
	DueDate     *string     `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Notification is a message addressed to the viewing user. The client only
// reads notifications and marks them all read.
type Notification struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	NotifType string    `json:"notif_type"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

func (n Notification) ResourceID() int64 { return n.ID }

func (n Notification) Clone() Notification { return n }

// DashboardStats is the summary returned by the admin dashboard endpoint.
type DashboardStats struct {
	TotalEmployees int `json:"total_employees"`
	TotalManagers  int `json:"total_managers"`
	TotalTasks     int `json:"total_tasks"`
	TotalProjects  int `json:"total_projects"`
	CompletedTasks int `json:"completed_tasks"`
	ActiveTasks    int `json:"active_tasks"`
}

// Analytics is the admin analytics document. Its shape is owned by the
// server and passed through as decoded JSON.
type Analytics map[string]any

func cloneIDs(ids []int64) []int64 {
	if ids == nil {
		return nil
	}
	return append(make([]int64, 0, len(ids)), ids...)
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
