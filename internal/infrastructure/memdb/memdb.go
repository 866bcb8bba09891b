// Package memdb is the in-memory persistence behind the development backend.
// Records are returned as copies; callers never alias stored slices.
package memdb

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/clientx/workspace-client/internal/core/domain"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrDuplicate = errors.New("already exists")
)

// FieldError is a uniqueness violation on one field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

func (e *FieldError) Is(target error) bool { return target == ErrDuplicate }

// Account is a user together with its password hash.
type Account struct {
	domain.User
	PasswordHash string
	DateJoined   time.Time
}

type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	accounts      map[int64]Account
	projects      map[int64]domain.Project
	tasks         map[int64]domain.Task
	notifications map[int64][]domain.Notification

	lastAccount      int64
	lastProject      int64
	lastTask         int64
	lastNotification int64
}

func New() *Store {
	return &Store{
		now:           func() time.Time { return time.Now().UTC() },
		accounts:      make(map[int64]Account),
		projects:      make(map[int64]domain.Project),
		tasks:         make(map[int64]domain.Task),
		notifications: make(map[int64][]domain.Notification),
	}
}

// ── Accounts ──────────────────────────────────────────────────────────────────

func (s *Store) CreateAccount(_ context.Context, acc Account) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Username == acc.Username {
			return domain.User{}, &FieldError{Field: "username", Message: "A user with that username already exists."}
		}
		if acc.Phone != "" && existing.Phone == acc.Phone {
			return domain.User{}, &FieldError{Field: "phone", Message: "user with this phone already exists."}
		}
	}
	s.lastAccount++
	acc.ID = s.lastAccount
	acc.DateJoined = s.now()
	s.accounts[acc.ID] = acc
	return acc.User, nil
}

func (s *Store) AccountByUsername(_ context.Context, username string) (Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, acc := range s.accounts {
		if acc.Username == username {
			return acc, nil
		}
	}
	return Account{}, ErrNotFound
}

func (s *Store) User(_ context.Context, id int64) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	return acc.User, nil
}

func (s *Store) Users(_ context.Context) []domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.accounts))
	for _, id := range sortedKeys(s.accounts) {
		out = append(out, s.accounts[id].User)
	}
	return out
}

// UpdateAccount applies fn to the stored account. The id cannot change.
func (s *Store) UpdateAccount(_ context.Context, id int64, fn func(*Account)) (domain.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[id]
	if !ok {
		return domain.User{}, ErrNotFound
	}
	fn(&acc)
	acc.ID = id
	s.accounts[id] = acc
	return acc.User, nil
}

// ── Projects ──────────────────────────────────────────────────────────────────

func (s *Store) CreateProject(_ context.Context, p domain.Project) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.projectNameTakenLocked(p.Name, 0) {
		return domain.Project{}, &FieldError{Field: "name", Message: "task group with this name already exists."}
	}
	s.lastProject++
	p.ID = s.lastProject
	p.CreatedAt = s.now()
	p.Members = cloneIDs(p.Members)
	s.projects[p.ID] = p
	return s.projectLocked(p.ID), nil
}

func (s *Store) Project(_ context.Context, id int64) (domain.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.projects[id]; !ok {
		return domain.Project{}, ErrNotFound
	}
	return s.projectLocked(id), nil
}

func (s *Store) Projects(_ context.Context) []domain.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Project, 0, len(s.projects))
	for _, id := range sortedKeys(s.projects) {
		out = append(out, s.projectLocked(id))
	}
	return out
}

func (s *Store) UpdateProject(_ context.Context, id int64, fn func(*domain.Project)) (domain.Project, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.projects[id]
	if !ok {
		return domain.Project{}, ErrNotFound
	}
	p.Members = cloneIDs(p.Members)
	fn(&p)
	p.ID = id
	if s.projectNameTakenLocked(p.Name, id) {
		return domain.Project{}, &FieldError{Field: "name", Message: "task group with this name already exists."}
	}
	s.projects[id] = p
	return s.projectLocked(id), nil
}

// DeleteProject removes the project; its tasks are kept without a group.
func (s *Store) DeleteProject(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.projects[id]; !ok {
		return ErrNotFound
	}
	delete(s.projects, id)
	for tid, t := range s.tasks {
		if t.Group != nil && *t.Group == id {
			t.Group = nil
			s.tasks[tid] = t
		}
	}
	return nil
}

func (s *Store) projectNameTakenLocked(name string, except int64) bool {
	for id, p := range s.projects {
		if id != except && p.Name == name {
			return true
		}
	}
	return false
}

// projectLocked returns a copy of the project with progress derived from the
// share of its tasks that are completed.
func (s *Store) projectLocked(id int64) domain.Project {
	p := s.projects[id]
	p.Members = cloneIDs(p.Members)
	total, done := 0, 0
	for _, t := range s.tasks {
		if t.Group != nil && *t.Group == id {
			total++
			if t.Status == domain.TaskCompleted {
				done++
			}
		}
	}
	p.Progress = 0
	if total > 0 {
		p.Progress = float64(done) / float64(total)
	}
	return p
}

// ── Tasks ─────────────────────────────────────────────────────────────────────

func (s *Store) CreateTask(_ context.Context, t domain.Task) domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastTask++
	t.ID = s.lastTask
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	if t.Status == "" {
		t.Status = domain.TaskTodo
	}
	t.AssignedTo = cloneIDs(t.AssignedTo)
	s.tasks[t.ID] = t
	return cloneTask(t)
}

func (s *Store) Task(_ context.Context, id int64) (domain.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	return cloneTask(t), nil
}

// Tasks returns the tasks accepted by keep, or all tasks when keep is nil.
func (s *Store) Tasks(_ context.Context, keep func(domain.Task) bool) []domain.Task {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Task, 0, len(s.tasks))
	for _, id := range sortedKeys(s.tasks) {
		t := s.tasks[id]
		if keep == nil || keep(t) {
			out = append(out, cloneTask(t))
		}
	}
	return out
}

func (s *Store) UpdateTask(_ context.Context, id int64, fn func(*domain.Task)) (domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return domain.Task{}, ErrNotFound
	}
	t = cloneTask(t)
	fn(&t)
	t.ID = id
	t.UpdatedAt = s.now()
	s.tasks[id] = t
	return cloneTask(t), nil
}

func (s *Store) DeleteTask(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.tasks[id]; !ok {
		return ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}

// ── Notifications ─────────────────────────────────────────────────────────────

func (s *Store) Notify(_ context.Context, userID int64, n domain.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastNotification++
	n.ID = s.lastNotification
	n.CreatedAt = s.now()
	n.IsRead = false
	s.notifications[userID] = append(s.notifications[userID], n)
}

// Notifications returns the user's notifications, newest first.
func (s *Store) Notifications(_ context.Context, userID int64) []domain.Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()
	held := s.notifications[userID]
	out := make([]domain.Notification, 0, len(held))
	for i := len(held) - 1; i >= 0; i-- {
		out = append(out, held[i])
	}
	return out
}

// MarkAllRead marks every unread notification of the user and reports how
// many changed.
func (s *Store) MarkAllRead(_ context.Context, userID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for i := range s.notifications[userID] {
		if !s.notifications[userID][i].IsRead {
			s.notifications[userID][i].IsRead = true
			n++
		}
	}
	return n
}

func sortedKeys[V any](m map[int64]V) []int64 {
	keys := make([]int64, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func cloneIDs(ids []int64) []int64 {
	out := make([]int64, len(ids))
	copy(out, ids)
	return out
}

func cloneTask(t domain.Task) domain.Task {
	t.AssignedTo = cloneIDs(t.AssignedTo)
	if t.Group != nil {
		g := *t.Group
		t.Group = &g
	}
	if t.DueDate != nil {
		d := *t.DueDate
		t.DueDate = &d
	}
	return t
}
