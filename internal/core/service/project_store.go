package service

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/core/ports"
)

// ProjectStore caches the projects visible to the current role.
type ProjectStore struct {
	*resourceStore[domain.Project]
	validator ports.Validator
}

func NewProjectStore(gw ports.Gateway, guard ports.SessionGuard, validator ports.Validator, log zerolog.Logger) *ProjectStore {
	return &ProjectStore{
		resourceStore: newResourceStore[domain.Project](gw, guard, "project", log),
		validator:     validator,
	}
}

// Load replaces the collection with every project the backend shows the
// current user.
func (s *ProjectStore) Load(ctx context.Context) ([]domain.Project, error) {
	return s.load(ctx, pathProjects, nil)
}

// Get fetches one project and replaces the held copy, if any.
func (s *ProjectStore) Get(ctx context.Context, id int64) (domain.Project, error) {
	return s.refresh(ctx, id, projectPath(id), decodeProject)
}

// Create sends draft and appends the created project on success.
func (s *ProjectStore) Create(ctx context.Context, draft domain.ProjectDraft) (domain.Project, error) {
	if err := validate(s.validator, draft); err != nil {
		return domain.Project{}, err
	}
	return s.create(ctx, pathProjects, draft, decodeProject)
}

// Update applies patch on the backend and replaces the held record with the
// server's representation.
func (s *ProjectStore) Update(ctx context.Context, id int64, patch domain.ProjectPatch) (domain.Project, error) {
	if err := validate(s.validator, patch); err != nil {
		return domain.Project{}, err
	}
	return s.update(ctx, id, projectPath(id), patch, decodeProject)
}

// Delete removes the project once the backend confirms.
func (s *ProjectStore) Delete(ctx context.Context, id int64) error {
	return s.remove(ctx, id, projectPath(id))
}

func decodeProject(body []byte) (domain.Project, error) {
	return decodeRecord[domain.Project](body, "project")
}
