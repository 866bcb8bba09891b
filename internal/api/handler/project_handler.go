package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clientx/workspace-client/internal/core/domain"
	"github.com/clientx/workspace-client/internal/infrastructure/memdb"
)

// ProjectHandler serves /tasks/groups/. Routes are restricted to admins and
// managers by the router.
type ProjectHandler struct {
	store *memdb.Store
}

func NewProjectHandler(store *memdb.Store) *ProjectHandler {
	return &ProjectHandler{store: store}
}

func (h *ProjectHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.store.Projects(c.Request().Context()))
}

func (h *ProjectHandler) Create(c echo.Context) error {
	actor, err := currentUser(c)
	if err != nil {
		return err
	}
	var draft domain.ProjectDraft
	if err := bindValid(c, &draft); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if fe := unknownUser(ctx, h.store, "members", draft.Members); fe != nil {
		return fe
	}

	createdBy := actor.ID
	p, err := h.store.CreateProject(ctx, domain.Project{
		Name:        draft.Name,
		Description: draft.Description,
		Members:     draft.Members,
		CreatedBy:   &createdBy,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.store.Project(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var patch domain.ProjectPatch
	if err := bindValid(c, &patch); err != nil {
		return err
	}
	ctx := c.Request().Context()
	if patch.Members != nil {
		if fe := unknownUser(ctx, h.store, "members", *patch.Members); fe != nil {
			return fe
		}
	}

	p, err := h.store.UpdateProject(ctx, id, func(p *domain.Project) {
		setIf(&p.Name, patch.Name)
		setIf(&p.Description, patch.Description)
		setIf(&p.Members, patch.Members)
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.store.DeleteProject(c.Request().Context(), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
