package handlers

import (
	"github.com/dimitrije/pluginhub-api/internal/services"
	"github.com/dimitrije/pluginhub-api/pkg/dto"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
)

type ProjectHandler struct {
	projectService ProjectServiceInterface
	teamService    TeamServiceInterface
}

func NewProjectHandler(projectService ProjectServiceInterface, teamService TeamServiceInterface) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
		teamService:    teamService,
	}
}

func (h *ProjectHandler) requireMember(c *drift.Context, teamID, userID uuid.UUID) bool {
	isMember, err := h.teamService.IsMember(c.Request.Context(), teamID, userID)
	if err != nil {
		internalError(c, err, "failed to check membership")
		return false
	}
	if !isMember {
		c.Forbidden("not a member of this team")
		return false
	}
	return true
}

func (h *ProjectHandler) ListTemplates(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	v, ok := viewerFor(c, h.teamService, user)
	if !ok {
		return
	}

	templates, err := h.projectService.ListTemplates(c.Request.Context(), v.TeamIDs)
	if err != nil {
		internalError(c, err, "failed to list templates")
		return
	}

	_ = c.JSON(200, templates)
}

// CreateTemplate creates a team template, or a global one when no team is
// given; global templates are admin only.
func (h *ProjectHandler) CreateTemplate(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateTemplateRequest
	if !bindJSON(c, &req) {
		return
	}

	switch {
	case req.TeamID == nil && !user.IsAdmin():
		c.Forbidden("only admins can create global templates")
		return
	case req.TeamID != nil && !user.IsAdmin():
		if !h.requireMember(c, *req.TeamID, user.ID) {
			return
		}
	}

	template, err := h.projectService.CreateTemplate(c.Request.Context(), user, services.TemplateInput{
		Name:        req.Name,
		Description: req.Description,
		TeamID:      req.TeamID,
		Plugins:     req.Plugins,
	})
	if err != nil {
		serviceError(c, err, "failed to create template")
		return
	}

	_ = c.JSON(201, template)
}

func (h *ProjectHandler) List(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	teamID, err := uuid.Parse(c.QueryParam("team_id"))
	if err != nil {
		c.BadRequest("team_id is required")
		return
	}
	if !user.IsAdmin() && !h.requireMember(c, teamID, user.ID) {
		return
	}

	projects, err := h.projectService.List(c.Request.Context(), teamID)
	if err != nil {
		internalError(c, err, "failed to list projects")
		return
	}

	_ = c.JSON(200, projects)
}

func (h *ProjectHandler) Create(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req dto.CreateProjectRequest
	if !bindJSON(c, &req) {
		return
	}
	if !user.IsAdmin() && !h.requireMember(c, req.TeamID, user.ID) {
		return
	}

	project, err := h.projectService.Create(c.Request.Context(), user, services.ProjectInput{
		Title:       req.Title,
		Description: req.Description,
		TeamID:      req.TeamID,
		SiteID:      req.SiteID,
		TemplateID:  req.TemplateID,
		Priority:    req.Priority,
		Notes:       req.Notes,
	})
	if err != nil {
		serviceError(c, err, "failed to create project")
		return
	}

	_ = c.JSON(201, project)
}

func (h *ProjectHandler) Delete(c *drift.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	projectID, ok := pathID(c, "id", "project")
	if !ok {
		return
	}

	ctx := c.Request.Context()
	project, err := h.projectService.GetByID(ctx, projectID)
	if err != nil {
		serviceError(c, err, "failed to load project")
		return
	}
	if !user.IsAdmin() && !h.requireMember(c, project.TeamID, user.ID) {
		return
	}

	if err := h.projectService.Delete(ctx, user.Email, project.ID); err != nil {
		serviceError(c, err, "failed to delete project")
		return
	}

	_ = c.JSON(200, dto.MessageResponse{Message: "project deleted"})
}
