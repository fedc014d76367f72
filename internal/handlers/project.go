package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	apierrors "github.com/devtrackhq/statusboard/internal/errors"
	"github.com/devtrackhq/statusboard/internal/middleware"
	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/services"
)

// ProjectHandler coordinates project-related HTTP handlers.
type ProjectHandler struct {
	projectService *services.ProjectService
}

// NewProjectHandler creates a new ProjectHandler.
func NewProjectHandler(projectService *services.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

// ListProjects returns all projects.
func (h *ProjectHandler) ListProjects(c *gin.Context) {
	projects, err := h.projectService.ListProjects()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch projects")
		return
	}
	c.JSON(http.StatusOK, gin.H{"projects": projects})
}

// GetProject returns one project.
func (h *ProjectHandler) GetProject(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	project, err := h.projectService.GetProject(projectID)
	if err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// CreateProject creates a new project.
func (h *ProjectHandler) CreateProject(c *gin.Context) {
	developerID, exists := middleware.GetDeveloperID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateProjectRequest struct {
		Name        string               `json:"name" binding:"required"`
		Description string               `json:"description"`
		Status      models.ProjectStatus `json:"status"`
	}

	var req CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.CreateProject(services.CreateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		ActorID:     developerID,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusCreated, project)
}

// UpdateProject applies a sparse update to a project.
func (h *ProjectHandler) UpdateProject(c *gin.Context) {
	developerID, exists := middleware.GetDeveloperID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type UpdateProjectRequest struct {
		Name        *string               `json:"name"`
		Description *string               `json:"description"`
		Status      *models.ProjectStatus `json:"status"`
	}

	var req UpdateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	project, err := h.projectService.UpdateProject(projectID, services.UpdateProjectInput{
		Name:        req.Name,
		Description: req.Description,
		Status:      req.Status,
		ActorID:     developerID,
	})
	if err != nil {
		respondProjectError(c, err)
		return
	}

	c.JSON(http.StatusOK, project)
}

// DeleteProject deletes a project along with its tasks.
func (h *ProjectHandler) DeleteProject(c *gin.Context) {
	developerID, exists := middleware.GetDeveloperID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.projectService.DeleteProject(projectID, developerID); err != nil {
		respondProjectError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func respondProjectError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrProjectNameRequired),
		errors.Is(err, services.ErrInvalidProjectStatus):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
