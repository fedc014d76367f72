package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devtrackhq/statusboard/internal/dto"
	apierrors "github.com/devtrackhq/statusboard/internal/errors"
	"github.com/devtrackhq/statusboard/internal/middleware"
	"github.com/devtrackhq/statusboard/internal/services"
)

// DeveloperHandler coordinates developer-related HTTP handlers.
type DeveloperHandler struct {
	developerService *services.DeveloperService
}

// NewDeveloperHandler creates a new DeveloperHandler.
func NewDeveloperHandler(developerService *services.DeveloperService) *DeveloperHandler {
	return &DeveloperHandler{
		developerService: developerService,
	}
}

// ListDevelopers returns all developers with their roles.
func (h *DeveloperHandler) ListDevelopers(c *gin.Context) {
	developers, err := h.developerService.ListDevelopers()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch developers")
		return
	}
	c.JSON(http.StatusOK, gin.H{"developers": dto.ToDeveloperDTOs(developers)})
}

// GetDeveloper returns one developer.
func (h *DeveloperHandler) GetDeveloper(c *gin.Context) {
	developerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	developer, err := h.developerService.GetDeveloper(developerID)
	if err != nil {
		respondDeveloperError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToDeveloperDTO(*developer))
}

// UpdateProfile updates the authenticated developer's own profile.
func (h *DeveloperHandler) UpdateProfile(c *gin.Context) {
	developerID, exists := middleware.GetDeveloperID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type UpdateProfileRequest struct {
		Name  *string `json:"name"`
		Color *string `json:"color"`
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	developer, err := h.developerService.UpdateDeveloper(developerID, services.UpdateDeveloperInput{
		Name:  req.Name,
		Color: req.Color,
	})
	if err != nil {
		respondDeveloperError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToDeveloperDTO(*developer))
}

// SetRoles replaces a developer's role assignments.
func (h *DeveloperHandler) SetRoles(c *gin.Context) {
	developerID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type SetRolesRequest struct {
		RoleIDs []uint64 `json:"roleIds" binding:"required"`
	}

	var req SetRolesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.developerService.SetRoles(developerID, req.RoleIDs); err != nil {
		respondDeveloperError(c, err)
		return
	}

	developer, err := h.developerService.GetDeveloper(developerID)
	if err != nil {
		respondDeveloperError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ToDeveloperDTO(*developer))
}

// ListRoles returns all known roles.
func (h *DeveloperHandler) ListRoles(c *gin.Context) {
	roles, err := h.developerService.ListRoles()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch roles")
		return
	}

	out := make([]dto.RoleDTO, 0, len(roles))
	for _, r := range roles {
		out = append(out, dto.ToRoleDTO(r))
	}
	c.JSON(http.StatusOK, gin.H{"roles": out})
}

func respondDeveloperError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrDeveloperNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInvalidRole):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
