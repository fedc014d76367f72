package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/devtrackhq/statusboard/internal/errors"
	"github.com/devtrackhq/statusboard/internal/repository"
	"github.com/devtrackhq/statusboard/internal/services"
	"github.com/devtrackhq/statusboard/internal/utils"
)

// ChangeLogHandler serves the audit trail.
type ChangeLogHandler struct {
	changeLogService *services.ChangeLogService
}

// NewChangeLogHandler creates a new ChangeLogHandler.
func NewChangeLogHandler(changeLogService *services.ChangeLogService) *ChangeLogHandler {
	return &ChangeLogHandler{
		changeLogService: changeLogService,
	}
}

// ListChanges returns audit rows, newest first. Filters: entity_type,
// actor_id.
func (h *ChangeLogHandler) ListChanges(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := repository.ChangeLogFilter{
		Page:     params.Page,
		PageSize: params.Limit,
	}

	if v := c.Query("entity_type"); v != "" {
		entityType := v
		filter.EntityType = &entityType
	}
	if v := c.Query("actor_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid actor_id")
			return
		}
		filter.ActorID = &id
	}

	entries, total, err := h.changeLogService.ListChanges(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch change log")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"changes": entries,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}
