package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	apierrors "github.com/devtrackhq/statusboard/internal/errors"
	"github.com/devtrackhq/statusboard/internal/middleware"
	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/repository"
	"github.com/devtrackhq/statusboard/internal/services"
	"github.com/devtrackhq/statusboard/internal/utils"
)

// TaskHandler coordinates task-related HTTP handlers.
type TaskHandler struct {
	taskService *services.TaskService
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(taskService *services.TaskService) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
	}
}

// ListTasks returns tasks with optional filters and pagination.
// Filters: project_id, status, phase, assignee_id, sort=start_date.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	params := utils.GetPaginationParams(c)
	filter := repository.TaskFilter{
		Page:            params.Page,
		PageSize:        params.Limit,
		SortByStartDate: c.Query("sort") == "start_date",
	}

	if v := c.Query("project_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid project_id")
			return
		}
		filter.ProjectID = &id
	}
	if v := c.Query("status"); v != "" {
		status := models.TaskStatus(v)
		if !status.Valid() {
			apierrors.BadRequest(c, "Invalid status")
			return
		}
		filter.Status = &status
	}
	if v := c.Query("phase"); v != "" {
		phase := v
		filter.Phase = &phase
	}
	if v := c.Query("assignee_id"); v != "" {
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid assignee_id")
			return
		}
		filter.AssignedDeveloperID = &id
	}

	tasks, total, err := h.taskService.ListTasks(filter)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"tasks": tasks,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

// ListAllTasks returns every task with assignee views, unpaginated.
// This is the board's initial all-projects fetch.
func (h *TaskHandler) ListAllTasks(c *gin.Context) {
	tasks, err := h.taskService.AllTasks()
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch tasks")
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// ListProjectTasks returns a project's tasks with assignee views.
func (h *TaskHandler) ListProjectTasks(c *gin.Context) {
	projectID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	tasks, err := h.taskService.TasksByProject(projectID)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tasks": tasks})
}

// GetTask returns a specific task by ID.
func (h *TaskHandler) GetTask(c *gin.Context) {
	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	task, err := h.taskService.GetTask(taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// CreateTask creates a new task.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	developerID, exists := middleware.GetDeveloperID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type CreateTaskRequest struct {
		ProjectID   uint64            `json:"projectId" binding:"required"`
		Title       string            `json:"title" binding:"required"`
		Phase       string            `json:"phase"`
		Weight      models.TaskWeight `json:"weight"`
		Status      models.TaskStatus `json:"status"`
		StartDate   models.Date       `json:"startDate"`
		TargetDate  models.Date       `json:"targetDate"`
		EndDate     *models.Date      `json:"endDate"`
		Color       string            `json:"color"`
		AssigneeIDs []uint64          `json:"assigneeIds"`
	}

	var req CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	task, err := h.taskService.CreateTask(services.CreateTaskInput{
		ProjectID:   req.ProjectID,
		Title:       req.Title,
		Phase:       req.Phase,
		Weight:      req.Weight,
		Status:      req.Status,
		StartDate:   req.StartDate,
		TargetDate:  req.TargetDate,
		EndDate:     req.EndDate,
		Color:       req.Color,
		AssigneeIDs: req.AssigneeIDs,
		ActorID:     developerID,
	})
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusCreated, task)
}

// UpdateTask applies a sparse patch to one task.
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	developerID, exists := middleware.GetDeveloperID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var patch models.TaskPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if patch.IsEmpty() {
		apierrors.BadRequest(c, "No fields to update")
		return
	}

	task, err := h.taskService.UpdateTask(taskID, patch, developerID)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// BulkUpdateTasks applies a batch of sparse updates in one request.
// This is the flush target for pending-change ledgers.
func (h *TaskHandler) BulkUpdateTasks(c *gin.Context) {
	developerID, exists := middleware.GetDeveloperID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type BulkUpdateRequest struct {
		Tasks []services.BulkTaskUpdate `json:"tasks" binding:"required"`
	}

	var req BulkUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	if len(req.Tasks) == 0 {
		apierrors.BadRequest(c, "No tasks to update")
		return
	}

	tasks, err := h.taskService.BulkUpdate(req.Tasks, developerID)
	if err != nil {
		respondTaskError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"updated": len(tasks),
		"tasks":   tasks,
	})
}

// DeleteTask deletes a task.
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	developerID, exists := middleware.GetDeveloperID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	if err := h.taskService.DeleteTask(taskID, developerID); err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted successfully"})
}

// AssignTask assigns developers to a task.
func (h *TaskHandler) AssignTask(c *gin.Context) {
	developerID, exists := middleware.GetDeveloperID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type AssignRequest struct {
		DeveloperIDs []uint64 `json:"developerIds" binding:"required"`
	}

	var req AssignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.taskService.AssignDevelopers(taskID, req.DeveloperIDs, developerID); err != nil {
		respondTaskError(c, err)
		return
	}

	task, err := h.taskService.GetTask(taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

// UnassignTask removes developer assignments from a task.
func (h *TaskHandler) UnassignTask(c *gin.Context) {
	developerID, exists := middleware.GetDeveloperID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	taskID, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	type UnassignRequest struct {
		DeveloperIDs []uint64 `json:"developerIds" binding:"required"`
	}

	var req UnassignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	if err := h.taskService.UnassignDevelopers(taskID, req.DeveloperIDs, developerID); err != nil {
		respondTaskError(c, err)
		return
	}

	task, err := h.taskService.GetTask(taskID)
	if err != nil {
		respondTaskError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func parseIDParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid "+name)
		return 0, false
	}
	return id, true
}

func respondTaskError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrTaskNotFound),
		errors.Is(err, services.ErrProjectNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrTitleRequired),
		errors.Is(err, services.ErrInvalidStatus),
		errors.Is(err, services.ErrInvalidWeight),
		errors.Is(err, services.ErrInvalidDateRange),
		errors.Is(err, services.ErrNoDeveloperIDs),
		errors.Is(err, services.ErrInvalidTaskAssignee):
		apierrors.BadRequest(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
