package repository

import (
	"github.com/devtrackhq/statusboard/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormTaskRepository is a GORM implementation of TaskRepository
type GormTaskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a new TaskRepository
func NewTaskRepository(db *gorm.DB) TaskRepository {
	return &GormTaskRepository{db: db}
}

// Create creates a new task
func (r *GormTaskRepository) Create(task *models.Task) error {
	return r.db.Create(task).Error
}

// FindByID finds a task by ID with optional preloading
func (r *GormTaskRepository) FindByID(id uint64, preload ...string) (*models.Task, error) {
	var task models.Task
	query := r.db

	for _, p := range preload {
		query = query.Preload(p)
	}

	if err := query.First(&task, id).Error; err != nil {
		return nil, err
	}

	populateAssigneeViews(&task)
	return &task, nil
}

// List retrieves tasks with filtering and pagination
func (r *GormTaskRepository) List(filter TaskFilter) ([]models.Task, int64, error) {
	var tasks []models.Task

	query := r.db.Model(&models.Task{})

	if filter.ProjectID != nil {
		query = query.Where("tasks.project_id = ?", *filter.ProjectID)
	}
	if filter.Status != nil {
		query = query.Where("tasks.status = ?", *filter.Status)
	}
	if filter.Phase != nil {
		query = query.Where("tasks.phase = ?", *filter.Phase)
	}
	if filter.AssignedDeveloperID != nil {
		assigneeSubQuery := r.db.Model(&models.TaskAssignee{}).
			Select("1").
			Where("task_assignees.task_id = tasks.id").
			Where("task_assignees.developer_id = ?", *filter.AssignedDeveloperID).
			Where("task_assignees.deleted_at IS NULL")
		query = query.Where("EXISTS (?)", assigneeSubQuery)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query
	if filter.SortByStartDate {
		listQuery = listQuery.Order("tasks.start_date ASC")
	} else {
		listQuery = listQuery.Order("tasks.created_at DESC")
	}

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		listQuery = listQuery.Offset(offset).Limit(filter.PageSize)
	}

	if err := listQuery.Find(&tasks).Error; err != nil {
		return nil, 0, err
	}

	return tasks, total, nil
}

// ListByProjectWithAssignees returns a project's tasks with assignee views populated
func (r *GormTaskRepository) ListByProjectWithAssignees(projectID uint64) ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Preload("Assignees", "deleted_at IS NULL").
		Preload("Assignees.Developer").
		Where("project_id = ?", projectID).
		Order("start_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		populateAssigneeViews(&tasks[i])
	}
	return tasks, nil
}

// ListAllWithAssignees returns every task with assignee views populated
func (r *GormTaskRepository) ListAllWithAssignees() ([]models.Task, error) {
	var tasks []models.Task
	err := r.db.
		Preload("Assignees", "deleted_at IS NULL").
		Preload("Assignees.Developer").
		Order("start_date ASC").
		Find(&tasks).Error
	if err != nil {
		return nil, err
	}

	for i := range tasks {
		populateAssigneeViews(&tasks[i])
	}
	return tasks, nil
}

// Update saves a full task row
func (r *GormTaskRepository) Update(task *models.Task) error {
	return r.db.Save(task).Error
}

// UpdateFields applies a sparse column update to one task
func (r *GormTaskRepository) UpdateFields(id uint64, columns map[string]interface{}) (int64, error) {
	if len(columns) == 0 {
		return 0, nil
	}
	result := r.db.Model(&models.Task{}).Where("id = ?", id).Updates(columns)
	return result.RowsAffected, result.Error
}

// Delete soft deletes a task and its assignments
func (r *GormTaskRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("task_id = ?", id).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}

		return tx.Delete(&models.Task{}, id).Error
	})
}

// AddAssignees assigns developers to a task, reviving soft-deleted rows
func (r *GormTaskRepository) AddAssignees(taskID uint64, developerIDs []uint64) error {
	assignees := make([]models.TaskAssignee, len(developerIDs))

	for i, developerID := range developerIDs {
		assignees[i] = models.TaskAssignee{
			TaskID:      taskID,
			DeveloperID: developerID,
		}
	}

	return r.db.
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "task_id"}, {Name: "developer_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"deleted_at": gorm.Expr("NULL")}),
		}).
		Create(&assignees).Error
}

// RemoveAssignees removes developer assignments from a task
func (r *GormTaskRepository) RemoveAssignees(taskID uint64, developerIDs []uint64) error {
	return r.db.Where("task_id = ? AND developer_id IN ?", taskID, developerIDs).
		Delete(&models.TaskAssignee{}).Error
}

// CountDevelopersByIDs counts how many of the given developer IDs exist
func (r *GormTaskRepository) CountDevelopersByIDs(developerIDs []uint64) (int64, error) {
	var count int64
	err := r.db.Model(&models.Developer{}).
		Where("id IN ?", developerIDs).
		Count(&count).Error
	return count, err
}

// populateAssigneeViews fills the denormalized assignee id and detail
// lists from the preloaded assignment rows.
func populateAssigneeViews(task *models.Task) {
	task.AssigneeIDs = make([]uint64, 0, len(task.Assignees))
	task.AssigneeDetails = make([]models.Developer, 0, len(task.Assignees))
	for _, a := range task.Assignees {
		task.AssigneeIDs = append(task.AssigneeIDs, a.DeveloperID)
		if a.Developer.ID != 0 {
			task.AssigneeDetails = append(task.AssigneeDetails, a.Developer)
		}
	}
}
