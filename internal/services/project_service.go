package services

import (
	"errors"
	"fmt"

	"github.com/devtrackhq/statusboard/internal/constants"
	"github.com/devtrackhq/statusboard/internal/events"
	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/repository"
	"gorm.io/gorm"
)

var (
	ErrProjectNameRequired  = errors.New("project name is required")
	ErrInvalidProjectStatus = errors.New("invalid project status")
)

// ProjectService handles project business logic.
type ProjectService struct {
	projectRepo repository.ProjectRepository
	logRepo     repository.ChangeLogRepository
	bus         *events.Bus
}

// NewProjectService creates a new ProjectService.
func NewProjectService(projectRepo repository.ProjectRepository, logRepo repository.ChangeLogRepository, bus *events.Bus) *ProjectService {
	return &ProjectService{
		projectRepo: projectRepo,
		logRepo:     logRepo,
		bus:         bus,
	}
}

// ListProjects returns all projects.
func (s *ProjectService) ListProjects() ([]models.Project, error) {
	projects, err := s.projectRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// GetProject returns one project.
func (s *ProjectService) GetProject(projectID uint64) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}
	return project, nil
}

// CreateProjectInput represents input for creating a project.
type CreateProjectInput struct {
	Name        string
	Description string
	Status      models.ProjectStatus
	ActorID     uint64
}

// CreateProject creates a project and broadcasts the creation.
func (s *ProjectService) CreateProject(input CreateProjectInput) (*models.Project, error) {
	if input.Name == "" {
		return nil, ErrProjectNameRequired
	}
	if input.Status == "" {
		input.Status = models.ProjectStatusActive
	}
	if !input.Status.Valid() {
		return nil, ErrInvalidProjectStatus
	}

	project := &models.Project{
		Name:        input.Name,
		Description: input.Description,
		Status:      input.Status,
	}
	if err := s.projectRepo.Create(project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}

	s.logChange(input.ActorID, models.ChangeActionCreate, project.ID, "created project "+project.Name)
	s.bus.Publish(events.ProjectCreated{Project: *project})
	return project, nil
}

// UpdateProjectInput represents input for updating a project.
type UpdateProjectInput struct {
	Name        *string
	Description *string
	Status      *models.ProjectStatus
	ActorID     uint64
}

// UpdateProject applies a sparse update and broadcasts it.
func (s *ProjectService) UpdateProject(projectID uint64, input UpdateProjectInput) (*models.Project, error) {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to find project: %w", err)
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, ErrProjectNameRequired
		}
		project.Name = *input.Name
	}
	if input.Description != nil {
		project.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, ErrInvalidProjectStatus
		}
		project.Status = *input.Status
	}

	if err := s.projectRepo.Update(project); err != nil {
		return nil, fmt.Errorf("failed to update project: %w", err)
	}

	s.logChange(input.ActorID, models.ChangeActionUpdate, project.ID, "updated project "+project.Name)
	s.bus.Publish(events.ProjectUpdated{Project: *project})
	return project, nil
}

// DeleteProject deletes a project along with its tasks and broadcasts
// the removal.
func (s *ProjectService) DeleteProject(projectID, actorID uint64) error {
	project, err := s.projectRepo.FindByID(projectID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProjectNotFound
		}
		return fmt.Errorf("failed to find project: %w", err)
	}

	if err := s.projectRepo.Delete(projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	s.logChange(actorID, models.ChangeActionDelete, projectID, "deleted project "+project.Name)
	s.bus.Publish(events.ProjectDeleted{ProjectID: projectID})
	return nil
}

func (s *ProjectService) logChange(actorID uint64, action models.ChangeAction, entityID uint64, summary string) {
	if s.logRepo == nil {
		return
	}
	_ = s.logRepo.Create(&models.ChangeLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: constants.EntityProject,
		EntityID:   entityID,
		Summary:    summary,
	})
}
