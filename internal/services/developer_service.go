package services

import (
	"errors"
	"fmt"

	"github.com/devtrackhq/statusboard/internal/events"
	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/repository"
	"gorm.io/gorm"
)

var ErrInvalidRole = errors.New("one or more roles do not exist")

// DeveloperService handles developer profile and role logic.
type DeveloperService struct {
	developerRepo repository.DeveloperRepository
	bus           *events.Bus
}

// NewDeveloperService creates a new DeveloperService.
func NewDeveloperService(developerRepo repository.DeveloperRepository, bus *events.Bus) *DeveloperService {
	return &DeveloperService{
		developerRepo: developerRepo,
		bus:           bus,
	}
}

// ListDevelopers returns all developers with their roles.
func (s *DeveloperService) ListDevelopers() ([]models.Developer, error) {
	developers, err := s.developerRepo.List()
	if err != nil {
		return nil, fmt.Errorf("failed to list developers: %w", err)
	}
	return developers, nil
}

// GetDeveloper returns one developer.
func (s *DeveloperService) GetDeveloper(developerID uint64) (*models.Developer, error) {
	developer, err := s.developerRepo.FindByID(developerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeveloperNotFound
		}
		return nil, fmt.Errorf("failed to find developer: %w", err)
	}
	return developer, nil
}

// UpdateDeveloperInput represents input for updating a developer profile.
type UpdateDeveloperInput struct {
	Name  *string
	Color *string
}

// UpdateDeveloper applies a sparse profile update and broadcasts it so
// open boards refresh avatar colors and names.
func (s *DeveloperService) UpdateDeveloper(developerID uint64, input UpdateDeveloperInput) (*models.Developer, error) {
	developer, err := s.developerRepo.FindByID(developerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrDeveloperNotFound
		}
		return nil, fmt.Errorf("failed to find developer: %w", err)
	}

	if input.Name != nil && *input.Name != "" {
		developer.Name = *input.Name
	}
	if input.Color != nil && *input.Color != "" {
		developer.Color = *input.Color
	}

	if err := s.developerRepo.Update(developer); err != nil {
		return nil, fmt.Errorf("failed to update developer: %w", err)
	}

	s.bus.Publish(events.DeveloperUpdated{Developer: *developer})
	return developer, nil
}

// SetRoles replaces a developer's role assignments.
func (s *DeveloperService) SetRoles(developerID uint64, roleIDs []uint64) error {
	if _, err := s.developerRepo.FindByID(developerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrDeveloperNotFound
		}
		return fmt.Errorf("failed to find developer: %w", err)
	}

	if err := s.developerRepo.SetRoles(developerID, uniqueUint64(roleIDs)); err != nil {
		return fmt.Errorf("failed to set roles: %w", err)
	}
	return nil
}

// ListRoles returns all known roles.
func (s *DeveloperService) ListRoles() ([]models.Role, error) {
	roles, err := s.developerRepo.ListRoles()
	if err != nil {
		return nil, fmt.Errorf("failed to list roles: %w", err)
	}
	return roles, nil
}

// DeveloperByID resolves a developer for denormalized assignee views.
// It satisfies the reconciler's directory lookup.
func (s *DeveloperService) DeveloperByID(id uint64) (models.Developer, bool) {
	developer, err := s.developerRepo.FindByID(id)
	if err != nil {
		return models.Developer{}, false
	}
	return *developer, true
}
