package repository

import (
	"github.com/devtrackhq/statusboard/internal/models"
	"gorm.io/gorm"
)

// GormDeveloperRepository is a GORM implementation of DeveloperRepository
type GormDeveloperRepository struct {
	db *gorm.DB
}

// NewDeveloperRepository creates a new DeveloperRepository
func NewDeveloperRepository(db *gorm.DB) DeveloperRepository {
	return &GormDeveloperRepository{db: db}
}

// Create creates a new developer
func (r *GormDeveloperRepository) Create(dev *models.Developer) error {
	return r.db.Create(dev).Error
}

// FindByID finds a developer by ID
func (r *GormDeveloperRepository) FindByID(id uint64) (*models.Developer, error) {
	var dev models.Developer
	if err := r.db.Preload("Roles").First(&dev, id).Error; err != nil {
		return nil, err
	}
	return &dev, nil
}

// FindByUsername finds a developer by username
func (r *GormDeveloperRepository) FindByUsername(username string) (*models.Developer, error) {
	var dev models.Developer
	if err := r.db.Where("username = ?", username).First(&dev).Error; err != nil {
		return nil, err
	}
	return &dev, nil
}

// List returns all developers with their roles
func (r *GormDeveloperRepository) List() ([]models.Developer, error) {
	var devs []models.Developer
	if err := r.db.Preload("Roles").Order("name ASC").Find(&devs).Error; err != nil {
		return nil, err
	}
	return devs, nil
}

// Update updates a developer
func (r *GormDeveloperRepository) Update(dev *models.Developer) error {
	return r.db.Save(dev).Error
}

// Delete soft deletes a developer and their assignments
func (r *GormDeveloperRepository) Delete(id uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("developer_id = ?", id).Delete(&models.TaskAssignee{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Developer{}, id).Error
	})
}

// SetRoles replaces a developer's role assignments
func (r *GormDeveloperRepository) SetRoles(developerID uint64, roleIDs []uint64) error {
	var dev models.Developer
	if err := r.db.First(&dev, developerID).Error; err != nil {
		return err
	}

	var roles []models.Role
	if len(roleIDs) > 0 {
		if err := r.db.Where("id IN ?", roleIDs).Find(&roles).Error; err != nil {
			return err
		}
	}

	return r.db.Model(&dev).Association("Roles").Replace(roles)
}

// ListRoles returns all known roles
func (r *GormDeveloperRepository) ListRoles() ([]models.Role, error) {
	var roles []models.Role
	if err := r.db.Order("name ASC").Find(&roles).Error; err != nil {
		return nil, err
	}
	return roles, nil
}
