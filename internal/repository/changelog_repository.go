package repository

import (
	"github.com/devtrackhq/statusboard/internal/models"
	"gorm.io/gorm"
)

// GormChangeLogRepository is a GORM implementation of ChangeLogRepository
type GormChangeLogRepository struct {
	db *gorm.DB
}

// NewChangeLogRepository creates a new ChangeLogRepository
func NewChangeLogRepository(db *gorm.DB) ChangeLogRepository {
	return &GormChangeLogRepository{db: db}
}

// Create appends a change log row
func (r *GormChangeLogRepository) Create(entry *models.ChangeLog) error {
	return r.db.Create(entry).Error
}

// List returns change log rows, newest first
func (r *GormChangeLogRepository) List(filter ChangeLogFilter) ([]models.ChangeLog, int64, error) {
	var entries []models.ChangeLog

	query := r.db.Model(&models.ChangeLog{})
	if filter.EntityType != nil {
		query = query.Where("entity_type = ?", *filter.EntityType)
	}
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	listQuery := query.Order("created_at DESC")
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		listQuery = listQuery.Offset(offset).Limit(filter.PageSize)
	}

	if err := listQuery.Preload("Actor").Find(&entries).Error; err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
