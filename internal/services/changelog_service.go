package services

import (
	"fmt"

	"github.com/devtrackhq/statusboard/internal/models"
	"github.com/devtrackhq/statusboard/internal/repository"
)

// ChangeLogService exposes the audit trail.
type ChangeLogService struct {
	logRepo repository.ChangeLogRepository
}

// NewChangeLogService creates a new ChangeLogService.
func NewChangeLogService(logRepo repository.ChangeLogRepository) *ChangeLogService {
	return &ChangeLogService{logRepo: logRepo}
}

// ListChanges returns audit rows, newest first.
func (s *ChangeLogService) ListChanges(filter repository.ChangeLogFilter) ([]models.ChangeLog, int64, error) {
	entries, total, err := s.logRepo.List(filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list change log: %w", err)
	}
	return entries, total, nil
}
