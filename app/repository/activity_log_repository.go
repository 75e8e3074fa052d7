package repository

import (
	"github.com/taekup/taekup-server/app/models"
	"gorm.io/gorm"
)

// activityLogRepository implements the ActivityLogRepository interface
type activityLogRepository struct {
	db *gorm.DB
}

// NewActivityLogRepository creates a new activity log repository instance
func NewActivityLogRepository(db *gorm.DB) ActivityLogRepository {
	return &activityLogRepository{db: db}
}

// Create appends a new activity log entry
func (r *activityLogRepository) Create(log *models.ActivityLog) error {
	return r.db.Create(log).Error
}

// List retrieves a paginated list of activity log entries, newest first
func (r *activityLogRepository) List(offset, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, err
}

// ListByEventType retrieves activity log entries for a single event type
func (r *activityLogRepository) ListByEventType(eventType string, offset, limit int) ([]models.ActivityLog, error) {
	var logs []models.ActivityLog
	err := r.db.Where("event_type = ?", eventType).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, err
}

// Count returns the total number of activity log entries
func (r *activityLogRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.ActivityLog{}).Count(&count).Error
	return count, err
}
