package repository

import (
	"github.com/taekup/taekup-server/app/models"
	"gorm.io/gorm"
)

// emailLogRepository implements the EmailLogRepository interface
type emailLogRepository struct {
	db *gorm.DB
}

// NewEmailLogRepository creates a new email log repository instance
func NewEmailLogRepository(db *gorm.DB) EmailLogRepository {
	return &emailLogRepository{db: db}
}

// GetByClubID retrieves a paginated list of email logs for a club
func (r *emailLogRepository) GetByClubID(clubID uint, offset, limit int) ([]models.EmailLog, error) {
	var logs []models.EmailLog
	err := r.db.Where("club_id = ?", clubID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, err
}

// List retrieves a paginated list of all email logs
func (r *emailLogRepository) List(offset, limit int) ([]models.EmailLog, error) {
	var logs []models.EmailLog
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&logs).Error
	return logs, err
}

// Count returns the total number of email logs
func (r *emailLogRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.EmailLog{}).Count(&count).Error
	return count, err
}

// CountByStatus returns the number of email logs in a status
func (r *emailLogRepository) CountByStatus(status string) (int64, error) {
	var count int64
	err := r.db.Model(&models.EmailLog{}).Where("status = ?", status).Count(&count).Error
	return count, err
}
