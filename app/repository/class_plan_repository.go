package repository

import (
	"github.com/taekup/taekup-server/app/models"
	"gorm.io/gorm"
)

// classPlanRepository implements the ClassPlanRepository interface
type classPlanRepository struct {
	db *gorm.DB
}

// NewClassPlanRepository creates a new class plan repository instance
func NewClassPlanRepository(db *gorm.DB) ClassPlanRepository {
	return &classPlanRepository{db: db}
}

// Create stores a generated class plan
func (r *classPlanRepository) Create(plan *models.ClassPlan) error {
	return r.db.Create(plan).Error
}

// GetByID retrieves a class plan by its ID
func (r *classPlanRepository) GetByID(id uint) (*models.ClassPlan, error) {
	var plan models.ClassPlan
	err := r.db.First(&plan, id).Error
	if err != nil {
		return nil, err
	}
	return &plan, nil
}

// GetByClubID retrieves a paginated list of class plans for a club
func (r *classPlanRepository) GetByClubID(clubID uint, offset, limit int) ([]models.ClassPlan, error) {
	var plans []models.ClassPlan
	err := r.db.Where("club_id = ?", clubID).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&plans).Error
	return plans, err
}

// Delete removes a class plan by its ID
func (r *classPlanRepository) Delete(id uint) error {
	return r.db.Delete(&models.ClassPlan{}, id).Error
}

// Count returns the total number of class plans
func (r *classPlanRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.ClassPlan{}).Count(&count).Error
	return count, err
}
