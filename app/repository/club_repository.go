package repository

import (
	"fmt"
	"strings"

	"github.com/taekup/taekup-server/app/models"
	"gorm.io/gorm"
)

// clubRepository implements the ClubRepository interface
type clubRepository struct {
	db *gorm.DB
}

// NewClubRepository creates a new club repository instance
func NewClubRepository(db *gorm.DB) ClubRepository {
	return &clubRepository{db: db}
}

// Create creates a new club in the database
func (r *clubRepository) Create(club *models.Club) error {
	return r.db.Create(club).Error
}

// GetByID retrieves a club by its ID
func (r *clubRepository) GetByID(id uint) (*models.Club, error) {
	var club models.Club
	err := r.db.First(&club, id).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

// GetByEmail retrieves a club by its owner email address
func (r *clubRepository) GetByEmail(email string) (*models.Club, error) {
	var club models.Club
	err := r.db.Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

// GetByStripeCustomerID retrieves a club by its Stripe customer ID
func (r *clubRepository) GetByStripeCustomerID(customerID string) (*models.Club, error) {
	var club models.Club
	err := r.db.Where("stripe_customer_id = ?", customerID).First(&club).Error
	if err != nil {
		return nil, err
	}
	return &club, nil
}

// Update updates an existing club in the database
func (r *clubRepository) Update(club *models.Club) error {
	return r.db.Save(club).Error
}

// Delete soft deletes a club by its ID
func (r *clubRepository) Delete(id uint) error {
	return r.db.Delete(&models.Club{}, id).Error
}

// List retrieves a paginated list of clubs
func (r *clubRepository) List(offset, limit int) ([]models.Club, error) {
	var clubs []models.Club
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&clubs).Error
	return clubs, err
}

// Count returns the total number of clubs
func (r *clubRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Club{}).Count(&count).Error
	return count, err
}

// Search searches for clubs by name or email
func (r *clubRepository) Search(query string) ([]models.Club, error) {
	var clubs []models.Club
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("name LIKE ? OR email LIKE ?", searchPattern, searchPattern).Find(&clubs).Error
	return clubs, err
}

// GetWithStats retrieves clubs with their statistics (student count, payment count, revenue)
func (r *clubRepository) GetWithStats(offset, limit int) ([]ClubWithStats, error) {
	var clubs []models.Club
	err := r.db.Order("created_at DESC").Offset(offset).Limit(limit).Find(&clubs).Error
	if err != nil {
		return nil, err
	}

	var clubsWithStats []ClubWithStats
	for _, club := range clubs {
		stats, err := r.getClubStats(club.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get stats for club %d: %w", club.ID, err)
		}

		clubsWithStats = append(clubsWithStats, ClubWithStats{
			Club:         club,
			StudentCount: stats.StudentCount,
			PaymentCount: stats.PaymentCount,
			Revenue:      stats.Revenue,
		})
	}

	return clubsWithStats, nil
}

// clubStats represents internal club statistics
type clubStats struct {
	StudentCount int64
	PaymentCount int64
	Revenue      int64
}

// getClubStats retrieves statistics for a specific club
func (r *clubRepository) getClubStats(clubID uint) (*clubStats, error) {
	var stats clubStats

	err := r.db.Model(&models.Student{}).Where("club_id = ?", clubID).Count(&stats.StudentCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count students: %w", err)
	}

	err = r.db.Model(&models.Payment{}).
		Where("club_id = ? AND status = ?", clubID, models.PaymentStatusSucceeded).
		Count(&stats.PaymentCount).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count payments: %w", err)
	}

	err = r.db.Model(&models.Payment{}).
		Where("club_id = ? AND status = ?", clubID, models.PaymentStatusSucceeded).
		Select("COALESCE(SUM(amount), 0)").Row().Scan(&stats.Revenue)
	if err != nil {
		return nil, fmt.Errorf("failed to calculate revenue: %w", err)
	}

	return &stats, nil
}
