package repository

import (
	"time"

	"github.com/taekup/taekup-server/app/models"
	"gorm.io/gorm"
)

// ClubRepository defines the interface for club-related database operations
type ClubRepository interface {
	Create(club *models.Club) error
	GetByID(id uint) (*models.Club, error)
	GetByEmail(email string) (*models.Club, error)
	GetByStripeCustomerID(customerID string) (*models.Club, error)
	Update(club *models.Club) error
	Delete(id uint) error
	List(offset, limit int) ([]models.Club, error)
	Count() (int64, error)
	Search(query string) ([]models.Club, error)
	GetWithStats(offset, limit int) ([]ClubWithStats, error)
}

// StudentRepository defines the interface for student-related database operations
type StudentRepository interface {
	Create(student *models.Student) error
	CreateBatch(students []models.Student) (int, error)
	GetByID(id uint) (*models.Student, error)
	GetByClubID(clubID uint, offset, limit int) ([]models.Student, error)
	Update(student *models.Student) error
	Delete(id uint) error
	Count() (int64, error)
	CountByClubID(clubID uint) (int64, error)
	Search(clubID uint, query string) ([]models.Student, error)
}

// PaymentRepository defines the interface for payment-related database operations
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	GetByClubID(clubID uint, offset, limit int) ([]models.Payment, error)
	List(offset, limit int) ([]models.Payment, error)
	Count() (int64, error)
	SumAmountByStatus(status string) (int64, error)
	GetDailyStats(startDate, endDate time.Time) ([]models.DailyStats, error)
}

// EmailLogRepository defines the interface for email log operations
type EmailLogRepository interface {
	GetByClubID(clubID uint, offset, limit int) ([]models.EmailLog, error)
	List(offset, limit int) ([]models.EmailLog, error)
	Count() (int64, error)
	CountByStatus(status string) (int64, error)
}

// ActivityLogRepository defines the interface for activity log operations
type ActivityLogRepository interface {
	Create(log *models.ActivityLog) error
	List(offset, limit int) ([]models.ActivityLog, error)
	ListByEventType(eventType string, offset, limit int) ([]models.ActivityLog, error)
	Count() (int64, error)
}

// ClassPlanRepository defines the interface for class plan operations
type ClassPlanRepository interface {
	Create(plan *models.ClassPlan) error
	GetByID(id uint) (*models.ClassPlan, error)
	GetByClubID(clubID uint, offset, limit int) ([]models.ClassPlan, error)
	Delete(id uint) error
	Count() (int64, error)
}

// UserRepository defines the interface for admin user operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	GetByResetToken(token string) (*models.User, error)
	Update(user *models.User) error
	Delete(id uint) error
	Count() (int64, error)
}

// ClubWithStats represents a club with additional statistics
type ClubWithStats struct {
	Club         models.Club
	StudentCount int64
	PaymentCount int64
	Revenue      int64
}

// Repositories struct holds all repository instances
type Repositories struct {
	Club        ClubRepository
	Student     StudentRepository
	Payment     PaymentRepository
	EmailLog    EmailLogRepository
	ActivityLog ActivityLogRepository
	ClassPlan   ClassPlanRepository
	User        UserRepository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Club:        NewClubRepository(db),
		Student:     NewStudentRepository(db),
		Payment:     NewPaymentRepository(db),
		EmailLog:    NewEmailLogRepository(db),
		ActivityLog: NewActivityLogRepository(db),
		ClassPlan:   NewClassPlanRepository(db),
		User:        NewUserRepository(db),
	}
}
