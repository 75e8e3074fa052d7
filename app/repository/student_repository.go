package repository

import (
	"strings"

	"github.com/taekup/taekup-server/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// studentRepository implements the StudentRepository interface
type studentRepository struct {
	db *gorm.DB
}

// NewStudentRepository creates a new student repository instance
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

// Create creates a new student in the database
func (r *studentRepository) Create(student *models.Student) error {
	return r.db.Create(student).Error
}

// CreateBatch inserts students from an import run. Rows that collide with an
// existing (club_id, email) pair are silently skipped so re-uploading the same
// roster does not duplicate students. Returns the number of inserted rows.
func (r *studentRepository) CreateBatch(students []models.Student) (int, error) {
	if len(students) == 0 {
		return 0, nil
	}
	inserted := 0
	for i := range students {
		result := r.db.Clauses(clause.OnConflict{DoNothing: true}).Create(&students[i])
		if result.Error != nil {
			return inserted, result.Error
		}
		if result.RowsAffected > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// GetByID retrieves a student by their ID
func (r *studentRepository) GetByID(id uint) (*models.Student, error) {
	var student models.Student
	err := r.db.First(&student, id).Error
	if err != nil {
		return nil, err
	}
	return &student, nil
}

// GetByClubID retrieves a paginated list of students for a club
func (r *studentRepository) GetByClubID(clubID uint, offset, limit int) ([]models.Student, error) {
	var students []models.Student
	err := r.db.Where("club_id = ?", clubID).
		Order("last_name ASC, first_name ASC").
		Offset(offset).Limit(limit).Find(&students).Error
	return students, err
}

// Update updates an existing student in the database
func (r *studentRepository) Update(student *models.Student) error {
	return r.db.Save(student).Error
}

// Delete soft deletes a student by their ID
func (r *studentRepository) Delete(id uint) error {
	return r.db.Delete(&models.Student{}, id).Error
}

// Count returns the total number of students
func (r *studentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Student{}).Count(&count).Error
	return count, err
}

// CountByClubID returns the number of students in a club
func (r *studentRepository) CountByClubID(clubID uint) (int64, error) {
	var count int64
	err := r.db.Model(&models.Student{}).Where("club_id = ?", clubID).Count(&count).Error
	return count, err
}

// Search searches a club's students by name or email
func (r *studentRepository) Search(clubID uint, query string) ([]models.Student, error) {
	var students []models.Student
	searchPattern := "%" + strings.TrimSpace(query) + "%"
	err := r.db.Where("club_id = ? AND (first_name LIKE ? OR last_name LIKE ? OR email LIKE ?)",
		clubID, searchPattern, searchPattern, searchPattern).Find(&students).Error
	return students, err
}
