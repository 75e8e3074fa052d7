package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

// Student is a roster member belonging to a club. Email is optional but
// unique per club when present, which lets the CSV importer dedupe rows.
type Student struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	ClubID    uint           `gorm:"not null;index;uniqueIndex:ux_students_club_email,priority:1" json:"club_id" validate:"required"`
	Club      *Club          `gorm:"foreignKey:ClubID" json:"-"`
	FirstName string         `gorm:"type:varchar(100);not null" json:"first_name" validate:"required,max=100"`
	LastName  string         `gorm:"type:varchar(100)" json:"last_name" validate:"max=100"`
	Email     string         `gorm:"type:varchar(200);default:null;uniqueIndex:ux_students_club_email,priority:2" json:"email" validate:"omitempty,email"`
	Phone     string         `gorm:"type:varchar(30);default:null" json:"phone"`
	BeltRank  string         `gorm:"type:varchar(50);default:null" json:"belt_rank"`
	BirthDate *time.Time     `gorm:"type:date;default:null" json:"birth_date,omitempty"`
	JoinedAt  *time.Time     `gorm:"type:date;default:null" json:"joined_at,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (s *Student) Validate() error {
	v := validator.New()

	return v.Struct(s)
}

// FullName joins first and last name for display and email templates.
func (s *Student) FullName() string {
	if s.LastName == "" {
		return s.FirstName
	}
	return s.FirstName + " " + s.LastName
}
