package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// ClassPlan is a generated lesson plan for a club, produced by the classplan
// generator and kept so instructors can reuse plans later.
type ClassPlan struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	ClubID          uint      `gorm:"not null;index" json:"club_id" validate:"required"`
	Club            *Club     `gorm:"foreignKey:ClubID" json:"-"`
	Title           string    `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Focus           string    `gorm:"type:varchar(200)" json:"focus" validate:"max=200"`
	AgeGroup        string    `gorm:"type:varchar(50)" json:"age_group" validate:"max=50"`
	DurationMinutes int       `gorm:"not null;default:60" json:"duration_minutes" validate:"min=10,max=240"`
	Content         string    `gorm:"type:longtext;not null" json:"content"`
	Model           string    `gorm:"type:varchar(100)" json:"model"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt       time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (p *ClassPlan) Validate() error {
	v := validator.New()

	return v.Struct(p)
}
