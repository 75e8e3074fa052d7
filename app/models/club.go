package models

import (
	"time"

	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
)

const (
	ClubStatusActive   = "active"
	ClubStatusInactive = "inactive"
	ClubStatusDisabled = "disabled"
)

// Club is a martial-arts studio account. The club owner's email is the
// natural key used to correlate Stripe customers with local accounts.
type Club struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"type:varchar(200);not null" json:"name" validate:"required,min=2,max=200"`
	Email            string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	OwnerName        string         `gorm:"type:varchar(150)" json:"owner_name" validate:"max=150"`
	Phone            string         `gorm:"type:varchar(30);default:null" json:"phone"`
	Plan             string         `gorm:"type:varchar(100);default:null" json:"plan"`
	StripeCustomerID string         `gorm:"type:varchar(100);default:null;index" json:"-"`
	Status           string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active inactive disabled"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (c *Club) Validate() error {
	v := validator.New()

	return v.Struct(c)
}
