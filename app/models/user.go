package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_ADMIN       = "admin"
	ROLE_SUPER_ADMIN = "super_admin"
	STATUS_ACTIVE    = "active"
	STATUS_DISABLED  = "disabled"
)

// User is a back-office account (studio staff or super admin). Club owners
// authenticate through the main product; this table only backs the admin
// dashboard and the password-reset flow.
type User struct {
	ID               uint           `gorm:"primaryKey" json:"id"`
	Name             string         `gorm:"type:varchar(150)" json:"name" validate:"required,min=3,max=150"`
	Email            string         `gorm:"uniqueIndex;type:varchar(200) CHARACTER SET utf8 COLLATE utf8_bin" json:"email" validate:"required,email,min=5,max=200"`
	Password         string         `gorm:"type:text" json:"-" validate:"required,min=8"`
	Role             string         `gorm:"type:varchar(50);default:'admin'" json:"role" validate:"oneof=admin super_admin"`
	Status           string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active disabled"`
	ResetToken       string         `gorm:"type:varchar(100);default:null;index" json:"-"`
	ResetTokenSentAt *time.Time     `gorm:"type:timestamp;default:null" json:"-"`
	LastLoginAt      *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	v := validator.New()

	return v.Struct(u)
}

func CreateUser(name string, email string, password string) (*User, error) {
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:     name,
		Email:    email,
		Password: pw,
		Role:     ROLE_ADMIN,
		Status:   STATUS_ACTIVE,
	}

	err = u.Validate()
	if err != nil {
		return nil, err
	}

	return u, nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// IsSuperAdmin reports whether the user may access the admin dashboard.
func (u *User) IsSuperAdmin() bool {
	return u.Role == ROLE_SUPER_ADMIN
}

// GenerateResetToken creates a random password-reset token and stamps it.
func (u *User) GenerateResetToken() error {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return err
	}
	u.ResetToken = hex.EncodeToString(b)
	now := time.Now()
	u.ResetTokenSentAt = &now
	return nil
}

// IsResetTokenValid checks the token against the stored one and enforces the
// 24 hour expiry window.
func (u *User) IsResetTokenValid(token string) bool {
	if u.ResetToken == "" || u.ResetTokenSentAt == nil {
		return false
	}
	if u.ResetToken != token {
		return false
	}
	// Token expires after 24 hours
	return time.Since(*u.ResetTokenSentAt) < 24*time.Hour
}

// ClearResetToken clears password reset fields after a successful reset.
func (u *User) ClearResetToken() {
	u.ResetToken = ""
	u.ResetTokenSentAt = nil
}
