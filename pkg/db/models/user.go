package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"userhub-backend/pkg/enums"
)

// User is the sole persisted entity: one account record per person.
// Uniqueness of name, email and phone is enforced by the database indexes,
// not by application-level pre-checks.
type User struct {
	ID           uuid.UUID      `gorm:"type:uuid;primaryKey"`
	Name         string         `gorm:"type:text;not null;uniqueIndex:idx_users_name"`
	Email        *string        `gorm:"type:text;uniqueIndex:idx_users_email"`
	Phone        *string        `gorm:"type:text;uniqueIndex:idx_users_phone"`
	PasswordHash string         `gorm:"column:password_hash;not null"`
	Avatar       *string        `gorm:"type:text"`
	Role         enums.UserRole `gorm:"type:text;not null;default:user"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}

// BeforeCreate assigns the identifier so inserts behave the same on every
// supported driver.
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Role == "" {
		u.Role = enums.UserRoleUser
	}
	return nil
}
