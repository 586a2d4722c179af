package users

import (
	"time"

	"github.com/google/uuid"

	"userhub-backend/pkg/db/models"
	"userhub-backend/pkg/enums"
)

// UserDTO is the transport shape for an account. The password hash never
// leaves the persistence layer.
type UserDTO struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Email     *string        `json:"email,omitempty"`
	Phone     *string        `json:"phone,omitempty"`
	Avatar    *string        `json:"avatar,omitempty"`
	Role      enums.UserRole `json:"role"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// CreateUserDTO holds the data required by the repo to persist a new account.
type CreateUserDTO struct {
	Name         string
	Email        *string
	Phone        *string
	PasswordHash string
	Avatar       *string
	Role         enums.UserRole
}

// UpdateFields carries a partial update. Nil pointers mean "leave as is";
// SetAvatarNil / SetEmailNil style clears are not needed anywhere today.
type UpdateFields struct {
	Name   *string
	Email  *string
	Phone  *string
	Avatar *string
	Role   *enums.UserRole
}

// Empty reports whether the update would touch nothing.
func (u UpdateFields) Empty() bool {
	return u.Name == nil && u.Email == nil && u.Phone == nil && u.Avatar == nil && u.Role == nil
}

func FromModel(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		Avatar:    u.Avatar,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (c CreateUserDTO) ToModel() *models.User {
	role := c.Role
	if role == "" {
		role = enums.UserRoleUser
	}
	return &models.User{
		Name:         c.Name,
		Email:        c.Email,
		Phone:        c.Phone,
		PasswordHash: c.PasswordHash,
		Avatar:       c.Avatar,
		Role:         role,
	}
}
