package accounts

import (
	"userhub-backend/internal/users"
)

// RegisterRequest is the payload for creating a new account. The avatar path
// is filled in by the controller after the upload is stored, never by the
// client directly.
type RegisterRequest struct {
	Name     string  `json:"name" validate:"required"`
	Password string  `json:"password" validate:"required"`
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`

	AvatarPath *string `json:"-"`
}

// LoginRequest identifies an account by email or phone plus its password.
type LoginRequest struct {
	Email    *string `json:"email,omitempty"`
	Phone    *string `json:"phone,omitempty"`
	Password string  `json:"password" validate:"required"`
}

// LoginResponse pairs the authenticated account with a fresh bearer token.
type LoginResponse struct {
	User  *users.UserDTO `json:"user"`
	Token string         `json:"token"`
}

// UpdateAccountRequest carries the self-service profile mutation. Empty or
// absent fields are left untouched.
type UpdateAccountRequest struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`

	AvatarPath *string `json:"-"`
}

// ChangePasswordRequest swaps the account credential.
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

// DeleteAccountRequest confirms account removal with the current password.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// UserListResponse is one page of accounts plus the total row count.
type UserListResponse struct {
	Users []users.UserDTO `json:"users"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}
