package auth

import (
	"github.com/ashasetu/ashasetu-backend/internal/accounts"
	"github.com/ashasetu/ashasetu-backend/pkg/types"
)

// RegisterRequest is the self-service sign-up payload.
type RegisterRequest struct {
	FullName    string `json:"full_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
	Password    string `json:"password"`
}

// LoginRequest carries the credentials exchanged for a token.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is a partial update; omitted keys are left untouched and
// an explicit null profile_picture_url clears the picture.
type UpdateProfileRequest struct {
	FullName          *string              `json:"full_name,omitempty"`
	PhoneNumber       *string              `json:"phone_number,omitempty"`
	ProfilePictureURL types.NullableString `json:"profile_picture_url"`
}

// ChangePasswordRequest rotates the caller's password.
type ChangePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// AuthResult is returned by register and login.
type AuthResult struct {
	User  *accounts.AccountDTO `json:"user"`
	Token string               `json:"token"`
}
