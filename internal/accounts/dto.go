package accounts

import (
	"time"

	"github.com/ashasetu/ashasetu-backend/pkg/db/models"
	"github.com/google/uuid"
)

// AccountDTO is the client-facing projection; it never carries the password hash.
type AccountDTO struct {
	ID                uuid.UUID `json:"user_id"`
	FullName          string    `json:"full_name"`
	Email             string    `json:"email"`
	PhoneNumber       string    `json:"phone_number"`
	ProfilePictureURL *string   `json:"profile_picture_url"`
	IsVerified        bool      `json:"is_verified"`
	IsActive          bool      `json:"is_active"`
	IsAdmin           bool      `json:"is_admin"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

// CreateAccountDTO holds the data required by the repo to persist a new account.
type CreateAccountDTO struct {
	FullName     string
	Email        string
	PhoneNumber  string
	PasswordHash string
}

// ProfilePatch lists the columns a profile update may touch. A nil pointer means
// the field was not supplied; ClearPicture sets profile_picture_url to NULL.
type ProfilePatch struct {
	FullName          *string
	PhoneNumber       *string
	ProfilePictureURL *string
	ClearPicture      bool
}

// Empty reports whether the patch changes nothing.
func (p ProfilePatch) Empty() bool {
	return p.FullName == nil && p.PhoneNumber == nil && p.ProfilePictureURL == nil && !p.ClearPicture
}

func (p ProfilePatch) columns() map[string]any {
	cols := map[string]any{}
	if p.FullName != nil {
		cols["full_name"] = *p.FullName
	}
	if p.PhoneNumber != nil {
		cols["phone_number"] = *p.PhoneNumber
	}
	switch {
	case p.ProfilePictureURL != nil:
		cols["profile_picture_url"] = *p.ProfilePictureURL
	case p.ClearPicture:
		cols["profile_picture_url"] = nil
	}
	return cols
}

func FromModel(a *models.Account) *AccountDTO {
	if a == nil {
		return nil
	}

	var picture *string
	if a.ProfilePictureURL != nil {
		v := *a.ProfilePictureURL
		picture = &v
	}

	return &AccountDTO{
		ID:                a.ID,
		FullName:          a.FullName,
		Email:             a.Email,
		PhoneNumber:       a.PhoneNumber,
		ProfilePictureURL: picture,
		IsVerified:        a.IsVerified,
		IsActive:          a.IsActive,
		IsAdmin:           a.IsAdmin,
		CreatedAt:         a.CreatedAt,
		UpdatedAt:         a.UpdatedAt,
	}
}

func (c CreateAccountDTO) ToModel() *models.Account {
	return &models.Account{
		FullName:     c.FullName,
		Email:        c.Email,
		PhoneNumber:  c.PhoneNumber,
		PasswordHash: c.PasswordHash,
		IsVerified:   false,
		IsActive:     true,
		IsAdmin:      false,
	}
}
