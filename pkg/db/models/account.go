package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Account is the only persistent identity entity.
type Account struct {
	ID                uuid.UUID `gorm:"type:uuid;primaryKey"`
	FullName          string    `gorm:"column:full_name;not null"`
	Email             string    `gorm:"column:email;type:text;not null;uniqueIndex:accounts_email_key"`
	PhoneNumber       string    `gorm:"column:phone_number;type:text;not null;uniqueIndex:accounts_phone_number_key"`
	PasswordHash      string    `gorm:"column:password_hash;not null"`
	ProfilePictureURL *string   `gorm:"column:profile_picture_url"`
	IsVerified        bool      `gorm:"column:is_verified;not null;default:false"`
	IsActive          bool      `gorm:"column:is_active;not null;default:true"`
	IsAdmin           bool      `gorm:"column:is_admin;not null;default:false"`
	CreatedAt         time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time `gorm:"column:updated_at;autoUpdateTime"`
}

func (Account) TableName() string {
	return "accounts"
}

// BeforeCreate assigns the identifier when the caller left it empty.
func (a *Account) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
