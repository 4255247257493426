package accounts

import (
	"context"
	"errors"
	"time"

	"github.com/ashasetu/ashasetu-backend/pkg/db/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Repository exposes account persistence operations.
type Repository struct {
	db  *gorm.DB
	now func() time.Time
}

// NewRepository constructs an accounts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db, now: time.Now}
}

// Create inserts a new account and returns the persisted model. Unique
// violations are returned as-is for the caller to classify.
func (r *Repository) Create(ctx context.Context, dto CreateAccountDTO) (*models.Account, error) {
	account := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		return nil, err
	}
	return account, nil
}

// FindByID loads an account by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).First(&account, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByEmail retrieves the account matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByPhone retrieves the account matching the provided phone number.
func (r *Repository) FindByPhone(ctx context.Context, phone string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where("phone_number = ?", phone).First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// FindByEmailOrPhone returns any account holding either identifier.
func (r *Repository) FindByEmailOrPhone(ctx context.Context, email, phone string) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).
		Where("email = ? OR phone_number = ?", email, phone).
		First(&account).Error; err != nil {
		return nil, err
	}
	return &account, nil
}

// PhoneTakenByOther reports whether an account other than id holds phone.
func (r *Repository) PhoneTakenByOther(ctx context.Context, phone string, id uuid.UUID) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("phone_number = ? AND id <> ?", phone, id).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ApplyPatch writes only the present columns plus updated_at in a single UPDATE
// and returns the fresh row. A missing row yields gorm.ErrRecordNotFound.
func (r *Repository) ApplyPatch(ctx context.Context, id uuid.UUID, patch ProfilePatch) (*models.Account, error) {
	cols := patch.columns()
	cols["updated_at"] = r.now().UTC()

	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumns(cols)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return r.FindByID(ctx, id)
}

// UpdatePasswordHash replaces the stored digest and bumps updated_at.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	if hash == "" {
		return errors.New("password hash is required")
	}
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"password_hash": hash,
			"updated_at":    r.now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// SetActive toggles the is_active flag; used by operators and tests.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	res := r.db.WithContext(ctx).
		Model(&models.Account{}).
		Where("id = ?", id).
		UpdateColumns(map[string]any{
			"is_active":  active,
			"updated_at": r.now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
