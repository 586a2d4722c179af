package users

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"userhub-backend/pkg/db/models"
	"userhub-backend/pkg/pagination"
)

// ErrNotFound is returned when a lookup matches no account.
var ErrNotFound = errors.New("user not found")

// Repository exposes account persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a users repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new account and returns the persisted model. Unique index
// violations surface as the driver's error, left to the caller to classify.
func (r *Repository) Create(ctx context.Context, dto CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// FindByID loads an account by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	err := r.db.WithContext(ctx).First(&user, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByContact retrieves the account whose email or phone matches either
// provided value. Empty inputs are skipped; no match returns ErrNotFound.
func (r *Repository) FindByContact(ctx context.Context, email, phone string) (*models.User, error) {
	query := r.db.WithContext(ctx).Model(&models.User{})

	switch {
	case email != "" && phone != "":
		query = query.Where("email = ? OR phone = ?", email, phone)
	case email != "":
		query = query.Where("email = ?", email)
	case phone != "":
		query = query.Where("phone = ?", phone)
	default:
		return nil, ErrNotFound
	}

	var user models.User
	err := query.First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Update applies the non-nil fields and returns the refreshed model.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, fields UpdateFields) (*models.User, error) {
	updates := map[string]any{}
	if fields.Name != nil {
		updates["name"] = *fields.Name
	}
	if fields.Email != nil {
		updates["email"] = *fields.Email
	}
	if fields.Phone != nil {
		updates["phone"] = *fields.Phone
	}
	if fields.Avatar != nil {
		updates["avatar"] = *fields.Avatar
	}
	if fields.Role != nil {
		updates["role"] = *fields.Role
	}

	if len(updates) > 0 {
		result := r.db.WithContext(ctx).
			Model(&models.User{}).
			Where("id = ?", id).
			Updates(updates)
		if result.Error != nil {
			return nil, result.Error
		}
		if result.RowsAffected == 0 {
			return nil, ErrNotFound
		}
	}

	return r.FindByID(ctx, id)
}

// UpdatePasswordHash swaps the stored credential for an account.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	result := r.db.WithContext(ctx).
		Model(&models.User{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the account row.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns one page of accounts plus the total row count. Ordering is
// stable across pages: creation time, then id as a tiebreaker.
func (r *Repository) List(ctx context.Context, params pagination.Params) ([]models.User, int64, error) {
	params = params.Normalize()

	var total int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.User
	err := r.db.WithContext(ctx).
		Order("created_at ASC, id ASC").
		Limit(params.Limit).
		Offset(params.Offset()).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	return rows, total, nil
}
