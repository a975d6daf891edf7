package repo

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/nurbakyt/phone_app/internal/models"
)

// CreateUser inserts a new user. The duplicate pre-checks are an optimization
// only; the unique constraints on username and email are the real guard, so a
// concurrent insert still comes back as a duplicate error.
func (r *GormRepo) CreateUser(ctx context.Context, u *models.User) error {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", u.Username).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateUsername
	}

	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", u.Email).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return ErrDuplicateEmail
	}

	if err := r.DB.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return r.classifyDuplicate(ctx, u)
		}
		return err
	}
	return nil
}

// classifyDuplicate re-runs the existence checks after a raced insert hit the
// unique constraint, so the caller still learns which field conflicted.
func (r *GormRepo) classifyDuplicate(ctx context.Context, u *models.User) error {
	var count int64
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("username = ?", u.Username).Count(&count).Error; err == nil && count > 0 {
		return ErrDuplicateUsername
	}
	if err := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("email = ?", u.Email).Count(&count).Error; err == nil && count > 0 {
		return ErrDuplicateEmail
	}
	return ErrDuplicateUsername
}

func (r *GormRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).Where("username = ?", username).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) FindUserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).Order("id ASC").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *GormRepo) UpdateUserProfile(ctx context.Context, id uint, firstName, lastName string) (*models.User, error) {
	user, err := r.FindUserByID(ctx, id)
	if err != nil {
		return nil, err
	}
	user.FirstName = firstName
	user.LastName = lastName
	if err := r.DB.WithContext(ctx).Save(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

// DeleteUser removes the user and revokes every refresh token it owns.
func (r *GormRepo) DeleteUser(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Delete(&models.User{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return ErrNotFound
		}
		return tx.Where("user_id = ?", id).Delete(&models.RefreshToken{}).Error
	})
}
