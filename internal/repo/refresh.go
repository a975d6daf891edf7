package repo

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/nurbakyt/phone_app/internal/models"
)

// StoreRefresh persists a newly issued refresh token keyed to its owner.
// A duplicate token value comes back as ErrConflict.
func (r *GormRepo) StoreRefresh(ctx context.Context, token string, userID uint) error {
	row := models.RefreshToken{
		Token:  token,
		UserID: userID,
	}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (r *GormRepo) FindRefresh(ctx context.Context, token string) (*models.RefreshToken, error) {
	var row models.RefreshToken
	if err := r.DB.WithContext(ctx).Where("token = ?", token).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &row, nil
}

// RevokeRefresh deletes the ledger row for the given token value. The atomic
// delete is the only synchronization needed for concurrent logout/refresh.
func (r *GormRepo) RevokeRefresh(ctx context.Context, token string) error {
	result := r.DB.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *GormRepo) RevokeAllForUser(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error
}

// PruneExpiredBefore deletes ledger rows issued before the cutoff. Used by the
// background sweeper to bound ledger growth; validity itself is enforced at
// refresh time.
func (r *GormRepo) PruneExpiredBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result := r.DB.WithContext(ctx).Where("created_at < ?", cutoff).Delete(&models.RefreshToken{})
	return result.RowsAffected, result.Error
}
