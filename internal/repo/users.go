package repo

import (
	"context"

	"github.com/adventskalender/backend/internal/models"
)

// FindUserByUsername returns the single user row matching username.
// Zero or multiple matches both report ErrUserNotFound; the caller
// cannot tell the cases apart on purpose.
func (r *GormRepo) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var users []models.User
	if err := r.DB.WithContext(ctx).
		Where("username = ?", username).
		Limit(2).
		Find(&users).Error; err != nil {
		return nil, err
	}
	if len(users) != 1 {
		return nil, ErrUserNotFound
	}
	return &users[0], nil
}

func (r *GormRepo) UpdatePasswordHash(ctx context.Context, userID uint, passwordHash string) error {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("password_hash", passwordHash)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrUserNotFound
	}
	return nil
}
