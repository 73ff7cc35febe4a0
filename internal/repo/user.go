package repo

import (
	"context"

	"github.com/wasteless/marketplace/internal/models"
)

func (r *GormRepo) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := r.DB.WithContext(ctx).First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *GormRepo) AddressByUser(ctx context.Context, userID uint) (*models.Address, error) {
	var address models.Address
	if err := r.DB.WithContext(ctx).Where("user_id = ?", userID).First(&address).Error; err != nil {
		return nil, err
	}
	return &address, nil
}

func (r *GormRepo) UpsertAddress(ctx context.Context, address *models.Address) error {
	var existing models.Address
	err := r.DB.WithContext(ctx).Where("user_id = ?", address.UserID).First(&existing).Error
	if err == nil {
		address.ID = existing.ID
		return r.DB.WithContext(ctx).Save(address).Error
	}
	return r.DB.WithContext(ctx).Create(address).Error
}

func (r *GormRepo) ActivateUser(ctx context.Context, userID uint) (bool, error) {
	res := r.DB.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", userID).
		Update("is_active", true)
	return res.RowsAffected == 1, res.Error
}
