package repository

import (
	"context"

	"gorm.io/gorm"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type FavoriteGormRepository struct {
	db *gorm.DB
}

var _ repo.FavoriteRepository = (*FavoriteGormRepository)(nil)

// DI
func NewFavoriteGormRepository(db *gorm.DB) *FavoriteGormRepository {
	return &FavoriteGormRepository{db: db}
}

func (r *FavoriteGormRepository) ListByUser(ctx context.Context, userID string) ([]model.Favorite, error) {
	var favs []model.Favorite
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at asc").
		Order("id asc").
		Find(&favs).Error; err != nil {
		return []model.Favorite{}, err
	}
	return favs, nil
}

func (r *FavoriteGormRepository) Create(ctx context.Context, f model.Favorite) error {
	return translate(r.db.WithContext(ctx).Create(&f).Error)
}

func (r *FavoriteGormRepository) Delete(ctx context.Context, userID, productID string) error {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&model.Favorite{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
