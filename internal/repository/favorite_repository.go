package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type FavoriteRepository interface {
	ListByUser(ctx context.Context, userID string) ([]model.Favorite, error)
	Create(ctx context.Context, f model.Favorite) error
	Delete(ctx context.Context, userID, productID string) error
}
