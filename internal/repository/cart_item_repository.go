package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// ユーザーのカート明細の永続化。
type CartItemRepository interface {
	//作成日時の昇順
	ListByUser(ctx context.Context, userID string) ([]model.CartItem, error)
	Find(ctx context.Context, userID, productID string) (model.CartItem, error)

	//同じ商品の明細があれば ErrConflict
	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, userID, productID string, quantity int64) (model.CartItem, error)
	Delete(ctx context.Context, userID, productID string) error
	DeleteAllByUser(ctx context.Context, userID string) error
}
