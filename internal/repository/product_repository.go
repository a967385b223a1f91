package repository

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
)

var (
	ErrNotFound = errors.New("not found")
	// 一意制約違反（同じ明細・お気に入りの二重登録）
	ErrConflict = errors.New("conflict")
)

// 商品の永続化（保存・取得）だけを約束。
type ProductRepository interface {
	//作成日時の昇順（同時刻はID順）で全件
	ListAll(ctx context.Context) ([]model.Product, error)
	FindByID(ctx context.Context, id string) (model.Product, error)
	//見つからないIDは結果に含めない
	FindByIDs(ctx context.Context, ids []string) (map[string]model.Product, error)

	Create(ctx context.Context, p model.Product) (model.Product, error)
	SoftDelete(ctx context.Context, id string) error
}
