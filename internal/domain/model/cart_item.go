package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細
// ユーザーごとに同一商品は1行（user_id, product_id でユニーク）。
// 追加時点の価格）を必ず保存。
type CartItem struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID            string          `gorm:"type:varchar(64);not null;uniqueIndex:idx_cart_items_user_product" json:"user_id"`
	ProductID         string          `gorm:"type:varchar(36);not null;uniqueIndex:idx_cart_items_user_product" json:"product_id"`
	Quantity          int64           `gorm:"not null" json:"quantity"`
	UnitPriceSnapshot decimal.Decimal `gorm:"type:numeric(12,2);not null;column:unit_price_snapshot" json:"unit_price_snapshot"`
	CreatedAt         time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
