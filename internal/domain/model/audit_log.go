package model

import "time"

// 商品削除、カート明細の削除、サイト設定の更新など。
type AuditAction string

const (
	//商品を登録した操作。
	AuditActionCreateProduct AuditAction = "CREATE_PRODUCT"
	//商品を削除した操作。
	AuditActionDeleteProduct AuditAction = "DELETE_PRODUCT"
	//ユーザーのカート明細を削除した操作。
	AuditActionDeleteCartItem AuditAction = "DELETE_CART_ITEM"
	//サイト設定を更新した操作。
	AuditActionUpdateSiteSetting AuditAction = "UPDATE_SITE_SETTING"
)

// 何に対する操作か
type AuditResourceType string

const (
	//商品に対する操作。
	AuditResourceProduct AuditResourceType = "product"

	//カート明細に対する操作。
	AuditResourceCartItem AuditResourceType = "cart_item"

	//サイト設定に対する操作。
	AuditResourceSiteSetting AuditResourceType = "site_setting"
)

// 監査ログ（管理者操作ログ）。
// 「誰が」「何を」「どの対象に」「どう変えたか」を残す。
type AuditLog struct {
	ID int64 `gorm:"primaryKey;autoIncrement" json:"id"`

	//操作した管理者のID（JWTのsub）。
	ActorUserID string `gorm:"type:varchar(64);not null;index" json:"actor_user_id"`

	Action AuditAction `gorm:"type:varchar(50);not null;index" json:"action"`

	ResourceType AuditResourceType `gorm:"type:varchar(50);not null;index" json:"resource_type"`

	//対象のID。カート明細は "user_id/product_id"。
	ResourceID string `gorm:"type:varchar(128);not null;index" json:"resource_id"`

	//JSON文字列で保存する。
	BeforeJSON string `gorm:"type:text" json:"before_json"`

	AfterJSON string `gorm:"type:text" json:"after_json"`

	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
}
