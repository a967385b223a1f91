// Package shop はクライアント側（同期コア）で扱う値型をまとめる。
package shop

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// 金額は小数2桁に揃える
const PriceScale = 2

// カートの明細。同一商品は1行のみ（productIDが識別キー）。
type CartLine struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	ImageRef  string          `json:"image_ref,omitempty"`
}

// Key は明細の識別キー
func (l CartLine) Key() string { return l.ProductID }

// Subtotal は単価×数量
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Valid は数量が正の整数で商品IDがあるか
func (l CartLine) Valid() bool {
	return strings.TrimSpace(l.ProductID) != "" && l.Quantity >= 1
}

// カタログ上の商品（表示用データ）
type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	ImageRef  string          `json:"image_ref,omitempty"`
	Stock     int64           `json:"stock"`
	IsActive  bool            `json:"is_active"`
	CreatedAt time.Time       `json:"created_at"`
}

// Key は商品の識別キー
func (p Product) Key() string { return p.ID }

// LineFor は商品から数量qtyの明細を作る。
func LineFor(p Product, qty int) CartLine {
	return CartLine{
		ProductID: p.ID,
		Quantity:  qty,
		Name:      p.Name,
		UnitPrice: NormalizePrice(p.Price),
		ImageRef:  p.ImageRef,
	}
}

// サイト設定。キャッシュは読み取り専用で、書き込みは常にRemote Storeへ。
type SiteConfig struct {
	SiteName    string  `json:"site_name"`
	SiteLogoURL *string `json:"site_logo_url,omitempty"`
}

// 取得に一度も成功していないときに返す値
var DefaultSiteConfig = SiteConfig{SiteName: "Storefront"}

// LogoURL はロゴURL（未設定なら空文字）
func (c SiteConfig) LogoURL() string {
	if c.SiteLogoURL == nil {
		return ""
	}
	return *c.SiteLogoURL
}

// サイト設定のキー
const (
	SiteConfigKeyName = "site_name"
	SiteConfigKeyLogo = "site_logo_url"
)

// NormalizePrice は金額を固定小数（2桁）に揃える。
func NormalizePrice(d decimal.Decimal) decimal.Decimal {
	return d.Round(PriceScale)
}
