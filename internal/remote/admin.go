package remote

import (
	"context"
	"net/http"
	"time"

	"storefront/internal/domain/shop"
)

// ProductAdmin は管理画面の商品一覧と削除。
type ProductAdmin interface {
	List(ctx context.Context) ([]shop.Product, error)
	Delete(ctx context.Context, productID string) error
}

// CartAdmin は管理画面から見たユーザーのカート。
type CartAdmin interface {
	ListLines(ctx context.Context, userID string) ([]shop.CartLine, error)
	RemoveLine(ctx context.Context, userID, productID string) error
}

var (
	_ ProductAdmin = (*AdminProducts)(nil)
	_ CartAdmin    = (*AdminCarts)(nil)
)

type AdminProducts struct {
	c *Client
}

type productsResponse struct {
	Items []shop.Product `json:"items"`
}

func (s *AdminProducts) List(ctx context.Context) ([]shop.Product, error) {
	var out productsResponse
	if err := s.c.do(ctx, http.MethodGet, "/admin/products", true, nil, &out); err != nil {
		return nil, err
	}
	for i := range out.Items {
		out.Items[i].Price = shop.NormalizePrice(out.Items[i].Price)
	}
	return out.Items, nil
}

func (s *AdminProducts) Delete(ctx context.Context, productID string) error {
	return s.c.do(ctx, http.MethodDelete, "/admin/products/"+escape(productID), true, nil, nil)
}

// Create は商品を登録する（シード用）。
func (s *AdminProducts) Create(ctx context.Context, p shop.Product) (shop.Product, error) {
	var out shop.Product
	if err := s.c.do(ctx, http.MethodPost, "/admin/products", true, p, &out); err != nil {
		return shop.Product{}, err
	}
	out.Price = shop.NormalizePrice(out.Price)
	return out, nil
}

type AdminCarts struct {
	c *Client
}

func (s *AdminCarts) ListLines(ctx context.Context, userID string) ([]shop.CartLine, error) {
	var out cartResponse
	if err := s.c.do(ctx, http.MethodGet, "/admin/carts/"+escape(userID), true, nil, &out); err != nil {
		return nil, err
	}
	return normalizeLines(out.Items), nil
}

func (s *AdminCarts) RemoveLine(ctx context.Context, userID, productID string) error {
	return s.c.do(ctx, http.MethodDelete, "/admin/carts/"+escape(userID)+"/items/"+escape(productID), true, nil, nil)
}

// AuditEntry は管理者操作ログの1件。
type AuditEntry struct {
	ID           int64     `json:"id"`
	ActorUserID  string    `json:"actor_user_id"`
	Action       string    `json:"action"`
	ResourceType string    `json:"resource_type"`
	ResourceID   string    `json:"resource_id"`
	CreatedAt    time.Time `json:"created_at"`
}

type AdminAuditLogs struct {
	c *Client
}

type auditLogsResponse struct {
	Items []AuditEntry `json:"items"`
}

// List は新しい順の直近分。
func (s *AdminAuditLogs) List(ctx context.Context) ([]AuditEntry, error) {
	var out auditLogsResponse
	if err := s.c.do(ctx, http.MethodGet, "/admin/audit-logs", true, nil, &out); err != nil {
		return nil, err
	}
	return out.Items, nil
}
