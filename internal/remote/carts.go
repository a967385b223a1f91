package remote

import (
	"context"
	"net/http"

	"storefront/internal/domain/shop"
)

// CartStore はログインユーザーのカートに対するRemote Store操作。
type CartStore interface {
	List(ctx context.Context) ([]shop.CartLine, error)
	Create(ctx context.Context, line shop.CartLine) (shop.CartLine, error)
	Update(ctx context.Context, productID string, quantity int) (shop.CartLine, error)
	Remove(ctx context.Context, productID string) error
	Clear(ctx context.Context) error
}

var _ CartStore = (*Carts)(nil)

type Carts struct {
	c *Client
}

type cartResponse struct {
	Items []shop.CartLine `json:"items"`
}

type createCartLineRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type updateCartLineRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Carts) List(ctx context.Context) ([]shop.CartLine, error) {
	var out cartResponse
	if err := s.c.do(ctx, http.MethodGet, "/cart", true, nil, &out); err != nil {
		return nil, err
	}
	return normalizeLines(out.Items), nil
}

func (s *Carts) Create(ctx context.Context, line shop.CartLine) (shop.CartLine, error) {
	var out shop.CartLine
	req := createCartLineRequest{ProductID: line.ProductID, Quantity: line.Quantity}
	if err := s.c.do(ctx, http.MethodPost, "/cart/items", true, req, &out); err != nil {
		return shop.CartLine{}, err
	}
	return normalizeLine(out), nil
}

// Update は数量を絶対値で設定する。0はサーバ側で削除扱い（空の明細が返る）。
func (s *Carts) Update(ctx context.Context, productID string, quantity int) (shop.CartLine, error) {
	var out shop.CartLine
	req := updateCartLineRequest{Quantity: quantity}
	if err := s.c.do(ctx, http.MethodPatch, "/cart/items/"+escape(productID), true, req, &out); err != nil {
		return shop.CartLine{}, err
	}
	return normalizeLine(out), nil
}

func (s *Carts) Remove(ctx context.Context, productID string) error {
	return s.c.do(ctx, http.MethodDelete, "/cart/items/"+escape(productID), true, nil, nil)
}

func (s *Carts) Clear(ctx context.Context) error {
	return s.c.do(ctx, http.MethodDelete, "/cart", true, nil, nil)
}

func normalizeLine(l shop.CartLine) shop.CartLine {
	l.UnitPrice = shop.NormalizePrice(l.UnitPrice)
	return l
}

func normalizeLines(ls []shop.CartLine) []shop.CartLine {
	out := make([]shop.CartLine, 0, len(ls))
	for _, l := range ls {
		out = append(out, normalizeLine(l))
	}
	return out
}
