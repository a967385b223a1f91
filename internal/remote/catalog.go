package remote

import (
	"context"
	"net/http"

	"storefront/internal/domain/shop"
)

// CatalogService は商品の表示用データを返す。金額はここで小数2桁に揃える。
type CatalogService interface {
	Lookup(ctx context.Context, productID string) (shop.Product, error)
}

var _ CatalogService = (*Catalog)(nil)

type Catalog struct {
	c *Client
}

func (s *Catalog) Lookup(ctx context.Context, productID string) (shop.Product, error) {
	var out shop.Product
	if err := s.c.do(ctx, http.MethodGet, "/products/"+escape(productID), false, nil, &out); err != nil {
		return shop.Product{}, err
	}
	out.Price = shop.NormalizePrice(out.Price)
	return out, nil
}
