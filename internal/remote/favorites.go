package remote

import (
	"context"
	"net/http"
)

// FavoriteStore はログインユーザーのお気に入りに対するRemote Store操作。
type FavoriteStore interface {
	List(ctx context.Context) ([]string, error)
	Create(ctx context.Context, productID string) error
	Remove(ctx context.Context, productID string) error
}

var _ FavoriteStore = (*Favorites)(nil)

type Favorites struct {
	c *Client
}

type favoritesResponse struct {
	ProductIDs []string `json:"product_ids"`
}

type createFavoriteRequest struct {
	ProductID string `json:"product_id"`
}

func (s *Favorites) List(ctx context.Context) ([]string, error) {
	var out favoritesResponse
	if err := s.c.do(ctx, http.MethodGet, "/favorites", true, nil, &out); err != nil {
		return nil, err
	}
	return out.ProductIDs, nil
}

func (s *Favorites) Create(ctx context.Context, productID string) error {
	return s.c.do(ctx, http.MethodPost, "/favorites", true, createFavoriteRequest{ProductID: productID}, nil)
}

func (s *Favorites) Remove(ctx context.Context, productID string) error {
	return s.c.do(ctx, http.MethodDelete, "/favorites/"+escape(productID), true, nil, nil)
}
