package remote

import (
	"context"
	"net/http"

	"storefront/internal/domain/shop"
)

// SiteConfigStore はサイト設定の読み取り（全体）と書き込み（1キー）。
type SiteConfigStore interface {
	Get(ctx context.Context) (shop.SiteConfig, error)
	Set(ctx context.Context, key, value string) error
}

var _ SiteConfigStore = (*SiteConfig)(nil)

type SiteConfig struct {
	c *Client
}

type setSiteConfigRequest struct {
	Value string `json:"value"`
}

// Get は公開APIなのでトークン不要。
func (s *SiteConfig) Get(ctx context.Context) (shop.SiteConfig, error) {
	var out shop.SiteConfig
	if err := s.c.do(ctx, http.MethodGet, "/site-config", false, nil, &out); err != nil {
		return shop.SiteConfig{}, err
	}
	return out, nil
}

func (s *SiteConfig) Set(ctx context.Context, key, value string) error {
	return s.c.do(ctx, http.MethodPut, "/admin/site-config/"+escape(key), true, setSiteConfigRequest{Value: value}, nil)
}
