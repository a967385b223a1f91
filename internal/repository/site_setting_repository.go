package repository

import (
	"context"

	"storefront/internal/domain/model"
)

// サイト設定（key/value）の永続化。
type SiteSettingRepository interface {
	List(ctx context.Context) ([]model.SiteSetting, error)
	//未設定ならErrNotFound
	Find(ctx context.Context, key string) (model.SiteSetting, error)
	Upsert(ctx context.Context, key, value string) error
}
