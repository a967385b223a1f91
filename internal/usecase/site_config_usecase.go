package usecase

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

// SiteConfigUsecase は /site-config（公開）と /admin/site-config の業務ロジック。
type SiteConfigUsecase struct {
	settingRepo repo.SiteSettingRepository
	tx          repo.TransactionManager
}

func NewSiteConfigUsecase(settingRepo repo.SiteSettingRepository, tx repo.TransactionManager) *SiteConfigUsecase {
	return &SiteConfigUsecase{settingRepo: settingRepo, tx: tx}
}

// SiteConfigResponse はロゴ未設定なら site_logo_url を省く。
type SiteConfigResponse struct {
	SiteName    string  `json:"site_name"`
	SiteLogoURL *string `json:"site_logo_url,omitempty"`
}

func (u *SiteConfigUsecase) Get(ctx context.Context) (SiteConfigResponse, error) {
	settings, err := u.settingRepo.List(ctx)
	if err != nil {
		return SiteConfigResponse{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	out := SiteConfigResponse{SiteName: model.DefaultSiteName}
	for _, s := range settings {
		switch s.Key {
		case model.SiteSettingName:
			if s.Value != "" {
				out.SiteName = s.Value
			}
		case model.SiteSettingLogoURL:
			if s.Value != "" {
				v := s.Value
				out.SiteLogoURL = &v
			}
		}
	}
	return out, nil
}

// Set は1キーだけ書き換える。site_logo_url は空文字で未設定に戻る。
func (u *SiteConfigUsecase) Set(ctx context.Context, adminUserID, key, value string) error {
	if err := requireUser(adminUserID); err != nil {
		return err
	}
	if !model.IsSiteSettingKey(key) {
		return NewHTTPError(http.StatusBadRequest, "unknown key")
	}
	value = strings.TrimSpace(value)
	if key == model.SiteSettingName && value == "" {
		return NewHTTPError(http.StatusBadRequest, "site_name required")
	}

	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		var before string
		prev, err := r.SiteSettings().Find(ctx, key)
		switch {
		case err == nil:
			before = prev.Value
		case errors.Is(err, repo.ErrNotFound):
		default:
			return err
		}

		if err := r.SiteSettings().Upsert(ctx, key, value); err != nil {
			return err
		}

		return r.AuditLogs().Create(ctx, model.AuditLog{
			ActorUserID:  adminUserID,
			Action:       model.AuditActionUpdateSiteSetting,
			ResourceType: model.AuditResourceSiteSetting,
			ResourceID:   key,
			BeforeJSON:   toJSON(map[string]string{key: before}),
			AfterJSON:    toJSON(map[string]string{key: value}),
			CreatedAt:    time.Now(),
		})
	})
	return passthrough(err)
}
