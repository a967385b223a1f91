package model

import "time"

// サイト設定の1キー分（site_name / site_logo_url）。
type SiteSetting struct {
	Key       string    `gorm:"type:varchar(64);primaryKey" json:"key"`
	Value     string    `gorm:"type:text;not null" json:"value"`
	UpdatedAt time.Time `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

const (
	SiteSettingName    = "site_name"
	SiteSettingLogoURL = "site_logo_url"
)

// 既定のサイト名（未設定時）
const DefaultSiteName = "Storefront"

// IsSiteSettingKey は書き込み可能なキーか
func IsSiteSettingKey(key string) bool {
	return key == SiteSettingName || key == SiteSettingLogoURL
}
