package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storefront/internal/domain/model"
	repo "storefront/internal/repository"
)

type SiteSettingGormRepository struct {
	db *gorm.DB
}

var _ repo.SiteSettingRepository = (*SiteSettingGormRepository)(nil)

// DI
func NewSiteSettingGormRepository(db *gorm.DB) *SiteSettingGormRepository {
	return &SiteSettingGormRepository{db: db}
}

func (r *SiteSettingGormRepository) List(ctx context.Context) ([]model.SiteSetting, error) {
	var settings []model.SiteSetting
	if err := r.db.WithContext(ctx).Order("key asc").Find(&settings).Error; err != nil {
		return []model.SiteSetting{}, err
	}
	return settings, nil
}

func (r *SiteSettingGormRepository) Find(ctx context.Context, key string) (model.SiteSetting, error) {
	var s model.SiteSetting
	if err := r.db.WithContext(ctx).Where("key = ?", key).First(&s).Error; err != nil {
		return model.SiteSetting{}, translate(err)
	}
	return s, nil
}

// key があれば value を上書き
func (r *SiteSettingGormRepository) Upsert(ctx context.Context, key, value string) error {
	s := model.SiteSetting{Key: key, Value: value}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(&s).Error
}
