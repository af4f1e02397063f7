package service

import (
	"context"

	"MagicMentor-server/models"

	"gorm.io/gorm"
)

// DBGalleryPublisher 未配置 Redis 时直接同步写库
type DBGalleryPublisher struct {
	DB *gorm.DB
}

func NewDBGalleryPublisher(db *gorm.DB) *DBGalleryPublisher {
	return &DBGalleryPublisher{DB: db}
}

func (p *DBGalleryPublisher) Publish(ctx context.Context, rec models.GalleryRecord) error {
	return models.SaveGalleryRecord(p.DB.WithContext(ctx), &rec)
}
