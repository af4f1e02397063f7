package models

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const HistoryLimit = 50

var (
	ErrSeriesNotFound  = errors.New("creative series not found")
	ErrVersionConflict = errors.New("creative series was modified concurrently")
)

// InitDB 打开 MySQL 连接池并建表
func InitDB(dsn string) (*gorm.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("打开数据库失败: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}

	gormDB, err := gorm.Open(mysql.New(mysql.Config{Conn: db}), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("GORM 初始化失败: %w", err)
	}
	if err := Migrate(gormDB); err != nil {
		return nil, err
	}
	return gormDB, nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&CreativeSeries{}, &Chapter{}, &GalleryRecord{}); err != nil {
		return fmt.Errorf("自动建表失败: %w", err)
	}
	return nil
}

// SeriesRepo 基于 GORM 的系列存储。章节单独成表，以 (series_id, step) 为主键，只插入不更新
type SeriesRepo struct {
	DB *gorm.DB
}

func NewSeriesRepo(db *gorm.DB) *SeriesRepo {
	return &SeriesRepo{DB: db}
}

func chaptersByStep(db *gorm.DB) *gorm.DB {
	return db.Order("step ASC")
}

func (r *SeriesRepo) GetSeries(ctx context.Context, id string) (*CreativeSeries, error) {
	var s CreativeSeries
	err := r.DB.WithContext(ctx).Preload("Chapters", chaptersByStep).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSeriesNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSeries 以 Version 做 compare-and-swap：
// Version == 0 视为新建，否则只有库中版本一致才会更新；成功后 s.Version 自增
func (r *SeriesRepo) SaveSeries(ctx context.Context, s *CreativeSeries) error {
	now := time.Now()
	next := s.Version + 1

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if s.Version == 0 {
			row := *s
			row.Chapters = nil
			row.Version = next
			row.UpdatedAt = now
			if row.CreatedAt.IsZero() {
				row.CreatedAt = now
			}
			if err := tx.Omit(clause.Associations).Create(&row).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return ErrVersionConflict
				}
				return err
			}
		} else {
			res := tx.Model(&CreativeSeries{}).
				Where("id = ? AND version = ?", s.ID, s.Version).
				Updates(map[string]interface{}{
					"title":        s.Title,
					"status":       s.Status,
					"current_step": s.CurrentStep,
					"context":      s.Context,
					"version":      next,
					"updated_at":   now,
				})
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				return ErrVersionConflict
			}
		}

		if len(s.Chapters) == 0 {
			return nil
		}
		chapters := make([]Chapter, len(s.Chapters))
		copy(chapters, s.Chapters)
		for i := range chapters {
			chapters[i].SeriesID = s.ID
		}
		// 已存在的章节保持原样
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&chapters).Error
	})
	if err != nil {
		return err
	}

	s.Version = next
	s.UpdatedAt = now
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	return nil
}

// GetUserActiveSeries 返回用户最近更新的进行中系列，没有时返回 ErrSeriesNotFound
func (r *SeriesRepo) GetUserActiveSeries(ctx context.Context, userID string) (*CreativeSeries, error) {
	var s CreativeSeries
	err := r.DB.WithContext(ctx).
		Preload("Chapters", chaptersByStep).
		Where("user_id = ? AND status = ?", userID, SeriesStatusActive).
		Order("updated_at DESC").
		First(&s).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrSeriesNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// GetUserCreativeHistory 按更新时间倒序返回用户的全部系列
func (r *SeriesRepo) GetUserCreativeHistory(ctx context.Context, userID string) ([]CreativeSeries, error) {
	var list []CreativeSeries
	err := r.DB.WithContext(ctx).
		Preload("Chapters", chaptersByStep).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(HistoryLimit).
		Find(&list).Error
	return list, err
}
