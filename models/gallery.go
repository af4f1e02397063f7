package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// 作品墙记录类型，与前端 Journey 标签页保持一致
const GalleryTypeMasterpiece = "masterpiece"

// GalleryRecord 每次迭代成功后写入个人作品墙的一条记录
type GalleryRecord struct {
	ID        string      `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID    string      `gorm:"type:varchar(128);index" json:"userId"`
	ImageURL  string      `gorm:"type:text" json:"imageUrl"`
	Type      string      `gorm:"type:varchar(32)" json:"type"`
	Prompt    string      `json:"prompt"`
	Meta      GalleryMeta `gorm:"type:json" json:"meta"`
	CreatedAt time.Time   `json:"createdAt"`
}

func (GalleryRecord) TableName() string {
	return "gallery_record"
}

// GalleryMeta 作品墙展示需要的全部信息
type GalleryMeta struct {
	SeriesID         string           `json:"seriesId"`
	Step             int              `json:"step"`
	Matches          MatchList        `json:"matches"`
	AudioURL         string           `json:"audioUrl,omitempty"`
	KidScript        string           `json:"kidScript"`
	ParentAnalysis   string           `json:"parentAnalysis"`
	CoachingFeedback CoachingFeedback `json:"coachingFeedback"`
}

func (m GalleryMeta) Value() (driver.Value, error) {
	return json.Marshal(m)
}

func (m *GalleryMeta) Scan(value interface{}) error {
	return scanJSON(value, m)
}

// SaveGalleryRecord 按 ID 幂等写入（队列重试时重复投递不会产生多条）
func SaveGalleryRecord(db *gorm.DB, rec *GalleryRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(rec).Error
}

func ListGalleryRecords(db *gorm.DB, userID string, limit int) ([]GalleryRecord, error) {
	var recs []GalleryRecord
	err := db.Where("user_id = ?", userID).Order("created_at DESC").Limit(limit).Find(&recs).Error
	return recs, err
}
