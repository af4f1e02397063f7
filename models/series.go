package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

type SeriesStatus string

// 系列状态：active -> completed，completed 为终态
const (
	SeriesStatusActive    SeriesStatus = "active"
	SeriesStatusCompleted SeriesStatus = "completed"
)

const DefaultSeriesTitle = "My Masterpiece"

// CreativeSeries 一个孩子围绕同一幅作品的多轮迭代辅导会话
type CreativeSeries struct {
	ID          string        `gorm:"primaryKey;type:varchar(64)" json:"id"`
	UserID      string        `gorm:"type:varchar(128);index:idx_series_user_status" json:"userId"`
	Title       string        `json:"title"`
	Status      SeriesStatus  `gorm:"type:varchar(16);index:idx_series_user_status" json:"status"`
	CurrentStep int           `json:"currentStep"`
	Context     SeriesContext `gorm:"type:json" json:"context"`
	Chapters    []Chapter     `gorm:"foreignKey:SeriesID;references:ID;constraint:OnDelete:CASCADE" json:"chapters"`
	// Version 乐观锁版本号，每次成功保存 +1
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `gorm:"index" json:"updatedAt"`
}

func (CreativeSeries) TableName() string {
	return "creative_series"
}

// SeriesContext 跨迭代滚动的上下文
type SeriesContext struct {
	OriginalGoal           string `json:"originalGoal,omitempty"`
	CurrentVisualDiagnosis string `json:"currentVisualDiagnosis,omitempty"`
	LastAdvice             string `json:"lastAdvice,omitempty"`
	ArtStyle               string `json:"artStyle,omitempty"`
}

// Chapter 一次迭代的记录，写入后不可修改
type Chapter struct {
	SeriesID           string           `gorm:"primaryKey;type:varchar(64)" json:"-"`
	Step               int              `gorm:"primaryKey;autoIncrement:false" json:"step"`
	UserImageURL       string           `gorm:"type:text" json:"userImageUrl"`
	CoachingFeedback   CoachingFeedback `gorm:"type:json" json:"coachingFeedback"`
	MasterpieceMatches MatchList        `gorm:"type:json" json:"masterpieceMatches"`
	AudioURL           string           `gorm:"type:text" json:"audioUrl,omitempty"`
	CreatedAt          time.Time        `json:"createdAt"`
}

func (Chapter) TableName() string {
	return "series_chapter"
}

type MasterConnection struct {
	Artist string `json:"artist"`
	Reason string `json:"reason"`
}

type Advice struct {
	Compliment     string `json:"compliment"`
	GapAnalysis    string `json:"gapAnalysis"`
	ActionableTask string `json:"actionableTask"`
	TechniqueTip   string `json:"techniqueTip"`
}

type CoachingFeedback struct {
	VisualDiagnosis  string           `json:"visualDiagnosis"`
	MasterConnection MasterConnection `json:"masterConnection"`
	Advice           Advice           `json:"advice"`
	Improvement      string           `json:"improvement"`
}

// KidScript 朗读给孩子听的文案：表扬 + 下一步任务
func (f CoachingFeedback) KidScript() string {
	return f.Advice.Compliment + " " + f.Advice.ActionableTask
}

type MasterpieceMatch struct {
	Rank           int      `json:"rank"`
	MatchID        string   `json:"matchId"`
	Artist         string   `json:"artist"`
	Title          string   `json:"title"`
	ImagePath      string   `json:"imagePath"`
	Analysis       string   `json:"analysis"`
	Suggestion     string   `json:"suggestion"`
	CommonFeatures []string `json:"commonFeatures"`
	Biography      string   `json:"biography,omitempty"`
}

type MatchList []MasterpieceMatch

// LastChapter 返回最近一次迭代，没有时返回 nil
func (s *CreativeSeries) LastChapter() *Chapter {
	if len(s.Chapters) == 0 {
		return nil
	}
	return &s.Chapters[len(s.Chapters)-1]
}

func (s *CreativeSeries) IsCompleted() bool {
	return s.Status == SeriesStatusCompleted
}

// 实现 driver.Valuer / sql.Scanner: Go Struct <-> JSON 列

func (c SeriesContext) Value() (driver.Value, error) {
	return json.Marshal(c)
}

func (c *SeriesContext) Scan(value interface{}) error {
	return scanJSON(value, c)
}

func (f CoachingFeedback) Value() (driver.Value, error) {
	return json.Marshal(f)
}

func (f *CoachingFeedback) Scan(value interface{}) error {
	return scanJSON(value, f)
}

func (m MatchList) Value() (driver.Value, error) {
	if m == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m)
}

func (m *MatchList) Scan(value interface{}) error {
	return scanJSON(value, m)
}

func scanJSON(value interface{}, dst interface{}) error {
	switch v := value.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, dst)
	case string:
		return json.Unmarshal([]byte(v), dst)
	default:
		return fmt.Errorf("failed to unmarshal JSON value: %v", value)
	}
}
