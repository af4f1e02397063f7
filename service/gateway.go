package service

import (
	"context"
	"encoding/base64"
	"fmt"

	"MagicMentor-server/models"
)

// ImageInput 统一的图片入参：Bytes 与 URL 二选一，Bytes 优先
type ImageInput struct {
	Bytes    []byte
	MimeType string
	URL      string
}

// DataURI 以 data:<mime>;base64,... 形式返回图片，供 OpenAI 兼容接口使用
func (img ImageInput) DataURI() string {
	if len(img.Bytes) == 0 {
		return img.URL
	}
	mime := img.MimeType
	if mime == "" {
		mime = "image/jpeg"
	}
	return fmt.Sprintf("data:%s;base64,%s", mime, base64.StdEncoding.EncodeToString(img.Bytes))
}

// VisionModel 看图说话：图片 + 提示词 -> 文本
type VisionModel interface {
	Describe(ctx context.Context, img ImageInput, prompt string) (string, error)
}

// ReasoningModel 纯文本推理，返回值期望（但不保证）包含 JSON
type ReasoningModel interface {
	Name() string
	Reason(ctx context.Context, system, prompt string) (string, error)
}

// SpeechModel 文本转语音
type SpeechModel interface {
	Synthesize(ctx context.Context, text, voiceID string) ([]byte, error)
}

// Storage 持久化二进制对象，返回可访问的 URL
type Storage interface {
	Upload(ctx context.Context, data []byte, mimeType, folder string) (string, error)
}

// SeriesStore 会话聚合的读写；不存在时 GetSeries 返回 models.ErrSeriesNotFound
type SeriesStore interface {
	GetSeries(ctx context.Context, id string) (*models.CreativeSeries, error)
	SaveSeries(ctx context.Context, s *models.CreativeSeries) error
}

// GalleryPublisher 把迭代结果同步到个人作品墙
type GalleryPublisher interface {
	Publish(ctx context.Context, rec models.GalleryRecord) error
}
