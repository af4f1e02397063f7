package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"MagicMentor-server/logger"

	"github.com/patrickmn/go-cache"
)

// DefaultVisualDescription 视觉模型不可用时的占位描述，保证下游总有可用文本
const DefaultVisualDescription = "A creative children's drawing with colorful elements and expressive strokes."

var errEmptyVision = errors.New("vision model returned empty text")

// VisionDescriber 负责当前画作的描述以及与上一版本的对比
type VisionDescriber struct {
	model   VisionModel
	timeout time.Duration
	briefs  *cache.Cache
	log     *logger.Logger
}

func NewVisionDescriber(model VisionModel, timeout, cacheTTL time.Duration, log *logger.Logger) *VisionDescriber {
	return &VisionDescriber{
		model:   model,
		timeout: timeout,
		briefs:  cache.New(cacheTTL, 2*cacheTTL),
		log:     log.With("component", "VisionDescriber"),
	}
}

func (v *VisionDescriber) call(ctx context.Context, img ImageInput, prompt string) (string, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}
	text, err := v.model.Describe(ctx, img, prompt)
	if err != nil {
		return "", err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", errEmptyVision
	}
	return text, nil
}

// Describe 永不失败：出错时返回占位描述
func (v *VisionDescriber) Describe(ctx context.Context, img ImageInput) string {
	text, err := v.call(ctx, img, describePrompt)
	if err != nil {
		v.log.Warn("describe failed, using placeholder", "error", err)
		stageDegraded.WithLabelValues(StageDescribe).Inc()
		return DefaultVisualDescription
	}
	v.log.Debug("describe ok", "length", len(text))
	return text
}

// Compare 尽力而为：先简述上一版本（按 URL 缓存），再让模型对比当前图片。
// 任一步失败都返回 ok=false，调用方按“无对比”继续
func (v *VisionDescriber) Compare(ctx context.Context, current ImageInput, previousURL, lastAdvice string) (string, bool) {
	brief, err := v.previousBrief(ctx, previousURL)
	if err != nil {
		v.log.Warn("previous image brief failed, skipping comparison", "previous", previousURL, "error", err)
		stageDegraded.WithLabelValues(StageCompare).Inc()
		return "", false
	}

	diff, err := v.call(ctx, current, comparePrompt(brief, lastAdvice))
	if err != nil {
		v.log.Warn("comparison failed, skipping comparison", "error", err)
		stageDegraded.WithLabelValues(StageCompare).Inc()
		return "", false
	}
	return diff, true
}

func (v *VisionDescriber) previousBrief(ctx context.Context, previousURL string) (string, error) {
	if cached, ok := v.briefs.Get(previousURL); ok {
		return cached.(string), nil
	}
	brief, err := v.call(ctx, ImageInput{URL: previousURL}, previousBriefPrompt)
	if err != nil {
		return "", err
	}
	v.briefs.SetDefault(previousURL, brief)
	return brief, nil
}
