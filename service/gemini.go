package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

const (
	geminiTemperature = float32(0.7)
	maxRemoteImage    = 10 << 20
)

var errEmptyGemini = errors.New("gemini returned empty response")

// NewGeminiClient 创建 Gemini API 客户端；推理各梯队与 Gemini 视觉共用一个
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("创建 Gemini 客户端失败: %w", err)
	}
	return client, nil
}

// NewRateLimiter 每分钟 perMinute 次，允许少量突发
func NewRateLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 2)
}

// GeminiReasoner 单个推理梯队，要求模型直接输出 JSON
type GeminiReasoner struct {
	client  *genai.Client
	model   string
	limiter *rate.Limiter
}

func NewGeminiReasoner(client *genai.Client, model string, limiter *rate.Limiter) *GeminiReasoner {
	return &GeminiReasoner{client: client, model: model, limiter: limiter}
}

// NewGeminiTiers 按配置顺序为每个模型名创建一个梯队
func NewGeminiTiers(client *genai.Client, models []string, limiter *rate.Limiter) []ReasoningModel {
	tiers := make([]ReasoningModel, 0, len(models))
	for _, m := range models {
		tiers = append(tiers, NewGeminiReasoner(client, m, limiter))
	}
	return tiers
}

func (g *GeminiReasoner) Name() string { return g.model }

func (g *GeminiReasoner) Reason(ctx context.Context, system, prompt string) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(geminiTemperature),
		ResponseMIMEType: "application/json",
	}
	if system != "" {
		cfg.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), cfg)
	if err != nil {
		return "", fmt.Errorf("%s generate: %w", g.model, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errEmptyGemini
	}
	return text, nil
}

// GeminiVision 用 Gemini 多模态模型看图；URL 图片先下载再内联
type GeminiVision struct {
	client     *genai.Client
	model      string
	limiter    *rate.Limiter
	httpClient *http.Client
}

func NewGeminiVision(client *genai.Client, model string, limiter *rate.Limiter) *GeminiVision {
	return &GeminiVision{
		client:     client,
		model:      model,
		limiter:    limiter,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

func (g *GeminiVision) Describe(ctx context.Context, img ImageInput, prompt string) (string, error) {
	data, mime := img.Bytes, img.MimeType
	if len(data) == 0 {
		var err error
		data, mime, err = fetchImage(ctx, g.httpClient, img.URL)
		if err != nil {
			return "", err
		}
	}
	if mime == "" {
		mime = http.DetectContentType(data)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}
	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(data, mime),
			genai.NewPartFromText(prompt),
		}, genai.RoleUser),
	}
	resp, err := g.client.Models.GenerateContent(ctx, g.model, contents, &genai.GenerateContentConfig{
		Temperature: genai.Ptr(geminiTemperature),
	})
	if err != nil {
		return "", fmt.Errorf("%s vision: %w", g.model, err)
	}
	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		return "", errEmptyGemini
	}
	return text, nil
}

func fetchImage(ctx context.Context, client *http.Client, url string) ([]byte, string, error) {
	if url == "" {
		return nil, "", errors.New("image has neither bytes nor url")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, "", fmt.Errorf("create image request failed: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, "", fmt.Errorf("download image failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, "", fmt.Errorf("download image status: %d", resp.StatusCode)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteImage))
	if err != nil {
		return nil, "", fmt.Errorf("read image failed: %w", err)
	}
	mime := resp.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return data, mime, nil
}
