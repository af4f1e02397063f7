package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

type arkContentPart struct {
	Type     string       `json:"type"`
	Text     string       `json:"text,omitempty"`
	ImageURL *arkImageURL `json:"image_url,omitempty"`
}

type arkImageURL struct {
	URL string `json:"url"`
}

type arkMessage struct {
	Role    string           `json:"role"`
	Content []arkContentPart `json:"content"`
}

type arkChatRequest struct {
	Model    string       `json:"model"`
	Messages []arkMessage `json:"messages"`
}

type arkChatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// DoubaoVision 火山方舟 OpenAI 兼容的 chat/completions 看图接口，图片以 data URI 或 URL 传入
type DoubaoVision struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewDoubaoVision(baseURL, apiKey, model string, timeout time.Duration, limiter *rate.Limiter) (*DoubaoVision, error) {
	if apiKey == "" || model == "" {
		return nil, errors.New("ark api key and vision model are required")
	}
	return &DoubaoVision{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}, nil
}

func (d *DoubaoVision) Describe(ctx context.Context, img ImageInput, prompt string) (string, error) {
	imageURL := img.DataURI()
	if imageURL == "" {
		return "", errors.New("image has neither bytes nor url")
	}
	if err := d.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(arkChatRequest{
		Model: d.model,
		Messages: []arkMessage{{
			Role: "user",
			Content: []arkContentPart{
				{Type: "text", Text: prompt},
				{Type: "image_url", ImageURL: &arkImageURL{URL: imageURL}},
			},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal ark request failed: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("create ark request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+d.apiKey)

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ark request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read ark response failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ark vision status: %d, body: %s", resp.StatusCode, truncate(body, 200))
	}

	var out arkChatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("decode ark response failed: %w", err)
	}
	if out.Error != nil {
		return "", fmt.Errorf("ark vision error: %s (%s)", out.Error.Message, out.Error.Code)
	}
	if len(out.Choices) == 0 {
		return "", errors.New("ark vision returned no choices")
	}
	return out.Choices[0].Message.Content, nil
}
