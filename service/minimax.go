package service

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"
)

const minimaxModel = "speech-01-turbo"

// 业务侧音色名 -> MiniMax voice_id
var minimaxVoices = map[string]string{
	"kiki":          "English_PlayfulGirl",
	"aiai":          "English_Soft-spokenGirl",
	"titi":          "English_Deep-VoicedGentleman",
	"female-shaonv": "female-shaonv",
	"male-qn-2":     "English_Deep-VoicedGentleman",
}

const defaultMinimaxVoice = "English_PlayfulGirl"

// MinimaxVoiceID 未知音色名回落到 kiki 对应的音色
func MinimaxVoiceID(key string) string {
	if id, ok := minimaxVoices[key]; ok {
		return id
	}
	return defaultMinimaxVoice
}

type minimaxVoiceSetting struct {
	VoiceID string  `json:"voice_id"`
	Speed   float64 `json:"speed"`
	Vol     float64 `json:"vol"`
	Pitch   int     `json:"pitch"`
}

type minimaxAudioSetting struct {
	SampleRate int    `json:"sample_rate"`
	Bitrate    int    `json:"bitrate"`
	Format     string `json:"format"`
	Channel    int    `json:"channel"`
}

type minimaxRequest struct {
	Model        string              `json:"model"`
	Text         string              `json:"text"`
	Stream       bool                `json:"stream"`
	VoiceSetting minimaxVoiceSetting `json:"voice_setting"`
	AudioSetting minimaxAudioSetting `json:"audio_setting"`
}

type minimaxResponse struct {
	Data struct {
		Audio string `json:"audio"`
	} `json:"data"`
	BaseResp struct {
		StatusCode int    `json:"status_code"`
		StatusMsg  string `json:"status_msg"`
	} `json:"base_resp"`
}

// MinimaxSpeech MiniMax T2A v2 语音合成，返回 mp3 字节
type MinimaxSpeech struct {
	endpoint   string
	apiKey     string
	groupID    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func NewMinimaxSpeech(endpoint, apiKey, groupID string, timeout time.Duration, limiter *rate.Limiter) (*MinimaxSpeech, error) {
	if apiKey == "" || groupID == "" {
		return nil, errors.New("minimax api key and group id are required")
	}
	return &MinimaxSpeech{
		endpoint:   endpoint,
		apiKey:     apiKey,
		groupID:    groupID,
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}, nil
}

func (m *MinimaxSpeech) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	if err := m.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	payload, err := json.Marshal(minimaxRequest{
		Model: minimaxModel,
		Text:  text,
		VoiceSetting: minimaxVoiceSetting{
			VoiceID: MinimaxVoiceID(voice),
			Speed:   1.0,
			Vol:     1.0,
		},
		AudioSetting: minimaxAudioSetting{
			SampleRate: 32000,
			Bitrate:    128000,
			Format:     "mp3",
			Channel:    1,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal minimax request failed: %w", err)
	}

	reqURL := m.endpoint + "?GroupId=" + url.QueryEscape(m.groupID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create minimax request failed: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.apiKey)

	resp, err := m.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("minimax request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read minimax response failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("minimax status: %d, body: %s", resp.StatusCode, truncate(body, 200))
	}

	var out minimaxResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode minimax response failed: %w", err)
	}
	if out.BaseResp.StatusCode != 0 || out.Data.Audio == "" {
		return nil, fmt.Errorf("minimax api error: %s (code: %d)", out.BaseResp.StatusMsg, out.BaseResp.StatusCode)
	}
	audio, err := hex.DecodeString(out.Data.Audio)
	if err != nil {
		return nil, fmt.Errorf("decode minimax audio failed: %w", err)
	}
	return audio, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
