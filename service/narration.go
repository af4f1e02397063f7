package service

import (
	"context"
	"encoding/base64"
	"strings"
	"time"

	"MagicMentor-server/logger"
	"MagicMentor-server/models"
)

const (
	AudioFolder   = "mentor_audio"
	AudioMimeType = "audio/mpeg"

	inlineAudioPrefix = "data:audio/mp3;base64,"
)

// Narration 语音结果：AudioURL 为上传后的地址，AudioInline 为 data URI，二者都可能为空
type Narration struct {
	AudioURL    string
	AudioInline string
}

func (n Narration) Empty() bool {
	return n.AudioURL == "" && n.AudioInline == ""
}

// NarrationGenerator 把表扬 + 下一步任务朗读出来，尽力而为
type NarrationGenerator struct {
	speech  SpeechModel
	storage Storage
	voice   string
	timeout time.Duration
	log     *logger.Logger
}

func NewNarrationGenerator(speech SpeechModel, storage Storage, voice string, timeout time.Duration, log *logger.Logger) *NarrationGenerator {
	return &NarrationGenerator{
		speech:  speech,
		storage: storage,
		voice:   voice,
		timeout: timeout,
		log:     log.With("component", "NarrationGenerator"),
	}
}

func (g *NarrationGenerator) Generate(ctx context.Context, fb models.CoachingFeedback) Narration {
	if g.speech == nil {
		return Narration{}
	}
	script := strings.TrimSpace(fb.KidScript())
	if script == "" {
		return Narration{}
	}

	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}
	audio, err := g.speech.Synthesize(callCtx, script, g.voice)
	if err != nil || len(audio) == 0 {
		g.log.Warn("speech synthesis failed, continuing without audio", "error", err)
		stageDegraded.WithLabelValues(StageNarration).Inc()
		return Narration{}
	}

	n := Narration{AudioInline: inlineAudioPrefix + base64.StdEncoding.EncodeToString(audio)}
	if g.storage == nil {
		return n
	}
	url, err := g.storage.Upload(ctx, audio, AudioMimeType, AudioFolder)
	if err != nil {
		g.log.Warn("audio upload failed, returning inline audio only", "error", err)
		stageDegraded.WithLabelValues(StageNarration).Inc()
		return n
	}
	n.AudioURL = url
	return n
}
