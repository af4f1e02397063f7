package service

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"MagicMentor-server/logger"
	"MagicMentor-server/models"
)

// MinDiagnosisLength 质量闸门：诊断文本短于此值视为模型给了敷衍回答
const MinDiagnosisLength = 10

const RescueSource = "rescue"

// Parsed 模型输出经过校验后的结果：要么 Ok，要么 Invalid(reason)
type Parsed[T any] struct {
	value  T
	reason string
	ok     bool
}

func Ok[T any](v T) Parsed[T] {
	return Parsed[T]{value: v, ok: true}
}

func Invalid[T any](reason string) Parsed[T] {
	return Parsed[T]{reason: reason}
}

func (p Parsed[T]) Get() (T, bool) { return p.value, p.ok }

func (p Parsed[T]) Reason() string { return p.reason }

var fenceRe = regexp.MustCompile("(?i)```(?:json)?")

func stripFences(text string) string {
	return strings.TrimSpace(fenceRe.ReplaceAllString(text, ""))
}

// 模型输出使用 coachAdvice 字段名，入库时统一为 advice
type rawFeedback struct {
	VisualDiagnosis  string                  `json:"visualDiagnosis"`
	MasterConnection models.MasterConnection `json:"masterConnection"`
	CoachAdvice      *models.Advice          `json:"coachAdvice"`
	Advice           *models.Advice          `json:"advice"`
	Improvement      string                  `json:"improvement"`
}

// ParseFeedback 去掉 markdown 代码块后解析 JSON，并执行质量闸门
func ParseFeedback(text string) Parsed[models.CoachingFeedback] {
	var raw rawFeedback
	if err := json.Unmarshal([]byte(stripFences(text)), &raw); err != nil {
		return Invalid[models.CoachingFeedback](fmt.Sprintf("invalid json: %v", err))
	}

	advice := raw.CoachAdvice
	if advice == nil {
		advice = raw.Advice
	}
	if advice == nil {
		return Invalid[models.CoachingFeedback]("missing coachAdvice")
	}

	fb := models.CoachingFeedback{
		VisualDiagnosis:  strings.TrimSpace(raw.VisualDiagnosis),
		MasterConnection: raw.MasterConnection,
		Advice:           *advice,
		Improvement:      strings.TrimSpace(raw.Improvement),
	}
	if utf8.RuneCountInString(fb.VisualDiagnosis) < MinDiagnosisLength {
		return Invalid[models.CoachingFeedback]("visualDiagnosis missing or too short")
	}
	if field := firstEmptyField(fb); field != "" {
		return Invalid[models.CoachingFeedback](field + " is empty")
	}
	return Ok(fb)
}

func firstEmptyField(fb models.CoachingFeedback) string {
	fields := []struct{ name, value string }{
		{"masterConnection.artist", fb.MasterConnection.Artist},
		{"masterConnection.reason", fb.MasterConnection.Reason},
		{"coachAdvice.compliment", fb.Advice.Compliment},
		{"coachAdvice.gapAnalysis", fb.Advice.GapAnalysis},
		{"coachAdvice.actionableTask", fb.Advice.ActionableTask},
		{"coachAdvice.techniqueTip", fb.Advice.TechniqueTip},
		{"improvement", fb.Improvement},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return f.name
		}
	}
	return ""
}

// RescueFeedback 所有推理梯队都失败时返回的固定反馈
func RescueFeedback() models.CoachingFeedback {
	return models.CoachingFeedback{
		VisualDiagnosis: "I see your creative strokes! You've used some interesting shapes and space here.",
		MasterConnection: models.MasterConnection{
			Artist: "Modern Expressionist",
			Reason: "Your freedom of expression matches the spirit of many great artists.",
		},
		Advice: models.Advice{
			Compliment:     "I love the energy you put into this first step!",
			GapAnalysis:    "Every great artist looks for ways to add more depth to their scene.",
			ActionableTask: "Can you add one more detail that tells a story? Maybe a tiny bird or a bright star?",
			TechniqueTip:   "Try using different pressures on your pen to vary your line thickness!",
		},
		Improvement: "I'm excited to see how your vision grows in the next version!",
	}
}

// FeedbackProvider 回退链上的一环
type FeedbackProvider interface {
	Name() string
	Attempt(ctx context.Context, system, prompt string) (models.CoachingFeedback, error)
}

// modelTier 把一个推理模型包装成 FeedbackProvider
type modelTier struct {
	model   ReasoningModel
	timeout time.Duration
}

func (t modelTier) Name() string { return t.model.Name() }

func (t modelTier) Attempt(ctx context.Context, system, prompt string) (models.CoachingFeedback, error) {
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	text, err := t.model.Reason(ctx, system, prompt)
	if err != nil {
		return models.CoachingFeedback{}, err
	}
	parsed := ParseFeedback(text)
	fb, ok := parsed.Get()
	if !ok {
		return models.CoachingFeedback{}, fmt.Errorf("quality gate rejected response: %s", parsed.Reason())
	}
	return fb, nil
}

type rescueProvider struct{}

func (rescueProvider) Name() string { return RescueSource }

func (rescueProvider) Attempt(context.Context, string, string) (models.CoachingFeedback, error) {
	return RescueFeedback(), nil
}

type FeedbackInput struct {
	Evidence   string
	Comparison string
	Context    models.SeriesContext
	Step       int
}

// FeedbackSynthesizer 依次尝试各推理梯队，第一个通过质量闸门的结果胜出
type FeedbackSynthesizer struct {
	providers []FeedbackProvider
	log       *logger.Logger
}

func NewFeedbackSynthesizer(tiers []ReasoningModel, timeout time.Duration, log *logger.Logger) *FeedbackSynthesizer {
	providers := make([]FeedbackProvider, 0, len(tiers)+1)
	for _, m := range tiers {
		providers = append(providers, modelTier{model: m, timeout: timeout})
	}
	providers = append(providers, rescueProvider{})
	return &FeedbackSynthesizer{
		providers: providers,
		log:       log.With("component", "FeedbackSynthesizer"),
	}
}

// Synthesize 永不失败，返回反馈以及产出它的梯队名
func (s *FeedbackSynthesizer) Synthesize(ctx context.Context, in FeedbackInput) (models.CoachingFeedback, string) {
	prompt := coachPrompt(in.Evidence, in.Comparison, in.Context, in.Step)
	for _, p := range s.providers {
		fb, err := p.Attempt(ctx, coachSystemInstruction, prompt)
		if err != nil {
			s.log.Warn("reasoning tier rejected", "tier", p.Name(), "error", err)
			continue
		}
		if p.Name() == RescueSource {
			s.log.Error("all reasoning tiers failed, using rescue payload")
			stageDegraded.WithLabelValues(StageReasoning).Inc()
		}
		feedbackSource.WithLabelValues(p.Name()).Inc()
		return fb, p.Name()
	}
	return RescueFeedback(), RescueSource
}
