package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"MagicMentor-server/logger"
	"MagicMentor-server/models"
)

const (
	// MatchCatalogSlice 提示词里只列出目录前 N 项，控制 prompt 长度
	MatchCatalogSlice = 10
	MatchCount        = 3

	genericMatchAnalysis = "Your creativity reminds us of this master!"
)

var errNoJSONArray = errors.New("no JSON array found")

type matchCandidate struct {
	MatchID        string   `json:"matchId"`
	Analysis       string   `json:"analysis"`
	Suggestion     string   `json:"suggestion"`
	CommonFeatures []string `json:"commonFeatures"`
}

// MasterpieceMatcher 把画作与名画目录做风格匹配，始终返回 3 条结果。
// 模型只负责“选哪幅”和“为什么”，画家、标题、图片路径等事实一律取自目录
type MasterpieceMatcher struct {
	model   VisionModel
	timeout time.Duration
	catalog []models.Masterpiece
	log     *logger.Logger
}

func NewMasterpieceMatcher(model VisionModel, timeout time.Duration, log *logger.Logger) *MasterpieceMatcher {
	return &MasterpieceMatcher{
		model:   model,
		timeout: timeout,
		catalog: models.Catalog(),
		log:     log.With("component", "MasterpieceMatcher"),
	}
}

func (m *MasterpieceMatcher) Match(ctx context.Context, img ImageInput) models.MatchList {
	if m.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	slice := m.catalog
	if len(slice) > MatchCatalogSlice {
		slice = slice[:MatchCatalogSlice]
	}
	text, err := m.model.Describe(ctx, img, matchPrompt(slice))
	if err != nil {
		m.log.Warn("masterpiece match call failed, using catalog fallback", "error", err)
		stageDegraded.WithLabelValues(StageMatch).Inc()
		return m.fallback()
	}

	cands, err := parseCandidates(text)
	if err != nil {
		m.log.Warn("masterpiece match parsing failed, using catalog fallback", "error", err)
		stageDegraded.WithLabelValues(StageMatch).Inc()
		return m.fallback()
	}
	return m.resolve(cands)
}

func parseCandidates(text string) ([]matchCandidate, error) {
	raw, ok := extractJSONArray(text)
	if !ok {
		return nil, errNoJSONArray
	}
	var cands []matchCandidate
	if err := json.Unmarshal([]byte(raw), &cands); err != nil {
		return nil, fmt.Errorf("decode match array: %w", err)
	}
	if len(cands) == 0 {
		return nil, errors.New("empty match array")
	}
	return cands, nil
}

// extractJSONArray 找到第一个括号配平的 [...] 片段，忽略字符串里的括号
func extractJSONArray(text string) (string, bool) {
	for start := strings.IndexByte(text, '['); start >= 0; {
		depth := 0
		inString, escaped := false, false
		for i := start; i < len(text); i++ {
			c := text[i]
			if inString {
				switch {
				case escaped:
					escaped = false
				case c == '\\':
					escaped = true
				case c == '"':
					inString = false
				}
				continue
			}
			switch c {
			case '"':
				inString = true
			case '[':
				depth++
			case ']':
				depth--
				if depth == 0 {
					return text[start : i+1], true
				}
			}
		}
		next := strings.IndexByte(text[start+1:], '[')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return "", false
}

// resolve 用目录数据补全候选；未知或重复的 matchId 被丢弃，不足 3 条按目录顺序补齐
func (m *MasterpieceMatcher) resolve(cands []matchCandidate) models.MatchList {
	out := make(models.MatchList, 0, MatchCount)
	used := make(map[string]bool, MatchCount)

	for _, c := range cands {
		if len(out) == MatchCount {
			break
		}
		entry, ok := models.FindMasterpiece(strings.TrimSpace(c.MatchID))
		if !ok || used[entry.ID] {
			m.log.Debug("dropping unresolvable match", "matchId", c.MatchID)
			continue
		}
		used[entry.ID] = true
		match := catalogMatch(entry, len(out)+1)
		if s := strings.TrimSpace(c.Analysis); s != "" {
			match.Analysis = s
		}
		if s := strings.TrimSpace(c.Suggestion); s != "" {
			match.Suggestion = s
		}
		if len(c.CommonFeatures) > 0 {
			match.CommonFeatures = c.CommonFeatures
		}
		out = append(out, match)
	}

	for _, entry := range m.catalog {
		if len(out) == MatchCount {
			break
		}
		if used[entry.ID] {
			continue
		}
		used[entry.ID] = true
		out = append(out, catalogMatch(entry, len(out)+1))
	}
	return out
}

func (m *MasterpieceMatcher) fallback() models.MatchList {
	out := make(models.MatchList, 0, MatchCount)
	for i := 0; i < MatchCount && i < len(m.catalog); i++ {
		out = append(out, catalogMatch(m.catalog[i], i+1))
	}
	return out
}

func catalogMatch(entry models.Masterpiece, rank int) models.MasterpieceMatch {
	features := entry.Tags
	if len(features) > 3 {
		features = features[:3]
	}
	return models.MasterpieceMatch{
		Rank:           rank,
		MatchID:        entry.ID,
		Artist:         entry.Artist,
		Title:          entry.Title,
		ImagePath:      entry.ImagePath,
		Analysis:       genericMatchAnalysis,
		Suggestion:     entry.KidFriendlyFact,
		CommonFeatures: append([]string(nil), features...),
		Biography:      entry.Biography,
	}
}
