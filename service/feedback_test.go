package service

import (
	"context"
	"testing"
	"time"

	"MagicMentor-server/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFeedback_AcceptsFencedJSON(t *testing.T) {
	parsed := ParseFeedback(validFeedbackJSON)
	fb, ok := parsed.Get()
	require.True(t, ok, parsed.Reason())

	assert.Equal(t, "Vincent van Gogh", fb.MasterConnection.Artist)
	assert.Equal(t, "Add some flowers at the bottom of the tree.", fb.Advice.ActionableTask)
	assert.Equal(t, "Your sun is so bright and cheerful! Add some flowers at the bottom of the tree.", fb.KidScript())
}

func TestParseFeedback_AdviceAlias(t *testing.T) {
	text := `{"visualDiagnosis":"I see a big blue whale splashing.","masterConnection":{"artist":"Hokusai","reason":"Waves!"},
"advice":{"compliment":"a","gapAnalysis":"b","actionableTask":"c","techniqueTip":"d"},"improvement":"e"}`
	fb, ok := ParseFeedback(text).Get()
	require.True(t, ok)
	assert.Equal(t, "c", fb.Advice.ActionableTask)
}

func TestParseFeedback_Rejects(t *testing.T) {
	cases := map[string]string{
		"not json":         "Sorry, I cannot help with that.",
		"short diagnosis":  `{"visualDiagnosis":"Nice","masterConnection":{"artist":"a","reason":"b"},"coachAdvice":{"compliment":"a","gapAnalysis":"b","actionableTask":"c","techniqueTip":"d"},"improvement":"e"}`,
		"missing advice":   `{"visualDiagnosis":"I see a very detailed house.","masterConnection":{"artist":"a","reason":"b"},"improvement":"e"}`,
		"empty compliment": `{"visualDiagnosis":"I see a very detailed house.","masterConnection":{"artist":"a","reason":"b"},"coachAdvice":{"compliment":" ","gapAnalysis":"b","actionableTask":"c","techniqueTip":"d"},"improvement":"e"}`,
		"empty artist":     `{"visualDiagnosis":"I see a very detailed house.","masterConnection":{"artist":"","reason":"b"},"coachAdvice":{"compliment":"a","gapAnalysis":"b","actionableTask":"c","techniqueTip":"d"},"improvement":"e"}`,
	}
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			parsed := ParseFeedback(text)
			_, ok := parsed.Get()
			assert.False(t, ok)
			assert.NotEmpty(t, parsed.Reason())
		})
	}
}

func TestParseFeedback_DiagnosisCountsRunes(t *testing.T) {
	// 11 个汉字，33 字节
	text := `{"visualDiagnosis":"我看到一个大大的太阳啊","masterConnection":{"artist":"a","reason":"b"},"coachAdvice":{"compliment":"a","gapAnalysis":"b","actionableTask":"c","techniqueTip":"d"},"improvement":"e"}`
	_, ok := ParseFeedback(text).Get()
	assert.True(t, ok)
}

func TestSynthesize_FirstPassingTierWins(t *testing.T) {
	bad := &fakeReasoner{name: "lite", text: "{not json"}
	good := &fakeReasoner{name: "flash", text: validFeedbackJSON}
	never := &fakeReasoner{name: "pro", text: validFeedbackJSON}

	s := NewFeedbackSynthesizer([]ReasoningModel{bad, good, never}, 0, logger.NewNop())
	fb, source := s.Synthesize(context.Background(), FeedbackInput{Evidence: "a dragon", Step: 1})

	assert.Equal(t, "flash", source)
	assert.Equal(t, "Vincent van Gogh", fb.MasterConnection.Artist)
	assert.Equal(t, 1, bad.callCount())
	assert.Equal(t, 1, good.callCount())
	assert.Equal(t, 0, never.callCount())
}

func TestSynthesize_AllTiersFailReturnsRescue(t *testing.T) {
	tiers := []ReasoningModel{
		&fakeReasoner{name: "a", text: "```json\n{\"visualDiagnosis\": 42}\n```"},
		&fakeReasoner{name: "b", err: errBoom},
		&fakeReasoner{name: "c", text: "[]"},
	}
	s := NewFeedbackSynthesizer(tiers, 0, logger.NewNop())
	fb, source := s.Synthesize(context.Background(), FeedbackInput{Evidence: "a dragon", Step: 1})

	assert.Equal(t, RescueSource, source)
	assert.Equal(t, RescueFeedback(), fb)
}

func TestSynthesize_NoTiers(t *testing.T) {
	s := NewFeedbackSynthesizer(nil, 0, logger.NewNop())
	fb, source := s.Synthesize(context.Background(), FeedbackInput{})
	assert.Equal(t, RescueSource, source)
	assert.NotEmpty(t, fb.VisualDiagnosis)
}

func TestCoachPrompt_IncludesComparisonOnlyWhenPresent(t *testing.T) {
	r := &fakeReasoner{name: "a", text: validFeedbackJSON}
	s := NewFeedbackSynthesizer([]ReasoningModel{r}, 0, logger.NewNop())

	s.Synthesize(context.Background(), FeedbackInput{Evidence: "a cat", Step: 1})
	assert.Contains(t, r.lastPrompt(), "VISUAL EVIDENCE: a cat")
	assert.NotContains(t, r.lastPrompt(), "ITERATION COMPARISON")
	assert.NotContains(t, r.lastPrompt(), "ITERATION CHECK")

	in := FeedbackInput{Evidence: "a cat", Comparison: "added a hat", Step: 2}
	in.Context.LastAdvice = "Draw a hat"
	s.Synthesize(context.Background(), in)
	assert.Contains(t, r.lastPrompt(), "ITERATION COMPARISON: added a hat")
	assert.Contains(t, r.lastPrompt(), `"Draw a hat"`)
}

func TestSynthesize_TimedOutTierFallsThrough(t *testing.T) {
	next := &fakeReasoner{name: "flash", text: validFeedbackJSON}
	s := NewFeedbackSynthesizer([]ReasoningModel{hangingReasoner{name: "lite"}, next}, 20*time.Millisecond, logger.NewNop())

	fb, source := s.Synthesize(context.Background(), FeedbackInput{Evidence: "a dragon", Step: 1})
	assert.Equal(t, "flash", source)
	assert.Equal(t, "Vincent van Gogh", fb.MasterConnection.Artist)
	assert.Equal(t, 1, next.callCount())
}
