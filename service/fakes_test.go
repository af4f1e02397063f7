package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"MagicMentor-server/models"
)

const validFeedbackJSON = "```json\n" + `{
  "visualDiagnosis": "I see a bright yellow sun in the top corner and a tall green tree with bold outlines.",
  "masterConnection": {"artist": "Vincent van Gogh", "reason": "Your swirling sky strokes echo Starry Night."},
  "coachAdvice": {
    "compliment": "Your sun is so bright and cheerful!",
    "gapAnalysis": "The ground under the tree is still empty.",
    "actionableTask": "Add some flowers at the bottom of the tree.",
    "techniqueTip": "Press harder with the crayon to make colors pop."
  },
  "improvement": "I am excited to see how your vision grows in the next version!"
}` + "\n```"

var errBoom = errors.New("boom")

// fakeVision 按提示词区分 describe / brief / compare / match 四类调用
type fakeVision struct {
	mu sync.Mutex

	describeText string
	describeErr  error
	briefErr     error
	compareText  string
	compareErr   error
	matchText    string
	matchErr     error

	calls map[string]int
}

func newFakeVision() *fakeVision {
	return &fakeVision{
		describeText: "A purple dragon flying over a red castle with thick crayon lines.",
		compareText:  "The child added flowers under the tree, following the advice. 4 stars.",
		matchText:    `[{"matchId":"van_gogh_starry","analysis":"Swirls!","suggestion":"Try more swirls","commonFeatures":["swirls"]}]`,
		calls:        map[string]int{},
	}
}

func promptKind(prompt string) string {
	switch {
	case prompt == previousBriefPrompt:
		return "brief"
	case strings.HasPrefix(prompt, "COMPARE"):
		return "compare"
	case strings.HasPrefix(prompt, "Analyze this child's drawing and find"):
		return "match"
	default:
		return "describe"
	}
}

func (f *fakeVision) Describe(_ context.Context, _ ImageInput, prompt string) (string, error) {
	kind := promptKind(prompt)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[kind]++
	switch kind {
	case "brief":
		return "A small tree on a hill.", f.briefErr
	case "compare":
		return f.compareText, f.compareErr
	case "match":
		return f.matchText, f.matchErr
	default:
		return f.describeText, f.describeErr
	}
}

func (f *fakeVision) count(kind string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[kind]
}

type fakeReasoner struct {
	mu      sync.Mutex
	name    string
	text    string
	err     error
	prompts []string
}

func (f *fakeReasoner) Name() string { return f.name }

func (f *fakeReasoner) Reason(_ context.Context, _, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.text, f.err
}

func (f *fakeReasoner) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func (f *fakeReasoner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

type fakeSpeech struct {
	mu    sync.Mutex
	audio []byte
	err   error
	texts []string
}

func (f *fakeSpeech) Synthesize(_ context.Context, text, _ string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.texts = append(f.texts, text)
	return f.audio, f.err
}

type upload struct {
	folder string
	mime   string
	size   int
}

type fakeStorage struct {
	mu      sync.Mutex
	fail    map[string]error
	uploads []upload
}

func (f *fakeStorage) Upload(_ context.Context, data []byte, mimeType, folder string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail[folder]; err != nil {
		return "", err
	}
	f.uploads = append(f.uploads, upload{folder: folder, mime: mimeType, size: len(data)})
	return fmt.Sprintf("https://cdn.test/%s/%d", folder, len(f.uploads)), nil
}

// memStore 内存版 SeriesStore，保存时做与 SeriesRepo 相同的版本校验
type memStore struct {
	mu      sync.Mutex
	series  map[string]models.CreativeSeries
	getErr  error
	saveErr error
	saves   int
}

func newMemStore() *memStore {
	return &memStore{series: map[string]models.CreativeSeries{}}
}

func cloneSeries(s models.CreativeSeries) *models.CreativeSeries {
	s.Chapters = append([]models.Chapter(nil), s.Chapters...)
	return &s
}

func (m *memStore) GetSeries(_ context.Context, id string) (*models.CreativeSeries, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	s, ok := m.series[id]
	if !ok {
		return nil, models.ErrSeriesNotFound
	}
	return cloneSeries(s), nil
}

func (m *memStore) SaveSeries(_ context.Context, s *models.CreativeSeries) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	if cur, ok := m.series[s.ID]; ok && cur.Version != s.Version {
		return models.ErrVersionConflict
	}
	if _, ok := m.series[s.ID]; !ok && s.Version != 0 {
		return models.ErrVersionConflict
	}
	s.Version++
	m.series[s.ID] = *cloneSeries(*s)
	m.saves++
	return nil
}

func (m *memStore) put(s models.CreativeSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[s.ID] = *cloneSeries(s)
}

func (m *memStore) get(id string) (models.CreativeSeries, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.series[id]
	return s, ok
}

type fakeGallery struct {
	mu   sync.Mutex
	err  error
	recs []models.GalleryRecord
}

func (f *fakeGallery) Publish(_ context.Context, rec models.GalleryRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.recs = append(f.recs, rec)
	return nil
}

// hangingReasoner 一直阻塞到 ctx 结束，模拟超时的推理梯队
type hangingReasoner struct{ name string }

func (h hangingReasoner) Name() string { return h.name }

func (h hangingReasoner) Reason(ctx context.Context, _, _ string) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

type hangingSpeech struct{}

func (hangingSpeech) Synthesize(ctx context.Context, _, _ string) ([]byte, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}
