package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"MagicMentor-server/logger"
	"MagicMentor-server/models"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// MaxIterations 第 5 次迭代后系列自动完成
	MaxIterations = 5

	ImageFolder      = "mentor"
	defaultImageMime = "image/jpeg"
)

var (
	ErrInvalidStep     = errors.New("invalid step request")
	ErrSeriesForbidden = errors.New("series belongs to another user")
	ErrSeriesCompleted = errors.New("series already completed")
	ErrStepOutOfOrder  = errors.New("step does not follow the current step")
	ErrImageUpload     = errors.New("failed to upload image to storage")
	ErrSeriesConflict  = errors.New("series was updated by a concurrent step")
)

type StepRequest struct {
	UserID   string
	Step     int
	SeriesID string
	Image    ImageInput
}

type StepResponse struct {
	Success     bool                   `json:"success"`
	Series      *models.CreativeSeries `json:"series"`
	IsComplete  bool                   `json:"isComplete"`
	AudioBase64 string                 `json:"audioBase64,omitempty"`
}

// MentorDeps 组装 MentorService 所需的协作方；Speech 与 Gallery 可以为空
type MentorDeps struct {
	Store         SeriesStore
	Storage       Storage
	Vision        *VisionDescriber
	Synthesizer   *FeedbackSynthesizer
	Matcher       *MasterpieceMatcher
	Narrator      *NarrationGenerator
	Gallery       GalleryPublisher
	MaxIterations int
	UploadTimeout time.Duration
	Logger        *logger.Logger
}

// MentorService 一次迭代的完整流程：上传 -> 看图 -> 点评 ∥ 名画匹配 -> 语音 -> 追加章节 -> 保存
type MentorService struct {
	store         SeriesStore
	storage       Storage
	vision        *VisionDescriber
	synth         *FeedbackSynthesizer
	matcher       *MasterpieceMatcher
	narrator      *NarrationGenerator
	gallery       GalleryPublisher
	maxIterations int
	uploadTimeout time.Duration
	log           *logger.Logger
}

func NewMentorService(d MentorDeps) *MentorService {
	maxIter := d.MaxIterations
	if maxIter <= 0 {
		maxIter = MaxIterations
	}
	return &MentorService{
		store:         d.Store,
		storage:       d.Storage,
		vision:        d.Vision,
		synth:         d.Synthesizer,
		matcher:       d.Matcher,
		narrator:      d.Narrator,
		gallery:       d.Gallery,
		maxIterations: maxIter,
		uploadTimeout: d.UploadTimeout,
		log:           d.Logger.With("component", "MentorService"),
	}
}

func (req StepRequest) validate() error {
	switch {
	case strings.TrimSpace(req.UserID) == "":
		return fmt.Errorf("%w: userId is required", ErrInvalidStep)
	case req.Step < 1:
		return fmt.Errorf("%w: step must be >= 1, got %d", ErrInvalidStep, req.Step)
	case len(req.Image.Bytes) == 0:
		return fmt.Errorf("%w: image is required", ErrInvalidStep)
	}
	return nil
}

// ProcessStep 处理一次迭代。除请求校验、系列读写和图片上传外，任何 AI 环节失败都只会降级，不会让请求失败
func (s *MentorService) ProcessStep(ctx context.Context, req StepRequest) (*StepResponse, error) {
	if err := req.validate(); err != nil {
		stepsTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	series, err := s.resolveSeries(ctx, req)
	if err != nil {
		stepsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}
	log := s.log.With("seriesId", series.ID, "userId", req.UserID, "step", req.Step)

	// 1. 图片落盘，唯一的致命环节
	img := req.Image
	if img.MimeType == "" {
		img.MimeType = defaultImageMime
	}
	imageURL, err := s.uploadImage(ctx, img)
	if err != nil {
		log.Error("image upload failed", "error", err)
		stepsTotal.WithLabelValues("upload_failed").Inc()
		return nil, fmt.Errorf("%w: %v", ErrImageUpload, err)
	}
	img.URL = imageURL

	// 2. 名画匹配只依赖图片，与看图/点评并行
	var matches models.MatchList
	var g errgroup.Group
	g.Go(func() error {
		matches = s.matcher.Match(ctx, img)
		return nil
	})

	evidence := s.vision.Describe(ctx, img)
	comparison := ""
	if prev := series.LastChapter(); prev != nil {
		if diff, ok := s.vision.Compare(ctx, img, prev.UserImageURL, series.Context.LastAdvice); ok {
			comparison = diff
		}
	}
	feedback, source := s.synth.Synthesize(ctx, FeedbackInput{
		Evidence:   evidence,
		Comparison: comparison,
		Context:    series.Context,
		Step:       req.Step,
	})
	log.Info("feedback synthesized", "source", source, "compared", comparison != "")

	// 3. 语音
	var narration Narration
	if s.narrator != nil {
		narration = s.narrator.Generate(ctx, feedback)
	}
	// Match 自身兜底、不返回错误，这里只等待协程结束
	_ = g.Wait()

	// 4. 追加章节并更新上下文
	series.Chapters = append(series.Chapters, models.Chapter{
		SeriesID:           series.ID,
		Step:               req.Step,
		UserImageURL:       imageURL,
		CoachingFeedback:   feedback,
		MasterpieceMatches: matches,
		AudioURL:           narration.AudioURL,
		CreatedAt:          time.Now(),
	})
	series.CurrentStep = req.Step
	series.Context.CurrentVisualDiagnosis = feedback.VisualDiagnosis
	series.Context.LastAdvice = feedback.Advice.ActionableTask
	series.Context.ArtStyle = feedback.MasterConnection.Artist
	if series.CurrentStep >= s.maxIterations {
		series.Status = models.SeriesStatusCompleted
	}

	// 5. 保存
	if err := s.store.SaveSeries(ctx, series); err != nil {
		stepsTotal.WithLabelValues("save_failed").Inc()
		if errors.Is(err, models.ErrVersionConflict) {
			log.Warn("concurrent update detected", "error", err)
			return nil, fmt.Errorf("%w: %v", ErrSeriesConflict, err)
		}
		log.Error("save series failed", "error", err)
		return nil, fmt.Errorf("save series %s: %w", series.ID, err)
	}

	s.publishGallery(ctx, series, narration)

	stepsTotal.WithLabelValues("success").Inc()
	log.Info("step recorded", "status", series.Status, "chapters", len(series.Chapters))
	return &StepResponse{
		Success:     true,
		Series:      series,
		IsComplete:  series.IsCompleted(),
		AudioBase64: narration.AudioInline,
	}, nil
}

// resolveSeries 读取已有系列并校验归属与步号；seriesId 为空或不存在时新建
func (s *MentorService) resolveSeries(ctx context.Context, req StepRequest) (*models.CreativeSeries, error) {
	var series *models.CreativeSeries
	if req.SeriesID != "" {
		found, err := s.store.GetSeries(ctx, req.SeriesID)
		switch {
		case err == nil:
			series = found
		case errors.Is(err, models.ErrSeriesNotFound):
		default:
			return nil, fmt.Errorf("load series %s: %w", req.SeriesID, err)
		}
	}

	if series == nil {
		id := req.SeriesID
		if id == "" {
			id = uuid.NewString()
		}
		series = &models.CreativeSeries{
			ID:     id,
			UserID: req.UserID,
			Title:  models.DefaultSeriesTitle,
			Status: models.SeriesStatusActive,
		}
	}

	if series.UserID != req.UserID {
		return nil, ErrSeriesForbidden
	}
	if series.IsCompleted() {
		return nil, ErrSeriesCompleted
	}
	if req.Step != series.CurrentStep+1 {
		return nil, fmt.Errorf("%w: expected step %d, got %d", ErrStepOutOfOrder, series.CurrentStep+1, req.Step)
	}
	return series, nil
}

func (s *MentorService) uploadImage(ctx context.Context, img ImageInput) (string, error) {
	if s.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.uploadTimeout)
		defer cancel()
	}
	return s.storage.Upload(ctx, img.Bytes, img.MimeType, ImageFolder)
}

// publishGallery 同步到作品墙，失败只记日志
func (s *MentorService) publishGallery(ctx context.Context, series *models.CreativeSeries, narration Narration) {
	if s.gallery == nil {
		return
	}
	ch := series.LastChapter()
	artStyle := series.Context.ArtStyle
	if artStyle == "" {
		artStyle = "Art Style"
	}
	rec := models.GalleryRecord{
		ID:       fmt.Sprintf("%s-%d", series.ID, ch.Step),
		UserID:   series.UserID,
		ImageURL: ch.UserImageURL,
		Type:     models.GalleryTypeMasterpiece,
		Prompt:   fmt.Sprintf("Journey Step %d: %s", ch.Step, artStyle),
		Meta: models.GalleryMeta{
			SeriesID:         series.ID,
			Step:             ch.Step,
			Matches:          ch.MasterpieceMatches,
			AudioURL:         narration.AudioURL,
			KidScript:        ch.CoachingFeedback.KidScript(),
			ParentAnalysis:   ch.CoachingFeedback.VisualDiagnosis,
			CoachingFeedback: ch.CoachingFeedback,
		},
		CreatedAt: ch.CreatedAt,
	}
	if err := s.gallery.Publish(ctx, rec); err != nil {
		s.log.Warn("gallery publish failed", "seriesId", series.ID, "step", ch.Step, "error", err)
		stageDegraded.WithLabelValues(StageGallery).Inc()
	}
}
