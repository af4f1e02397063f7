package models

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestRepo(t *testing.T) *SeriesRepo {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return NewSeriesRepo(db)
}

func testChapter(step int) Chapter {
	cat := Catalog()
	matches := make(MatchList, 3)
	for i := range matches {
		matches[i] = MasterpieceMatch{
			Rank:           i + 1,
			MatchID:        cat[i].ID,
			Artist:         cat[i].Artist,
			Title:          cat[i].Title,
			ImagePath:      cat[i].ImagePath,
			Analysis:       "analysis",
			Suggestion:     cat[i].KidFriendlyFact,
			CommonFeatures: cat[i].Tags[:3],
		}
	}
	return Chapter{
		Step:         step,
		UserImageURL: fmt.Sprintf("https://cdn.test/mentor/%d.png", step),
		CoachingFeedback: CoachingFeedback{
			VisualDiagnosis:  "I see a bright yellow sun.",
			MasterConnection: MasterConnection{Artist: "Joan Miró", Reason: "Bold shapes"},
			Advice: Advice{
				Compliment:     "Great sun!",
				GapAnalysis:    "Empty sky",
				ActionableTask: "Add birds",
				TechniqueTip:   "Use short strokes",
			},
			Improvement: "More detail",
		},
		MasterpieceMatches: matches,
		AudioURL:           "https://cdn.test/mentor_audio/a.mp3",
	}
}

func newSeries(id, userID string) *CreativeSeries {
	return &CreativeSeries{
		ID:     id,
		UserID: userID,
		Title:  DefaultSeriesTitle,
		Status: SeriesStatusActive,
	}
}

func TestSeriesRepo_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := newSeries("s-1", "kid-1")
	s.Chapters = append(s.Chapters, testChapter(1))
	s.CurrentStep = 1
	s.Context = SeriesContext{LastAdvice: "Add birds", ArtStyle: "Joan Miró", CurrentVisualDiagnosis: "sun"}
	require.NoError(t, repo.SaveSeries(ctx, s))
	assert.Equal(t, int64(1), s.Version)

	got, err := repo.GetSeries(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, "kid-1", got.UserID)
	assert.Equal(t, s.Context, got.Context)
	assert.Equal(t, int64(1), got.Version)
	require.Len(t, got.Chapters, 1)

	want := testChapter(1)
	assert.Equal(t, want.CoachingFeedback, got.Chapters[0].CoachingFeedback)
	assert.Equal(t, want.MasterpieceMatches, got.Chapters[0].MasterpieceMatches)
	assert.Equal(t, want.AudioURL, got.Chapters[0].AudioURL)
}

func TestSeriesRepo_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.GetSeries(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrSeriesNotFound)
}

func TestSeriesRepo_AppendChaptersInOrder(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := newSeries("s-1", "kid-1")
	for step := 1; step <= 3; step++ {
		s.Chapters = append(s.Chapters, testChapter(step))
		s.CurrentStep = step
		require.NoError(t, repo.SaveSeries(ctx, s))
	}

	got, err := repo.GetSeries(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, 3, got.CurrentStep)
	assert.Equal(t, int64(3), got.Version)
	require.Len(t, got.Chapters, 3)
	for i, ch := range got.Chapters {
		assert.Equal(t, i+1, ch.Step)
	}
}

func TestSeriesRepo_ChaptersAreInsertOnly(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	s := newSeries("s-1", "kid-1")
	s.Chapters = []Chapter{testChapter(1)}
	s.CurrentStep = 1
	require.NoError(t, repo.SaveSeries(ctx, s))

	s.Chapters[0].UserImageURL = "https://cdn.test/rewritten.png"
	require.NoError(t, repo.SaveSeries(ctx, s))

	got, err := repo.GetSeries(ctx, "s-1")
	require.NoError(t, err)
	assert.Equal(t, testChapter(1).UserImageURL, got.Chapters[0].UserImageURL)
}

func TestSeriesRepo_VersionConflict(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.SaveSeries(ctx, newSeries("s-1", "kid-1")))

	a, err := repo.GetSeries(ctx, "s-1")
	require.NoError(t, err)
	b, err := repo.GetSeries(ctx, "s-1")
	require.NoError(t, err)

	a.Chapters = append(a.Chapters, testChapter(1))
	a.CurrentStep = 1
	require.NoError(t, repo.SaveSeries(ctx, a))

	b.Chapters = append(b.Chapters, testChapter(1))
	b.CurrentStep = 1
	assert.ErrorIs(t, repo.SaveSeries(ctx, b), ErrVersionConflict)

	// 重复创建同一个 ID 也视为冲突
	assert.ErrorIs(t, repo.SaveSeries(ctx, newSeries("s-1", "kid-1")), ErrVersionConflict)
}

func TestSeriesRepo_ActiveAndHistory(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	old := newSeries("old", "kid-1")
	old.Status = SeriesStatusCompleted
	require.NoError(t, repo.SaveSeries(ctx, old))
	time.Sleep(5 * time.Millisecond)

	active := newSeries("active", "kid-1")
	require.NoError(t, repo.SaveSeries(ctx, active))
	require.NoError(t, repo.SaveSeries(ctx, newSeries("other", "kid-2")))

	got, err := repo.GetUserActiveSeries(ctx, "kid-1")
	require.NoError(t, err)
	assert.Equal(t, "active", got.ID)

	_, err = repo.GetUserActiveSeries(ctx, "nobody")
	assert.ErrorIs(t, err, ErrSeriesNotFound)

	history, err := repo.GetUserCreativeHistory(ctx, "kid-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "active", history[0].ID)
	assert.Equal(t, "old", history[1].ID)
}

func TestGalleryRecords(t *testing.T) {
	repo := newTestRepo(t)
	rec := &GalleryRecord{
		ID:       "s-1-1",
		UserID:   "kid-1",
		ImageURL: "https://cdn.test/mentor/1.png",
		Type:     GalleryTypeMasterpiece,
		Prompt:   "Journey Step 1: Joan Miró",
		Meta:     GalleryMeta{SeriesID: "s-1", Step: 1, KidScript: "Great sun! Add birds"},
	}
	require.NoError(t, SaveGalleryRecord(repo.DB, rec))
	dup := *rec
	require.NoError(t, SaveGalleryRecord(repo.DB, &dup))

	recs, err := ListGalleryRecords(repo.DB, "kid-1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Great sun! Add birds", recs[0].Meta.KidScript)
}

func TestCatalog(t *testing.T) {
	cat := Catalog()
	require.Len(t, cat, 20)
	cat[0].Tags[0] = "mutated"

	m, ok := FindMasterpiece(cat[0].ID)
	require.True(t, ok)
	assert.NotEqual(t, "mutated", m.Tags[0])

	_, ok = FindMasterpiece("nope")
	assert.False(t, ok)
}
