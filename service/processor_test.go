package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"MagicMentor-server/logger"
	"MagicMentor-server/models"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newGalleryDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, models.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func galleryTask(t *testing.T, rec models.GalleryRecord) *asynq.Task {
	t.Helper()
	payload, err := json.Marshal(GalleryPayload{Record: rec})
	require.NoError(t, err)
	return asynq.NewTask(TypeGalleryRecord, payload)
}

func TestHandleGalleryRecord(t *testing.T) {
	db := newGalleryDB(t)
	p := NewProcessor(db, logger.NewNop())
	rec := models.GalleryRecord{
		ID:     "s-1-1",
		UserID: "kid-1",
		Type:   models.GalleryTypeMasterpiece,
		Prompt: "Journey Step 1: Vincent van Gogh",
		Meta:   models.GalleryMeta{SeriesID: "s-1", Step: 1},
	}

	require.NoError(t, p.HandleGalleryRecord(context.Background(), galleryTask(t, rec)))
	// 重试投递不会重复写入
	require.NoError(t, p.HandleGalleryRecord(context.Background(), galleryTask(t, rec)))

	recs, err := models.ListGalleryRecords(db, "kid-1", 10)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "s-1", recs[0].Meta.SeriesID)
}

func TestHandleGalleryRecord_BadPayloadSkipsRetry(t *testing.T) {
	p := NewProcessor(newGalleryDB(t), logger.NewNop())

	err := p.HandleGalleryRecord(context.Background(), asynq.NewTask(TypeGalleryRecord, []byte("{")))
	assert.True(t, errors.Is(err, asynq.SkipRetry))

	err = p.HandleGalleryRecord(context.Background(), galleryTask(t, models.GalleryRecord{}))
	assert.True(t, errors.Is(err, asynq.SkipRetry))
}

func TestDBGalleryPublisher(t *testing.T) {
	db := newGalleryDB(t)
	pub := NewDBGalleryPublisher(db)
	require.NoError(t, pub.Publish(context.Background(), models.GalleryRecord{ID: "r-1", UserID: "kid-1"}))

	recs, err := models.ListGalleryRecords(db, "kid-1", 10)
	require.NoError(t, err)
	assert.Len(t, recs, 1)
}
