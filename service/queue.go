package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"MagicMentor-server/config"
	"MagicMentor-server/logger"
	"MagicMentor-server/models"

	"github.com/hibiken/asynq"
)

const (
	TypeGalleryRecord = "gallery:record"
)

type GalleryPayload struct {
	Record models.GalleryRecord `json:"record"`
}

func redisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
	}
}

// QueueGalleryPublisher 把作品墙记录投递到 asynq，由 Processor 异步落库
type QueueGalleryPublisher struct {
	client *asynq.Client
	log    *logger.Logger
}

func NewQueueGalleryPublisher(cfg *config.Config, log *logger.Logger) *QueueGalleryPublisher {
	return &QueueGalleryPublisher{
		client: asynq.NewClient(redisOpt(cfg)),
		log:    log.With("component", "QueueGalleryPublisher"),
	}
}

func (q *QueueGalleryPublisher) Publish(ctx context.Context, rec models.GalleryRecord) error {
	payload, err := json.Marshal(GalleryPayload{Record: rec})
	if err != nil {
		return fmt.Errorf("marshal payload failed: %w", err)
	}

	task := asynq.NewTask(TypeGalleryRecord, payload,
		asynq.MaxRetry(3),
		asynq.Timeout(time.Minute),
		asynq.Retention(24*time.Hour),
		// 同一章节重复投递只保留一个
		asynq.TaskID(rec.ID),
	)

	info, err := q.client.EnqueueContext(ctx, task)
	if err != nil {
		return fmt.Errorf("enqueue failed: %w", err)
	}
	q.log.Debug("gallery record enqueued", "recordId", rec.ID, "taskId", info.ID)
	return nil
}

func (q *QueueGalleryPublisher) Close() error {
	return q.client.Close()
}
