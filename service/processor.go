package service

import (
	"context"
	"encoding/json"
	"fmt"

	"MagicMentor-server/config"
	"MagicMentor-server/logger"
	"MagicMentor-server/models"

	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

// Processor 消费作品墙队列，把记录写入数据库
type Processor struct {
	DB  *gorm.DB
	log *logger.Logger
	srv *asynq.Server
}

func NewProcessor(db *gorm.DB, log *logger.Logger) *Processor {
	return &Processor{
		DB:  db,
		log: log.With("component", "Processor"),
	}
}

// StartProcessor 启动任务消费者
func (p *Processor) StartProcessor(cfg *config.Config, concurrency int) {
	p.srv = asynq.NewServer(
		redisOpt(cfg),
		asynq.Config{
			Concurrency: concurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeGalleryRecord, p.HandleGalleryRecord)

	p.log.Info("starting gallery processor", "concurrency", concurrency)
	go func() {
		if err := p.srv.Run(mux); err != nil {
			p.log.Fatal("could not run processor", "error", err)
		}
	}()
}

func (p *Processor) Shutdown() {
	if p.srv != nil {
		p.srv.Shutdown()
	}
}

// HandleGalleryRecord 幂等写入；数据库错误返回 err 触发重试
func (p *Processor) HandleGalleryRecord(ctx context.Context, t *asynq.Task) error {
	var payload GalleryPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("json.Unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}
	rec := payload.Record
	if rec.ID == "" || rec.UserID == "" {
		return fmt.Errorf("gallery record missing id or user: %w", asynq.SkipRetry)
	}

	if err := models.SaveGalleryRecord(p.DB.WithContext(ctx), &rec); err != nil {
		p.log.Warn("save gallery record failed", "recordId", rec.ID, "error", err)
		return err
	}
	p.log.Info("gallery record saved", "recordId", rec.ID, "userId", rec.UserID)
	return nil
}
