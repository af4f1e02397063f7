package main

import (
	"context"
	"log"

	"MagicMentor-server/config"
	"MagicMentor-server/logger"
	"MagicMentor-server/models"
	"MagicMentor-server/routers"
	"MagicMentor-server/routers/api"
	"MagicMentor-server/service"
)

func main() {
	if err := config.InitConfig(); err != nil {
		log.Fatalf("config: %v", err)
	}
	cfg := config.AppConfig

	lg, err := logger.New(cfg.Server.Mode)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync()
	lg.Info("Server starting", "port", cfg.Server.Port)

	db, err := models.InitDB(cfg.MySQL.DSN)
	if err != nil {
		lg.Fatal("database init failed", "error", err)
	}
	repo := models.NewSeriesRepo(db)
	lg.Info("Database initialized")

	storage, err := service.NewMinioStorage(cfg, lg)
	if err != nil {
		lg.Fatal("minio init failed", "error", err)
	}

	var gallery service.GalleryPublisher
	if cfg.Redis.Addr != "" {
		q := service.NewQueueGalleryPublisher(cfg, lg)
		defer q.Close()
		gallery = q

		processor := service.NewProcessor(db, lg)
		processor.StartProcessor(cfg, 5)
		defer processor.Shutdown()
		lg.Info("Queue initialized", "redis", cfg.Redis.Addr)
	} else {
		gallery = service.NewDBGalleryPublisher(db)
		lg.Warn("redis not configured, gallery records are written synchronously")
	}

	ctx := context.Background()
	limiter := service.NewRateLimiter(cfg.AI.RequestsPerMin)
	gemini, err := service.NewGeminiClient(ctx, cfg.AI.GeminiAPIKey)
	if err != nil {
		lg.Fatal("gemini init failed", "error", err)
	}
	tiers := service.NewGeminiTiers(gemini, cfg.AI.ReasoningTiers, limiter)

	var vision service.VisionModel
	if cfg.AI.VisionProvider == "doubao" {
		dv, err := service.NewDoubaoVision(cfg.AI.ArkBaseURL, cfg.AI.ArkAPIKey, cfg.AI.ArkVisionModel, cfg.AI.CallTimeout, limiter)
		if err != nil {
			lg.Warn("doubao vision unavailable, falling back to gemini", "error", err)
		} else {
			vision = dv
		}
	}
	if vision == nil {
		vision = service.NewGeminiVision(gemini, cfg.AI.GeminiVision, limiter)
	}

	var narrator *service.NarrationGenerator
	speech, err := service.NewMinimaxSpeech(cfg.AI.MinimaxURL, cfg.AI.MinimaxAPIKey, cfg.AI.MinimaxGroupID, cfg.AI.CallTimeout, limiter)
	if err != nil {
		lg.Warn("narration disabled", "error", err)
	} else {
		narrator = service.NewNarrationGenerator(speech, storage, cfg.AI.Voice, cfg.AI.CallTimeout, lg)
	}

	mentor := service.NewMentorService(service.MentorDeps{
		Store:         repo,
		Storage:       storage,
		Vision:        service.NewVisionDescriber(vision, cfg.AI.CallTimeout, cfg.AI.DescribeCacheTTL, lg),
		Synthesizer:   service.NewFeedbackSynthesizer(tiers, cfg.AI.CallTimeout, lg),
		Matcher:       service.NewMasterpieceMatcher(vision, cfg.AI.CallTimeout, lg),
		Narrator:      narrator,
		Gallery:       gallery,
		MaxIterations: cfg.Mentor.MaxIterations,
		UploadTimeout: cfg.MinIO.Timeout,
		Logger:        lg,
	})

	r := routers.InitRouter(api.NewMentorAPI(mentor, repo, cfg.Server.ImageMaxBytes, lg))
	if err := r.Run(cfg.Server.Port); err != nil {
		lg.Fatal("server stopped", "error", err)
	}
}
