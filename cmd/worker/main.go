package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-backend/internal/app"
	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/db"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
	"github.com/unclebandit/outreach-backend/internal/service"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.Load(nil)
	if err != nil {
		log.Fatal("invalid configuration: ", err)
	}
	logg, err := logger.New(cfg.Debug)
	if err != nil {
		log.Fatal("failed to build logger: ", err)
	}
	defer logg.Sync()

	if err := cfg.RequireDatabase(); err != nil {
		logg.Fatal("database not configured", zap.Error(err))
	}
	if cfg.AMQPURL == "" {
		logg.Fatal("AMQP_URL is not set")
	}

	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logg.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer conn.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("failed to wire collaborators", zap.Error(err))
	}
	defer deps.Close()

	q, err := queue.DialAMQP(cfg.AMQPURL, logg)
	if err != nil {
		logg.Fatal("failed to connect to RabbitMQ", zap.Error(err))
	}
	defer q.Close()

	jobRepo := &repository.JobRepository{DB: conn}
	campaignService := &service.CampaignService{
		CampaignRepo: &repository.CampaignRepository{DB: conn},
		JobRepo:      jobRepo,
		Queue:        q,
		Orchestrator: deps.Orchestrator,
		Logger:       logg,
	}

	worker := service.NewWorker(jobRepo, campaignService, deps.Metrics, logg)
	if err := worker.Subscribe(ctx, q); err != nil {
		logg.Fatal("failed to register consumer", zap.Error(err))
	}

	logg.Info("worker running, waiting for jobs", zap.String("queue", queue.TopicCampaignJobs))
	<-ctx.Done()
	logg.Info("worker stopping")
}
