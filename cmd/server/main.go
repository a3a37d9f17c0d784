// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/unclebandit/outreach-backend/internal/app"
	"github.com/unclebandit/outreach-backend/internal/config"
	"github.com/unclebandit/outreach-backend/internal/controller"
	"github.com/unclebandit/outreach-backend/internal/db"
	"github.com/unclebandit/outreach-backend/internal/handler"
	"github.com/unclebandit/outreach-backend/internal/logger"
	"github.com/unclebandit/outreach-backend/internal/metrics"
	"github.com/unclebandit/outreach-backend/internal/queue"
	"github.com/unclebandit/outreach-backend/internal/repository"
	"github.com/unclebandit/outreach-backend/internal/service"
)

func main() {
	// Load .env
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

	// Init DB
	conn, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		logg.Fatal("failed to connect to DB", zap.Error(err))
	}
	defer conn.Close()

	version, err := db.Migrate(conn)
	if err != nil {
		logg.Fatal("migrations failed", zap.Error(err))
	}
	logg.Info("schema ready", zap.Uint("version", version))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := app.Build(ctx, cfg, logg)
	if err != nil {
		logg.Fatal("failed to wire collaborators", zap.Error(err))
	}
	defer deps.Close()

	campaignRepo := &repository.CampaignRepository{DB: conn}
	jobRepo := &repository.JobRepository{DB: conn}
	campaignService := &service.CampaignService{
		CampaignRepo: campaignRepo,
		JobRepo:      jobRepo,
		Orchestrator: deps.Orchestrator,
		Logger:       logg,
	}

	// With a broker configured, cmd/worker consumes the jobs; otherwise they run in-process.
	var inProcess *queue.InMemoryQueue
	if cfg.AMQPURL != "" {
		q, err := queue.DialAMQP(cfg.AMQPURL, logg)
		if err != nil {
			logg.Fatal("failed to connect to RabbitMQ", zap.Error(err))
		}
		defer q.Close()
		campaignService.Queue = q
	} else {
		inProcess = queue.NewInMemoryQueue(logg)
		campaignService.Queue = inProcess

		worker := service.NewWorker(jobRepo, campaignService, deps.Metrics, logg)
		if err := worker.Subscribe(ctx, inProcess); err != nil {
			logg.Fatal("failed to register worker", zap.Error(err))
		}
	}

	campaignController := &controller.CampaignController{CampaignService: campaignService}
	campaignHandler := handler.NewCampaignHandler(campaignService, logg)
	router := handler.NewRouter(campaignController, campaignHandler, metrics.Handler(deps.Registry))

	port := cfg.HTTPPort
	if port == 0 {
		port = 8080
	}
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logg.Info("🚀 Server running", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", zap.Error(err))
	}
	if inProcess != nil {
		inProcess.Wait()
	}
}
