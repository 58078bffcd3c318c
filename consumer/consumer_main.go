package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/tnqbao/gau-drive-service/config"
	"github.com/tnqbao/gau-drive-service/consumer/worker"
	infraPkg "github.com/tnqbao/gau-drive-service/infra"
	"github.com/tnqbao/gau-drive-service/provider"
	"github.com/tnqbao/gau-drive-service/repository"
)

func main() {
	err := godotenv.Load("../staging.env")
	if err != nil {
		log.Println("No .env file found, continuing with environment variables")
	}

	cfg := config.NewConfig()
	infra := infraPkg.InitInfra(cfg)
	repo := repository.InitRepository(infra.Postgres.DB)
	prov := provider.InitProvider(cfg, infra, repo)

	// Initialize context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start Email Consumer
	emailConsumer := worker.NewEmailConsumer(infra.RabbitMQ.Channel, infra)
	if err := emailConsumer.Start(ctx); err != nil {
		infra.Logger.ErrorWithContextf(ctx, err, "Failed to start Email consumer: %v", err)
		log.Fatalf("Failed to start Email consumer: %v", err)
	}

	// Start Trash Collector
	prov.Cleanup.Start(ctx, cfg.EnvConfig.Trash.CleanupInterval)
	infra.Logger.InfoWithContextf(ctx, "Trash collector started with interval %s", cfg.EnvConfig.Trash.CleanupInterval)

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	infra.Logger.InfoWithContextf(ctx, "Shutting down consumer...")
	cancel() // Cancel context to stop consumers

	infra.Logger.InfoWithContextf(ctx, "Consumer exited properly")
}
