// The api binary runs the bill-splitting HTTP server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/patungan-app/patungan-backend/internal/api"
	"github.com/patungan-app/patungan-backend/internal/application/service"
	"github.com/patungan-app/patungan-backend/internal/config"
	"github.com/patungan-app/patungan-backend/internal/observability"
	"github.com/patungan-app/patungan-backend/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg := config.LoadOrEnv()
	logger := observability.NewLogger(cfg.Observability.Logging)

	store, err := storage.New(cfg.Storage.DatabasePath)
	if err != nil {
		logger.Error("failed to open storage", "path", cfg.Storage.DatabasePath, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := service.NewBillService(store, logger)

	server := api.NewServer(api.Config{
		Port:           cfg.Server.Port,
		AllowedOrigins: cfg.Server.AllowedOrigins,
	}, svc, store, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := server.Start(ctx); err != nil {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
}
