package main

import (
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/bazaarhub/marketplace-api/internal/api"
	"github.com/bazaarhub/marketplace-api/internal/config"
	"github.com/bazaarhub/marketplace-api/internal/notify"
	"github.com/bazaarhub/marketplace-api/internal/payment"
	"github.com/bazaarhub/marketplace-api/internal/repository/postgres"
	"github.com/bazaarhub/marketplace-api/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	var logger *zap.Logger
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Connect to database
	db, err := postgres.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Apply schema migrations
	if err := postgres.Migrate(db, cfg.MigrationsPath, logger); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}

	// Wire repositories and collaborators
	repos := postgres.NewRepositories(db, logger)
	gateway := payment.NewClient(cfg.Razorpay, logger)

	var notifier notify.Notifier = notify.Nop{}
	if cfg.Notify.WebhookURL != "" {
		notifier = notify.NewWebhookNotifier(cfg.Notify, logger)
	} else {
		logger.Warn("NOTIFY_WEBHOOK_URL not set; order notifications disabled")
	}

	services := &api.Services{
		Cart:    service.NewCartService(repos, logger),
		Order:   service.NewOrderService(repos, notifier, logger),
		Payment: service.NewPaymentService(repos, gateway, notifier, logger),
	}

	router := api.NewRouter(cfg, services, logger)

	logger.Info("Starting server",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server exited", zap.Error(err))
	}
}
