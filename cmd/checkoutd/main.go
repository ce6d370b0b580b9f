package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/marketfresh/checkoutapi/internal/api"
	"github.com/marketfresh/checkoutapi/internal/config"
	"github.com/marketfresh/checkoutapi/internal/domain"
	"github.com/marketfresh/checkoutapi/internal/paygate"
	"github.com/marketfresh/checkoutapi/internal/repository/postgres"
	"github.com/marketfresh/checkoutapi/internal/service"
	"github.com/marketfresh/checkoutapi/internal/session"
	"github.com/marketfresh/checkoutapi/internal/storefront"
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

	repos := postgres.NewRepositories(db, logger)

	// Remote collaborators
	sf := storefront.NewClient(cfg.Storefront, logger)
	gateway := paygate.NewClient(cfg.Gateway, logger)

	// Session store with background eviction
	sessions := session.NewStore(cfg.SessionTTL, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sessions.StartReaper(ctx, time.Minute)

	// Services
	cards := service.NewCardService(gateway, repos.SavedCard, logger)
	captures := service.NewCaptureRegistry(
		service.NewCardGatewayCapture(gateway),
		service.NewOnDeliveryCapture(domain.MethodCash),
		service.NewOnDeliveryCapture(domain.MethodBenefits),
	)
	checkout := service.NewCheckoutService(sessions, sf, captures, cards, cfg.BalanceDebounce, logger)

	router := api.NewRouter(cfg, repos, checkout, logger)

	logger.Info("starting checkout service",
		zap.String("port", cfg.Port),
		zap.String("environment", cfg.Environment),
	)

	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("Server failed", zap.Error(err))
	}
}
