package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"salon-booking/cmd"
	"salon-booking/internal/gateway"
	"salon-booking/internal/usecase"
	"salon-booking/internal/wire"
	"salon-booking/pkg/cache"
	"salon-booking/pkg/database"
	"salon-booking/pkg/mq"
	"salon-booking/pkg/utils"

	"go.uber.org/zap"
)

func main() {
	config, err := utils.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.InitLogger(config.App.LogPath, config.App.Debug)
	if err != nil {
		log.Printf("Failed to init logger: %v. Using standard log.", err)
		logger, _ = zap.NewProduction()
	}
	defer logger.Sync()

	logger.Info("Starting application",
		zap.String("app", config.App.Name),
		zap.String("port", config.App.Port),
		zap.Bool("debug", config.App.Debug),
		zap.String("timezone", config.App.Location.String()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.InitDB(config.Database)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := database.Migrate(ctx, db); err != nil {
		logger.Fatal("Failed to migrate database", zap.Error(err))
	}
	logger.Info("Database connected successfully")

	deps := usecase.Deps{Gateways: buildGateways(config.Payment, logger)}

	if config.Redis.Addr != "" {
		client, err := cache.NewClient(config.Redis)
		if err != nil {
			logger.Warn("Redis unavailable, signal guard disabled", zap.Error(err))
		} else {
			defer client.Close()
			deps.Guard = cache.NewSignalGuard(client, config.Redis.SignalTTL)
		}
	}

	if config.RabbitMQ.URL != "" {
		publisher, err := mq.NewPublisher(config.RabbitMQ.URL, config.RabbitMQ.Exchange)
		if err != nil {
			logger.Warn("RabbitMQ unavailable, events disabled", zap.Error(err))
		} else {
			defer publisher.Close()
			deps.Publisher = publisher
		}
	}

	app := wire.Wiring(db, config, deps, logger)

	go app.Service.Reconcile.RunRepairLoop(ctx, config.Reconcile.RepairInterval)

	if err := cmd.APIServer(ctx, app.Router, config.App.Port, logger); err != nil {
		logger.Error("Server error", zap.Error(err))
	}
}

// buildGateways enables every provider that has credentials configured.
func buildGateways(cfg utils.PaymentConfig, logger *zap.Logger) *gateway.Registry {
	var gateways []gateway.Gateway

	if cfg.OmiseSecretKey != "" {
		omise, err := gateway.NewOmise(cfg.OmisePublicKey, cfg.OmiseSecretKey, logger)
		if err != nil {
			logger.Warn("Omise disabled", zap.Error(err))
		} else {
			gateways = append(gateways, omise)
		}
	}
	if cfg.StripeSecretKey != "" {
		gateways = append(gateways, gateway.NewStripe(cfg.StripeSecretKey, logger))
	}

	registry := gateway.NewRegistry(gateways...)
	logger.Info("Payment gateways enabled", zap.Any("methods", registry.Methods()))
	return registry
}
