package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-code-evaluator/internal/config"
	"github.com/noah-isme/gema-code-evaluator/internal/database"
	"github.com/noah-isme/gema-code-evaluator/internal/handler"
	"github.com/noah-isme/gema-code-evaluator/internal/middleware"
	"github.com/noah-isme/gema-code-evaluator/internal/models"
	"github.com/noah-isme/gema-code-evaluator/internal/repository"
	"github.com/noah-isme/gema-code-evaluator/internal/router"
	"github.com/noah-isme/gema-code-evaluator/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Backing services are optional: analysis works without any of them.
	db := connectDatabase(cfg, logger)
	redisClient := connectRedis(cfg, logger)
	natsConn := connectNATS(cfg, logger)

	var records repository.EvaluationRepository
	health := handler.HealthDependencies{}
	if db != nil {
		records = repository.NewEvaluationRepository(db)
		health.Database = func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		}
	}
	if redisClient != nil {
		defer redisClient.Close()
		health.Cache = func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		}
	}

	var publisher service.EventPublisher
	if natsConn != nil {
		defer natsConn.Drain()
		publisher = natsConn
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	evaluationService := service.NewEvaluationService(records, redisClient, publisher, validate, logger, service.EvaluationServiceConfig{
		CacheTTL:     cfg.CacheTTL,
		EventSubject: cfg.NATSSubject,
	})
	evaluationHandler := handler.NewEvaluationHandler(evaluationService, validate, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		ErrorHandler: middleware.ErrorHandler(logger),
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		EvaluationHandler: evaluationHandler,
		Health:            health,
		RateLimiter:       middleware.RateLimit("evaluate", cfg.RateLimitMax, cfg.RateLimitWindow),
	})

	go func() {
		logger.Info().Str("address", cfg.HTTPAddress()).Msg("server starting")
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	waitForShutdown(app, logger)
}

func connectDatabase(cfg config.Config, logger zerolog.Logger) *gorm.DB {
	if cfg.DatabaseURL == "" {
		logger.Info().Msg("database url not set, evaluation history disabled")
		return nil
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Warn().Err(err).Msg("database unavailable, evaluation history disabled")
		return nil
	}

	if err := db.AutoMigrate(&models.EvaluationRecord{}); err != nil {
		logger.Warn().Err(err).Msg("failed to migrate database, evaluation history disabled")
		return nil
	}

	logger.Info().Msg("database connected")
	return db
}

func connectRedis(cfg config.Config, logger zerolog.Logger) *redis.Client {
	if cfg.RedisURL == "" {
		return nil
	}

	client, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		logger.Warn().Err(err).Msg("redis unavailable, result cache disabled")
		return nil
	}
	return client
}

func connectNATS(cfg config.Config, logger zerolog.Logger) *nats.Conn {
	if cfg.NATSURL == "" {
		return nil
	}

	conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Warn().Err(err).Msg("nats unavailable, evaluation events disabled")
		return nil
	}
	return conn
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
