package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/gema-mastery-api/internal/config"
	"github.com/noah-isme/gema-mastery-api/internal/database"
	"github.com/noah-isme/gema-mastery-api/internal/grading"
	"github.com/noah-isme/gema-mastery-api/internal/handler"
	"github.com/noah-isme/gema-mastery-api/internal/middleware"
	"github.com/noah-isme/gema-mastery-api/internal/repository"
	"github.com/noah-isme/gema-mastery-api/internal/router"
	"github.com/noah-isme/gema-mastery-api/internal/service"
	"github.com/noah-isme/gema-mastery-api/pkg/ai"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(context.Background(), cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable, mastery status cache and redis events disabled")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var natsConn *nats.Conn
	if cfg.NATSURL != "" {
		natsConn, err = database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, mastery events will not be published to nats")
			natsConn = nil
		} else {
			defer natsConn.Close()
		}
	}

	collaborators, err := ai.NewFromSettings(ai.Settings{
		Provider:        cfg.AIProvider,
		OpenAIAPIKey:    cfg.OpenAIAPIKey,
		AnthropicAPIKey: cfg.AnthropicAPIKey,
		GenerationModel: cfg.GenerationModel,
		GradingModel:    cfg.GradingModel,
		Logger:          logger,
	})
	if err != nil {
		log.Fatalf("failed to configure ai provider: %v", err)
	}

	validate := service.NewRequestValidator()

	assessmentRepo := repository.NewAssessmentRepository(db)
	objectiveRepo := repository.NewObjectiveRepository(db)
	masteryRepo := repository.NewMasteryRepository(db)
	unitOfWork := repository.NewUnitOfWork(db)

	masteryService := service.NewMasteryService(masteryRepo, redisClient, cfg.MasteryStatusCacheTTL, cfg.MasteryLocation, logger)
	events := service.NewMasteryEventPublisher(redisClient, natsConn, cfg.EventsChannel, logger)
	assessmentService := service.NewAssessmentService(service.AssessmentDependencies{
		Assessments: assessmentRepo,
		Objectives:  objectiveRepo,
		UnitOfWork:  unitOfWork,
		Mastery:     masteryService,
		Generator:   collaborators,
		Grader:      grading.NewGrader(collaborators, logger),
		Events:      events,
		Validator:   validate,
		Logger:      logger,
	})

	assessmentHandler := handler.NewAssessmentHandler(assessmentService, masteryService, cfg.GenerateRatePerMinute, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger, AllowOrigins: cfg.CORSAllowOrigins})
	router.Register(app, cfg, router.Dependencies{
		AssessmentHandler: assessmentHandler,
		JWTMiddleware:     middleware.JWTProtected(cfg.JWTSecret),
		HealthChecks:      healthChecks(db, redisClient, natsConn),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app)
}

func healthChecks(db *gorm.DB, redisClient *redis.Client, natsConn *nats.Conn) []handler.DependencyCheck {
	checks := []handler.DependencyCheck{{
		Name:     "database",
		Required: true,
		Check: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}}
	if redisClient != nil {
		checks = append(checks, handler.DependencyCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}
	if natsConn != nil {
		checks = append(checks, handler.DependencyCheck{
			Name: "nats",
			Check: func(context.Context) error {
				if !natsConn.IsConnected() {
					return errors.New("nats " + natsConn.Status().String())
				}
				return nil
			},
		})
	}
	return checks
}

func waitForShutdown(app *fiber.App) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
