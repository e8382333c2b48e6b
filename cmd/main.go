package main

import (
	"context"
	"encoding/base64"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"
	"go.uber.org/zap"

	"github.com/salonsuite/salon-core/internal/config"
	"github.com/salonsuite/salon-core/internal/infrastructure/line"
	"github.com/salonsuite/salon-core/internal/middleware"
	"github.com/salonsuite/salon-core/internal/repository"
	"github.com/salonsuite/salon-core/internal/server"
	"github.com/salonsuite/salon-core/internal/telemetry"
)

func main() {
	// Load configuration. A missing SESSION_SECRET dies here: the service
	// must not start without a signing secret.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := telemetry.NewLogger(cfg.Server.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	logger.Info("starting salon-core service")

	ctx := context.Background()

	// Initialize OpenTelemetry (OTLP/HTTP with basic auth headers)
	authString := cfg.OTEL.InstanceID + ":" + cfg.OTEL.Token
	authEncoded := base64.StdEncoding.EncodeToString([]byte(authString))

	otelProvider, err := telemetry.Initialize(ctx, telemetry.Config{
		ServiceName:    cfg.OTEL.ServiceName,
		ServiceVersion: cfg.OTEL.ServiceVersion,
		Environment:    cfg.OTEL.Environment,
		OTLPEndpoint:   cfg.OTEL.Endpoint,
		OTLPHeaders: map[string]string{
			"Authorization": "Basic " + authEncoded,
		},
		Enabled: cfg.OTEL.Enabled,
	})
	if err != nil {
		logger.Warn("failed to initialize OpenTelemetry", zap.Error(err))
	}
	if otelProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			otelProvider.Shutdown(shutdownCtx)
		}()
	}

	// Initialize the external identity provider for salon owners
	firebaseApp, err := middleware.InitFirebase(
		cfg.Firebase.ProjectID,
		cfg.Firebase.PrivateKey,
		cfg.Firebase.ClientEmail,
	)
	if err != nil {
		logger.Fatal("failed to initialize Firebase", zap.Error(err))
	}

	ownerAuth, err := firebaseApp.Auth(ctx)
	if err != nil {
		logger.Fatal("failed to get Firebase Auth client", zap.Error(err))
	}
	logger.Info("identity provider initialized")

	// Connect to MongoDB with OpenTelemetry instrumentation
	ctxMongo, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	mongoOpts := options.Client().ApplyURI(cfg.MongoDB.URI)
	if cfg.OTEL.Enabled {
		mongoOpts.SetMonitor(otelmongo.NewMonitor())
	}

	mongoClient, err := mongo.Connect(ctxMongo, mongoOpts)
	if err != nil {
		logger.Fatal("failed to connect to MongoDB", zap.Error(err))
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			logger.Error("error disconnecting from MongoDB", zap.Error(err))
		}
	}()

	if err := mongoClient.Ping(ctxMongo, nil); err != nil {
		logger.Fatal("failed to ping MongoDB", zap.Error(err))
	}
	logger.Info("MongoDB connected")

	mongoDB := mongoClient.Database(cfg.MongoDB.Database)

	// Connect to Redis (the durable tenant cache store)
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       0,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("failed to connect to Redis", zap.Error(err))
	}
	logger.Info("Redis connected")

	app, err := server.NewApp(server.AppDependencies{
		Config:       cfg,
		Logger:       logger,
		StaffRepo:    repository.NewMongoStaffRepository(mongoDB),
		SalonRepo:    repository.NewMongoSalonRepository(mongoDB),
		CustomerRepo: repository.NewMongoCustomerRepository(mongoDB),
		CacheStore:   repository.NewRedisCacheStore(redisClient),
		OwnerAuth:    ownerAuth,
		LineAuth:     line.NewClient(cfg.Line),
	})
	if err != nil {
		logger.Fatal("failed to build application", zap.Error(err))
	}

	// Graceful shutdown on SIGINT/SIGTERM
	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig
		logger.Info("shutting down")
		_ = app.Shutdown()
	}()

	if err := app.Listen(":" + cfg.Server.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
