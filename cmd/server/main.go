package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"reservation-service/config"
	"reservation-service/internal/api"
	"reservation-service/internal/auth"
	"reservation-service/internal/broker"
	"reservation-service/internal/redisclient"
	"reservation-service/internal/service"
	"reservation-service/internal/store"
	"reservation-service/internal/sweeper"
	"reservation-service/internal/util"
	"reservation-service/internal/worker"

	"github.com/gin-gonic/gin"
)

const bootstrapLockKey = "schema-bootstrap"

func main() {

	cfg := config.Load()

	if err := util.InitLogger(cfg.Server.Env); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer util.SyncLogger()

	logger := util.GetLogger()
	logger.Info("Starting reservation service")

	tp, err := util.InitTracer("reservation-service", cfg.Observ.JaegerEndpoint)
	if err != nil {
		log.Fatalf("Failed to initialize tracer: %v", err)
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			log.Printf("Error shutting down tracer: %v", err)
		}
	}()

	db, err := store.NewStore(cfg.Database.URL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Database connected")

	redisClient, err := redisclient.NewClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	log.Println("Redis connected")

	bootstrapSchema(db, redisClient)

	producer := broker.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotification)
	defer producer.Close()
	log.Println("Kafka producer initialized")

	eventPublisher := broker.NewEventPublisher(producer)
	notifier := service.NewKafkaNotifier(eventPublisher, db)

	reservationService := service.NewReservationService(db, notifier, cfg.Business.PickupWindowMinutes)
	inventoryService := service.NewInventoryService(db, redisClient)

	timeoutSweeper := sweeper.New(db, notifier, redisClient,
		cfg.Business.NoResponseThreshold, cfg.Business.SweepInterval)

	workerCtx, workerCancel := context.WithCancel(context.Background())
	defer workerCancel()

	go timeoutSweeper.Run(workerCtx)

	notificationConsumer := broker.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicNotification, cfg.Kafka.ConsumerGroup)
	notificationWorker := worker.NewNotificationWorker(notificationConsumer, db)
	go func() {
		if err := notificationWorker.Start(workerCtx); err != nil {
			log.Printf("Notification worker error: %v", err)
		}
	}()

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	jwtManager := auth.NewJWTManager(cfg.Auth.JWTSecret, 24*time.Hour)

	router := gin.New()
	handler := api.NewHandler(reservationService, inventoryService, db, timeoutSweeper)
	handler.SetupRoutes(router, api.AuthMiddleware(jwtManager, logger))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting HTTP server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	workerCancel()
	timeoutSweeper.Stop()
	notificationWorker.Stop()

	log.Println("Server exited")
}

// bootstrapSchema applies the idempotent schema, serialized across
// instances by a Redis lock so only one runs the DDL per rollout.
func bootstrapSchema(db *store.Store, redisClient *redisclient.Client) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	acquired, err := redisClient.AcquireLock(ctx, bootstrapLockKey, 30*time.Second)
	if err != nil {
		log.Printf("Bootstrap lock unavailable, applying schema anyway: %v", err)
	} else if !acquired {
		log.Println("Bootstrap lock held by another instance, skipping schema apply")
		return
	} else {
		defer func() {
			if err := redisClient.ReleaseLock(ctx, bootstrapLockKey); err != nil {
				log.Printf("Failed to release bootstrap lock: %v", err)
			}
		}()
	}

	if err := db.Bootstrap(ctx); err != nil {
		log.Fatalf("Failed to bootstrap schema: %v", err)
	}
	log.Println("Schema bootstrap complete")
}
