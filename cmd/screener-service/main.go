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

	"stocxer-screener/internal/screener/config"
	"stocxer-screener/internal/screener/delivery/consumer"
	delivery "stocxer-screener/internal/screener/delivery/http"
	"stocxer-screener/internal/screener/evaluator"
	"stocxer-screener/internal/screener/repository"
	"stocxer-screener/internal/screener/service"
	"stocxer-screener/pkg/common"
	"stocxer-screener/pkg/logger"
	"stocxer-screener/pkg/postgres"
	"stocxer-screener/pkg/redis"
	"stocxer-screener/pkg/telegram"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
)

var configPath string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Starts the screener service",
	Run:   runServe,
}

func runServe(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load configuration
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Encoding)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = appLogger.Sync() }()

	appLogger.Info("Starting Screener Service", logger.Field("name", cfg.App.Name))

	// Initialize database
	postgresCfg := postgres.Config{
		Host:            cfg.Database.Host,
		Port:            cfg.Database.Port,
		User:            cfg.Database.User,
		Password:        cfg.Database.Password,
		DBName:          cfg.Database.DBName,
		SSLMode:         cfg.Database.SSLMode,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	}
	db, err := postgres.NewDB(postgresCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}
	if sqlDB, err := db.DB.DB(); err == nil {
		defer sqlDB.Close()
	}

	// Initialize Redis
	redisCfg := redis.Config{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	}
	redisClient, err := redis.NewClient(redisCfg)
	if err != nil {
		appLogger.Fatal("Failed to initialize Redis", logger.ErrorField(err))
	}
	defer redisClient.Close()

	// Create the consumer group if it doesn't exist.
	// MKSTREAM creates the stream if it doesn't exist.
	if err := redisClient.XGroupCreateMkStream(context.Background(), common.RedisStreamScreenerScan, common.RedisStreamGroup, "0").Err(); err != nil {
		if err.Error() != "BUSYGROUP Consumer Group name already exists" {
			appLogger.Fatal("Failed to create consumer group", logger.ErrorField(err))
		}
	}

	// Initialize repositories
	marketDataRepo, err := repository.NewMarketDataRepository(cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize market data repository", logger.ErrorField(err))
	}
	scanRepo := repository.NewScreenerScanRepository(db.DB)
	resultRepo := repository.NewScreenerResultRepository(db.DB)

	// Initialize Telegram notifier
	var telegramNotifier telegram.Notifier
	if cfg.Telegram.BotToken != "" {
		telegramNotifier, err = telegram.NewClient(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			appLogger.Fatal("Failed to initialize Telegram notifier", logger.ErrorField(err))
		}
	}

	// Initialize the scan service with the default weighting policy
	eval := evaluator.New(evaluator.DefaultPolicy())
	scanSvc := service.NewScanService(cfg, appLogger, redisClient.Client, marketDataRepo, scanRepo, eval, telegramNotifier)

	// Start the scan scheduler
	scheduler := service.NewScanScheduler(cfg, appLogger, scanSvc)
	if err := scheduler.Start(ctx); err != nil {
		appLogger.Fatal("Failed to start scan scheduler", logger.ErrorField(err))
	}

	// Initialize and start the Redis consumer
	redisConsumer := consumer.NewRedisConsumer(cfg, scanSvc, appLogger)
	redisConsumer.Start(ctx)

	// Initialize Echo server
	e := echo.New()
	e.HideBanner = true

	scanHandler := delivery.NewScanHandler(scanSvc, scanRepo, resultRepo, appLogger)
	apiV1 := e.Group("/api/v1")
	scansGroup := apiV1.Group("/scans")
	scanHandler.RegisterRoutes(scansGroup)

	// Start server
	go func() {
		addr := fmt.Sprintf(":%d", cfg.API.Port)
		appLogger.Info("HTTP server starting", logger.Field("address", addr))
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			appLogger.Error("HTTP server failed to start", logger.ErrorField(err))
			stop() // trigger shutdown
		}
	}()

	appLogger.Info("Screener service started. Waiting for scans...")

	// Wait for shutdown signal
	<-ctx.Done()

	appLogger.Info("Shutting down screener service...")

	scheduler.Stop()
	redisConsumer.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		appLogger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	appLogger.Info("Screener service stopped.")
}

func main() {
	rootCmd := &cobra.Command{Use: "screener-service"}

	serveCmd.Flags().StringVarP(&configPath, "config", "c", "configs/config-screener.yaml", "Path to the configuration file")

	rootCmd.AddCommand(serveCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error executing screener-service CLI: %s\n", err)
		os.Exit(1)
	}
}
