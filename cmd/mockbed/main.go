package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/cuongbtq/testbed-contrib/internal/config"
	"github.com/cuongbtq/testbed-contrib/internal/mockbed/handler"
	"github.com/cuongbtq/testbed-contrib/internal/mockbed/router"
	"github.com/cuongbtq/testbed-contrib/internal/mockbed/sim"
	"github.com/cuongbtq/testbed-contrib/internal/notify"
	"github.com/cuongbtq/testbed-contrib/shared/logger"
	"github.com/cuongbtq/testbed-contrib/shared/rabbitmq"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables or flags")
	}

	// Parse command-line flags
	defaultConfigPath := os.Getenv("MOCKBED_CONFIG_PATH")
	if defaultConfigPath == "" {
		defaultConfigPath = "configs/mockbed/config.yaml"
	}
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Initialize logger
	appLogger, err := initLogger(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	appLogger.Info("Starting mockbed service",
		slog.String("app", cfg.App.Name),
		slog.String("version", cfg.App.Version),
		slog.String("environment", cfg.App.Environment),
	)

	// Initialize event notifier
	var notifier notify.Notifier = notify.Nop{}
	var amqpNotifier *notify.AMQPNotifier
	if cfg.Events.Enabled {
		startupCtx, cancelStartup := context.WithTimeout(context.Background(), 30*time.Second)
		amqpNotifier, err = initNotifier(startupCtx, &cfg.Events.RabbitMQ, appLogger.Logger)
		cancelStartup()
		if err != nil {
			return fmt.Errorf("failed to initialize event notifier: %w", err)
		}
		notifier = amqpNotifier

		appLogger.Info("Event notifier connected")
	}

	// Build and start the simulated testbed
	bed, err := initBed(&cfg.Testbed, appLogger.Logger)
	if err != nil {
		return fmt.Errorf("failed to build testbed: %w", err)
	}

	if err := bed.Start(); err != nil {
		return fmt.Errorf("failed to start testbed: %w", err)
	}

	appLogger.Info("Testbed started",
		slog.String("testbed", bed.Name()),
		slog.Int("devices", bed.Size()),
	)

	// Initialize router
	r := initRouter(cfg.App.Environment, appLogger.Logger, bed, notifier)

	// Create HTTP server
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	appLogger.Info("Starting HTTP server",
		slog.String("address", addr),
		slog.Duration("read_timeout", cfg.Server.ReadTimeout),
		slog.Duration("write_timeout", cfg.Server.WriteTimeout),
	)

	// Start server in goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Error("Server failed to start",
				slog.Any("error", err),
			)
			os.Exit(1)
		}
	}()

	appLogger.Info("Mockbed service is running",
		slog.String("address", addr),
	)

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)

	// Cleanup function to close all resources
	cleanup := func() {
		cancel()
		bed.Stop()
		if amqpNotifier != nil {
			amqpNotifier.Close()
		}
		appLogger.Close()
	}
	defer cleanup()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Error("Server forced to shutdown",
			slog.Any("error", err),
		)
		return err
	}

	appLogger.Info("Server shutdown complete")
	return nil
}

// initLogger initializes and configures the application logger
func initLogger(cfg *config.LoggingConfig) (*logger.Logger, error) {
	loggerCfg := &logger.Config{
		Level:        cfg.Level,
		Format:       cfg.Format,
		Output:       cfg.Output,
		EnableSource: cfg.EnableCaller,
		TimeFormat:   time.RFC3339,
	}

	return logger.New(loggerCfg)
}

// initBed builds the simulated testbed from configuration
func initBed(cfg *config.TestbedConfig, logger *slog.Logger) (*sim.Bed, error) {
	bed := sim.NewBed(cfg.Name, logger)

	for _, device := range cfg.Devices {
		spec := sim.Spec{
			Name:      device.Name,
			Host:      cfg.Host,
			Port:      device.Port,
			StartDown: device.StartDown,
			UpAfter:   device.UpAfter,
		}
		if _, err := bed.Add(spec); err != nil {
			return nil, err
		}
	}

	return bed, nil
}

// initNotifier connects the RabbitMQ event notifier
func initNotifier(ctx context.Context, cfg *config.RabbitMQConfig, logger *slog.Logger) (*notify.AMQPNotifier, error) {
	rabbitConfig := &rabbitmq.Config{
		Host:              cfg.Host,
		Port:              cfg.Port,
		User:              cfg.User,
		Password:          cfg.Password,
		VHost:             cfg.VHost,
		ExchangeName:      cfg.Exchange.Name,
		ExchangeType:      cfg.Exchange.Type,
		ExchangeDurable:   cfg.Exchange.Durable,
		QueueName:         cfg.Queue.Name,
		QueueDurable:      cfg.Queue.Durable,
		RoutingKey:        cfg.RoutingKey,
		RetryAttempts:     cfg.Connection.RetryAttempts,
		RetryInterval:     cfg.Connection.RetryInterval,
		Heartbeat:         cfg.Connection.Heartbeat,
		PublishRetries:    cfg.Publish.RetryAttempts,
		PublishRetryDelay: cfg.Publish.RetryInterval,
	}

	return notify.NewAMQPNotifierFromConfig(ctx, rabbitConfig, logger)
}

// initRouter initializes the Gin router with all routes and middleware
func initRouter(environment string, logger *slog.Logger, bed *sim.Bed, notifier notify.Notifier) *gin.Engine {
	// Set Gin mode based on environment
	if environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize handler dependencies
	handlerDeps := &handler.Dependencies{
		Logger:   logger,
		Bed:      bed,
		Notifier: notifier,
	}

	// Setup router
	return router.SetupRouter(handlerDeps)
}
