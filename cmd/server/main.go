package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/go-redis/redis_rate/v9"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/config"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/database"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/logging"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/metrics"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/middleware"
	"github.com/KhoaNguyenNe/QuanLySucKhoe/internal/routes"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("failed to load config: %s", err)
	}

	logging.Setup(logging.LoggerSetupParams{
		LogFileName:      cfg.LogFile,
		LogToStdout:      cfg.LogStdout,
		LogLevel:         cfg.LogLevel,
		LogFormatJSON:    cfg.LogJSON,
		Environment:      cfg.AppEnv,
		SentryDSN:        cfg.SentryDSN,
		SentryServerName: cfg.ServerName,
	})

	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Connect(ctx, cfg.DBUrl, database.DefaultPoolParams())
	if err != nil {
		log.Fatalf("failed to connect to database: %s", err)
	}
	defer db.Close()

	deps := routes.Dependencies{}

	app := fiber.New(fiber.Config{
		AppName:      cfg.ServerName,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
	})

	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	if cfg.MetricsEnabled {
		promRegistry := metrics.SetupPrometheus()
		deps.Metrics = metrics.NewManager("healthtrack", "main", promRegistry)
		app.Use(middleware.RequestMetrics(deps.Metrics))
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{})))
	}

	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer func() {
			if err := rdb.Close(); err != nil {
				log.Errorf("close redis: %s", err)
			}
		}()

		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Errorf("failed to ping redis: %s", err)
		}
		deps.RateLimiter = redis_rate.NewLimiter(rdb)
	} else {
		log.Warnln("REDIS_ADDR not set, OTP rate limiting disabled")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	if err := routes.RegisterRoutes(ctx, app, cfg, db, deps); err != nil {
		log.Fatalf("failed to register routes: %s", err)
	}

	chOsInterrupt := make(chan os.Signal, 1)
	signal.Notify(chOsInterrupt, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Infof("server starting on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Errorf("server stopped: %s", err)
			chOsInterrupt <- syscall.SIGTERM
		}
	}()

	<-chOsInterrupt
	log.Infoln("shutting down")
	cancel()

	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		log.Errorf("shutdown: %s", err)
	}
	log.Infoln("server stopped")
}
