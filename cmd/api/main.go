package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"github.com/shiftly-dev/shiftly/backend/internal/config"
	"github.com/shiftly-dev/shiftly/backend/internal/handler"
	"github.com/shiftly-dev/shiftly/backend/internal/notify"
	"github.com/shiftly-dev/shiftly/backend/internal/ratelimit"
	"github.com/shiftly-dev/shiftly/backend/internal/repository"
	"github.com/shiftly-dev/shiftly/backend/internal/service"

	_ "github.com/jackc/pgx/v5/stdlib"
)

func main() {
	/**********************************************
	 * Load config
	 **********************************************/
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	/**********************************************
	 * Logger
	 **********************************************/
	var logHandler slog.Handler = slog.NewTextHandler(os.Stdout, nil)
	if cfg.Environment == "production" {
		logHandler = slog.NewJSONHandler(os.Stdout, nil)
	}
	logger := slog.New(logHandler)
	slog.SetDefault(logger)

	/**********************************************
	 * Database
	 **********************************************/
	dbpool, err := sql.Open("pgx", cfg.Database.DSN)
	if err != nil {
		logger.Error("failed to create database pool", "error", err)
		os.Exit(1)
	}
	defer dbpool.Close()

	dbpool.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	dbpool.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	dbpool.SetConnMaxIdleTime(time.Duration(cfg.Database.MaxIdleTime) * time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Database.ConnectTimeout)*time.Second)
	defer cancel()

	// sql.Open does not connect, so ping once to fail fast
	if err := dbpool.PingContext(ctx); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	repo := repository.NewRepository(cfg, dbpool)

	if cfg.Database.AutoMigrate {
		if err := repo.Migrate(ctx); err != nil {
			logger.Error("failed to apply schema", "error", err)
			os.Exit(1)
		}
		logger.Info("schema is up to date")
	}

	/**********************************************
	 * RabbitMQ (optional)
	 **********************************************/
	var notifier service.Notifier
	if cfg.RabbitMQ.DSN != "" {
		conn, err := amqp.Dial(cfg.RabbitMQ.DSN)
		if err != nil {
			logger.Error("failed to connect to rabbitmq", "error", err)
			os.Exit(1)
		}
		defer conn.Close()

		ch, err := conn.Channel()
		if err != nil {
			logger.Error("failed to open channel", "error", err)
			os.Exit(1)
		}
		defer ch.Close()

		if _, err := notify.DeclareQueue(ch, cfg.RabbitMQ.Queue); err != nil {
			logger.Error("failed to declare queue", "error", err)
			os.Exit(1)
		}

		notifier = notify.NewNotifier(ch, cfg.RabbitMQ.Queue, time.Duration(cfg.RabbitMQ.PublishTimeout)*time.Second)
	} else {
		logger.Warn("RABBITMQ_DSN is not set, mail notifications are disabled")
	}

	/**********************************************
	 * Redis (optional)
	 **********************************************/
	var limiter ratelimit.Limiter
	if cfg.Redis.Host != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:        fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port),
			Password:    cfg.Redis.Password,
			DB:          0,
			DialTimeout: time.Duration(cfg.Redis.ConnectTimeout) * time.Second,
		})
		defer rdb.Close()

		if err := rdb.Ping(ctx).Err(); err != nil {
			// the limiter fails open, so a missing redis only costs the throttling
			logger.Warn("failed to reach redis", "error", err)
		}

		limiter = ratelimit.NewRedisLimiter(rdb, "shiftly:login:", time.Duration(cfg.Redis.OperationTimeout)*time.Millisecond)
	} else {
		logger.Warn("REDIS_HOST is not set, login throttling is per process")
		limiter = ratelimit.NewMemoryLimiter()
	}

	/**********************************************
	 * Handler
	 **********************************************/
	svc := service.New(cfg, repo, notifier)

	h, err := handler.NewHandler(cfg, svc, limiter)
	if err != nil {
		logger.Error("failed to create handler", "error", err)
		os.Exit(1)
	}
	h.RegisterRoutes()

	/**********************************************
	 * HTTP server
	 **********************************************/
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      h.Mux,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server stopped", slog.String("error", err.Error()))
			quit <- syscall.SIGTERM
		}
	}()

	<-quit
	logger.Info("shutting down server")

	ctx, cancel = context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout)*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("failed to shut down server", slog.String("error", err.Error()))
	}
	logger.Info("server stopped")
}
