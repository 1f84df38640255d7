// @title           Task List API
// @version         1.0
// @description     Users, tasks and task status counts.
// @host            localhost:8080
// @BasePath        /
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tasklist/config"
	"tasklist/handlers"
	"tasklist/store"
	"tasklist/utils"

	_ "tasklist/docs"

	"github.com/spf13/pflag"
)

func main() {
	addr := pflag.String("addr", "", "listen address, overrides HTTP_ADDR")
	envFile := pflag.String("env-file", "", "dotenv file to load instead of .env")
	migrateOnly := pflag.Bool("migrate-only", false, "apply database migrations and exit")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		slog.Error("failed to load configuration", "err", err)
		os.Exit(1)
	}
	if *addr != "" {
		cfg.HTTP.Addr = *addr
	}

	logger := cfg.Log.Logger()
	slog.SetDefault(logger)
	logger.Info("configuration loaded", "environment", cfg.App.Env, "store", cfg.DB.Driver)

	var s store.Store
	switch cfg.DB.Driver {
	case "memory":
		if *migrateOnly {
			logger.Info("memory store has no migrations")
			return
		}
		s = store.NewMemory()
	default:
		if err := store.Migrate(cfg.DB.URL); err != nil {
			logger.Error("failed to migrate database", "err", err)
			os.Exit(1)
		}
		if *migrateOnly {
			logger.Info("migrations applied")
			return
		}

		dbPool, err := utils.OpenDB(cfg.DB.URL, cfg.DB.MaxConns, cfg.DB.MinConns)
		if err != nil {
			logger.Error("failed to connect to database", "err", err)
			os.Exit(1)
		}
		defer dbPool.Close()
		s = store.NewPostgres(dbPool, cfg.DB.QueryTimeout)
	}

	var cache *utils.TaskCache
	if cfg.Redis.URL != "" {
		redisPool, err := utils.OpenRedisPool(cfg.Redis.URL)
		if err != nil {
			logger.Error("failed to connect to redis", "err", err)
			os.Exit(1)
		}
		defer redisPool.Close()
		cache = utils.NewTaskCache(redisPool, cfg.Redis.TTL, logger)
	} else {
		logger.Info("REDIS_URL not set, task cache disabled")
	}

	mailer := utils.NewMailer(cfg.Mail.SendGridAPIKey, cfg.Mail.SendGridHost, cfg.Mail.FromName, cfg.Mail.FromAddress, logger)
	if mailer == nil {
		logger.Info("SENDGRID_API_KEY not set, welcome emails disabled")
	}

	h := handlers.New(s, cache, mailer, logger)
	server := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      handlers.NewRouter(h, cfg.HTTP.CORSOrigins),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serveErr:
		logger.Error("server failed", "err", err)
	case sig := <-quit:
		logger.Info("shutting down", "signal", sig.String())
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", "err", err)
	}
}
