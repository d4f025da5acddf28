package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Skotchmaster/ecommerce/internal/config"
	"github.com/Skotchmaster/ecommerce/internal/db"
	"github.com/Skotchmaster/ecommerce/internal/events"
	"github.com/Skotchmaster/ecommerce/internal/httpserver"
	"github.com/Skotchmaster/ecommerce/internal/logging"
	"github.com/Skotchmaster/ecommerce/internal/metrics"
	authmw "github.com/Skotchmaster/ecommerce/internal/middleware/auth"
	"github.com/Skotchmaster/ecommerce/internal/repo"
	"github.com/Skotchmaster/ecommerce/internal/service"
)

const usage = `usage: shop [command]

commands:
  serve   run the HTTP API (default)
  create  create the products and users tables
  seed    insert the demo products and users
  drop    drop the products and users tables`

func main() {
	cmd := "serve"
	if len(os.Args) > 1 {
		cmd = os.Args[1]
	}

	cfg := config.Load()

	logger, syncLogs := logging.New(cfg.LogLevel, cfg.LogFormat)
	logger = logger.With("service", cfg.ServiceName)
	slog.SetDefault(logger)
	defer func() { _ = syncLogs() }()

	var err error
	switch cmd {
	case "serve":
		err = serve(cfg, logger)
	case "create", "seed", "drop":
		err = manage(cmd, cfg, logger)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}
	if err != nil {
		logger.Error("shop_failed", "command", cmd, "error", err)
		_ = syncLogs()
		os.Exit(1)
	}
}

func manage(cmd string, cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Require("DATABASE_URL"); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close(gdb) }()

	switch cmd {
	case "create":
		err = db.CreateTables(ctx, gdb)
	case "seed":
		err = db.Seed(ctx, gdb)
	case "drop":
		err = db.DropTables(ctx, gdb)
	}
	if err != nil {
		return err
	}
	logger.Info("manage_success", "command", cmd)
	return nil
}

func serve(cfg config.Config, logger *slog.Logger) error {
	if err := cfg.Require("DATABASE_URL", "JWT_SECRET"); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(ctx, cfg.DatabaseURL)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(gdb); err != nil {
			logger.Warn("db_close_failed", "error", err)
		}
	}()

	publisher := events.New(cfg.KafkaBrokers)
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("publisher_close_failed", "error", err)
		}
	}()

	r := &repo.GormRepo{DB: gdb}
	e := httpserver.NewServer(&httpserver.Deps{
		DB:             gdb,
		CatalogHandler: &httpserver.CatalogHTTP{Svc: &service.CatalogService{Repo: r, Events: publisher}},
		AuthHandler: &httpserver.AuthHTTP{Svc: &service.AuthService{
			Repo:      r,
			JWTSecret: cfg.JWTSecret,
			TokenTTL:  cfg.TokenTTL,
			Events:    publisher,
		}},
		Auth:    authmw.NewBearerAuth(cfg.JWTSecret),
		Metrics: metrics.New(),
		Logger:  logger,
	})

	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", srv.Addr, "kafka", len(cfg.KafkaBrokers) > 0)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-stop:
		logger.Info("shutting_down", "signal", sig.String())
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	logger.Info("stopped")
	return nil
}
