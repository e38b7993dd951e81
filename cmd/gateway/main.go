package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	api "github.com/mind-engage/autocheck/internal/api/http"
	"github.com/mind-engage/autocheck/internal/app"
	auth "github.com/mind-engage/autocheck/internal/auth/middleware"
	"github.com/mind-engage/autocheck/internal/config"
	"github.com/mind-engage/autocheck/internal/ctxlog"
	"github.com/mind-engage/autocheck/internal/db"
	"github.com/mind-engage/autocheck/internal/results"
)

func main() {
	cfg, err := config.FromEnv()
	if err != nil {
		slog.Error("config", "err", err)
		os.Exit(1)
	}
	logger := ctxlog.New(cfg.LogLevel, cfg.LogFormat, os.Stderr)
	slog.SetDefault(logger)

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	cancel()
	if err != nil {
		logger.Error("db open failed", "err", err)
		os.Exit(1)
	}
	defer dbh.Close()

	engine, err := app.NewEngine(cfg)
	if err != nil {
		logger.Error("engine", "err", err)
		os.Exit(1)
	}

	r := api.NewRouter(api.Deps{
		Store:       results.NewSQLStore(dbh),
		Blobs:       engine.Blobs,
		Checker:     engine.Checker,
		Options:     engine.Options,
		Auth:        auth.NewAuthService(cfg.AuthSecret),
		Admin:       auth.Admin{User: cfg.AdminUser, PassHash: cfg.AdminPassHash},
		CORSOrigins: cfg.CORSOrigins,
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
		BaseContext: func(_ net.Listener) context.Context {
			return ctxlog.WithLogger(context.Background(), logger)
		},
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go func() {
		<-sigCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server", "err", err)
		os.Exit(1)
	}
}
