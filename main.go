package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/net/netutil"

	"shortlink/internal/auth"
	"shortlink/internal/cache"
	"shortlink/internal/clicks"
	"shortlink/internal/config"
	"shortlink/internal/geo"
	"shortlink/internal/handler"
	custommiddleware "shortlink/internal/middleware"
	"shortlink/internal/service"
	"shortlink/internal/store"
	"shortlink/internal/validation"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	if err := run(ctx, logger); err != nil {
		logger.Error("application failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	st, err := store.NewPostgresStore(ctx, &cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to create store: %w", err)
	}
	defer st.Close()

	linkCache, err := cache.New(cfg.Cache.MaxSizePow2)
	if err != nil {
		return fmt.Errorf("failed to create cache: %w", err)
	}
	defer linkCache.Close()

	// Closed after server shutdown, so clicks accepted during the
	// drain window still reach the store.
	recorder := clicks.NewRecorder(st, &cfg.Clicks, logger)
	recorder.Start()
	defer recorder.Close()

	urlValidator := validation.NewURLValidator(
		cfg.Validation.MaxURLLength,
		cfg.Validation.AllowPrivateIPs,
	)

	linkService := service.NewLinkService(
		st, linkCache, urlValidator,
		cfg.App.BaseURL, cfg.Slug.Length, cfg.Slug.MaxAttempts,
	)
	verifier := auth.NewJWTVerifier(cfg.Auth.JWTSecret)
	h := handler.New(linkService, recorder, st, logger)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	e.Use(middleware.BodyLimit(cfg.Validation.MaxRequestBodySize))

	h.Register(e, verifier, geo.NewHeaderLocator())

	if cfg.Pprof.Enabled {
		pprofGroup := e.Group("/debug/pprof", custommiddleware.PprofAuth(cfg.Pprof.Secret))
		custommiddleware.RegisterPprof(pprofGroup)
		logger.Info("pprof endpoints enabled", slog.String("path", "/debug/pprof/*"))
	}

	httpAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("starting HTTP server",
		slog.String("addr", httpAddr),
		slog.Int("max_connections", cfg.Server.MaxConnections))

	httpListener, err := net.Listen("tcp", httpAddr)
	if err != nil {
		return fmt.Errorf("failed to create HTTP listener: %w", err)
	}
	if cfg.Server.MaxConnections > 0 {
		httpListener = netutil.LimitListener(httpListener, cfg.Server.MaxConnections)
	}

	httpServer := &http.Server{
		Handler:        e,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   10 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 14, // 16KB
	}

	go func() {
		if err := httpServer.Serve(httpListener); err != nil && err != http.ErrServerClosed {
			logger.Error("http server error", slog.String("error", err.Error()))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	return nil
}
