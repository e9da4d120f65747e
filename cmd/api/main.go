package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/bryanwahyu/phish-detector/internal/application"
	"github.com/bryanwahyu/phish-detector/internal/application/session"
	"github.com/bryanwahyu/phish-detector/internal/config"
	"github.com/bryanwahyu/phish-detector/internal/domain/analysis"
	"github.com/bryanwahyu/phish-detector/internal/infra/httpserver"
	"github.com/bryanwahyu/phish-detector/internal/middleware"
)

func main() {
	// path config.yaml
	path := "config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		path = v
	}

	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx := context.Background()

	checkers := map[string]middleware.HealthChecker{}

	hist, closeHistory, err := buildHistory(ctx, cfg, logger, checkers)
	if err != nil {
		return err
	}
	defer closeHistory()

	scorer := analysis.NewScorer(analysis.WithGrammarWeighting(cfg.Scorer.GrammarWeighting))

	deps := session.Deps{
		Scorer:    scorer,
		Responder: buildResponder(cfg, logger),
		Clock:     application.SystemClock{},
		Sleeper:   application.SystemSleeper{},
		Random:    analysis.SystemRandom{},
		Timing: session.Timing{
			AnalyzeDelay: cfg.Session.AnalyzeDelay,
			TypingDelay:  cfg.Session.TypingDelay,
			TypingJitter: cfg.Session.TypingJitter,
		},
		Logger: logger.Named("session"),
	}
	opts := httpserver.Options{
		Scorer:         scorer,
		Checkers:       checkers,
		Readiness:      &middleware.Readiness{},
		APIKeys:        cfg.APIKeys,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		MaxBodyBytes:   cfg.Server.MaxBodyBytes,
		Logger:         logger.Named("http"),
	}
	// nil interface, bukan typed nil
	if hist != nil {
		deps.Recorder = hist
		opts.Recorder = hist
		opts.History = hist
	}

	store := session.NewStore(deps, cfg.Session.IdleTTL)
	defer store.Close()
	opts.Sessions = store

	limiter := middleware.NewRateLimiter(cfg.RateLimit.Capacity, cfg.RateLimit.RefillRate)
	defer limiter.Close()
	opts.Limiter = limiter

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      httpserver.NewRouter(opts),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening",
			zap.String("addr", addr),
			zap.String("history_driver", cfg.History.Driver),
			zap.String("chat_provider", cfg.Chat.Provider))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-stop:
		logger.Info("shutting down server", zap.String("signal", sig.String()))
	}

	opts.Readiness.Drain()
	ctx2, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx2); err != nil {
		logger.Warn("shutdown error", zap.Error(err))
	}
	return nil
}
