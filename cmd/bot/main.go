package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/webdev-it/baza-ai/internal/api"
	"github.com/webdev-it/baza-ai/internal/auth"
	"github.com/webdev-it/baza-ai/internal/config"
	"github.com/webdev-it/baza-ai/internal/database"
	"github.com/webdev-it/baza-ai/internal/gemini"
	"github.com/webdev-it/baza-ai/internal/history"
	"github.com/webdev-it/baza-ai/internal/middleware"
	inats "github.com/webdev-it/baza-ai/internal/nats"
	"github.com/webdev-it/baza-ai/internal/orchestrator"
	"github.com/webdev-it/baza-ai/internal/quota"
	iredis "github.com/webdev-it/baza-ai/internal/redis"
	"github.com/webdev-it/baza-ai/internal/server"
	"github.com/webdev-it/baza-ai/internal/speech"
	"github.com/webdev-it/baza-ai/internal/subscribers"
	"github.com/webdev-it/baza-ai/internal/usage"
	"github.com/webdev-it/baza-ai/internal/xmpp"
)

const migrationsPath = "migrations"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	setupLogger(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// PostgreSQL
	pool, err := database.NewPostgresPool(ctx, cfg.DB)
	if err != nil {
		slog.Error("connecting to postgres", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := database.RunMigrations(cfg.DB.DSN(), migrationsPath); err != nil {
		slog.Error("applying migrations", "error", err)
		os.Exit(1)
	}

	// Redis
	redisClient, err := iredis.NewClient(ctx, cfg.Redis)
	if err != nil {
		slog.Error("connecting to redis", "error", err)
		os.Exit(1)
	}
	defer redisClient.Close()

	// NATS JetStream
	natsClient, err := inats.NewClient(ctx, cfg.NATS)
	if err != nil {
		slog.Error("connecting to nats", "error", err)
		os.Exit(1)
	}
	defer natsClient.Close()

	publisher := inats.NewPublisher(natsClient.JetStream())
	consumerMgr := inats.NewConsumerManager(natsClient.JetStream())

	// Gemini backend
	backend, err := gemini.NewClient(ctx, cfg.Gemini)
	if err != nil {
		slog.Error("creating gemini client", "error", err)
		os.Exit(1)
	}
	transcriber := speech.NewService(backend, cfg.Limits.MaxVoiceBytes)

	// Domain stores and limiters
	subsRepo := subscribers.NewRepository(pool)
	usageStore := quota.NewPostgresStore(pool)
	dailyLimiter := quota.NewLimiter(usageStore, subsRepo, cfg.Limits.DailyUnsubscribed, cfg.Limits.DailySubscribed)
	burstLimiter := quota.NewBurstLimiter(redisClient)
	histStore := history.NewStore(cfg.Limits.HistoryCap)

	// Usage event persister
	usageRepo := usage.NewRepository(pool)
	usageConsumer := usage.NewConsumer(usageRepo, consumerMgr)

	// Orchestrator
	orch := orchestrator.New(
		publisher,
		consumerMgr,
		dailyLimiter,
		burstLimiter,
		histStore,
		backend,
		transcriber,
		orchestrator.Config{
			BotJID:            cfg.XMPP.ComponentName,
			ChannelJID:        cfg.XMPP.ChannelJID,
			ChunkSize:         cfg.Limits.ChunkSize,
			BurstPerMinute:    cfg.Limits.BurstPerMinute,
			MaxConcurrent:     cfg.Limits.MaxConcurrent,
			DailyUnsubscribed: cfg.Limits.DailyUnsubscribed,
			DailySubscribed:   cfg.Limits.DailySubscribed,
		},
	)

	// XMPP component
	handler := xmpp.NewHandler(publisher, subsRepo)
	component, err := xmpp.NewComponent(cfg.XMPP, handler)
	if err != nil {
		slog.Error("creating xmpp component", "error", err)
		os.Exit(1)
	}

	relay := xmpp.NewOutboundRelay(component.Sender(), consumerMgr)

	// Admin API
	jwtManager := auth.NewJWTManager(cfg.Admin.JWTSecret, cfg.Admin.TokenExpiry)
	authHandler := auth.NewHandler(jwtManager, cfg.Admin.Username, cfg.Admin.PasswordHash)
	loginLimiter := middleware.NewLoginLimiter(redisClient, 10, 60)

	apiHandler := api.NewHandler(usageStore, dailyLimiter, burstLimiter, subsRepo, histStore, usageRepo, cfg.Limits.BurstPerMinute)
	router := api.NewRouter(pool, redisClient, natsClient, api.RouterConfig{
		CORSAllowedOrigins: cfg.Server.AllowedOrigins,
		Login:              authHandler.Login,
		LoginRateLimiter:   loginLimiter.Middleware,
		AuthMiddleware:     auth.Middleware(jwtManager),
	}, apiHandler)

	srv := server.New(cfg.Server, router)

	errCh := make(chan error, 5)

	go func() { errCh <- orch.Start(ctx) }()
	go func() { errCh <- relay.Start(ctx) }()
	go func() { errCh <- usageConsumer.Start(ctx) }()
	go func() { errCh <- component.Start(ctx) }()
	go func() { errCh <- srv.Start() }()

	slog.Info("baza bot started",
		"component", cfg.XMPP.ComponentName,
		"admin_addr", cfg.Server.Host,
		"model", cfg.Gemini.Model,
	)

	select {
	case <-ctx.Done():
		slog.Info("shutting down")
	case err := <-errCh:
		if err != nil {
			slog.Error("component failed", "error", err)
		}
		stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	component.Stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutting down admin server", "error", err)
	}

	slog.Info("baza bot stopped")
}

func setupLogger(cfg config.Log) {
	var handler slog.Handler

	opts := &slog.HandlerOptions{}
	switch cfg.Level {
	case "debug":
		opts.Level = slog.LevelDebug
	case "info":
		opts.Level = slog.LevelInfo
	case "warn":
		opts.Level = slog.LevelWarn
	case "error":
		opts.Level = slog.LevelError
	default:
		opts.Level = slog.LevelInfo
	}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
