package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/linemk/pizza-coin/internal/app"
	"github.com/linemk/pizza-coin/internal/app/handlers"
	ratelimit "github.com/linemk/pizza-coin/internal/app/middleware"
	"github.com/linemk/pizza-coin/internal/bot"
	"github.com/linemk/pizza-coin/internal/config"
	security "github.com/linemk/pizza-coin/internal/jwt-new"
	"github.com/linemk/pizza-coin/internal/jwt-new/jwtmiddleware"
	"github.com/linemk/pizza-coin/internal/lib/logger"
	"github.com/linemk/pizza-coin/internal/lib/logger/handlers/urllog"
	"github.com/pkg/errors"
	"golang.org/x/time/rate"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting pizza coin bot", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Telegram.Token == "" {
		log.Error("TELEGRAM_BOT_TOKEN is not set")
		os.Exit(1)
	}
	if cfg.HTTPServer.Enabled && cfg.JWT.Secret == "" {
		log.Error("JWT_SECRET is required when http_server is enabled")
		os.Exit(1)
	}

	// подключения к БД, redis и nats
	application, err := app.NewApp(ctx, log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.Close()

	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		log.Error("failed to connect to telegram", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to connect to telegram"))
	}
	api.Debug = cfg.Telegram.Debug
	log.Info("authorized on telegram", slog.String("account", api.Self.UserName))

	var issueToken bot.TokenIssuer
	var srv *http.Server
	if cfg.HTTPServer.Enabled {
		ttl := time.Duration(cfg.JWT.TokenTTL) * time.Minute
		issueToken = func(userID string) (string, error) {
			return security.NewToken(userID, ttl, cfg.JWT.Secret)
		}
		srv = newHTTPServer(ctx, application)
		go func() {
			log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Error("server error", slog.Any("error", err))
				stop()
			}
		}()
	}

	dispatcher := bot.New(log, api, application.Ledger, application.Limiter, application.Guard, issueToken, bot.Options{
		LogChatID:      cfg.Telegram.LogChatID,
		SendCooldown:   cfg.Ledger.SendCooldown,
		AdminCooldown:  cfg.Ledger.AdminCooldown,
		HandlerTimeout: cfg.Telegram.HandlerTimeout,
	})

	u := tgbotapi.NewUpdate(0)
	u.Timeout = cfg.Telegram.PollTimeout
	updates := api.GetUpdatesChan(u)

	// бот работает, пока не придёт сигнал
	dispatcher.Run(ctx, updates)
	log.Info("received shutdown signal")
	api.StopReceivingUpdates()

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("server shutdown failed", slog.Any("error", err))
		}
		log.Info("server gracefully stopped")
	}
}

func newHTTPServer(ctx context.Context, application *app.App) *http.Server {
	cfg := application.Config
	log := application.Logger
	ledger := application.Ledger

	limiter := ratelimit.NewRateLimiter(log, rate.Limit(cfg.HTTPServer.RateLimit), cfg.HTTPServer.RateBurst)
	go limiter.RunCleanup(ctx, time.Minute)

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.HTTPServer.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	router.Use(limiter.Middleware)

	router.Get("/healthz", handlers.HealthHandler(log, application.DB))

	router.Group(func(r chi.Router) {
		r.Use(jwtmiddleware.NewJWTMiddleware(cfg.JWT.Secret))

		r.Get("/api/balance", handlers.BalanceHandler(log, ledger))
		r.Post("/api/transfer", handlers.TransferHandler(log, ledger))
		r.Get("/api/leaderboard", handlers.LeaderboardHandler(log, ledger))

		// права администратора проверяет леджер
		r.Post("/api/admin/rate", handlers.SetRateHandler(log, ledger))
		r.Post("/api/admin/users/{id}/disable", handlers.DisableHandler(log, ledger))
		r.Post("/api/admin/users/{id}/enable", handlers.EnableHandler(log, ledger))
		r.Post("/api/admin/users/{id}/confiscate", handlers.ConfiscateHandler(log, ledger))
		r.Post("/api/admin/reset", handlers.ResetHandler(log, ledger, application.Guard))
	})

	return &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}
}
