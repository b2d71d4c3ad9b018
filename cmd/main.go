package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/esports-league/brackets"
	"github.com/Dosada05/esports-league/config"
	"github.com/Dosada05/esports-league/db"
	"github.com/Dosada05/esports-league/handlers"
	"github.com/Dosada05/esports-league/middleware"
	"github.com/Dosada05/esports-league/repositories"
	api "github.com/Dosada05/esports-league/routes"
	"github.com/Dosada05/esports-league/scheduler"
	"github.com/Dosada05/esports-league/services"
	"github.com/Dosada05/esports-league/storage"
)

const limiterCleanupInterval = 5 * time.Minute

func parseLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.Int("port", cfg.ServerPort),
		slog.Any("stage_names", cfg.League.StageNames),
		slog.Bool("r2_enabled", cfg.R2.Enabled()))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		} else {
			logger.Info("database connection closed")
		}
	}()
	logger.Info("database connection established")

	if cfg.MigrateOnStart {
		if err := db.Migrate(dbConn); err != nil {
			logger.Error("failed to apply migrations", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("database migrations applied")
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	// Логотипы команд (Cloudflare R2)
	logos, err := storage.NewLogoResolver(ctx, storage.CloudflareR2Config{
		AccountID:       cfg.R2.AccountID,
		AccessKeyID:     cfg.R2.AccessKeyID,
		SecretAccessKey: cfg.R2.SecretAccessKey,
		BucketName:      cfg.R2.BucketName,
		PublicBaseURL:   cfg.R2.PublicBaseURL,
		PresignTTL:      cfg.R2.PresignTTL,
	})
	if err != nil {
		logger.Error("failed to initialize logo resolver", slog.Any("error", err))
		os.Exit(1)
	}

	// Инициализация WebSocket Hub
	wsHub := brackets.NewHub(logger)
	go wsHub.Run(ctx)
	logger.Info("WebSocket Hub started")

	// Инициализация репозиториев
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	teamRepo := repositories.NewPostgresTeamRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	assignmentRepo := repositories.NewPostgresGroupAssignmentRepository(dbConn)
	logger.Info("Repositories initialized")

	// Инициализация сервисов
	tournamentService := services.NewTournamentService(
		repositories.NewTransactor(dbConn),
		tournamentRepo,
		teamRepo,
		matchRepo,
		assignmentRepo,
		logos,
		wsHub,
		services.TournamentServiceConfig{
			StageNames:      cfg.League.StageNames,
			HistoryWindow:   cfg.League.HistoryWindow,
			DefaultBestOf:   cfg.League.DefaultBestOf,
			AdvancePerGroup: cfg.League.AdvancePerGroup,
		},
		logger,
	)
	structureService := services.NewStructureService(tournamentService, cfg.League.StageNames, cfg.League.HistoryWindow, logger)
	workspaceService := services.NewWorkspaceService(tournamentService, cfg.League.WorkspaceTTL, logger)
	limiter := middleware.NewRateLimiter(cfg.League.MutationRate, cfg.League.MutationBurst)
	logger.Info("Services initialized")

	// Планировщик фоновых задач
	sched, err := scheduler.New(logger)
	if err != nil {
		logger.Error("failed to create scheduler", slog.Any("error", err))
		os.Exit(1)
	}
	if err := scheduler.RegisterSessionSweep(sched, workspaceService, cfg.League.SweepInterval); err != nil {
		logger.Error("failed to register session sweep", slog.Any("error", err))
		os.Exit(1)
	}
	if err := scheduler.RegisterLimiterCleanup(sched, limiter, limiterCleanupInterval); err != nil {
		logger.Error("failed to register limiter cleanup", slog.Any("error", err))
		os.Exit(1)
	}
	sched.Start()
	defer func() {
		if err := sched.Stop(); err != nil {
			logger.Error("failed to stop scheduler", slog.Any("error", err))
		}
	}()

	// Инициализация обработчиков HTTP
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, structureService, logger)
	matchHandler := handlers.NewMatchHandler(tournamentService, logger)
	workspaceHandler := handlers.NewWorkspaceHandler(workspaceService, cfg.League.DefaultBestOf, logger)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub, structureService, cfg.CORSAllowedOrigins, logger)
	logger.Info("HTTP handlers initialized")

	// Настройка маршрутизатора
	router := chi.NewRouter()
	api.SetupRoutes(
		router,
		api.Config{
			JWTSecret:      []byte(cfg.JWTSecretKey),
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Limiter:        limiter,
			Logger:         logger,
		},
		tournamentHandler,
		matchHandler,
		workspaceHandler,
		webSocketHandler,
	)
	logger.Info("Routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 35 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			stop()
			return
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		} else {
			logger.Info("server shutdown complete")
		}
	}
	// закрывает комнаты хаба
	stop()
	logger.Info("application exited")
}
