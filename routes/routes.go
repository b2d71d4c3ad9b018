package routes

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware" // Alias to avoid conflict
	"github.com/go-chi/cors"

	"github.com/Dosada05/esports-league/handlers"
	"github.com/Dosada05/esports-league/middleware"
	"github.com/Dosada05/esports-league/models"
)

type Config struct {
	JWTSecret      []byte
	AllowedOrigins []string
	Limiter        *middleware.RateLimiter
	Logger         *slog.Logger
}

func SetupRoutes(
	router chi.Router,
	cfg Config,
	tournamentHandler *handlers.TournamentHandler,
	matchHandler *handlers.MatchHandler,
	workspaceHandler *handlers.WorkspaceHandler,
	webSocketHandler *handlers.WebSocketHandler,
) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	// WebSocket живёт вне таймаута, иначе соединение оборвётся
	router.Get("/ws/tournaments/{tournamentID}", webSocketHandler.ServeWs)

	router.Group(func(r chi.Router) {
		r.Use(chiMiddleware.Timeout(30 * time.Second))

		// Публичные маршруты просмотра
		r.Get("/tournaments/{tournamentID}/teams", tournamentHandler.ListTeamsHandler)
		r.Get("/tournaments/{tournamentID}/matches", tournamentHandler.ListMatchesHandler)
		r.Get("/tournaments/{tournamentID}/standings", tournamentHandler.StandingsHandler)
		r.Get("/tournaments/{tournamentID}/bracket", tournamentHandler.BracketHandler)

		// Защищенные маршруты для администраторов и организаторов
		r.Group(func(r chi.Router) {
			r.Use(middleware.Authenticate(cfg.JWTSecret, cfg.Logger))
			r.Use(middleware.RequireRole(models.RoleAdmin, models.RoleOrganizer))
			if cfg.Limiter != nil {
				r.Use(cfg.Limiter.Handler)
			}

			r.Patch("/matches/{matchID}", matchHandler.UpdateMatchHandler)
			r.Post("/tournaments/{tournamentID}/bracket/generate", tournamentHandler.GenerateBracketHandler)
			r.Post("/tournaments/{tournamentID}/workspaces", workspaceHandler.OpenHandler)

			r.Route("/workspaces/{sessionID}", func(r chi.Router) {
				r.Get("/", workspaceHandler.GetHandler)
				r.Delete("/", workspaceHandler.CloseHandler)
				r.Post("/moves/begin", workspaceHandler.BeginMoveHandler)
				r.Post("/moves/complete", workspaceHandler.CompleteMoveHandler)
				r.Post("/moves/cancel", workspaceHandler.CancelMoveHandler)
				r.Post("/groups", workspaceHandler.AddGroupHandler)
				r.Delete("/groups/{groupID}", workspaceHandler.RemoveGroupHandler)
				r.Delete("/teams/{teamID}", workspaceHandler.RemoveFromGroupHandler)
				r.Get("/pool", workspaceHandler.SearchPoolHandler)
				r.Post("/commit", workspaceHandler.CommitHandler)
				r.Post("/matches/generate", workspaceHandler.GenerateMatchesHandler)
			})
		})
	})
}
