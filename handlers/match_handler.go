package handlers

import (
	"log/slog"
	"net/http"

	"github.com/Dosada05/esports-league/middleware"
	"github.com/Dosada05/esports-league/models"
	"github.com/Dosada05/esports-league/services"
)

type MatchHandler struct {
	tournamentService services.TournamentService
	logger            *slog.Logger
}

func NewMatchHandler(ts services.TournamentService, logger *slog.Logger) *MatchHandler {
	return &MatchHandler{tournamentService: ts, logger: logger}
}

// UpdateMatchHandler обрабатывает PATCH /matches/{matchID}
func (h *MatchHandler) UpdateMatchHandler(w http.ResponseWriter, r *http.Request) {
	matchID, err := getIDFromURL(r, "matchID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	var patch models.MatchPatch
	if err := readJSON(w, r, &patch); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	match, err := h.tournamentService.UpdateMatch(r.Context(), matchID, patch)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	userID, _ := middleware.GetUserIDFromContext(r.Context())
	h.logger.InfoContext(r.Context(), "Match updated via API",
		slog.Int("match_id", matchID),
		slog.Int("user_id", userID),
		slog.String("status", string(match.Status)))

	if err := writeJSON(w, http.StatusOK, jsonResponse{"match": match}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
