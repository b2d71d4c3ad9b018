package handlers

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Dosada05/esports-league/models"
	"github.com/Dosada05/esports-league/services"
)

type TournamentHandler struct {
	tournamentService services.TournamentService
	structureService  services.StructureService
	logger            *slog.Logger
}

func NewTournamentHandler(ts services.TournamentService, ss services.StructureService, logger *slog.Logger) *TournamentHandler {
	return &TournamentHandler{
		tournamentService: ts,
		structureService:  ss,
		logger:            logger,
	}
}

// ListTeamsHandler обрабатывает GET /tournaments/{tournamentID}/teams
func (h *TournamentHandler) ListTeamsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	teams, err := h.tournamentService.ListTeams(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// ListMatchesHandler обрабатывает GET /tournaments/{tournamentID}/matches?stage=
func (h *TournamentHandler) ListMatchesHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	stage := models.MatchStage(r.URL.Query().Get("stage"))
	if stage != "" && !stage.Valid() {
		badRequestResponse(w, r, fmt.Errorf("unknown stage %q", stage))
		return
	}

	matches, err := h.tournamentService.ListMatches(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if stage != "" {
		matches = models.FilterStage(matches, stage)
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"matches": matches}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// StandingsHandler обрабатывает GET /tournaments/{tournamentID}/standings
func (h *TournamentHandler) StandingsHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	groups, err := h.structureService.Standings(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"standings": groups}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// BracketHandler обрабатывает GET /tournaments/{tournamentID}/bracket
func (h *TournamentHandler) BracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	rounds, err := h.structureService.Bracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateBracketHandler обрабатывает POST /tournaments/{tournamentID}/bracket/generate
func (h *TournamentHandler) GenerateBracketHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.tournamentService.GenerateBracket(r.Context(), tournamentID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	rounds, err := h.structureService.Bracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	h.logger.InfoContext(r.Context(), "Bracket generated via API",
		slog.Int("tournament_id", tournamentID),
		slog.Int("rounds", len(rounds)))

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"rounds": rounds}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
