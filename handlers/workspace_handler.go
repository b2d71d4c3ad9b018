package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Dosada05/esports-league/services"
	"github.com/Dosada05/esports-league/workspace"
)

// WorkspaceHandler обслуживает сессии распределения по группам. Каждый
// жест возвращает полное представление сессии для перерисовки редактора.
type WorkspaceHandler struct {
	workspaceService services.WorkspaceService
	defaultBestOf    int
	logger           *slog.Logger
}

func NewWorkspaceHandler(ws services.WorkspaceService, defaultBestOf int, logger *slog.Logger) *WorkspaceHandler {
	return &WorkspaceHandler{
		workspaceService: ws,
		defaultBestOf:    defaultBestOf,
		logger:           logger,
	}
}

type moveInput struct {
	TeamID int `json:"team_id"`
	// GroupID пустой или отсутствует — команда возвращается в пул.
	GroupID *string `json:"group_id,omitempty"`
}

type generateInput struct {
	BestOf *int `json:"best_of,omitempty"`
}

// OpenHandler обрабатывает POST /tournaments/{tournamentID}/workspaces
func (h *WorkspaceHandler) OpenHandler(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	view, err := h.workspaceService.Open(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	headers := make(http.Header)
	headers.Set("Location", "/workspaces/"+view.SessionID)
	if err := writeJSON(w, http.StatusCreated, jsonResponse{"workspace": view}, headers); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetHandler обрабатывает GET /workspaces/{sessionID}
func (h *WorkspaceHandler) GetHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.workspaceService.Get(chi.URLParam(r, "sessionID"))
	h.respond(w, r, view, err)
}

// CloseHandler обрабатывает DELETE /workspaces/{sessionID}
func (h *WorkspaceHandler) CloseHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.workspaceService.Close(chi.URLParam(r, "sessionID")); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BeginMoveHandler обрабатывает POST /workspaces/{sessionID}/moves/begin
func (h *WorkspaceHandler) BeginMoveHandler(w http.ResponseWriter, r *http.Request) {
	var input moveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.workspaceService.BeginMove(chi.URLParam(r, "sessionID"), input.TeamID)
	h.respond(w, r, view, err)
}

// CompleteMoveHandler обрабатывает POST /workspaces/{sessionID}/moves/complete
func (h *WorkspaceHandler) CompleteMoveHandler(w http.ResponseWriter, r *http.Request) {
	var input moveInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	target := workspace.ToPool()
	if input.GroupID != nil && strings.TrimSpace(*input.GroupID) != "" {
		target = workspace.ToGroup(strings.TrimSpace(*input.GroupID))
	}

	view, err := h.workspaceService.CompleteMove(chi.URLParam(r, "sessionID"), input.TeamID, target)
	h.respond(w, r, view, err)
}

// CancelMoveHandler обрабатывает POST /workspaces/{sessionID}/moves/cancel
func (h *WorkspaceHandler) CancelMoveHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.workspaceService.CancelMove(chi.URLParam(r, "sessionID"))
	h.respond(w, r, view, err)
}

// AddGroupHandler обрабатывает POST /workspaces/{sessionID}/groups
func (h *WorkspaceHandler) AddGroupHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.workspaceService.AddGroup(chi.URLParam(r, "sessionID"))
	h.respond(w, r, view, err)
}

// RemoveGroupHandler обрабатывает DELETE /workspaces/{sessionID}/groups/{groupID}
func (h *WorkspaceHandler) RemoveGroupHandler(w http.ResponseWriter, r *http.Request) {
	view, err := h.workspaceService.RemoveGroup(chi.URLParam(r, "sessionID"), chi.URLParam(r, "groupID"))
	h.respond(w, r, view, err)
}

// RemoveFromGroupHandler обрабатывает DELETE /workspaces/{sessionID}/teams/{teamID}
func (h *WorkspaceHandler) RemoveFromGroupHandler(w http.ResponseWriter, r *http.Request) {
	teamID, err := getIDFromURL(r, "teamID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	view, err := h.workspaceService.RemoveFromGroup(chi.URLParam(r, "sessionID"), teamID)
	h.respond(w, r, view, err)
}

// SearchPoolHandler обрабатывает GET /workspaces/{sessionID}/pool?q=
func (h *WorkspaceHandler) SearchPoolHandler(w http.ResponseWriter, r *http.Request) {
	teams, err := h.workspaceService.SearchPool(chi.URLParam(r, "sessionID"), r.URL.Query().Get("q"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if err := writeJSON(w, http.StatusOK, jsonResponse{"teams": teams}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// CommitHandler обрабатывает POST /workspaces/{sessionID}/commit
func (h *WorkspaceHandler) CommitHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "sessionID")
	result, err := h.workspaceService.Commit(r.Context(), sessionID)
	if err != nil {
		// после неудачного сохранения сессия жива, отдаём её вместе с ошибкой
		if errors.Is(err, workspace.ErrCommitFailed) {
			if view, getErr := h.workspaceService.Get(sessionID); getErr == nil {
				h.respond(w, r, view, err)
				return
			}
		}
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"commit": result}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GenerateMatchesHandler обрабатывает POST /workspaces/{sessionID}/matches/generate
func (h *WorkspaceHandler) GenerateMatchesHandler(w http.ResponseWriter, r *http.Request) {
	var input generateInput
	if err := readOptionalJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}
	bestOf := h.defaultBestOf
	if input.BestOf != nil {
		bestOf = *input.BestOf
	}

	view, err := h.workspaceService.GenerateGroupMatches(r.Context(), chi.URLParam(r, "sessionID"), bestOf)
	h.respond(w, r, view, err)
}

// respond writes the session view. Rejected gestures still carry the
// current view next to the error.
func (h *WorkspaceHandler) respond(w http.ResponseWriter, r *http.Request, view *services.WorkspaceView, err error) {
	if err == nil {
		if err := writeJSON(w, http.StatusOK, jsonResponse{"workspace": view}, nil); err != nil {
			serverErrorResponse(w, r, err)
		}
		return
	}

	status := statusForError(err)
	if view == nil || status == 0 {
		mapServiceErrorToHTTP(w, r, err)
		return
	}
	if status == http.StatusServiceUnavailable {
		h.logger.WarnContext(r.Context(), "Workspace remote call failed",
			slog.String("session_id", view.SessionID),
			slog.Any("error", err))
	}
	if err := writeJSON(w, status, jsonResponse{"error": err.Error(), "workspace": view}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
