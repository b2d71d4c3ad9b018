package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"

	"github.com/Dosada05/esports-league/brackets"
	"github.com/Dosada05/esports-league/services"
)

type WebSocketHandler struct {
	hub              *brackets.Hub
	structureService services.StructureService
	upgrader         websocket.Upgrader
	logger           *slog.Logger
}

// NewWebSocketHandler принимает список разрешённых Origin. "*" разрешает все.
func NewWebSocketHandler(hub *brackets.Hub, ss services.StructureService, allowedOrigins []string, logger *slog.Logger) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:              hub,
		structureService: ss,
		logger:           logger,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" || set["*"] {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		// тот же хост, что и у API
		if u.Host == r.Host {
			return true
		}
		return set[origin]
	}
}

// ServeWs обрабатывает WebSocket запросы для конкретного турнира.
// Клиент должен подключаться к /ws/tournaments/{tournamentID}
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	tournamentID, err := getIDFromURL(r, "tournamentID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	// Текущую сетку берём до апгрейда, чтобы несуществующий турнир получил обычный 404.
	rounds, err := h.structureService.Bracket(r.Context(), tournamentID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту, так что здесь просто логируем.
		h.logger.WarnContext(r.Context(), "Failed to upgrade websocket connection",
			slog.Int("tournament_id", tournamentID),
			slog.Any("error", err))
		return
	}

	room := brackets.RoomForTournament(tournamentID)
	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: room,
	}

	if initial, err := json.Marshal(brackets.WebSocketMessage{
		Type:    brackets.EventBracketUpdated,
		Payload: rounds,
		RoomID:  room,
	}); err == nil {
		client.Send <- initial
	}

	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	h.logger.InfoContext(r.Context(), "WebSocket client joined tournament room",
		slog.Int("tournament_id", tournamentID),
		slog.String("room", room))
}
