package services

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/Dosada05/esports-league/models"
	"github.com/Dosada05/esports-league/workspace"
)

// WorkspaceView снимок сессии в том виде, в котором его получает редактор.
type WorkspaceView struct {
	SessionID string    `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
	workspace.Snapshot
}

// CommitResult возвращается после успешного сохранения, когда сессии уже нет.
// DroppedMoves означает, что жесты, сделанные во время сохранения, потеряны.
type CommitResult struct {
	SessionID    string `json:"session_id"`
	TournamentID int    `json:"tournament_id"`
	Assignments  int    `json:"assignments"`
	DroppedMoves bool   `json:"dropped_moves"`
}

// WorkspaceService хранит сессии распределения по группам. Каждая сессия
// это workspace.Workspace под своим мьютексом; сессии, простаивающие дольше
// TTL, удаляет Sweep.
type WorkspaceService interface {
	Open(ctx context.Context, tournamentID int) (*WorkspaceView, error)
	Get(sessionID string) (*WorkspaceView, error)
	Close(sessionID string) error

	BeginMove(sessionID string, teamID int) (*WorkspaceView, error)
	CompleteMove(sessionID string, teamID int, target workspace.Target) (*WorkspaceView, error)
	CancelMove(sessionID string) (*WorkspaceView, error)
	AddGroup(sessionID string) (*WorkspaceView, error)
	RemoveGroup(sessionID string, groupID string) (*WorkspaceView, error)
	RemoveFromGroup(sessionID string, teamID int) (*WorkspaceView, error)
	SearchPool(sessionID string, query string) ([]models.Team, error)

	Commit(ctx context.Context, sessionID string) (*CommitResult, error)
	GenerateGroupMatches(ctx context.Context, sessionID string, bestOf int) (*WorkspaceView, error)

	// Sweep удаляет истёкшие сессии, которые не сохраняются и не заняты,
	// и возвращает их число.
	Sweep(now time.Time) int
}

type session struct {
	id       string
	mu       sync.Mutex
	ws       *workspace.Workspace
	lastUsed time.Time
}

type workspaceService struct {
	tournaments TournamentService
	ttl         time.Duration
	now         func() time.Time
	logger      *slog.Logger

	mu       sync.RWMutex
	sessions map[string]*session
}

func NewWorkspaceService(tournaments TournamentService, ttl time.Duration, logger *slog.Logger) WorkspaceService {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &workspaceService{
		tournaments: tournaments,
		ttl:         ttl,
		now:         time.Now,
		logger:      logger,
		sessions:    make(map[string]*session),
	}
}

// Open создаёт сессию из команд турнира и его последнего сохранённого
// распределения, загружая их параллельно.
func (s *workspaceService) Open(ctx context.Context, tournamentID int) (*WorkspaceView, error) {
	var (
		teams []models.Team
		rows  []models.GroupAssignment
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		teams, err = s.tournaments.ListTeams(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = s.tournaments.ListGroupAssignments(gctx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	sess := &session{
		id:       uuid.NewString(),
		ws:       workspace.New(tournamentID, teams, s.tournaments, workspace.WithAssignments(rows)),
		lastUsed: s.now(),
	}

	s.mu.Lock()
	s.sessions[sess.id] = sess
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Workspace session opened",
		slog.String("session_id", sess.id),
		slog.Int("tournament_id", tournamentID),
		slog.Int("teams", len(teams)))

	sess.mu.Lock()
	defer sess.mu.Unlock()
	return s.viewLocked(sess), nil
}

func (s *workspaceService) Get(sessionID string) (*WorkspaceView, error) {
	return s.do(sessionID, func(*workspace.Workspace) error { return nil })
}

func (s *workspaceService) Close(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[sessionID]; !ok {
		return ErrSessionNotFound
	}
	delete(s.sessions, sessionID)
	return nil
}

func (s *workspaceService) BeginMove(sessionID string, teamID int) (*WorkspaceView, error) {
	return s.do(sessionID, func(ws *workspace.Workspace) error { return ws.BeginMove(teamID) })
}

func (s *workspaceService) CompleteMove(sessionID string, teamID int, target workspace.Target) (*WorkspaceView, error) {
	return s.do(sessionID, func(ws *workspace.Workspace) error { return ws.CompleteMove(teamID, target) })
}

func (s *workspaceService) CancelMove(sessionID string) (*WorkspaceView, error) {
	return s.do(sessionID, func(ws *workspace.Workspace) error { return ws.CancelMove() })
}

func (s *workspaceService) AddGroup(sessionID string) (*WorkspaceView, error) {
	return s.do(sessionID, func(ws *workspace.Workspace) error {
		ws.AddGroup()
		return nil
	})
}

func (s *workspaceService) RemoveGroup(sessionID string, groupID string) (*WorkspaceView, error) {
	return s.do(sessionID, func(ws *workspace.Workspace) error { return ws.RemoveGroup(groupID) })
}

func (s *workspaceService) RemoveFromGroup(sessionID string, teamID int) (*WorkspaceView, error) {
	return s.do(sessionID, func(ws *workspace.Workspace) error { return ws.RemoveFromGroup(teamID) })
}

func (s *workspaceService) SearchPool(sessionID string, query string) ([]models.Team, error) {
	var found []models.Team
	_, err := s.do(sessionID, func(ws *workspace.Workspace) error {
		found = ws.SearchPool(query)
		return nil
	})
	return found, err
}

// Commit держит блокировку сессии только на время снимка, поэтому жесты
// во время удалённого вызова не блокируются. После успешного сохранения
// сессия удаляется: если за это время разбиение изменилось, эти изменения
// не сохранены, и ответ помечается DroppedMoves. После неудачи сессия
// остаётся, и повторный Commit отправит уже новое разбиение.
func (s *workspaceService) Commit(ctx context.Context, sessionID string) (*CommitResult, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}

	sess.mu.Lock()
	req, err := sess.ws.BeginCommit()
	sess.lastUsed = s.now()
	sess.mu.Unlock()
	if err != nil {
		return nil, err
	}

	remoteErr := s.tournaments.CommitGroupAssignment(ctx, req.TournamentID, req.Rows)

	sess.mu.Lock()
	sess.ws.FinishCommit(remoteErr)
	sess.lastUsed = s.now()
	dropped := !slices.Equal(sess.ws.Assignments(), req.Rows)
	sess.mu.Unlock()

	if remoteErr != nil {
		s.logger.WarnContext(ctx, "Workspace commit failed, session kept for retry",
			slog.String("session_id", sessionID),
			slog.Int("tournament_id", req.TournamentID),
			slog.Any("error", remoteErr))
		return nil, fmt.Errorf("%w: %w", workspace.ErrCommitFailed, remoteErr)
	}

	s.mu.Lock()
	delete(s.sessions, sessionID)
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "Workspace committed",
		slog.String("session_id", sessionID),
		slog.Int("tournament_id", req.TournamentID),
		slog.Int("assignments", len(req.Rows)),
		slog.Bool("dropped_moves", dropped))
	return &CommitResult{
		SessionID:    sessionID,
		TournamentID: req.TournamentID,
		Assignments:  len(req.Rows),
		DroppedMoves: dropped,
	}, nil
}

func (s *workspaceService) GenerateGroupMatches(ctx context.Context, sessionID string, bestOf int) (*WorkspaceView, error) {
	return s.do(sessionID, func(ws *workspace.Workspace) error {
		return ws.GenerateGroupMatches(ctx, bestOf)
	})
}

func (s *workspaceService) Sweep(now time.Time) int {
	s.mu.RLock()
	candidates := make(map[string]*session, len(s.sessions))
	for id, sess := range s.sessions {
		candidates[id] = sess
	}
	s.mu.RUnlock()

	// занятая сессия (жест или удалённый вызов) сейчас используется, её не трогаем
	expired := make([]string, 0)
	for id, sess := range candidates {
		if !sess.mu.TryLock() {
			continue
		}
		if now.Sub(sess.lastUsed) > s.ttl && !sess.ws.Saving() {
			expired = append(expired, id)
		}
		sess.mu.Unlock()
	}
	if len(expired) == 0 {
		return 0
	}

	s.mu.Lock()
	removed := 0
	for _, id := range expired {
		if s.sessions[id] == candidates[id] {
			delete(s.sessions, id)
			removed++
		}
	}
	remaining := len(s.sessions)
	s.mu.Unlock()

	if removed > 0 {
		s.logger.Info("Expired workspace sessions swept",
			slog.Int("removed", removed), slog.Int("remaining", remaining))
	}
	return removed
}

func (s *workspaceService) session(sessionID string) (*session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

// do runs fn under the session lock and returns the resulting view. The
// view is returned alongside validation errors too, so callers can re-render.
func (s *workspaceService) do(sessionID string, fn func(ws *workspace.Workspace) error) (*WorkspaceView, error) {
	sess, err := s.session(sessionID)
	if err != nil {
		return nil, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	sess.lastUsed = s.now()
	err = fn(sess.ws)
	return s.viewLocked(sess), err
}

func (s *workspaceService) viewLocked(sess *session) *WorkspaceView {
	return &WorkspaceView{
		SessionID: sess.id,
		ExpiresAt: sess.lastUsed.Add(s.ttl),
		Snapshot:  sess.ws.Snapshot(),
	}
}
