package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/Dosada05/esports-league/brackets"
	"github.com/Dosada05/esports-league/models"
	"github.com/Dosada05/esports-league/standings"
	"github.com/Dosada05/esports-league/utils"
)

// StructureService строит представления турнира для чтения:
// таблицы групп и сетку плей-офф.
type StructureService interface {
	Standings(ctx context.Context, tournamentID int) ([]standings.GroupStandings, error)
	Bracket(ctx context.Context, tournamentID int) ([]models.Round, error)
}

const (
	defaultViewTTL = time.Minute
	maxCachedViews = 256
	viewStandings  = "standings"
	viewBracket    = "bracket"
)

type cachedView struct {
	value   interface{}
	expires time.Time
}

type structureService struct {
	tournaments   TournamentService
	builder       *brackets.Builder
	historyWindow int
	ttl           time.Duration
	now           func() time.Time

	flight singleflight.Group
	mu     sync.Mutex
	cache  map[string]cachedView

	logger *slog.Logger
}

func NewStructureService(tournaments TournamentService, stageNames []string, historyWindow int, logger *slog.Logger) StructureService {
	return &structureService{
		tournaments:   tournaments,
		builder:       brackets.NewBuilder(stageNames...),
		historyWindow: historyWindow,
		ttl:           defaultViewTTL,
		now:           time.Now,
		cache:         make(map[string]cachedView),
		logger:        logger,
	}
}

func (s *structureService) Standings(ctx context.Context, tournamentID int) ([]standings.GroupStandings, error) {
	v, err := s.view(ctx, tournamentID, viewStandings, func(matches []models.Match, teams []models.Team) interface{} {
		return standings.ComputeByGroup(matches, teams, standings.WithHistoryWindow(s.historyWindow))
	})
	if err != nil {
		return nil, err
	}
	return v.([]standings.GroupStandings), nil
}

func (s *structureService) Bracket(ctx context.Context, tournamentID int) ([]models.Round, error) {
	v, err := s.view(ctx, tournamentID, viewBracket, func(matches []models.Match, _ []models.Team) interface{} {
		return s.builder.Build(models.FilterStage(matches, models.StagePlayoffs))
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.Round), nil
}

// view loads matches and teams in parallel and derives a view from them.
// Results are memoized by a fingerprint of the inputs, and concurrent
// requests for the same inputs share one computation.
func (s *structureService) view(
	ctx context.Context,
	tournamentID int,
	kind string,
	derive func([]models.Match, []models.Team) interface{},
) (interface{}, error) {
	var (
		matches []models.Match
		teams   []models.Team
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		matches, err = s.tournaments.ListMatches(gctx, tournamentID)
		return err
	})
	g.Go(func() error {
		var err error
		teams, err = s.tournaments.ListTeams(gctx, tournamentID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	fingerprint, err := utils.Fingerprint(struct {
		Matches []models.Match `json:"m"`
		Teams   []models.Team  `json:"t"`
	}{matches, teams})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	key := fmt.Sprintf("%s:%d:%s", kind, tournamentID, fingerprint)

	if v, ok := s.lookup(key); ok {
		return v, nil
	}
	v, _, shared := s.flight.Do(key, func() (interface{}, error) {
		if v, ok := s.lookup(key); ok {
			return v, nil
		}
		v := derive(matches, teams)
		s.store(key, v)
		return v, nil
	})
	if shared {
		s.logger.DebugContext(ctx, "Structure view computation shared",
			slog.Int("tournament_id", tournamentID), slog.String("view", kind))
	}
	return v, nil
}

func (s *structureService) lookup(key string) (interface{}, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	if s.now().After(entry.expires) {
		delete(s.cache, key)
		return nil, false
	}
	return entry.value, true
}

func (s *structureService) store(key string, v interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	if len(s.cache) >= maxCachedViews {
		for k, entry := range s.cache {
			if now.After(entry.expires) {
				delete(s.cache, k)
			}
		}
		if len(s.cache) >= maxCachedViews {
			s.cache = make(map[string]cachedView)
		}
	}
	s.cache[key] = cachedView{value: v, expires: now.Add(s.ttl)}
}
