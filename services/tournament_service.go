package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/esports-league/brackets"
	"github.com/Dosada05/esports-league/models"
	"github.com/Dosada05/esports-league/repositories"
	"github.com/Dosada05/esports-league/storage"
	"github.com/Dosada05/esports-league/utils"
)

// TournamentService удалённая сторона движка структуры: владеет
// командами, матчами и сохранёнными распределениями по группам.
type TournamentService interface {
	ListMatches(ctx context.Context, tournamentID int) ([]models.Match, error)
	ListTeams(ctx context.Context, tournamentID int) ([]models.Team, error)
	ListGroupAssignments(ctx context.Context, tournamentID int) ([]models.GroupAssignment, error)
	// CommitGroupAssignment заменяет набор распределения турнира в одной
	// транзакции. Повтор последнего сохранённого набора ничего не меняет.
	CommitGroupAssignment(ctx context.Context, tournamentID int, rows []models.GroupAssignment) error
	// GenerateGroupMatches заменяет все матчи группового этапа кругом
	// "каждый с каждым" в каждой группе.
	GenerateGroupMatches(ctx context.Context, tournamentID int, groups []models.Group, bestOf int) error
	// GenerateBracket заменяет плей-офф сеткой на выбывание,
	// посеянной по таблицам групп.
	GenerateBracket(ctx context.Context, tournamentID int) error
	UpdateMatch(ctx context.Context, matchID int, patch models.MatchPatch) (*models.Match, error)
}

// EventPublisher рассылает события турнира зрителям.
type EventPublisher interface {
	Publish(tournamentID int, eventType string, payload interface{})
}

type TournamentServiceConfig struct {
	StageNames      []string
	HistoryWindow   int
	DefaultBestOf   int
	AdvancePerGroup int
}

type tournamentService struct {
	tx             repositories.Transactor
	tournamentRepo repositories.TournamentRepository
	teamRepo       repositories.TeamRepository
	matchRepo      repositories.MatchRepository
	assignmentRepo repositories.GroupAssignmentRepository
	logos          storage.LogoResolver
	publisher      EventPublisher
	builder        *brackets.Builder
	cfg            TournamentServiceConfig
	logger         *slog.Logger
}

func NewTournamentService(
	tx repositories.Transactor,
	tournamentRepo repositories.TournamentRepository,
	teamRepo repositories.TeamRepository,
	matchRepo repositories.MatchRepository,
	assignmentRepo repositories.GroupAssignmentRepository,
	logos storage.LogoResolver,
	publisher EventPublisher,
	cfg TournamentServiceConfig,
	logger *slog.Logger,
) TournamentService {
	if cfg.DefaultBestOf < 1 {
		cfg.DefaultBestOf = 3
	}
	if cfg.AdvancePerGroup < 1 {
		cfg.AdvancePerGroup = 2
	}
	return &tournamentService{
		tx:             tx,
		tournamentRepo: tournamentRepo,
		teamRepo:       teamRepo,
		matchRepo:      matchRepo,
		assignmentRepo: assignmentRepo,
		logos:          logos,
		publisher:      publisher,
		builder:        brackets.NewBuilder(cfg.StageNames...),
		cfg:            cfg,
		logger:         logger,
	}
}

func (s *tournamentService) ensureTournament(ctx context.Context, tournamentID int) error {
	if tournamentID <= 0 {
		return ErrTournamentNotFound
	}
	return handleRepositoryError(s.tournamentRepo.Exists(ctx, tournamentID), "check tournament")
}

func (s *tournamentService) ListTeams(ctx context.Context, tournamentID int) ([]models.Team, error) {
	if err := s.ensureTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	teams, err := s.teamRepo.ListByTournament(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "list teams")
	}
	s.populateLogos(ctx, teams)
	return teams, nil
}

// ListMatches возвращает все матчи турнира с заполненными TeamA/TeamB.
// Сторона с незарегистрированной командой остаётся nil и дальше
// отображается как "Unknown".
func (s *tournamentService) ListMatches(ctx context.Context, tournamentID int) ([]models.Match, error) {
	teams, err := s.ListTeams(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	matches, err := s.matchRepo.ListByTournament(ctx, tournamentID, nil)
	if err != nil {
		return nil, handleRepositoryError(err, "list matches")
	}
	attachTeams(matches, models.NewTeamDirectory(teams))
	return matches, nil
}

func (s *tournamentService) ListGroupAssignments(ctx context.Context, tournamentID int) ([]models.GroupAssignment, error) {
	if err := s.ensureTournament(ctx, tournamentID); err != nil {
		return nil, err
	}
	rows, err := s.assignmentRepo.List(ctx, tournamentID)
	if err != nil {
		return nil, handleRepositoryError(err, "list group assignments")
	}
	return rows, nil
}

func (s *tournamentService) CommitGroupAssignment(ctx context.Context, tournamentID int, rows []models.GroupAssignment) error {
	if err := s.ensureTournament(ctx, tournamentID); err != nil {
		return err
	}
	if err := validateAssignments(rows); err != nil {
		return err
	}
	fingerprint, err := utils.Fingerprint(rows)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}

	changed := false
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		current, err := s.assignmentRepo.Fingerprint(ctx, exec, tournamentID)
		if err != nil {
			return err
		}
		if current == fingerprint {
			return nil
		}
		if err := s.assignmentRepo.Replace(ctx, exec, tournamentID, rows); err != nil {
			return err
		}
		changed = true
		return s.assignmentRepo.SetFingerprint(ctx, exec, tournamentID, fingerprint)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to commit group assignment",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return handleRepositoryError(err, "commit group assignment")
	}

	if !changed {
		s.logger.InfoContext(ctx, "Group assignment unchanged, commit skipped",
			slog.Int("tournament_id", tournamentID), slog.String("fingerprint", fingerprint))
		return nil
	}
	s.logger.InfoContext(ctx, "Group assignment committed",
		slog.Int("tournament_id", tournamentID), slog.Int("rows", len(rows)))
	s.publish(tournamentID, brackets.EventGroupsCommitted, rows)
	return nil
}

func (s *tournamentService) GenerateGroupMatches(ctx context.Context, tournamentID int, groups []models.Group, bestOf int) error {
	if bestOf < 1 || bestOf%2 == 0 {
		return ErrInvalidBestOf
	}
	if len(groups) == 0 {
		return fmt.Errorf("%w: no groups to schedule", ErrNotEnoughTeams)
	}
	teams, err := s.ListTeams(ctx, tournamentID)
	if err != nil {
		return err
	}
	registered := models.NewTeamDirectory(teams)

	generator := brackets.NewRoundRobinGenerator()
	seen := make(map[int]string)
	planned := make([]models.Match, 0)
	for _, g := range groups {
		if len(g.Teams) < 2 {
			return fmt.Errorf("%w: %s has %d team(s), at least 2 required", ErrNotEnoughTeams, g.Name, len(g.Teams))
		}
		key := g.StorageKey()
		for _, t := range g.Teams {
			if _, ok := registered[t.ID]; !ok {
				return fmt.Errorf("%w: team %d", ErrTeamNotInTournament, t.ID)
			}
			if prev, dup := seen[t.ID]; dup {
				return fmt.Errorf("%w: team %d in %s and %s", ErrDuplicateAssignment, t.ID, prev, key)
			}
			seen[t.ID] = key
		}

		params := brackets.GenerateBracketParams{
			TournamentID: tournamentID,
			Teams:        g.Teams,
			GroupLabel:   models.StringPtr(key),
			BestOf:       bestOf,
			Legs:         1,
		}
		generated, err := generator.GenerateBracket(ctx, params)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrValidationFailed, err)
		}
		planned = append(planned, brackets.ToMatches(generated, params, models.StageGroups)...)
	}

	var removed int64
	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		var err error
		if removed, err = s.matchRepo.DeleteByStage(ctx, exec, tournamentID, models.StageGroups); err != nil {
			return err
		}
		return s.matchRepo.CreateBatch(ctx, exec, planned)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save group matches",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return handleRepositoryError(err, "generate group matches")
	}

	s.logger.InfoContext(ctx, "Group matches generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("groups", len(groups)),
		slog.Int("matches", len(planned)),
		slog.Int64("replaced", removed))
	s.publish(tournamentID, brackets.EventGroupMatchesGenerated, map[string]int{
		"groups":  len(groups),
		"matches": len(planned),
	})
	return nil
}

func (s *tournamentService) publish(tournamentID int, eventType string, payload interface{}) {
	if s.publisher != nil {
		s.publisher.Publish(tournamentID, eventType, payload)
	}
}

func (s *tournamentService) populateLogos(ctx context.Context, teams []models.Team) {
	if s.logos == nil {
		return
	}
	for i := range teams {
		key := utils.DerefString(teams[i].LogoKey)
		if key == "" {
			continue
		}
		url, err := s.logos.LogoURL(ctx, key)
		if err != nil {
			s.logger.WarnContext(ctx, "Failed to resolve team logo",
				slog.Int("team_id", teams[i].ID), slog.Any("error", err))
			continue
		}
		if url != "" {
			teams[i].LogoURL = &url
		}
	}
}

func attachTeams(matches []models.Match, dir models.TeamDirectory) {
	for i := range matches {
		matches[i].TeamA = lookupTeam(dir, matches[i].TeamAID)
		matches[i].TeamB = lookupTeam(dir, matches[i].TeamBID)
	}
}

func lookupTeam(dir models.TeamDirectory, id *int) *models.Team {
	if id == nil {
		return nil
	}
	t, ok := dir[*id]
	if !ok {
		return nil
	}
	return &t
}

func validateAssignments(rows []models.GroupAssignment) error {
	if len(rows) == 0 {
		return fmt.Errorf("%w: assignment set is empty", ErrValidationFailed)
	}
	seen := make(map[int]bool, len(rows))
	for _, row := range rows {
		if row.TeamID <= 0 || row.GroupLabel == "" {
			return fmt.Errorf("%w: team_id and group_label are required", ErrValidationFailed)
		}
		if seen[row.TeamID] {
			return fmt.Errorf("%w: team %d", ErrDuplicateAssignment, row.TeamID)
		}
		seen[row.TeamID] = true
	}
	return nil
}
