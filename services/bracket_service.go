package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Dosada05/esports-league/brackets"
	"github.com/Dosada05/esports-league/models"
	"github.com/Dosada05/esports-league/repositories"
	"github.com/Dosada05/esports-league/standings"
)

// SeedFromGroups упорядочивает прошедших в плей-офф: все победители групп
// по порядку меток, затем все вторые места и так далее до perGroup.
func SeedFromGroups(groups []standings.GroupStandings, perGroup int) []models.Team {
	seeds := make([]models.Team, 0, len(groups)*perGroup)
	for place := 0; place < perGroup; place++ {
		for _, g := range groups {
			if place < len(g.Rows) {
				seeds = append(seeds, g.Rows[place].Team)
			}
		}
	}
	return seeds
}

func (s *tournamentService) GenerateBracket(ctx context.Context, tournamentID int) error {
	teams, err := s.ListTeams(ctx, tournamentID)
	if err != nil {
		return err
	}
	stage := models.StageGroups
	groupMatches, err := s.matchRepo.ListByTournament(ctx, tournamentID, &stage)
	if err != nil {
		return handleRepositoryError(err, "list group matches")
	}
	if len(groupMatches) == 0 {
		return ErrGroupStageMissing
	}
	for _, m := range groupMatches {
		if m.Status != models.StatusCompleted {
			return fmt.Errorf("%w: match %d is %s", ErrGroupStageIncomplete, m.ID, m.Status)
		}
	}

	table := standings.ComputeByGroup(groupMatches, teams, standings.WithHistoryWindow(s.cfg.HistoryWindow))
	seeds := SeedFromGroups(table, s.cfg.AdvancePerGroup)
	if len(seeds) < 2 {
		return fmt.Errorf("%w: %d qualifier(s), at least 2 required", ErrNotEnoughTeams, len(seeds))
	}

	params := brackets.GenerateBracketParams{
		TournamentID: tournamentID,
		Teams:        seeds,
		BestOf:       s.cfg.DefaultBestOf,
	}
	generated, err := brackets.NewSingleEliminationGenerator().GenerateBracket(ctx, params)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrValidationFailed, err)
	}
	planned := brackets.ToMatches(generated, params, models.StagePlayoffs)

	err = s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		if _, err := s.matchRepo.DeleteByStage(ctx, exec, tournamentID, models.StagePlayoffs); err != nil {
			return err
		}
		return s.matchRepo.CreateBatch(ctx, exec, planned)
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to save playoff bracket",
			slog.Int("tournament_id", tournamentID), slog.Any("error", err))
		return handleRepositoryError(err, "generate bracket")
	}

	s.logger.InfoContext(ctx, "Playoff bracket generated",
		slog.Int("tournament_id", tournamentID),
		slog.Int("seeds", len(seeds)),
		slog.Int("matches", len(planned)))

	attachTeams(planned, models.NewTeamDirectory(teams))
	s.publish(tournamentID, brackets.EventBracketUpdated, s.builder.Build(planned))
	return nil
}
