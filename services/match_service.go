package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Dosada05/esports-league/brackets"
	"github.com/Dosada05/esports-league/models"
	"github.com/Dosada05/esports-league/repositories"
)

// applyPatch validates patch against m and returns the updated copy.
// Completing a match without an explicit winner takes the higher score;
// level scores leave no winner, which playoffs reject.
func applyPatch(m models.Match, patch models.MatchPatch) (models.Match, error) {
	if m.Status == models.StatusCompleted &&
		(patch.ScoreA != nil || patch.ScoreB != nil || patch.WinnerID != nil ||
			(patch.Status != nil && *patch.Status != models.StatusCompleted)) {
		return m, ErrMatchCompleted
	}

	if patch.Notes != nil {
		m.Notes = patch.Notes
	}
	if patch.ScoreA != nil {
		m.ScoreA = *patch.ScoreA
	}
	if patch.ScoreB != nil {
		m.ScoreB = *patch.ScoreB
	}
	if m.ScoreA < 0 || m.ScoreB < 0 {
		return m, ErrInvalidScore
	}

	next := m.Status
	if patch.Status != nil {
		next = *patch.Status
		if !next.Valid() {
			return m, fmt.Errorf("%w: %q", ErrInvalidStatus, next)
		}
		if !m.Status.CanTransitionTo(next) {
			return m, fmt.Errorf("%w: %s -> %s", ErrInvalidStatusTransition, m.Status, next)
		}
	}

	if patch.WinnerID != nil {
		if next != models.StatusCompleted {
			return m, fmt.Errorf("%w: winner can only be set when completing", ErrInvalidWinner)
		}
		if !m.HasSide(*patch.WinnerID) {
			return m, fmt.Errorf("%w: team %d did not play", ErrInvalidWinner, *patch.WinnerID)
		}
	}

	if next == models.StatusCompleted && m.Status != models.StatusCompleted {
		if m.TeamAID == nil || m.TeamBID == nil {
			return m, ErrMatchNotReady
		}
		winner := patch.WinnerID
		switch {
		case m.ScoreA > m.ScoreB:
			if winner != nil && *winner != *m.TeamAID {
				return m, ErrInvalidWinner
			}
			winner = m.TeamAID
		case m.ScoreB > m.ScoreA:
			if winner != nil && *winner != *m.TeamBID {
				return m, ErrInvalidWinner
			}
			winner = m.TeamBID
		}
		if winner == nil && m.Stage == models.StagePlayoffs {
			return m, ErrPlayoffTie
		}
		if winner != nil {
			w := *winner
			m.WinnerID = &w
		}
	}
	m.Status = next
	return m, nil
}

func (s *tournamentService) UpdateMatch(ctx context.Context, matchID int, patch models.MatchPatch) (*models.Match, error) {
	var (
		updated  models.Match
		advanced *models.Match
	)
	err := s.tx.WithinTx(ctx, func(exec repositories.SQLExecutor) error {
		current, err := s.matchRepo.GetByID(ctx, exec, matchID)
		if err != nil {
			return err
		}
		wasCompleted := current.Status == models.StatusCompleted

		updated, err = applyPatch(*current, patch)
		if err != nil {
			return err
		}
		if err := s.matchRepo.Update(ctx, exec, &updated); err != nil {
			return err
		}

		if !wasCompleted && updated.Status == models.StatusCompleted && updated.Stage == models.StagePlayoffs {
			advanced, err = s.advanceWinner(ctx, exec, updated)
			return err
		}
		return nil
	})
	if err != nil {
		if isValidationError(err) {
			return nil, err
		}
		s.logger.ErrorContext(ctx, "Failed to update match", slog.Int("match_id", matchID), slog.Any("error", err))
		return nil, handleRepositoryError(err, "update match")
	}

	teams, err := s.teamRepo.ListByTournament(ctx, updated.TournamentID)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to load teams for updated match",
			slog.Int("match_id", matchID), slog.Any("error", err))
	} else {
		s.populateLogos(ctx, teams)
		one := []models.Match{updated}
		attachTeams(one, models.NewTeamDirectory(teams))
		updated = one[0]
	}

	s.logger.InfoContext(ctx, "Match updated",
		slog.Int("match_id", matchID),
		slog.Int("tournament_id", updated.TournamentID),
		slog.String("status", string(updated.Status)))
	s.publish(updated.TournamentID, brackets.EventMatchUpdated, updated)
	if advanced != nil {
		s.publish(updated.TournamentID, brackets.EventBracketUpdated, map[string]interface{}{
			"match_id":  advanced.ID,
			"round":     advanced.Round,
			"index":     advanced.MatchIndex,
			"team_a_id": advanced.TeamAID,
			"team_b_id": advanced.TeamBID,
		})
	}
	return &updated, nil
}

// advanceWinner puts the winner of a completed playoff match into its slot
// in the next round. The final has no next slot and returns nil.
func (s *tournamentService) advanceWinner(ctx context.Context, exec repositories.SQLExecutor, m models.Match) (*models.Match, error) {
	if m.WinnerID == nil {
		return nil, nil
	}
	round, index, sideA := brackets.NextSlot(m.Round, m.MatchIndex)
	next, err := s.matchRepo.GetBySlot(ctx, exec, m.TournamentID, models.StagePlayoffs, m.GroupLabel, round, index)
	if errors.Is(err, repositories.ErrMatchNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if next.Status != models.StatusScheduled {
		return nil, fmt.Errorf("%w: next match %d is already %s", ErrConflict, next.ID, next.Status)
	}

	winner := *m.WinnerID
	if sideA {
		next.TeamAID = &winner
	} else {
		next.TeamBID = &winner
	}
	if err := s.matchRepo.Update(ctx, exec, next); err != nil {
		return nil, err
	}
	return next, nil
}

func isValidationError(err error) bool {
	for _, target := range []error{
		ErrMatchCompleted, ErrInvalidScore, ErrInvalidStatus, ErrInvalidStatusTransition,
		ErrInvalidWinner, ErrMatchNotReady, ErrPlayoffTie, ErrConflict,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
