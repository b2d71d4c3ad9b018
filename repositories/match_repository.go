package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"

	"github.com/Dosada05/esports-league/models"
)

var (
	ErrMatchNotFound          = errors.New("match not found")
	ErrMatchTournamentInvalid = errors.New("match tournament conflict or invalid")
	ErrMatchTeamInvalid       = errors.New("match team conflict or invalid")
	ErrMatchSlotConflict      = errors.New("match slot is already taken")
)

type MatchRepository interface {
	GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error)
	// GetBySlot ищет матч по (stage, group, round, index). При nil
	// groupLabel подходят только матчи без группы.
	GetBySlot(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.MatchStage, groupLabel *string, round, index int) (*models.Match, error)
	ListByTournament(ctx context.Context, tournamentID int, stage *models.MatchStage) ([]models.Match, error)
	CreateBatch(ctx context.Context, exec SQLExecutor, matches []models.Match) error
	Update(ctx context.Context, exec SQLExecutor, match *models.Match) error
	DeleteByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.MatchStage) (int64, error)
}

type postgresMatchRepository struct {
	db *sql.DB
}

func NewPostgresMatchRepository(db *sql.DB) MatchRepository {
	return &postgresMatchRepository{db: db}
}

const matchColumns = `id, tournament_id, stage, group_label, round, match_index, team_a_id, team_b_id,
		       score_a, score_b, status, winner_id, best_of, notes`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMatch(row rowScanner, match *models.Match) error {
	return row.Scan(
		&match.ID,
		&match.TournamentID,
		&match.Stage,
		&match.GroupLabel,
		&match.Round,
		&match.MatchIndex,
		&match.TeamAID,
		&match.TeamBID,
		&match.ScoreA,
		&match.ScoreB,
		&match.Status,
		&match.WinnerID,
		&match.BestOf,
		&match.Notes,
	)
}

func (r *postgresMatchRepository) GetByID(ctx context.Context, exec SQLExecutor, id int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + ` FROM matches WHERE id = $1`

	match := &models.Match{}
	err := scanMatch(getExecutor(exec, r.db).QueryRowContext(ctx, query, id), match)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match by id %d: %w", id, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) GetBySlot(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.MatchStage, groupLabel *string, round, index int) (*models.Match, error) {
	query := `SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1 AND stage = $2 AND COALESCE(group_label, '') = COALESCE($3, '')
		  AND round = $4 AND match_index = $5`

	match := &models.Match{}
	err := scanMatch(getExecutor(exec, r.db).QueryRowContext(ctx, query, tournamentID, stage, groupLabel, round, index), match)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMatchNotFound
		}
		return nil, fmt.Errorf("failed to scan match at R%dM%d: %w", round, index, err)
	}
	return match, nil
}

func (r *postgresMatchRepository) ListByTournament(ctx context.Context, tournamentID int, stageFilter *models.MatchStage) ([]models.Match, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + matchColumns + `
		FROM matches
		WHERE tournament_id = $1`)

	args := []interface{}{tournamentID}
	placeholderIndex := 2

	if stageFilter != nil {
		queryBuilder.WriteString(" AND stage = $")
		queryBuilder.WriteString(strconv.Itoa(placeholderIndex))
		args = append(args, *stageFilter)
	}

	queryBuilder.WriteString(" ORDER BY stage ASC, group_label ASC NULLS FIRST, round ASC, match_index ASC, id ASC")

	rows, err := r.db.QueryContext(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query matches for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	matches := make([]models.Match, 0)
	for rows.Next() {
		var match models.Match
		if scanErr := scanMatch(rows, &match); scanErr != nil {
			return nil, fmt.Errorf("failed to scan match row: %w", scanErr)
		}
		matches = append(matches, match)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during match rows iteration: %w", err)
	}
	return matches, nil
}

func (r *postgresMatchRepository) CreateBatch(ctx context.Context, exec SQLExecutor, matches []models.Match) error {
	if len(matches) == 0 {
		return nil
	}
	executor := getExecutor(exec, r.db)

	query := `
		INSERT INTO matches
			(tournament_id, stage, group_label, round, match_index, team_a_id, team_b_id,
			 score_a, score_b, status, winner_id, best_of, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id`

	for i := range matches {
		m := &matches[i]
		err := executor.QueryRowContext(ctx, query,
			m.TournamentID,
			m.Stage,
			m.GroupLabel,
			m.Round,
			m.MatchIndex,
			m.TeamAID,
			m.TeamBID,
			m.ScoreA,
			m.ScoreB,
			m.Status,
			m.WinnerID,
			m.BestOf,
			m.Notes,
		).Scan(&m.ID)
		if err != nil {
			return fmt.Errorf("failed to insert match R%dM%d: %w", m.Round, m.MatchIndex, r.handleMatchError(err))
		}
	}
	return nil
}

func (r *postgresMatchRepository) Update(ctx context.Context, exec SQLExecutor, match *models.Match) error {
	query := `
		UPDATE matches
		SET team_a_id = $1, team_b_id = $2, score_a = $3, score_b = $4, status = $5,
		    winner_id = $6, notes = $7, updated_at = NOW()
		WHERE id = $8`

	result, err := getExecutor(exec, r.db).ExecContext(ctx, query,
		match.TeamAID,
		match.TeamBID,
		match.ScoreA,
		match.ScoreB,
		match.Status,
		match.WinnerID,
		match.Notes,
		match.ID,
	)
	if err != nil {
		return r.handleMatchError(err)
	}
	return checkAffectedRows(result, ErrMatchNotFound)
}

func (r *postgresMatchRepository) DeleteByStage(ctx context.Context, exec SQLExecutor, tournamentID int, stage models.MatchStage) (int64, error) {
	result, err := getExecutor(exec, r.db).ExecContext(ctx,
		`DELETE FROM matches WHERE tournament_id = $1 AND stage = $2`, tournamentID, stage)
	if err != nil {
		return 0, fmt.Errorf("failed to delete %s matches for tournament %d: %w", stage, tournamentID, err)
	}
	return result.RowsAffected()
}

func (r *postgresMatchRepository) handleMatchError(err error) error {
	if err == nil {
		return nil
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23503": // foreign_key_violation
			switch pqErr.Constraint {
			case "matches_tournament_id_fkey":
				return ErrMatchTournamentInvalid
			case "matches_team_a_id_fkey", "matches_team_b_id_fkey", "matches_winner_id_fkey":
				return ErrMatchTeamInvalid
			}
		case "23505": // unique_violation
			return ErrMatchSlotConflict
		}
	}
	return err
}
