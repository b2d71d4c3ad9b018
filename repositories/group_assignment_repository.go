package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/Dosada05/esports-league/models"
)

var (
	ErrAssignmentTeamInvalid = errors.New("group assignment references a team outside the tournament")
	ErrAssignmentDuplicate   = errors.New("team is assigned to more than one group")
)

type GroupAssignmentRepository interface {
	List(ctx context.Context, tournamentID int) ([]models.GroupAssignment, error)
	// Replace удаляет набор распределения турнира и вставляет rows по порядку.
	Replace(ctx context.Context, exec SQLExecutor, tournamentID int, rows []models.GroupAssignment) error
	// Fingerprint возвращает отпечаток последнего сохранённого набора или "".
	Fingerprint(ctx context.Context, exec SQLExecutor, tournamentID int) (string, error)
	SetFingerprint(ctx context.Context, exec SQLExecutor, tournamentID int, fingerprint string) error
}

type postgresGroupAssignmentRepository struct {
	db *sql.DB
}

func NewPostgresGroupAssignmentRepository(db *sql.DB) GroupAssignmentRepository {
	return &postgresGroupAssignmentRepository{db: db}
}

func (r *postgresGroupAssignmentRepository) List(ctx context.Context, tournamentID int) ([]models.GroupAssignment, error) {
	query := `
		SELECT team_id, group_label
		FROM group_assignments
		WHERE tournament_id = $1
		ORDER BY LENGTH(group_label) ASC, group_label ASC, position ASC`

	rows, err := r.db.QueryContext(ctx, query, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("failed to query group assignments for tournament %d: %w", tournamentID, err)
	}
	defer rows.Close()

	assignments := make([]models.GroupAssignment, 0)
	for rows.Next() {
		var a models.GroupAssignment
		if scanErr := rows.Scan(&a.TeamID, &a.GroupLabel); scanErr != nil {
			return nil, fmt.Errorf("failed to scan group assignment row: %w", scanErr)
		}
		assignments = append(assignments, a)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error during group assignment rows iteration: %w", err)
	}
	return assignments, nil
}

func (r *postgresGroupAssignmentRepository) Replace(ctx context.Context, exec SQLExecutor, tournamentID int, rows []models.GroupAssignment) error {
	executor := getExecutor(exec, r.db)

	if _, err := executor.ExecContext(ctx, `DELETE FROM group_assignments WHERE tournament_id = $1`, tournamentID); err != nil {
		return fmt.Errorf("failed to clear group assignments for tournament %d: %w", tournamentID, err)
	}

	query := `
		INSERT INTO group_assignments (tournament_id, team_id, group_label, position)
		SELECT $1::int, $2::int, $3::varchar, $4::int
		WHERE EXISTS (SELECT 1 FROM tournament_teams WHERE tournament_id = $1 AND team_id = $2)`

	for i, row := range rows {
		result, err := executor.ExecContext(ctx, query, tournamentID, row.TeamID, row.GroupLabel, i+1)
		if err != nil {
			return r.handleAssignmentError(err)
		}
		if err := checkAffectedRows(result, ErrAssignmentTeamInvalid); err != nil {
			return fmt.Errorf("team %d: %w", row.TeamID, err)
		}
	}
	return nil
}

func (r *postgresGroupAssignmentRepository) Fingerprint(ctx context.Context, exec SQLExecutor, tournamentID int) (string, error) {
	var fp string
	err := getExecutor(exec, r.db).QueryRowContext(ctx,
		`SELECT fingerprint FROM assignment_commits WHERE tournament_id = $1`, tournamentID).Scan(&fp)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read assignment fingerprint for tournament %d: %w", tournamentID, err)
	}
	return fp, nil
}

func (r *postgresGroupAssignmentRepository) SetFingerprint(ctx context.Context, exec SQLExecutor, tournamentID int, fingerprint string) error {
	query := `
		INSERT INTO assignment_commits (tournament_id, fingerprint, committed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (tournament_id) DO UPDATE SET fingerprint = EXCLUDED.fingerprint, committed_at = NOW()`

	if _, err := getExecutor(exec, r.db).ExecContext(ctx, query, tournamentID, fingerprint); err != nil {
		return fmt.Errorf("failed to store assignment fingerprint for tournament %d: %w", tournamentID, err)
	}
	return nil
}

func (r *postgresGroupAssignmentRepository) handleAssignmentError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return ErrAssignmentDuplicate
	}
	return fmt.Errorf("failed to insert group assignment: %w", err)
}
