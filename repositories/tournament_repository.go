package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

var ErrTournamentNotFound = errors.New("tournament not found")

type TournamentRepository interface {
	// Exists возвращает ErrTournamentNotFound, если турнира нет.
	Exists(ctx context.Context, id int) error
}

type postgresTournamentRepository struct {
	db *sql.DB
}

func NewPostgresTournamentRepository(db *sql.DB) TournamentRepository {
	return &postgresTournamentRepository{db: db}
}

func (r *postgresTournamentRepository) Exists(ctx context.Context, id int) error {
	var found int
	err := r.db.QueryRowContext(ctx, `SELECT 1 FROM tournaments WHERE id = $1`, id).Scan(&found)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTournamentNotFound
		}
		return fmt.Errorf("failed to check tournament %d: %w", id, err)
	}
	return nil
}
