package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Dosada05/esports-league/db"
)

// SQLExecutor реализуют и *sql.DB, и *sql.Tx.
type SQLExecutor interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Transactor выполняет единицу работы в одной транзакции. Репозитории,
// вызванные с исполнителем из fn, участвуют в этой транзакции.
type Transactor interface {
	WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error
}

type sqlTransactor struct {
	db *sql.DB
}

func NewTransactor(sqlDB *sql.DB) Transactor {
	return &sqlTransactor{db: sqlDB}
}

func (t *sqlTransactor) WithinTx(ctx context.Context, fn func(exec SQLExecutor) error) error {
	return db.RunInTx(ctx, t.db, func(tx *sql.Tx) error {
		return fn(tx)
	})
}

func getExecutor(exec SQLExecutor, fallback *sql.DB) SQLExecutor {
	if exec != nil {
		return exec
	}
	return fallback
}

func checkAffectedRows(result sql.Result, notFoundError error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check affected rows: %w", err)
	}
	if rowsAffected == 0 {
		return notFoundError // Возвращаем переданную ошибку "не найдено"
	}
	return nil
}
