package workspace

import (
	"context"
	"fmt"

	"github.com/Dosada05/esports-league/models"
)

// CommitRequest разбиение, снятое в начале сохранения. Перемещения
// после BeginCommit в него не входят.
type CommitRequest struct {
	TournamentID int
	Rows         []models.GroupAssignment
}

// Assignments разворачивает все непустые группы в строки (команда, ключ группы).
// Ключ это отображаемое имя группы без префикса "Group ".
func (w *Workspace) Assignments() []models.GroupAssignment {
	rows := make([]models.GroupAssignment, 0)
	for _, g := range w.groups {
		key := w.view(g).StorageKey()
		for _, id := range g.teams {
			rows = append(rows, models.GroupAssignment{TeamID: id, GroupLabel: key})
		}
	}
	return rows
}

// BeginCommit поднимает флаг сохранения и снимает разбиение.
func (w *Workspace) BeginCommit() (CommitRequest, error) {
	if w.saving {
		return CommitRequest{}, ErrCommitInProgress
	}
	rows := w.Assignments()
	if len(rows) == 0 {
		return CommitRequest{}, ErrNoGroups
	}
	w.saving = true
	return CommitRequest{TournamentID: w.tournamentID, Rows: rows}, nil
}

// FinishCommit опускает флаг сохранения и запоминает результат. Разбиение
// здесь не меняется: после ошибки пользователь повторяет с того же состояния,
// после успеха вызывающий выбрасывает workspace.
func (w *Workspace) FinishCommit(err error) {
	w.saving = false
	w.lastErr = err
}

// Commit отправляет разбиение удалённому сервису одним пакетом.
func (w *Workspace) Commit(ctx context.Context) error {
	req, err := w.BeginCommit()
	if err != nil {
		return err
	}
	err = w.remote.CommitGroupAssignment(ctx, req.TournamentID, req.Rows)
	w.FinishCommit(err)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCommitFailed, err)
	}
	return nil
}

// GenerateGroupMatches просит удалённый сервис запланировать круговые
// матчи для текущих непустых групп.
func (w *Workspace) GenerateGroupMatches(ctx context.Context, bestOf int) error {
	if bestOf < 1 || bestOf%2 == 0 {
		return ErrInvalidBestOf
	}
	groups := make([]models.Group, 0, len(w.groups))
	for _, g := range w.groups {
		if len(g.teams) > 0 {
			groups = append(groups, w.view(g))
		}
	}
	if len(groups) == 0 {
		return ErrNoGroups
	}
	if err := w.remote.GenerateGroupMatches(ctx, w.tournamentID, groups, bestOf); err != nil {
		return fmt.Errorf("%w: %w", ErrGenerateFailed, err)
	}
	return nil
}
