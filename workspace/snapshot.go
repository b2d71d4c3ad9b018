package workspace

import (
	"fmt"

	"github.com/Dosada05/esports-league/models"
)

// Snapshot копия workspace только для чтения, для отрисовки.
type Snapshot struct {
	TournamentID int            `json:"tournament_id"`
	State        string         `json:"state"`
	DragItem     *models.Team   `json:"drag_item,omitempty"`
	Pool         []models.Team  `json:"pool"`
	Groups       []models.Group `json:"groups"`
	Saving       bool           `json:"saving"`
	LastError    string         `json:"last_error,omitempty"`
}

func (w *Workspace) Snapshot() Snapshot {
	s := Snapshot{
		TournamentID: w.tournamentID,
		State:        w.state.String(),
		Pool:         make([]models.Team, 0, len(w.pool)),
		Groups:       make([]models.Group, 0, len(w.groups)),
		Saving:       w.saving,
	}
	if w.lastErr != nil {
		s.LastError = w.lastErr.Error()
	}
	if w.dragItem != nil {
		t := w.teams[*w.dragItem]
		s.DragItem = &t
	}
	for _, id := range w.pool {
		s.Pool = append(s.Pool, w.teams[id])
	}
	for _, g := range w.groups {
		s.Groups = append(s.Groups, w.view(g))
	}
	return s
}

// Verify проверяет инвариант разбиения: каждая известная команда находится
// ровно в одном месте (пул или одна группа), и неизвестных команд нигде нет.
func (w *Workspace) Verify() error {
	seen := make(map[int]string, len(w.teams))
	place := func(id int, where string) error {
		if _, ok := w.teams[id]; !ok {
			return fmt.Errorf("unknown team %d in %s", id, where)
		}
		if prev, dup := seen[id]; dup {
			return fmt.Errorf("team %d is in both %s and %s", id, prev, where)
		}
		seen[id] = where
		return nil
	}
	for _, id := range w.pool {
		if err := place(id, "pool"); err != nil {
			return err
		}
	}
	for _, g := range w.groups {
		for _, id := range g.teams {
			if err := place(id, g.name); err != nil {
				return err
			}
		}
	}
	if len(seen) != len(w.teams) {
		return fmt.Errorf("%d of %d teams are placed", len(seen), len(w.teams))
	}
	return nil
}
