// Package workspace хранит сессию редактирования в памяти, в которой админ
// распределяет команды турнира по группам перед сохранением.
//
// Workspace не безопасен для конкурентного использования. Жесты приходят
// по одному; хост, обслуживающий несколько горутин, сериализует доступ сам.
package workspace

import (
	"context"
	"fmt"
	"sort"

	"github.com/Dosada05/esports-league/models"
)

type State int

const (
	Idle State = iota
	Dragging
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Dragging:
		return "dragging"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Target место сброса: пул или одна группа.
type Target struct {
	GroupID string
	pool    bool
}

func ToPool() Target { return Target{pool: true} }

func ToGroup(groupID string) Target { return Target{GroupID: groupID} }

func (t Target) IsPool() bool { return t.pool }

// Remote часть сервиса турниров, с которой работает workspace.
type Remote interface {
	CommitGroupAssignment(ctx context.Context, tournamentID int, rows []models.GroupAssignment) error
	GenerateGroupMatches(ctx context.Context, tournamentID int, groups []models.Group, bestOf int) error
}

type group struct {
	id    string
	name  string
	teams []int
}

type Workspace struct {
	tournamentID int
	remote       Remote

	teams  models.TeamDirectory
	pool   []int
	groups []*group

	state    State
	dragItem *int
	saving   bool
	lastErr  error
	seq      int
}

type Option func(*Workspace)

// WithAssignments заполняет группы из ранее сохранённого разбиения.
// Строки с неизвестными командами игнорируются, команда размещается
// только по первой своей строке.
func WithAssignments(rows []models.GroupAssignment) Option {
	return func(w *Workspace) {
		labels := make([]string, 0)
		byLabel := make(map[string][]int)
		placed := make(map[int]bool)
		for _, row := range rows {
			if _, ok := w.teams[row.TeamID]; !ok || placed[row.TeamID] || row.GroupLabel == "" {
				continue
			}
			if _, ok := byLabel[row.GroupLabel]; !ok {
				labels = append(labels, row.GroupLabel)
			}
			byLabel[row.GroupLabel] = append(byLabel[row.GroupLabel], row.TeamID)
			placed[row.TeamID] = true
		}
		sort.Slice(labels, func(i, j int) bool {
			if len(labels[i]) != len(labels[j]) {
				return len(labels[i]) < len(labels[j])
			}
			return labels[i] < labels[j]
		})

		for _, label := range labels {
			w.groups = append(w.groups, &group{
				id:    label,
				name:  models.GroupNamePrefix + label,
				teams: byLabel[label],
			})
		}
		pool := w.pool[:0:0]
		for _, id := range w.pool {
			if !placed[id] {
				pool = append(pool, id)
			}
		}
		w.pool = pool
	}
}

// New создаёт workspace со всеми командами в пуле. Повторяющиеся ID
// схлопываются до первого вхождения.
func New(tournamentID int, teams []models.Team, remote Remote, opts ...Option) *Workspace {
	w := &Workspace{
		tournamentID: tournamentID,
		remote:       remote,
		teams:        make(models.TeamDirectory, len(teams)),
		pool:         make([]int, 0, len(teams)),
		state:        Idle,
	}
	for _, t := range teams {
		if _, dup := w.teams[t.ID]; dup {
			continue
		}
		w.teams[t.ID] = t
		w.pool = append(w.pool, t.ID)
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Workspace) TournamentID() int { return w.tournamentID }

func (w *Workspace) State() State { return w.state }

func (w *Workspace) Saving() bool { return w.saving }

// BeginMove поднимает команду. До сброса структура не меняется.
func (w *Workspace) BeginMove(teamID int) error {
	if w.state != Idle {
		return ErrNotIdle
	}
	if _, ok := w.teams[teamID]; !ok {
		return ErrUnknownTeam
	}
	id := teamID
	w.dragItem = &id
	w.state = Dragging
	return nil
}

// CompleteMove сбрасывает поднятую команду на target. Сброс туда, где команда
// уже находится, ничего не меняет. Сброс на несуществующую группу работает
// как CancelMove и возвращает ErrGroupNotFound.
func (w *Workspace) CompleteMove(teamID int, target Target) error {
	if w.state != Dragging {
		return ErrNotDragging
	}
	if *w.dragItem != teamID {
		return ErrWrongTeam
	}
	defer w.resetDrag()

	var dest *group
	if !target.IsPool() {
		dest = w.findGroup(target.GroupID)
		if dest == nil {
			return ErrGroupNotFound
		}
	}

	if dest == nil {
		if indexOf(w.pool, teamID) >= 0 {
			return nil
		}
	} else if indexOf(dest.teams, teamID) >= 0 {
		return nil
	}

	w.detach(teamID)
	if dest == nil {
		w.pool = append(w.pool, teamID)
	} else {
		dest.teams = append(dest.teams, teamID)
	}
	return nil
}

// CancelMove возвращает в Idle, не трогая разбиение.
func (w *Workspace) CancelMove() error {
	if w.state != Dragging {
		return ErrNotDragging
	}
	w.resetDrag()
	return nil
}

// Move это BeginMove и затем CompleteMove, для вызовов без перетаскивания.
func (w *Workspace) Move(teamID int, target Target) error {
	if err := w.BeginMove(teamID); err != nil {
		return err
	}
	return w.CompleteMove(teamID, target)
}

// AddGroup добавляет пустую группу со следующей свободной буквой.
func (w *Workspace) AddGroup() models.Group {
	id := groupLetters(w.seq)
	for w.findGroup(id) != nil {
		w.seq++
		id = groupLetters(w.seq)
	}
	w.seq++

	g := &group{id: id, name: models.GroupNamePrefix + id, teams: []int{}}
	w.groups = append(w.groups, g)
	return w.view(g)
}

// RemoveGroup удаляет пустую группу. Команды не теряются: группа
// с командами отклоняется с ErrGroupNotEmpty.
func (w *Workspace) RemoveGroup(groupID string) error {
	for i, g := range w.groups {
		if g.id != groupID {
			continue
		}
		if len(g.teams) > 0 {
			return ErrGroupNotEmpty
		}
		w.groups = append(w.groups[:i], w.groups[i+1:]...)
		return nil
	}
	return ErrGroupNotFound
}

// RemoveFromGroup возвращает команду из группы в пул.
func (w *Workspace) RemoveFromGroup(teamID int) error {
	for _, g := range w.groups {
		if i := indexOf(g.teams, teamID); i >= 0 {
			g.teams = removeAt(g.teams, i)
			w.pool = append(w.pool, teamID)
			return nil
		}
	}
	if _, ok := w.teams[teamID]; !ok {
		return ErrUnknownTeam
	}
	return ErrTeamNotInGroup
}

func (w *Workspace) resetDrag() {
	w.dragItem = nil
	w.state = Idle
}

func (w *Workspace) findGroup(id string) *group {
	for _, g := range w.groups {
		if g.id == id {
			return g
		}
	}
	return nil
}

// detach removes the team from wherever it is. By the partition invariant
// that is exactly one place.
func (w *Workspace) detach(teamID int) {
	if i := indexOf(w.pool, teamID); i >= 0 {
		w.pool = removeAt(w.pool, i)
		return
	}
	for _, g := range w.groups {
		if i := indexOf(g.teams, teamID); i >= 0 {
			g.teams = removeAt(g.teams, i)
			return
		}
	}
}

func (w *Workspace) view(g *group) models.Group {
	teams := make([]models.Team, 0, len(g.teams))
	for _, id := range g.teams {
		teams = append(teams, w.teams[id])
	}
	return models.Group{ID: g.id, Name: g.name, Teams: teams}
}

func indexOf(ids []int, id int) int {
	for i, v := range ids {
		if v == id {
			return i
		}
	}
	return -1
}

func removeAt(ids []int, i int) []int {
	out := make([]int, 0, len(ids)-1)
	out = append(out, ids[:i]...)
	return append(out, ids[i+1:]...)
}

// groupLetters maps 0 -> A, 25 -> Z, 26 -> AA.
func groupLetters(n int) string {
	s := ""
	for n >= 0 {
		s = string(rune('A'+n%26)) + s
		n = n/26 - 1
	}
	return s
}
