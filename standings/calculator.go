// Package standings считает таблицы группового этапа по результатам матчей.
package standings

import (
	"sort"

	"github.com/Dosada05/esports-league/models"
)

const (
	DefaultHistoryWindow = 5

	pointsForWin = 3
	pointsForTie = 1
)

type options struct {
	historyWindow int
}

type Option func(*options)

// WithHistoryWindow ограничивает StandingRow.History n последними результатами.
// Значения меньше 1 заменяются на DefaultHistoryWindow.
func WithHistoryWindow(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.historyWindow = n
		}
	}
}

type entry struct {
	row   models.StandingRow
	order int
}

// Compute строит упорядоченную таблицу одной группы.
//
// Каждая команда из матчей получает строку в порядке первого появления.
// Учитываются только завершённые матчи. Строки сортируются по очкам, затем
// по победам, затем по разнице сетов; при равенстве сохраняется порядок появления.
func Compute(matches []models.Match, teams []models.Team, opts ...Option) []models.StandingRow {
	o := options{historyWindow: DefaultHistoryWindow}
	for _, opt := range opts {
		opt(&o)
	}

	dir := models.NewTeamDirectory(teams)
	index := make(map[int]*entry)
	ordered := make([]*entry, 0)

	lookup := func(id *int) *entry {
		if id == nil {
			return nil
		}
		e, ok := index[*id]
		if !ok {
			e = &entry{row: models.StandingRow{Team: dir.Resolve(*id)}, order: len(ordered)}
			index[*id] = e
			ordered = append(ordered, e)
		}
		return e
	}

	for _, m := range matches {
		a := lookup(m.TeamAID)
		b := lookup(m.TeamBID)
		if m.Status != models.StatusCompleted {
			continue
		}

		if a != nil {
			a.row.SetWins += m.ScoreA
			a.row.SetLosses += m.ScoreB
		}
		if b != nil {
			b.row.SetWins += m.ScoreB
			b.row.SetLosses += m.ScoreA
		}

		switch {
		case m.IsWinner(m.TeamAID):
			win(a, o.historyWindow)
			lose(b, o.historyWindow)
		case m.IsWinner(m.TeamBID):
			win(b, o.historyWindow)
			lose(a, o.historyWindow)
		default:
			// нет победителя (или он не из этой пары) — ничья
			tie(a, o.historyWindow)
			tie(b, o.historyWindow)
		}
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		ri, rj := ordered[i].row, ordered[j].row
		if ri.Points != rj.Points {
			return ri.Points > rj.Points
		}
		if ri.Wins != rj.Wins {
			return ri.Wins > rj.Wins
		}
		return ri.SetDifference() > rj.SetDifference()
	})

	rows := make([]models.StandingRow, 0, len(ordered))
	for _, e := range ordered {
		if e.row.History == nil {
			e.row.History = []string{}
		}
		rows = append(rows, e.row)
	}
	return rows
}

func win(e *entry, window int) {
	if e == nil {
		return
	}
	e.row.Wins++
	e.row.Points += pointsForWin
	e.row.History = pushHistory(e.row.History, models.ResultWin, window)
}

func lose(e *entry, window int) {
	if e == nil {
		return
	}
	e.row.Losses++
	e.row.History = pushHistory(e.row.History, models.ResultLoss, window)
}

func tie(e *entry, window int) {
	if e == nil {
		return
	}
	e.row.Ties++
	e.row.Points += pointsForTie
	e.row.History = pushHistory(e.row.History, models.ResultTie, window)
}

func pushHistory(history []string, result string, window int) []string {
	history = append(history, result)
	if len(history) > window {
		trimmed := make([]string, window)
		copy(trimmed, history[len(history)-window:])
		return trimmed
	}
	return history
}
