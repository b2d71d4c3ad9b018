package models

const (
	ResultWin  = "W"
	ResultLoss = "L"
	ResultTie  = "T"
)

// StandingRow — производная строка таблицы группы, не сохраняется.
type StandingRow struct {
	Team      Team     `json:"team"`
	Wins      int      `json:"wins"`
	Losses    int      `json:"losses"`
	Ties      int      `json:"ties"`
	SetWins   int      `json:"set_wins"`
	SetLosses int      `json:"set_losses"`
	Points    int      `json:"points"`
	History   []string `json:"history"`
}

func (r StandingRow) SetDifference() int {
	return r.SetWins - r.SetLosses
}

func (r StandingRow) GamesPlayed() int {
	return r.Wins + r.Losses + r.Ties
}
