package models

type MatchStage string

const (
	StageGroups   MatchStage = "groups"
	StagePlayoffs MatchStage = "playoffs"
	StagePlayIn   MatchStage = "play-in"
)

func (s MatchStage) Valid() bool {
	switch s {
	case StageGroups, StagePlayoffs, StagePlayIn:
		return true
	}
	return false
}

type MatchStatus string

const (
	StatusScheduled MatchStatus = "scheduled"
	StatusLive      MatchStatus = "live"
	StatusCompleted MatchStatus = "completed"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case StatusScheduled, StatusLive, StatusCompleted:
		return true
	}
	return false
}

// CanTransitionTo сообщает, может ли матч перейти из s в next.
// completed конечный статус.
func (s MatchStatus) CanTransitionTo(next MatchStatus) bool {
	if s == next {
		return true
	}
	allowed := map[MatchStatus][]MatchStatus{
		StatusScheduled: {StatusLive, StatusCompleted},
		StatusLive:      {StatusCompleted},
		StatusCompleted: {},
	}
	for _, a := range allowed[s] {
		if a == next {
			return true
		}
	}
	return false
}

type Match struct {
	ID           int         `json:"id" db:"id"`
	TournamentID int         `json:"tournament_id" db:"tournament_id"`
	Stage        MatchStage  `json:"stage" db:"stage"`
	GroupLabel   *string     `json:"group_label,omitempty" db:"group_label"`
	Round        int         `json:"round" db:"round"`
	MatchIndex   int         `json:"match_index" db:"match_index"`
	TeamAID      *int        `json:"team_a_id,omitempty" db:"team_a_id"`
	TeamBID      *int        `json:"team_b_id,omitempty" db:"team_b_id"`
	ScoreA       int         `json:"score_a" db:"score_a"`
	ScoreB       int         `json:"score_b" db:"score_b"`
	Status       MatchStatus `json:"status" db:"status"`
	WinnerID     *int        `json:"winner_id,omitempty" db:"winner_id"`
	BestOf       int         `json:"best_of" db:"best_of"`
	Notes        *string     `json:"notes,omitempty" db:"notes"`

	// Заполняются сервисом, в БД не хранятся
	TeamA *Team `json:"team_a,omitempty" db:"-"`
	TeamB *Team `json:"team_b,omitempty" db:"-"`
}

// MatchPatch частичное обновление матча. Поля nil не меняются.
type MatchPatch struct {
	ScoreA   *int         `json:"score_a,omitempty"`
	ScoreB   *int         `json:"score_b,omitempty"`
	Status   *MatchStatus `json:"status,omitempty"`
	WinnerID *int         `json:"winner_id,omitempty"`
	Notes    *string      `json:"notes,omitempty"`
}

// IsWinner сообщает, записан ли teamID победителем m.
func (m Match) IsWinner(teamID *int) bool {
	return teamID != nil && m.WinnerID != nil && *teamID == *m.WinnerID
}

// HasSide сообщает, играет ли id за сторону A или B.
func (m Match) HasSide(id int) bool {
	return (m.TeamAID != nil && *m.TeamAID == id) || (m.TeamBID != nil && *m.TeamBID == id)
}

func FilterStage(matches []Match, stage MatchStage) []Match {
	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Stage == stage {
			out = append(out, m)
		}
	}
	return out
}

func IntPtr(v int) *int { return &v }

func StringPtr(v string) *string { return &v }
