package models

// Round это один столбец сетки на выбывание.
type Round struct {
	Number  int            `json:"number"`
	Name    string         `json:"name"`
	Matches []BracketMatch `json:"matches"`
}

type BracketMatch struct {
	MatchID int         `json:"match_id"`
	Index   int         `json:"index"`
	Status  MatchStatus `json:"status"`
	A       BracketSide `json:"a"`
	B       BracketSide `json:"b"`
}

type BracketSide struct {
	TeamID   *int    `json:"team_id,omitempty"`
	Name     string  `json:"name"`
	Tag      string  `json:"tag"`
	LogoURL  *string `json:"logo_url,omitempty"`
	Score    int     `json:"score"`
	IsWinner bool    `json:"is_winner"`
}
