package brackets

import (
	"sort"
	"strconv"

	"github.com/Dosada05/esports-league/models"
)

// DefaultStageNames выравниваются по последним раундам сетки.
var DefaultStageNames = []string{"Quarterfinals", "Semifinals", "Grand Finals"}

// Builder собирает плоский список матчей плей-офф в раунды сетки.
type Builder struct {
	stageNames []string
}

func NewBuilder(stageNames ...string) *Builder {
	if len(stageNames) == 0 {
		stageNames = DefaultStageNames
	}
	names := make([]string, len(stageNames))
	copy(names, stageNames)
	return &Builder{stageNames: names}
}

// StageName называет раунд r сетки, финал которой maxRound.
// Имена отсчитываются от финала; раунд дальше, чем хватает словаря,
// получает общее имя "Round r".
func (b *Builder) StageName(r, maxRound int) string {
	idx := len(b.stageNames) - (maxRound - r + 1)
	if idx < 0 || idx >= len(b.stageNames) {
		return "Round " + strconv.Itoa(r)
	}
	return b.stageNames[idx]
}

// Build группирует матчи по раундам. Пустые раунды пропускаются,
// внутри раунда матчи идут по индексу. Входной срез не изменяется.
func (b *Builder) Build(matches []models.Match) []models.Round {
	maxRound := 0
	byRound := make(map[int][]models.Match)
	for _, m := range matches {
		if m.Round < 1 {
			continue
		}
		byRound[m.Round] = append(byRound[m.Round], m)
		if m.Round > maxRound {
			maxRound = m.Round
		}
	}

	rounds := make([]models.Round, 0, maxRound)
	for r := 1; r <= maxRound; r++ {
		roundMatches, ok := byRound[r]
		if !ok {
			continue
		}
		sort.SliceStable(roundMatches, func(i, j int) bool {
			return roundMatches[i].MatchIndex < roundMatches[j].MatchIndex
		})

		views := make([]models.BracketMatch, 0, len(roundMatches))
		for _, m := range roundMatches {
			views = append(views, project(m))
		}
		rounds = append(rounds, models.Round{
			Number:  r,
			Name:    b.StageName(r, maxRound),
			Matches: views,
		})
	}
	return rounds
}

func project(m models.Match) models.BracketMatch {
	return models.BracketMatch{
		MatchID: m.ID,
		Index:   m.MatchIndex,
		Status:  m.Status,
		A:       side(m, m.TeamAID, m.TeamA, m.ScoreA),
		B:       side(m, m.TeamBID, m.TeamB, m.ScoreB),
	}
}

func side(m models.Match, id *int, team *models.Team, score int) models.BracketSide {
	s := models.BracketSide{
		Score:    score,
		IsWinner: m.IsWinner(id),
	}
	switch {
	case id == nil:
		s.Name = models.TBDTeamName
	case team == nil || team.ID != *id:
		s.TeamID = models.IntPtr(*id)
		s.Name = models.UnknownTeamName
	default:
		s.TeamID = models.IntPtr(*id)
		s.Name = team.Name
		s.Tag = team.Tag
		s.LogoURL = team.LogoURL
	}
	return s
}
