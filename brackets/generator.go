package brackets

import (
	"context"

	"github.com/Dosada05/esports-league/models"
)

type GenerateBracketParams struct {
	TournamentID int
	// Команды в порядке посева: первая команда имеет первый посев.
	Teams      []models.Team
	GroupLabel *string
	BestOf     int
	// Legs: 1 для одного круга, 2 для дома и в гостях.
	Legs int
}

type BracketGenerator interface {
	GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error)

	GetName() string
}

type BracketMatch struct {
	UID          string
	Round        int
	OrderInRound int

	Participant1ID *int
	Participant2ID *int

	SourceMatch1UID *string
	SourceMatch2UID *string

	IsPlaceholder bool

	IsBye            bool
	ByeParticipantID *int
}

// ToMatches превращает слоты сетки в запланированные матчи стадии.
// Пропуски (bye) не являются матчами и отбрасываются, но их индексы
// остаются занятыми, чтобы победитель проходил в слот (index+1)/2.
func ToMatches(generated []*BracketMatch, params GenerateBracketParams, stage models.MatchStage) []models.Match {
	matches := make([]models.Match, 0, len(generated))
	for _, bm := range generated {
		if bm.IsBye {
			continue
		}
		matches = append(matches, models.Match{
			TournamentID: params.TournamentID,
			Stage:        stage,
			GroupLabel:   params.GroupLabel,
			Round:        bm.Round,
			MatchIndex:   bm.OrderInRound,
			TeamAID:      bm.Participant1ID,
			TeamBID:      bm.Participant2ID,
			Status:       models.StatusScheduled,
			BestOf:       params.BestOf,
		})
	}
	return matches
}

// NextSlot возвращает, где играет победитель (round, index):
// нечётные индексы идут на сторону A, чётные на сторону B.
func NextSlot(round, index int) (nextRound, nextIndex int, sideA bool) {
	return round + 1, (index + 1) / 2, index%2 == 1
}
