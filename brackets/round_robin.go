package brackets

import (
	"context"
	"fmt"
	"sort"
)

type RoundRobinGenerator struct{}

func NewRoundRobinGenerator() BracketGenerator {
	return &RoundRobinGenerator{}
}

func (g *RoundRobinGenerator) GetName() string {
	return "RoundRobin"
}

// GenerateBracket составляет пары "каждый с каждым" методом круга,
// так что команда играет не больше одного раза за раунд. При Legs == 2
// второй круг повторяет расписание со сменой сторон.
func (g *RoundRobinGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	teams := params.Teams
	if len(teams) < 2 {
		return nil, fmt.Errorf("RoundRobinGenerator: not enough teams (found %d, min 2 required)", len(teams))
	}
	legs := params.Legs
	if legs != 2 {
		legs = 1
	}

	// nil — пустое место для нечетного количества команд
	slots := make([]*int, 0, len(teams)+1)
	for i := range teams {
		id := teams[i].ID
		slots = append(slots, &id)
	}
	if len(slots)%2 == 1 {
		slots = append(slots, nil)
	}
	n := len(slots)
	roundsPerLeg := n - 1

	label := ""
	if params.GroupLabel != nil {
		label = *params.GroupLabel
	}

	matches := make([]*BracketMatch, 0, legs*roundsPerLeg*n/2)
	for r := 0; r < roundsPerLeg; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		order := 0
		for i := 0; i < n/2; i++ {
			home, away := slots[i], slots[n-1-i]
			if home == nil || away == nil {
				continue
			}
			// чередуем стороны, чтобы первая команда не всегда была слева
			if r%2 == 1 && i == 0 {
				home, away = away, home
			}
			order++
			for leg := 1; leg <= legs; leg++ {
				p1, p2 := home, away
				if leg == 2 {
					p1, p2 = away, home
				}
				round := r + 1 + (leg-1)*roundsPerLeg
				matches = append(matches, &BracketMatch{
					UID:            fmt.Sprintf("T%d_G%s_R%dM%d", params.TournamentID, label, round, order),
					Round:          round,
					OrderInRound:   order,
					Participant1ID: p1,
					Participant2ID: p2,
				})
			}
		}
		// поворот: первый слот фиксирован, остальные сдвигаются по кругу
		last := slots[n-1]
		copy(slots[2:], slots[1:n-1])
		slots[1] = last
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Round != matches[j].Round {
			return matches[i].Round < matches[j].Round
		}
		return matches[i].OrderInRound < matches[j].OrderInRound
	})

	return matches, nil
}
