package brackets

import (
	"context"
	"errors"
	"fmt"
	"sort"
)

type node struct {
	participantID    *int
	sourceMatchUID   *string
	isByePlaceholder bool
}

type SingleEliminationGenerator struct {
}

func NewSingleEliminationGenerator() BracketGenerator {
	return &SingleEliminationGenerator{}
}

func (g *SingleEliminationGenerator) GetName() string {
	return "SingleElimination"
}

// GenerateBracket раскладывает посеянные команды по сетке размера степени двойки.
// Посевы стоят на стандартных позициях (1 v N, 4 v 5, ...), поэтому пропуски
// достаются верхним посевам и два пропуска никогда не встречаются.
func (g *SingleEliminationGenerator) GenerateBracket(ctx context.Context, params GenerateBracketParams) ([]*BracketMatch, error) {
	teams := params.Teams
	n := len(teams)

	if n == 0 {
		return nil, errors.New("cannot generate bracket with zero teams")
	}
	if n < 2 {
		return nil, errors.New("not enough teams to generate a single elimination bracket (minimum 2)")
	}

	numRounds := 0
	for (1 << uint(numRounds)) < n {
		numRounds++
	}
	sizeOfFullBracket := 1 << uint(numRounds)

	currentRoundNodes := make([]*node, sizeOfFullBracket)
	for i, seed := range seedPositions(sizeOfFullBracket) {
		if seed > n {
			currentRoundNodes[i] = &node{isByePlaceholder: true}
			continue
		}
		pid := teams[seed-1].ID
		currentRoundNodes[i] = &node{participantID: &pid}
	}

	allGeneratedMatches := make([]*BracketMatch, 0, sizeOfFullBracket-1)

	for r := 1; r <= numRounds; r++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		nextRoundNodes := make([]*node, 0, len(currentRoundNodes)/2)

		for i := 0; i < len(currentRoundNodes); i += 2 {
			node1 := currentRoundNodes[i]
			node2 := currentRoundNodes[i+1]
			order := i/2 + 1
			currentMatchUID := fmt.Sprintf("R%dM%d", r, order)

			bm := &BracketMatch{
				UID:          currentMatchUID,
				Round:        r,
				OrderInRound: order,
			}

			if node1.participantID != nil {
				bm.Participant1ID = node1.participantID
			} else if node1.sourceMatchUID != nil {
				bm.SourceMatch1UID = node1.sourceMatchUID
				bm.IsPlaceholder = true
			}

			if node2.participantID != nil {
				bm.Participant2ID = node2.participantID
			} else if node2.sourceMatchUID != nil {
				bm.SourceMatch2UID = node2.sourceMatchUID
				bm.IsPlaceholder = true
			}

			switch {
			case node1.participantID != nil && node2.isByePlaceholder:
				bm.IsBye = true
				bm.ByeParticipantID = node1.participantID
				bm.Participant2ID = nil
				nextRoundNodes = append(nextRoundNodes, &node{participantID: node1.participantID})

			case node2.participantID != nil && node1.isByePlaceholder:
				bm.IsBye = true
				bm.ByeParticipantID = node2.participantID
				bm.Participant1ID = node2.participantID
				bm.Participant2ID = nil
				nextRoundNodes = append(nextRoundNodes, &node{participantID: node2.participantID})

			case node1.isByePlaceholder || node2.isByePlaceholder:
				return nil, fmt.Errorf("unexpected bye pairing in round %d, match %d", r, order)

			default:
				uid := currentMatchUID
				nextRoundNodes = append(nextRoundNodes, &node{sourceMatchUID: &uid})
			}

			allGeneratedMatches = append(allGeneratedMatches, bm)
		}
		currentRoundNodes = nextRoundNodes
	}

	if len(currentRoundNodes) != 1 {
		return nil, fmt.Errorf("internal error: bracket resolved to %d finalists", len(currentRoundNodes))
	}

	sort.Slice(allGeneratedMatches, func(i, j int) bool {
		if allGeneratedMatches[i].Round != allGeneratedMatches[j].Round {
			return allGeneratedMatches[i].Round < allGeneratedMatches[j].Round
		}
		return allGeneratedMatches[i].OrderInRound < allGeneratedMatches[j].OrderInRound
	})

	return allGeneratedMatches, nil
}

// seedPositions returns the seed occupying each slot of a bracket of the
// given size, e.g. 8 -> [1 8 4 5 2 7 3 6].
func seedPositions(size int) []int {
	positions := []int{1}
	for len(positions) < size {
		total := 2*len(positions) + 1
		next := make([]int, 0, 2*len(positions))
		for _, s := range positions {
			next = append(next, s, total-s)
		}
		positions = next
	}
	return positions
}
