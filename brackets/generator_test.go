package brackets

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/esports-league/models"
)

func seededTeams(n int) []models.Team {
	teams := make([]models.Team, n)
	for i := range teams {
		teams[i] = models.Team{ID: i + 1, Name: "Team", Tag: "T"}
	}
	return teams
}

func TestRoundRobin_EveryPairOnce(t *testing.T) {
	for _, n := range []int{2, 3, 4, 5, 6} {
		generated, err := NewRoundRobinGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
			TournamentID: 1,
			Teams:        seededTeams(n),
		})
		require.NoError(t, err)
		assert.Len(t, generated, n*(n-1)/2, "teams=%d", n)

		pairs := make(map[[2]int]int)
		perRound := make(map[int]map[int]bool)
		for _, m := range generated {
			require.NotNil(t, m.Participant1ID)
			require.NotNil(t, m.Participant2ID)
			a, b := *m.Participant1ID, *m.Participant2ID
			if a > b {
				a, b = b, a
			}
			pairs[[2]int{a, b}]++

			if perRound[m.Round] == nil {
				perRound[m.Round] = make(map[int]bool)
			}
			assert.False(t, perRound[m.Round][a], "team %d plays twice in round %d", a, m.Round)
			assert.False(t, perRound[m.Round][b], "team %d plays twice in round %d", b, m.Round)
			perRound[m.Round][a] = true
			perRound[m.Round][b] = true
		}
		for pair, count := range pairs {
			assert.Equal(t, 1, count, "pair %v", pair)
		}
	}
}

func TestRoundRobin_TwoLegsSwapSides(t *testing.T) {
	generated, err := NewRoundRobinGenerator().GenerateBracket(context.Background(), GenerateBracketParams{
		Teams: seededTeams(4),
		Legs:  2,
	})
	require.NoError(t, err)
	assert.Len(t, generated, 12)

	home := make(map[[2]int]int)
	for _, m := range generated {
		home[[2]int{*m.Participant1ID, *m.Participant2ID}]++
	}
	for pair, count := range home {
		assert.Equal(t, 1, count, "ordered pair %v", pair)
	}
}

func TestRoundRobin_NotEnoughTeams(t *testing.T) {
	_, err := NewRoundRobinGenerator().GenerateBracket(context.Background(), GenerateBracketParams{Teams: seededTeams(1)})
	assert.Error(t, err)
}

func TestSingleElimination_FullBracket(t *testing.T) {
	generated, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{Teams: seededTeams(8)})
	require.NoError(t, err)
	require.Len(t, generated, 7)

	first := generated[0]
	assert.Equal(t, 1, *first.Participant1ID)
	assert.Equal(t, 8, *first.Participant2ID)

	final := generated[6]
	assert.Equal(t, 3, final.Round)
	assert.True(t, final.IsPlaceholder)
	assert.Nil(t, final.Participant1ID)
}

func TestSingleElimination_ByesGoToTopSeeds(t *testing.T) {
	params := GenerateBracketParams{TournamentID: 3, Teams: seededTeams(6), BestOf: 3}
	generated, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), params)
	require.NoError(t, err)

	var byes []int
	for _, m := range generated {
		if m.IsBye {
			byes = append(byes, *m.ByeParticipantID)
		}
	}
	assert.ElementsMatch(t, []int{1, 2}, byes)

	matches := ToMatches(generated, params, models.StagePlayoffs)
	assert.Len(t, matches, 5)
	for _, m := range matches {
		assert.Equal(t, models.StagePlayoffs, m.Stage)
		assert.Equal(t, 3, m.BestOf)
		assert.Equal(t, models.StatusScheduled, m.Status)
	}

	// seed 1 waits in round 2, slot (1+1)/2 = 1
	var r2m1 *models.Match
	for i := range matches {
		if matches[i].Round == 2 && matches[i].MatchIndex == 1 {
			r2m1 = &matches[i]
		}
	}
	require.NotNil(t, r2m1)
	require.NotNil(t, r2m1.TeamAID)
	assert.Equal(t, 1, *r2m1.TeamAID)
	assert.Nil(t, r2m1.TeamBID)
}

func TestSingleElimination_Errors(t *testing.T) {
	_, err := NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{})
	assert.Error(t, err)
	_, err = NewSingleEliminationGenerator().GenerateBracket(context.Background(), GenerateBracketParams{Teams: seededTeams(1)})
	assert.Error(t, err)
}

func TestNextSlot(t *testing.T) {
	r, i, a := NextSlot(1, 3)
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, i)
	assert.True(t, a)

	_, i, a = NextSlot(1, 4)
	assert.Equal(t, 2, i)
	assert.False(t, a)
}

func TestSeedPositions(t *testing.T) {
	assert.Equal(t, []int{1, 8, 4, 5, 2, 7, 3, 6}, seedPositions(8))
	assert.Equal(t, []int{1, 2}, seedPositions(2))
}
