package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/esports-league/brackets"
	"github.com/Dosada05/esports-league/models"
)

const tid = 10

func leagueTeams() []models.Team {
	return []models.Team{
		{ID: 1, Name: "Natus Vincere", Tag: "NAVI", LogoKey: models.StringPtr("teams/navi.png")},
		{ID: 2, Name: "Team Spirit", Tag: "TS"},
		{ID: 3, Name: "Virtus.pro", Tag: "VP"},
		{ID: 4, Name: "Cloud9", Tag: "C9"},
		{ID: 5, Name: "Fnatic", Tag: "FNC"},
		{ID: 6, Name: "G2 Esports", Tag: "G2"},
	}
}

func TestListTeams_ResolvesLogos(t *testing.T) {
	store := newMemStore()
	store.addTournament(tid, leagueTeams()...)
	svc := newTestTournamentService(store, nil)

	teams, err := svc.ListTeams(context.Background(), tid)
	require.NoError(t, err)
	require.Len(t, teams, 6)
	require.NotNil(t, teams[0].LogoURL)
	assert.Equal(t, "https://cdn.example.com/teams/navi.png", *teams[0].LogoURL)
	assert.Nil(t, teams[1].LogoURL)

	_, err = svc.ListTeams(context.Background(), 999)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
}

func TestListTeams_StorageFailure(t *testing.T) {
	store := newMemStore()
	store.addTournament(tid, leagueTeams()...)
	store.ListTeamsError = errors.New("connection refused")
	svc := newTestTournamentService(store, nil)

	_, err := svc.ListTeams(context.Background(), tid)
	assert.ErrorIs(t, err, ErrRemote)
	assert.ErrorContains(t, err, "connection refused")
}

func TestListMatches_AttachesTeams(t *testing.T) {
	store := newMemStore()
	store.addTournament(tid, leagueTeams()...)
	store.matches = []models.Match{
		{ID: 1, TournamentID: tid, Stage: models.StagePlayoffs, Round: 1, MatchIndex: 1,
			TeamAID: models.IntPtr(1), TeamBID: models.IntPtr(77), Status: models.StatusScheduled},
	}
	svc := newTestTournamentService(store, nil)

	matches, err := svc.ListMatches(context.Background(), tid)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.NotNil(t, matches[0].TeamA)
	assert.Equal(t, "Natus Vincere", matches[0].TeamA.Name)
	// unregistered team stays unpopulated
	assert.Nil(t, matches[0].TeamB)
}

func TestCommitGroupAssignment_Idempotent(t *testing.T) {
	store := newMemStore()
	store.addTournament(tid, leagueTeams()...)
	pub := &recordingPublisher{}
	svc := newTestTournamentService(store, pub)

	rows := []models.GroupAssignment{
		{TeamID: 1, GroupLabel: "A"},
		{TeamID: 3, GroupLabel: "A"},
		{TeamID: 2, GroupLabel: "B"},
	}
	require.NoError(t, svc.CommitGroupAssignment(context.Background(), tid, rows))
	require.NoError(t, svc.CommitGroupAssignment(context.Background(), tid, rows))

	stored, err := svc.ListGroupAssignments(context.Background(), tid)
	require.NoError(t, err)
	assert.Equal(t, rows, stored)
	assert.Equal(t, 1, store.replaceCalls)
	assert.Equal(t, []string{brackets.EventGroupsCommitted}, pub.types())

	// a different payload replaces the set
	moved := []models.GroupAssignment{{TeamID: 1, GroupLabel: "B"}, {TeamID: 2, GroupLabel: "B"}}
	require.NoError(t, svc.CommitGroupAssignment(context.Background(), tid, moved))
	stored, err = svc.ListGroupAssignments(context.Background(), tid)
	require.NoError(t, err)
	assert.Equal(t, moved, stored)
}

func TestCommitGroupAssignment_FailureRollsBack(t *testing.T) {
	store := newMemStore()
	store.addTournament(tid, leagueTeams()...)
	svc := newTestTournamentService(store, nil)

	first := []models.GroupAssignment{{TeamID: 1, GroupLabel: "A"}}
	require.NoError(t, svc.CommitGroupAssignment(context.Background(), tid, first))

	store.ReplaceError = errors.New("deadlock detected")
	err := svc.CommitGroupAssignment(context.Background(), tid, []models.GroupAssignment{{TeamID: 2, GroupLabel: "A"}})
	assert.ErrorIs(t, err, ErrRemote)

	stored, _ := svc.ListGroupAssignments(context.Background(), tid)
	assert.Equal(t, first, stored)

	// unregistered team aborts the whole batch
	store.ReplaceError = nil
	err = svc.CommitGroupAssignment(context.Background(), tid, []models.GroupAssignment{
		{TeamID: 2, GroupLabel: "A"},
		{TeamID: 99, GroupLabel: "A"},
	})
	assert.ErrorIs(t, err, ErrTeamNotInTournament)
	stored, _ = svc.ListGroupAssignments(context.Background(), tid)
	assert.Equal(t, first, stored)
}

func TestCommitGroupAssignment_Validation(t *testing.T) {
	store := newMemStore()
	store.addTournament(tid, leagueTeams()...)
	svc := newTestTournamentService(store, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.CommitGroupAssignment(ctx, tid, nil), ErrValidationFailed)
	assert.ErrorIs(t, svc.CommitGroupAssignment(ctx, tid, []models.GroupAssignment{{TeamID: 1}}), ErrValidationFailed)
	assert.ErrorIs(t, svc.CommitGroupAssignment(ctx, tid, []models.GroupAssignment{
		{TeamID: 1, GroupLabel: "A"}, {TeamID: 1, GroupLabel: "B"},
	}), ErrDuplicateAssignment)
	assert.ErrorIs(t, svc.CommitGroupAssignment(ctx, 404, []models.GroupAssignment{{TeamID: 1, GroupLabel: "A"}}), ErrTournamentNotFound)
	assert.Zero(t, store.replaceCalls)
}

func twoGroups() []models.Group {
	teams := leagueTeams()
	return []models.Group{
		{ID: "A", Name: "Group A", Teams: teams[0:4]},
		{ID: "B", Name: "Group B", Teams: teams[4:6]},
	}
}

func TestGenerateGroupMatches(t *testing.T) {
	store := newMemStore()
	store.addTournament(tid, leagueTeams()...)
	store.matches = []models.Match{
		{ID: 90, TournamentID: tid, Stage: models.StageGroups, GroupLabel: models.StringPtr("Z"), Round: 1, MatchIndex: 1},
		{ID: 91, TournamentID: tid, Stage: models.StagePlayoffs, Round: 1, MatchIndex: 1},
	}
	store.nextMatchID = 100
	pub := &recordingPublisher{}
	svc := newTestTournamentService(store, pub)

	require.NoError(t, svc.GenerateGroupMatches(context.Background(), tid, twoGroups(), 3))

	groupMatches := store.stageMatches(tid, models.StageGroups)
	require.Len(t, groupMatches, 6+1)
	perLabel := map[string]int{}
	for _, m := range groupMatches {
		require.NotNil(t, m.GroupLabel)
		perLabel[*m.GroupLabel]++
		assert.Equal(t, 3, m.BestOf)
		assert.Equal(t, models.StatusScheduled, m.Status)
	}
	assert.Equal(t, map[string]int{"A": 6, "B": 1}, perLabel)
	assert.Len(t, store.stageMatches(tid, models.StagePlayoffs), 1)
	assert.Equal(t, []string{brackets.EventGroupMatchesGenerated}, pub.types())
}

func TestGenerateGroupMatches_Rejections(t *testing.T) {
	store := newMemStore()
	store.addTournament(tid, leagueTeams()...)
	svc := newTestTournamentService(store, nil)
	ctx := context.Background()

	assert.ErrorIs(t, svc.GenerateGroupMatches(ctx, tid, twoGroups(), 2), ErrInvalidBestOf)
	assert.ErrorIs(t, svc.GenerateGroupMatches(ctx, tid, nil, 3), ErrNotEnoughTeams)

	solo := []models.Group{{ID: "A", Name: "Group A", Teams: leagueTeams()[:1]}}
	assert.ErrorIs(t, svc.GenerateGroupMatches(ctx, tid, solo, 3), ErrNotEnoughTeams)

	stranger := []models.Group{{ID: "A", Name: "Group A", Teams: []models.Team{{ID: 1}, {ID: 42}}}}
	assert.ErrorIs(t, svc.GenerateGroupMatches(ctx, tid, stranger, 3), ErrTeamNotInTournament)

	twice := []models.Group{
		{ID: "A", Name: "Group A", Teams: []models.Team{{ID: 1}, {ID: 2}}},
		{ID: "B", Name: "Group B", Teams: []models.Team{{ID: 2}, {ID: 3}}},
	}
	assert.ErrorIs(t, svc.GenerateGroupMatches(ctx, tid, twice, 3), ErrDuplicateAssignment)
	assert.Empty(t, store.stageMatches(tid, models.StageGroups))
}

func TestGenerateGroupMatches_StorageFailureKeepsOldSchedule(t *testing.T) {
	store := newMemStore()
	store.addTournament(tid, leagueTeams()...)
	store.matches = []models.Match{
		{ID: 90, TournamentID: tid, Stage: models.StageGroups, GroupLabel: models.StringPtr("A"), Round: 1, MatchIndex: 1},
	}
	store.CreateBatchError = errors.New("disk full")
	svc := newTestTournamentService(store, nil)

	err := svc.GenerateGroupMatches(context.Background(), tid, twoGroups(), 1)
	assert.ErrorIs(t, err, ErrRemote)
	assert.Len(t, store.stageMatches(tid, models.StageGroups), 1)
}
