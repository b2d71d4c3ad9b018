package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dosada05/esports-league/models"
	"github.com/Dosada05/esports-league/workspace"
)

func newTestWorkspaceService(stub *stubTournamentService) *workspaceService {
	return NewWorkspaceService(stub, 10*time.Minute, discardLogger()).(*workspaceService)
}

func TestWorkspaceService_OpenSeedsFromCommittedGroups(t *testing.T) {
	stub := &stubTournamentService{
		teams:       leagueTeams(),
		assignments: []models.GroupAssignment{{TeamID: 2, GroupLabel: "A"}, {TeamID: 5, GroupLabel: "B"}},
	}
	svc := newTestWorkspaceService(stub)

	view, err := svc.Open(context.Background(), tid)
	require.NoError(t, err)
	assert.NotEmpty(t, view.SessionID)
	assert.Equal(t, tid, view.TournamentID)
	assert.Len(t, view.Pool, 4)
	require.Len(t, view.Groups, 2)
	assert.Equal(t, "Group A", view.Groups[0].Name)
	assert.Equal(t, 2, view.Groups[0].Teams[0].ID)

	again, err := svc.Get(view.SessionID)
	require.NoError(t, err)
	assert.Equal(t, view.Snapshot, again.Snapshot)
}

func TestWorkspaceService_OpenFailure(t *testing.T) {
	stub := &stubTournamentService{ListTeamsError: ErrTournamentNotFound}
	svc := newTestWorkspaceService(stub)

	_, err := svc.Open(context.Background(), tid)
	assert.ErrorIs(t, err, ErrTournamentNotFound)
	assert.Empty(t, svc.sessions)
}

func TestWorkspaceService_Gestures(t *testing.T) {
	svc := newTestWorkspaceService(&stubTournamentService{teams: leagueTeams()})
	view, err := svc.Open(context.Background(), tid)
	require.NoError(t, err)
	id := view.SessionID

	view, err = svc.AddGroup(id)
	require.NoError(t, err)
	require.Len(t, view.Groups, 1)

	view, err = svc.BeginMove(id, 3)
	require.NoError(t, err)
	assert.Equal(t, "dragging", view.State)

	// a rejected gesture still returns the current view
	view, err = svc.BeginMove(id, 4)
	assert.ErrorIs(t, err, workspace.ErrNotIdle)
	require.NotNil(t, view)
	assert.Equal(t, 3, view.DragItem.ID)

	view, err = svc.CompleteMove(id, 3, workspace.ToGroup("A"))
	require.NoError(t, err)
	assert.Equal(t, 3, view.Groups[0].Teams[0].ID)

	_, err = svc.RemoveGroup(id, "A")
	assert.ErrorIs(t, err, workspace.ErrGroupNotEmpty)

	view, err = svc.RemoveFromGroup(id, 3)
	require.NoError(t, err)
	assert.Empty(t, view.Groups[0].Teams)

	_, err = svc.BeginMove(id, 1)
	require.NoError(t, err)
	view, err = svc.CancelMove(id)
	require.NoError(t, err)
	assert.Equal(t, "idle", view.State)

	found, err := svc.SearchPool(id, "navi")
	require.NoError(t, err)
	require.NotEmpty(t, found)
	assert.Equal(t, 1, found[0].ID)

	_, err = svc.AddGroup("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWorkspaceService_CommitDiscardsSession(t *testing.T) {
	stub := &stubTournamentService{teams: leagueTeams()}
	svc := newTestWorkspaceService(stub)
	view, _ := svc.Open(context.Background(), tid)
	id := view.SessionID

	_, err := svc.Commit(context.Background(), id)
	assert.ErrorIs(t, err, workspace.ErrNoGroups)

	_, _ = svc.AddGroup(id)
	_, _ = svc.AddGroup(id)
	require.NoError(t, moveTo(svc, id, 1, "A"))
	require.NoError(t, moveTo(svc, id, 3, "A"))
	require.NoError(t, moveTo(svc, id, 2, "B"))

	res, err := svc.Commit(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Assignments)
	assert.False(t, res.DroppedMoves)
	assert.Equal(t, []models.GroupAssignment{
		{TeamID: 1, GroupLabel: "A"},
		{TeamID: 3, GroupLabel: "A"},
		{TeamID: 2, GroupLabel: "B"},
	}, stub.commits[0])

	_, err = svc.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWorkspaceService_CommitFailureKeepsSession(t *testing.T) {
	stub := &stubTournamentService{teams: leagueTeams(), CommitError: errors.New("503 from upstream")}
	svc := newTestWorkspaceService(stub)
	view, _ := svc.Open(context.Background(), tid)
	id := view.SessionID
	_, _ = svc.AddGroup(id)
	require.NoError(t, moveTo(svc, id, 4, "A"))

	_, err := svc.Commit(context.Background(), id)
	assert.ErrorIs(t, err, workspace.ErrCommitFailed)

	view, err = svc.Get(id)
	require.NoError(t, err)
	assert.False(t, view.Saving)
	assert.Equal(t, "503 from upstream", view.LastError)
	assert.Equal(t, 4, view.Groups[0].Teams[0].ID)

	stub.mu.Lock()
	stub.CommitError = nil
	stub.mu.Unlock()
	_, err = svc.Commit(context.Background(), id)
	require.NoError(t, err)
}

func TestWorkspaceService_MovesDuringInFlightCommit(t *testing.T) {
	gate := make(chan struct{})
	stub := &stubTournamentService{teams: leagueTeams(), commitGate: gate}
	svc := newTestWorkspaceService(stub)
	view, _ := svc.Open(context.Background(), tid)
	id := view.SessionID
	_, _ = svc.AddGroup(id)
	require.NoError(t, moveTo(svc, id, 1, "A"))

	done := make(chan error, 1)
	var res *CommitResult
	go func() {
		var err error
		res, err = svc.Commit(context.Background(), id)
		done <- err
	}()

	require.Eventually(t, func() bool {
		v, err := svc.Get(id)
		return err == nil && v.Saving
	}, time.Second, 5*time.Millisecond)

	_, err := svc.Commit(context.Background(), id)
	assert.ErrorIs(t, err, workspace.ErrCommitInProgress)
	// gestures are not blocked by the remote call
	require.NoError(t, moveTo(svc, id, 2, "A"))

	close(gate)
	require.NoError(t, <-done)
	require.Len(t, stub.commits, 1)
	assert.Equal(t, []models.GroupAssignment{{TeamID: 1, GroupLabel: "A"}}, stub.commits[0])
	// the move of team 2 was made after the snapshot and is not saved
	assert.True(t, res.DroppedMoves)
	_, err = svc.Get(id)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestWorkspaceService_GenerateGroupMatches(t *testing.T) {
	stub := &stubTournamentService{teams: leagueTeams()}
	svc := newTestWorkspaceService(stub)
	view, _ := svc.Open(context.Background(), tid)
	id := view.SessionID
	_, _ = svc.AddGroup(id)
	require.NoError(t, moveTo(svc, id, 1, "A"))
	require.NoError(t, moveTo(svc, id, 2, "A"))

	_, err := svc.GenerateGroupMatches(context.Background(), id, 4)
	assert.ErrorIs(t, err, workspace.ErrInvalidBestOf)

	_, err = svc.GenerateGroupMatches(context.Background(), id, 3)
	require.NoError(t, err)
	require.Len(t, stub.generated, 1)
	assert.Len(t, stub.generated[0].Teams, 2)

	stub.GenerateError = errors.New("boom")
	_, err = svc.GenerateGroupMatches(context.Background(), id, 3)
	assert.ErrorIs(t, err, workspace.ErrGenerateFailed)
}

func TestWorkspaceService_SweepAndClose(t *testing.T) {
	svc := newTestWorkspaceService(&stubTournamentService{teams: leagueTeams()})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	stale, _ := svc.Open(context.Background(), tid)
	now = now.Add(8 * time.Minute)
	fresh, _ := svc.Open(context.Background(), tid)

	assert.Equal(t, 0, svc.Sweep(now.Add(time.Minute)))
	assert.Equal(t, 1, svc.Sweep(now.Add(3*time.Minute)))

	_, err := svc.Get(stale.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	require.NoError(t, svc.Close(fresh.SessionID))
	assert.ErrorIs(t, svc.Close(fresh.SessionID), ErrSessionNotFound)
}

func TestWorkspaceService_SweepSkipsBusySessions(t *testing.T) {
	gate := make(chan struct{})
	stub := &stubTournamentService{teams: leagueTeams(), generateGate: gate}
	svc := newTestWorkspaceService(stub)
	t0 := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	now := t0
	svc.now = func() time.Time { return now }

	stale, _ := svc.Open(context.Background(), tid)
	now = t0.Add(time.Minute)
	busy, _ := svc.Open(context.Background(), tid)
	_, _ = svc.AddGroup(busy.SessionID)
	require.NoError(t, moveTo(svc, busy.SessionID, 1, "A"))
	require.NoError(t, moveTo(svc, busy.SessionID, 2, "A"))

	generated := make(chan error, 1)
	go func() {
		_, err := svc.GenerateGroupMatches(context.Background(), busy.SessionID, 3)
		generated <- err
	}()
	require.Eventually(t, func() bool { return stub.generating.Load() == 1 }, time.Second, 5*time.Millisecond)

	now = t0.Add(18 * time.Minute)
	fresh, _ := svc.Open(context.Background(), tid)

	swept := make(chan int, 1)
	go func() { swept <- svc.Sweep(t0.Add(19 * time.Minute)) }()
	select {
	case n := <-swept:
		assert.Equal(t, 1, n)
	case <-time.After(time.Second):
		t.Fatal("sweep blocked on a session held by a remote call")
	}

	// unrelated sessions stay reachable while the remote call is pending
	lookup := make(chan error, 1)
	go func() {
		_, err := svc.Get(fresh.SessionID)
		lookup <- err
	}()
	select {
	case err := <-lookup:
		require.NoError(t, err)
	case <-time.After(500 * time.Millisecond):
		t.Fatal("lookup of an idle session blocked")
	}

	_, err := svc.Get(stale.SessionID)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	close(gate)
	require.NoError(t, <-generated)
	_, err = svc.Get(busy.SessionID)
	require.NoError(t, err)
}

func moveTo(svc WorkspaceService, sessionID string, teamID int, groupID string) error {
	if _, err := svc.BeginMove(sessionID, teamID); err != nil {
		return err
	}
	_, err := svc.CompleteMove(sessionID, teamID, workspace.ToGroup(groupID))
	return err
}
