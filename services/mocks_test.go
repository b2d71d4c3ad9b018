package services

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"

	"github.com/Dosada05/esports-league/models"
	"github.com/Dosada05/esports-league/repositories"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

// memStore is an in-memory stand-in for Postgres. WithinTx snapshots the
// mutable state and restores it when the unit of work fails.
type memStore struct {
	mu sync.Mutex

	tournaments  map[int]bool
	teams        map[int][]models.Team
	matches      []models.Match
	nextMatchID  int
	assignments  map[int][]models.GroupAssignment
	fingerprints map[int]string

	// Error injection for testing error paths
	ListTeamsError   error
	ListMatchesError error
	ReplaceError     error
	CreateBatchError error
	UpdateError      error

	replaceCalls int
	txCalls      int
}

func newMemStore() *memStore {
	return &memStore{
		tournaments:  make(map[int]bool),
		teams:        make(map[int][]models.Team),
		assignments:  make(map[int][]models.GroupAssignment),
		fingerprints: make(map[int]string),
		nextMatchID:  1,
	}
}

func (m *memStore) addTournament(id int, teams ...models.Team) {
	m.tournaments[id] = true
	m.teams[id] = append(m.teams[id], teams...)
}

func (m *memStore) stageMatches(tournamentID int, stage models.MatchStage) []models.Match {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Match, 0)
	for _, match := range m.matches {
		if match.TournamentID == tournamentID && match.Stage == stage {
			out = append(out, match)
		}
	}
	return out
}

type memSnapshot struct {
	matches      []models.Match
	nextMatchID  int
	assignments  map[int][]models.GroupAssignment
	fingerprints map[int]string
}

func (m *memStore) snapshot() memSnapshot {
	s := memSnapshot{
		matches:      append([]models.Match(nil), m.matches...),
		nextMatchID:  m.nextMatchID,
		assignments:  make(map[int][]models.GroupAssignment, len(m.assignments)),
		fingerprints: make(map[int]string, len(m.fingerprints)),
	}
	for k, v := range m.assignments {
		s.assignments[k] = append([]models.GroupAssignment(nil), v...)
	}
	for k, v := range m.fingerprints {
		s.fingerprints[k] = v
	}
	return s
}

func (m *memStore) restore(s memSnapshot) {
	m.matches = s.matches
	m.nextMatchID = s.nextMatchID
	m.assignments = s.assignments
	m.fingerprints = s.fingerprints
}

func (m *memStore) WithinTx(ctx context.Context, fn func(exec repositories.SQLExecutor) error) error {
	m.mu.Lock()
	m.txCalls++
	before := m.snapshot()
	m.mu.Unlock()

	if err := fn(nil); err != nil {
		m.mu.Lock()
		m.restore(before)
		m.mu.Unlock()
		return err
	}
	return nil
}

type memTournaments struct{ *memStore }

func (r memTournaments) Exists(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.tournaments[id] {
		return repositories.ErrTournamentNotFound
	}
	return nil
}

type memTeams struct{ *memStore }

func (r memTeams) GetByID(ctx context.Context, id int) (*models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, teams := range r.teams {
		for _, t := range teams {
			if t.ID == id {
				return &t, nil
			}
		}
	}
	return nil, repositories.ErrTeamNotFound
}

func (r memTeams) ListByTournament(ctx context.Context, tournamentID int) ([]models.Team, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListTeamsError != nil {
		return nil, r.ListTeamsError
	}
	return append([]models.Team{}, r.teams[tournamentID]...), nil
}

type memMatches struct{ *memStore }

func (r memMatches) GetByID(ctx context.Context, exec repositories.SQLExecutor, id int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, match := range r.matches {
		if match.ID == id {
			return &match, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r memMatches) GetBySlot(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, stage models.MatchStage, groupLabel *string, round, index int) (*models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	label := ""
	if groupLabel != nil {
		label = *groupLabel
	}
	for _, match := range r.matches {
		matchLabel := ""
		if match.GroupLabel != nil {
			matchLabel = *match.GroupLabel
		}
		if match.TournamentID == tournamentID && match.Stage == stage && matchLabel == label &&
			match.Round == round && match.MatchIndex == index {
			return &match, nil
		}
	}
	return nil, repositories.ErrMatchNotFound
}

func (r memMatches) ListByTournament(ctx context.Context, tournamentID int, stage *models.MatchStage) ([]models.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ListMatchesError != nil {
		return nil, r.ListMatchesError
	}
	out := make([]models.Match, 0)
	for _, match := range r.matches {
		if match.TournamentID != tournamentID || (stage != nil && match.Stage != *stage) {
			continue
		}
		out = append(out, match)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Round != out[j].Round {
			return out[i].Round < out[j].Round
		}
		return out[i].MatchIndex < out[j].MatchIndex
	})
	return out, nil
}

func (r memMatches) CreateBatch(ctx context.Context, exec repositories.SQLExecutor, matches []models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.CreateBatchError != nil {
		return r.CreateBatchError
	}
	for i := range matches {
		matches[i].ID = r.nextMatchID
		r.nextMatchID++
		stored := matches[i]
		stored.TeamA, stored.TeamB = nil, nil
		r.matches = append(r.matches, stored)
	}
	return nil
}

func (r memMatches) Update(ctx context.Context, exec repositories.SQLExecutor, match *models.Match) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UpdateError != nil {
		return r.UpdateError
	}
	for i := range r.matches {
		if r.matches[i].ID == match.ID {
			stored := *match
			stored.TeamA, stored.TeamB = nil, nil
			r.matches[i] = stored
			return nil
		}
	}
	return repositories.ErrMatchNotFound
}

func (r memMatches) DeleteByStage(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, stage models.MatchStage) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.matches[:0:0]
	var removed int64
	for _, match := range r.matches {
		if match.TournamentID == tournamentID && match.Stage == stage {
			removed++
			continue
		}
		kept = append(kept, match)
	}
	r.matches = kept
	return removed, nil
}

type memAssignments struct{ *memStore }

func (r memAssignments) List(ctx context.Context, tournamentID int) ([]models.GroupAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.GroupAssignment{}, r.assignments[tournamentID]...), nil
}

func (r memAssignments) Replace(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, rows []models.GroupAssignment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.replaceCalls++
	if r.ReplaceError != nil {
		return r.ReplaceError
	}
	registered := make(map[int]bool)
	for _, t := range r.teams[tournamentID] {
		registered[t.ID] = true
	}
	r.assignments[tournamentID] = nil
	for _, row := range rows {
		if !registered[row.TeamID] {
			return repositories.ErrAssignmentTeamInvalid
		}
		r.assignments[tournamentID] = append(r.assignments[tournamentID], row)
	}
	return nil
}

func (r memAssignments) Fingerprint(ctx context.Context, exec repositories.SQLExecutor, tournamentID int) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.fingerprints[tournamentID], nil
}

func (r memAssignments) SetFingerprint(ctx context.Context, exec repositories.SQLExecutor, tournamentID int, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fingerprints[tournamentID] = fingerprint
	return nil
}

type publishedEvent struct {
	TournamentID int
	Type         string
	Payload      interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *recordingPublisher) Publish(tournamentID int, eventType string, payload interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{TournamentID: tournamentID, Type: eventType, Payload: payload})
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}

type logoStub struct{}

func (logoStub) LogoURL(_ context.Context, key string) (string, error) {
	return "https://cdn.example.com/" + key, nil
}

func newTestTournamentService(store *memStore, pub EventPublisher) TournamentService {
	return NewTournamentService(
		store,
		memTournaments{store},
		memTeams{store},
		memMatches{store},
		memAssignments{store},
		logoStub{},
		pub,
		TournamentServiceConfig{HistoryWindow: 5, DefaultBestOf: 3, AdvancePerGroup: 2},
		discardLogger(),
	)
}
