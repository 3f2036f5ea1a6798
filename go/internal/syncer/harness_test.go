package syncer

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/scout/go/internal/localstore"
	"github.com/mcdev12/scout/go/internal/matches"
	"github.com/mcdev12/scout/go/internal/models"
	"github.com/mcdev12/scout/go/internal/player"
	"github.com/mcdev12/scout/go/internal/reachability"
	"github.com/mcdev12/scout/go/internal/remote"
	"github.com/mcdev12/scout/go/internal/teams"
)

var epoch = time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC)

type harness struct {
	store   *localstore.Store
	clock   *clockwork.FakeClock
	remote  *remote.MemoryStore
	probe   *reachability.Static
	teams   *teams.App
	players *player.App
	matches *matches.App
	repos   Repos
	orch    *Orchestrator
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	store, err := localstore.Open(filepath.Join(t.TempDir(), "scout.db"))
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.InitSchema(ctx); err != nil {
		t.Fatalf("InitSchema() failed: %v", err)
	}

	clock := clockwork.NewFakeClockAt(epoch)
	db := store.DB()
	playerRepo := player.NewRepository(db)
	teamApp := teams.NewApp(db, playerRepo, clock)
	playerApp := player.NewApp(playerRepo, teamApp, clock)
	matchApp := matches.NewApp(db, teamApp, playerApp, clock)

	h := &harness{
		store:   store,
		clock:   clock,
		remote:  remote.NewMemoryStore(clock),
		probe:   reachability.NewStatic(true),
		teams:   teamApp,
		players: playerApp,
		matches: matchApp,
		repos: Repos{
			Teams:   teamApp.Repository(),
			Players: playerRepo,
			Matches: matchApp.Repository(),
		},
	}
	h.orch = New(Deps{
		Local:  store,
		Repos:  h.repos,
		Remote: h.remote,
		Probe:  h.probe,
		Clock:  clock,
	}, DefaultOptions())
	return h
}

func (h *harness) sync(t *testing.T) *Result {
	t.Helper()
	res, err := h.orch.SyncAll(context.Background())
	if err != nil {
		t.Fatalf("SyncAll() failed: %v", err)
	}
	h.clock.Advance(time.Second)
	return res
}

func (h *harness) createTeam(t *testing.T, name string) *models.Team {
	t.Helper()
	team, err := h.teams.Create(context.Background(), teams.CreateTeamRequest{Name: name})
	if err != nil {
		t.Fatalf("Create team failed: %v", err)
	}
	return team
}

func (h *harness) createPlayer(t *testing.T, teamID, name string) *models.Player {
	t.Helper()
	p, err := h.players.Create(context.Background(), player.CreatePlayerRequest{
		TeamID:   teamID,
		Name:     name,
		Position: models.PositionPonteiro,
	})
	if err != nil {
		t.Fatalf("Create player failed: %v", err)
	}
	return p
}

func (h *harness) createMatch(t *testing.T, teamID string) *models.Match {
	t.Helper()
	m, err := h.matches.Create(context.Background(), matches.CreateMatchRequest{
		TeamID:       teamID,
		OpponentName: "Dolphins",
		Date:         epoch,
	})
	if err != nil {
		t.Fatalf("Create match failed: %v", err)
	}
	return m
}

func (h *harness) addAction(t *testing.T, matchID string, playerID *string, typ models.ActionType, quality int) *models.MatchAction {
	t.Helper()
	a, err := h.matches.AddAction(context.Background(), matches.AddActionRequest{
		MatchID:    matchID,
		PlayerID:   playerID,
		ActionType: typ,
		Quality:    quality,
	})
	if err != nil {
		t.Fatalf("AddAction() failed: %v", err)
	}
	h.clock.Advance(time.Millisecond)
	return a
}

// rowState reads sync columns directly, tombstones included
func (h *harness) rowState(t *testing.T, table, id string) (status string, deleted bool, exists bool) {
	t.Helper()
	var del int
	err := h.store.DB().QueryRow(`SELECT sync_status, deleted FROM `+table+` WHERE id = ?`, id).Scan(&status, &del)
	if err != nil {
		return "", false, false
	}
	return status, del != 0, true
}
