package player_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/scout/go/internal/localstore"
	"github.com/mcdev12/scout/go/internal/models"
	"github.com/mcdev12/scout/go/internal/player"
	"github.com/mcdev12/scout/go/internal/teams"
)

type fixture struct {
	clock   *clockwork.FakeClock
	repo    *player.Repository
	teams   *teams.App
	players *player.App
	teamID  string
}

func newFixture(t *testing.T) *fixture {
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

	clock := clockwork.NewFakeClockAt(time.Date(2024, 3, 9, 14, 0, 0, 0, time.UTC))
	repo := player.NewRepository(store.DB())
	teamApp := teams.NewApp(store.DB(), repo, clock)
	team, err := teamApp.Create(ctx, teams.CreateTeamRequest{Name: "Sharks"})
	if err != nil {
		t.Fatalf("Create team failed: %v", err)
	}
	return &fixture{
		clock:   clock,
		repo:    repo,
		teams:   teamApp,
		players: player.NewApp(repo, teamApp, clock),
		teamID:  team.ID,
	}
}

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     player.CreatePlayerRequest
		wantErr error
	}{
		{
			name: "valid with optional fields",
			req: player.CreatePlayerRequest{
				TeamID: f.teamID, Name: "Ana", Surname: strPtr("Silva"), Number: intPtr(7),
				Position: models.PositionLevantador, Birthday: strPtr("15/03/2008"),
			},
		},
		{
			name:    "unknown position",
			req:     player.CreatePlayerRequest{TeamID: f.teamID, Name: "Ana", Position: "Goleira"},
			wantErr: models.ErrValidation,
		},
		{
			name:    "missing name",
			req:     player.CreatePlayerRequest{TeamID: f.teamID, Position: models.PositionCentral},
			wantErr: models.ErrValidation,
		},
		{
			name:    "bad birthday",
			req:     player.CreatePlayerRequest{TeamID: f.teamID, Name: "Ana", Position: models.PositionCentral, Birthday: strPtr("March 3rd")},
			wantErr: models.ErrValidation,
		},
		{
			name:    "number out of range",
			req:     player.CreatePlayerRequest{TeamID: f.teamID, Name: "Ana", Position: models.PositionCentral, Number: intPtr(100)},
			wantErr: models.ErrValidation,
		},
		{
			name:    "unknown team",
			req:     player.CreatePlayerRequest{TeamID: "nope", Name: "Ana", Position: models.PositionCentral},
			wantErr: player.ErrUnknownTeam,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := f.players.Create(ctx, tt.req)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Create() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Create() failed: %v", err)
			}
			if p.DisplayName() != "Silva" || *p.Number != 7 {
				t.Errorf("Create() = %+v", p)
			}
			if p.SyncStatus != models.SyncPending {
				t.Errorf("SyncStatus = %s, want pending", p.SyncStatus)
			}
		})
	}
}

func TestCreate_DeletedTeamIsUnknown(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	if err := f.teams.SoftDelete(ctx, f.teamID); err != nil {
		t.Fatalf("SoftDelete() failed: %v", err)
	}
	_, err := f.players.Create(ctx, player.CreatePlayerRequest{TeamID: f.teamID, Name: "Ana", Position: models.PositionCentral})
	if !errors.Is(err, player.ErrUnknownTeam) {
		t.Errorf("Create() error = %v, want ErrUnknownTeam", err)
	}
}

func TestUpdate_MergesFields(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	p, err := f.players.Create(ctx, player.CreatePlayerRequest{
		TeamID: f.teamID, Name: "Ana", Number: intPtr(4), Position: models.PositionCentral, Allergies: strPtr("dust"),
	})
	if err != nil {
		t.Fatalf("Create() failed: %v", err)
	}
	if ok, err := f.repo.MarkPlayerSynced(ctx, p.ID, p.UpdatedAt); err != nil || !ok {
		t.Fatalf("MarkPlayerSynced() = %v, %v", ok, err)
	}

	pos := models.PositionOposto
	f.clock.Advance(time.Minute)
	got, err := f.players.Update(ctx, p.ID, player.UpdatePlayerRequest{Position: &pos, Number: intPtr(11)})
	if err != nil {
		t.Fatalf("Update() failed: %v", err)
	}
	if got.Position != pos || *got.Number != 11 || got.Allergies == nil || *got.Allergies != "dust" {
		t.Errorf("Update() = %+v", got)
	}
	if got.SyncStatus != models.SyncPending {
		t.Errorf("SyncStatus = %s, want pending", got.SyncStatus)
	}
}

func TestListActiveByTeam_ExcludesDeleted(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, _ := f.players.Create(ctx, player.CreatePlayerRequest{TeamID: f.teamID, Name: "Ana", Number: intPtr(9), Position: models.PositionCentral})
	f.players.Create(ctx, player.CreatePlayerRequest{TeamID: f.teamID, Name: "Bia", Number: intPtr(2), Position: models.PositionLibero})
	f.players.Create(ctx, player.CreatePlayerRequest{TeamID: f.teamID, Name: "Carla", Position: models.PositionPonteiro})

	if err := f.players.SoftDelete(ctx, a.ID); err != nil {
		t.Fatalf("SoftDelete() failed: %v", err)
	}

	roster, err := f.players.ListActiveByTeam(ctx, f.teamID)
	if err != nil {
		t.Fatalf("ListActiveByTeam() failed: %v", err)
	}
	if len(roster) != 2 {
		t.Fatalf("roster size = %d, want 2", len(roster))
	}
	if roster[0].Name != "Bia" || roster[1].Name != "Carla" {
		t.Errorf("roster order = %s, %s; want numbered players first", roster[0].Name, roster[1].Name)
	}

	if _, err := f.players.Get(ctx, a.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Get(deleted) error = %v, want ErrNotFound", err)
	}
	ids, err := f.repo.ListTombstonedPlayerIDs(ctx)
	if err != nil || len(ids) != 1 || ids[0] != a.ID {
		t.Errorf("tombstoned = %v (%v), want [%s]", ids, err, a.ID)
	}
}

func TestListByBirthdayMonth(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, bday := range map[string]string{
		"Ana":   "2008-03-21",
		"Bia":   "05/03/2009",
		"Carla": "2007-11-02",
	} {
		if _, err := f.players.Create(ctx, player.CreatePlayerRequest{
			TeamID: f.teamID, Name: name, Position: models.PositionCentral, Birthday: strPtr(bday),
		}); err != nil {
			t.Fatalf("Create() failed: %v", err)
		}
	}
	f.players.Create(ctx, player.CreatePlayerRequest{TeamID: f.teamID, Name: "Dani", Position: models.PositionCentral})

	entries, err := f.players.ListByBirthdayMonth(ctx, time.March)
	if err != nil {
		t.Fatalf("ListByBirthdayMonth() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Player.Name != "Bia" || entries[0].Day != 5 || entries[1].Day != 21 {
		t.Errorf("entries = %+v", entries)
	}

	if _, err := f.players.ListByBirthdayMonth(ctx, 13); !errors.Is(err, models.ErrValidation) {
		t.Errorf("month 13 error = %v, want ErrValidation", err)
	}
}
