package syncer

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mcdev12/scout/go/internal/models"
	"github.com/mcdev12/scout/go/internal/reachability"
	"github.com/mcdev12/scout/go/internal/remote"
	"github.com/mcdev12/scout/go/internal/teams"
)

func TestSyncAll_OfflineIsNoop(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.probe.SetOnline(false)

	var notified int32
	h.orch.Subscribe(func() { atomic.AddInt32(&notified, 1) })

	team := h.createTeam(t, "Sharks")
	res := h.sync(t)

	if !res.Skipped {
		t.Fatal("expected skipped cycle")
	}
	if status, _, _ := h.rowState(t, "teams", team.ID); status != "pending" {
		t.Errorf("sync_status = %q, want pending", status)
	}
	if _, err := h.remote.Get(ctx, remote.CollectionTeams, team.ID); !errors.Is(err, remote.ErrNotFound) {
		t.Errorf("remote team exists, err = %v", err)
	}
	if n := atomic.LoadInt32(&notified); n != 0 {
		t.Errorf("observers notified %d times on offline cycle", n)
	}
	wm, err := h.store.Watermark(ctx)
	if err != nil {
		t.Fatalf("Watermark() failed: %v", err)
	}
	if !wm.IsZero() {
		t.Errorf("watermark = %v, want zero", wm)
	}
}

func TestSyncAll_LinkWithoutInternetIsNoop(t *testing.T) {
	h := newHarness(t)
	h.probe.Set(reachability.Status{Connected: true, InternetReachable: false})

	h.createTeam(t, "Sharks")
	res := h.sync(t)
	if !res.Skipped || h.remote.Len(remote.CollectionTeams) != 0 {
		t.Fatalf("expected no-op, got %+v", res)
	}
}

func TestSyncAll_ProbeErrorIsNoop(t *testing.T) {
	h := newHarness(t)
	h.probe.SetError(errors.New("no route"))

	h.createTeam(t, "Sharks")
	res := h.sync(t)
	if !res.Skipped || h.remote.Len(remote.CollectionTeams) != 0 {
		t.Fatalf("expected no-op, got %+v", res)
	}
}

func TestSyncAll_PushesPending(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	team := h.createTeam(t, "Sharks")
	p := h.createPlayer(t, team.ID, "Ana")
	res := h.sync(t)

	if res.Skipped || res.Failed != 0 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Pushed != 2 {
		t.Errorf("Pushed = %d, want 2", res.Pushed)
	}
	for table, id := range map[string]string{"teams": team.ID, "players": p.ID} {
		if status, _, _ := h.rowState(t, table, id); status != "synced" {
			t.Errorf("%s sync_status = %q, want synced", table, status)
		}
	}

	doc, err := h.remote.Get(ctx, remote.CollectionTeams, team.ID)
	if err != nil {
		t.Fatalf("remote Get() failed: %v", err)
	}
	if doc["name"] != "Sharks" {
		t.Errorf("remote name = %v, want Sharks", doc["name"])
	}
	for _, local := range []string{"syncStatus", "sync_status", "deleted"} {
		if _, ok := doc[local]; ok {
			t.Errorf("remote document carries local-only field %q", local)
		}
	}
}

func TestSyncAll_WithholdsActiveSet(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	team := h.createTeam(t, "Sharks")
	p := h.createPlayer(t, team.ID, "Ana")
	match := h.createMatch(t, team.ID)

	set1 := map[string]bool{}
	for _, q := range []struct {
		typ     models.ActionType
		quality int
	}{
		{models.ActionAtaque, 3},
		{models.ActionAtaque, 3},
		{models.ActionPasse, 2},
		{models.ActionPasse, 2},
		{models.ActionDefesa, 1},
	} {
		a := h.addAction(t, match.ID, &p.ID, q.typ, q.quality)
		set1[a.ID] = true
	}

	if _, err := h.matches.AdvanceSet(ctx, match.ID); err != nil {
		t.Fatalf("AdvanceSet() failed: %v", err)
	}
	h.addAction(t, match.ID, nil, models.ActionOpponentPoint, 0)
	h.addAction(t, match.ID, &p.ID, models.ActionPasse, 2)
	h.addAction(t, match.ID, &p.ID, models.ActionPasse, 2)

	h.sync(t)
	if got := h.remote.Len(remote.CollectionActions); got != 5 {
		t.Fatalf("remote actions = %d, want 5", got)
	}
	for _, id := range h.remote.IDs(remote.CollectionActions) {
		if !set1[id] {
			t.Errorf("action %s from the active set was pushed", id)
		}
	}
	doc, err := h.remote.Get(ctx, remote.CollectionMatches, match.ID)
	if err != nil {
		t.Fatalf("remote match missing: %v", err)
	}
	if doc["ourScore"] != 2 || doc["opponentScore"] != 0 {
		t.Errorf("remote score = %v-%v, want settled 2-0", doc["ourScore"], doc["opponentScore"])
	}

	// Repeated cycles never leak the active set.
	h.sync(t)
	if got := h.remote.Len(remote.CollectionActions); got != 5 {
		t.Fatalf("remote actions after second cycle = %d, want 5", got)
	}

	if _, err := h.matches.Finish(ctx, match.ID); err != nil {
		t.Fatalf("Finish() failed: %v", err)
	}
	h.sync(t)
	if got := h.remote.Len(remote.CollectionActions); got != 8 {
		t.Fatalf("remote actions after finish = %d, want 8", got)
	}
	doc, err = h.remote.Get(ctx, remote.CollectionMatches, match.ID)
	if err != nil {
		t.Fatalf("remote match missing: %v", err)
	}
	if doc["isFinished"] != true {
		t.Errorf("remote isFinished = %v, want true", doc["isFinished"])
	}
	if doc["ourScore"] != 2 || doc["opponentScore"] != 1 {
		t.Errorf("remote score = %v-%v, want 2-1", doc["ourScore"], doc["opponentScore"])
	}
}

func TestSyncAll_CascadeDeleteTeam(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	team := h.createTeam(t, "Sharks")
	var ids []string
	for _, name := range []string{"Ana", "Bia", "Carla"} {
		ids = append(ids, h.createPlayer(t, team.ID, name).ID)
	}
	h.sync(t)
	if h.remote.Len(remote.CollectionPlayers) != 3 {
		t.Fatalf("expected 3 remote players")
	}

	if err := h.teams.SoftDelete(ctx, team.ID); err != nil {
		t.Fatalf("SoftDelete() failed: %v", err)
	}
	for _, id := range ids {
		if _, deleted, _ := h.rowState(t, "players", id); !deleted {
			t.Errorf("player %s not tombstoned by team delete", id)
		}
	}

	res := h.sync(t)
	if res.Deleted != 4 {
		t.Errorf("Deleted = %d, want 4", res.Deleted)
	}
	if h.remote.Len(remote.CollectionTeams) != 0 || h.remote.Len(remote.CollectionPlayers) != 0 {
		t.Errorf("remote still holds team or players")
	}
	if _, _, exists := h.rowState(t, "teams", team.ID); exists {
		t.Errorf("team row not purged")
	}
	for _, id := range ids {
		if _, _, exists := h.rowState(t, "players", id); exists {
			t.Errorf("player %s not purged", id)
		}
	}
}

func TestSyncAll_DeleteSyncedPlayer(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	team := h.createTeam(t, "Sharks")
	p := h.createPlayer(t, team.ID, "Ana")
	h.sync(t)

	if err := h.players.SoftDelete(ctx, p.ID); err != nil {
		t.Fatalf("SoftDelete() failed: %v", err)
	}

	h.probe.SetOnline(false)
	h.sync(t)
	if _, deleted, exists := h.rowState(t, "players", p.ID); !exists || !deleted {
		t.Fatalf("offline cycle changed the tombstone")
	}
	if _, err := h.remote.Get(ctx, remote.CollectionPlayers, p.ID); err != nil {
		t.Fatalf("offline cycle touched remote: %v", err)
	}

	h.probe.SetOnline(true)
	h.sync(t)
	if _, _, exists := h.rowState(t, "players", p.ID); exists {
		t.Errorf("player row not purged")
	}
	if _, err := h.remote.Get(ctx, remote.CollectionPlayers, p.ID); !errors.Is(err, remote.ErrNotFound) {
		t.Errorf("remote player still present: %v", err)
	}
}

func TestSyncAll_DeleteNotFoundIsSuccess(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	team := h.createTeam(t, "Sharks")
	p := h.createPlayer(t, team.ID, "Ana")
	// Never pushed, so the remote has nothing to delete.
	if err := h.players.SoftDelete(ctx, p.ID); err != nil {
		t.Fatalf("SoftDelete() failed: %v", err)
	}

	res := h.sync(t)
	if res.Failed != 0 {
		t.Fatalf("Failed = %d, errors %v", res.Failed, res.Errors)
	}
	if _, _, exists := h.rowState(t, "players", p.ID); exists {
		t.Errorf("tombstone not cleared")
	}

	res = h.sync(t)
	if res.Deleted != 0 {
		t.Errorf("second cycle deleted %d, want 0", res.Deleted)
	}
}

func TestSyncAll_PerRecordFailureContinues(t *testing.T) {
	h := newHarness(t)

	bad := h.createTeam(t, "Sharks")
	good := h.createTeam(t, "Orcas")
	h.remote.FailID(bad.ID, errors.New("write rejected"))

	res := h.sync(t)
	if res.Failed != 1 || res.Pushed != 1 {
		t.Fatalf("result = %+v, want 1 pushed 1 failed", res)
	}
	if status, _, _ := h.rowState(t, "teams", bad.ID); status != "pending" {
		t.Errorf("failing team status = %q, want pending", status)
	}
	if status, _, _ := h.rowState(t, "teams", good.ID); status != "synced" {
		t.Errorf("healthy team status = %q, want synced", status)
	}

	h.remote.FailID(bad.ID, nil)
	h.sync(t)
	if status, _, _ := h.rowState(t, "teams", bad.ID); status != "synced" {
		t.Errorf("retry did not sync team, status = %q", status)
	}
}

func TestSyncAll_PullRemoteWins(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	team := h.createTeam(t, "Sharks")
	h.sync(t)

	doc, err := h.remote.Get(ctx, remote.CollectionTeams, team.ID)
	if err != nil {
		t.Fatalf("remote Get() failed: %v", err)
	}
	doc["name"] = "Great Whites"
	doc[remote.ChangedAtField] = models.FormatTime(h.clock.Now())
	h.remote.Put(remote.CollectionTeams, team.ID, doc)
	h.clock.Advance(time.Second)

	res := h.sync(t)
	if res.Pulled == 0 {
		t.Fatalf("nothing pulled: %+v", res)
	}
	got, err := h.teams.Get(ctx, team.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != "Great Whites" {
		t.Errorf("name = %q, want remote value", got.Name)
	}
	if got.SyncStatus != models.SyncSynced {
		t.Errorf("sync_status = %q, want synced", got.SyncStatus)
	}
}

func TestSyncAll_PullInsertsNewRows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.remote.Put(remote.CollectionTeams, "remote-team", remote.Document{
		"id":                  "remote-team",
		"name":                "Orcas",
		"color":               "#112233",
		"createdAt":           models.FormatTime(epoch),
		"updatedAt":           models.FormatTime(epoch),
		remote.ChangedAtField: models.FormatTime(epoch),
	})
	h.clock.Advance(time.Second)
	h.sync(t)

	got, err := h.teams.Get(ctx, "remote-team")
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != "Orcas" || got.SyncStatus != models.SyncSynced {
		t.Errorf("pulled team = %+v", got)
	}
}

func TestSyncAll_PullSkipsTombstonedRows(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	team := h.createTeam(t, "Sharks")
	h.sync(t)
	if err := h.teams.SoftDelete(ctx, team.ID); err != nil {
		t.Fatalf("SoftDelete() failed: %v", err)
	}

	// Remote delete keeps failing while another device edits the team.
	h.remote.FailID(team.ID, errors.New("unavailable"))
	h.remote.Put(remote.CollectionTeams, team.ID, remote.Document{
		"id":                  team.ID,
		"name":                "Edited elsewhere",
		"color":               team.Color,
		"createdAt":           models.FormatTime(team.CreatedAt),
		"updatedAt":           models.FormatTime(h.clock.Now()),
		remote.ChangedAtField: models.FormatTime(h.clock.Now()),
	})
	h.clock.Advance(time.Second)

	res := h.sync(t)
	if res.Shadowed != 1 {
		t.Errorf("Shadowed = %d, want 1", res.Shadowed)
	}
	if _, deleted, _ := h.rowState(t, "teams", team.ID); !deleted {
		t.Fatalf("pull resurrected a tombstoned team")
	}
	if _, err := h.teams.Get(ctx, team.ID); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

func TestSyncAll_RejectsUnknownFields(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.remote.Put(remote.CollectionTeams, "odd", remote.Document{
		"id":                  "odd",
		"name":                "Odd",
		"color":               "#000000",
		"mascot":              "shark",
		"createdAt":           models.FormatTime(epoch),
		remote.ChangedAtField: models.FormatTime(epoch),
	})
	h.clock.Advance(time.Second)

	res := h.sync(t)
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Failed)
	}
	if _, err := h.teams.Get(ctx, "odd"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("document with unknown field was stored, err = %v", err)
	}
	wm, _ := h.store.Watermark(ctx)
	if wm.IsZero() {
		t.Errorf("watermark did not advance past a malformed document")
	}
}

func TestSyncAll_WatermarkMonotonic(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	var prev time.Time
	for i := 0; i < 3; i++ {
		h.createTeam(t, "Team")
		h.sync(t)
		wm, err := h.store.Watermark(ctx)
		if err != nil {
			t.Fatalf("Watermark() failed: %v", err)
		}
		if wm.Before(prev) {
			t.Fatalf("watermark went backwards: %v < %v", wm, prev)
		}
		prev = wm
	}

	// A change stamped before the watermark is never pulled.
	h.remote.Put(remote.CollectionTeams, "late", remote.Document{
		"id":                  "late",
		"name":                "Late",
		"color":               "#000000",
		"createdAt":           models.FormatTime(epoch),
		remote.ChangedAtField: models.FormatTime(prev.Add(-time.Second)),
	})
	h.sync(t)
	if _, err := h.teams.Get(ctx, "late"); !errors.Is(err, models.ErrNotFound) {
		t.Errorf("document older than the watermark was pulled, err = %v", err)
	}

	// A watermark ahead of the local clock is kept.
	future := h.clock.Now().Add(time.Hour)
	if err := h.store.SetWatermark(ctx, future); err != nil {
		t.Fatalf("SetWatermark() failed: %v", err)
	}
	h.sync(t)
	wm, _ := h.store.Watermark(ctx)
	if !wm.Equal(future) {
		t.Errorf("watermark = %v, want it kept at %v", wm, future)
	}
}

func TestSyncAll_FailedQueryHoldsWatermark(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	h.sync(t)
	before, _ := h.store.Watermark(ctx)

	h.orch.remote = &queryFailingStore{Store: h.remote, collection: remote.CollectionMatches}
	res := h.sync(t)
	if res.Failed != 1 {
		t.Errorf("Failed = %d, want 1", res.Failed)
	}
	after, _ := h.store.Watermark(ctx)
	if !after.Equal(before) {
		t.Errorf("watermark advanced to %v despite a failed query", after)
	}
}

func TestSyncAll_PushRollbackKeepsPending(t *testing.T) {
	h := newHarness(t)

	team := h.createTeam(t, "Sharks")
	if _, err := h.store.DB().Exec(`DROP TABLE match_actions`); err != nil {
		t.Fatalf("drop table: %v", err)
	}

	res, err := h.orch.SyncAll(context.Background())
	if err == nil {
		t.Fatal("expected push phase error")
	}
	if res == nil || !res.PushFailed {
		t.Fatalf("result = %+v, want PushFailed", res)
	}
	if status, _, _ := h.rowState(t, "teams", team.ID); status != "pending" {
		t.Errorf("team status = %q after rollback, want pending", status)
	}
}

func TestSyncAll_RejectsOverlappingCycles(t *testing.T) {
	h := newHarness(t)
	h.createTeam(t, "Sharks")

	blocking := &blockingStore{Store: h.remote, entered: make(chan struct{}), release: make(chan struct{})}
	h.orch.remote = blocking

	done := make(chan error, 1)
	go func() {
		_, err := h.orch.SyncAll(context.Background())
		done <- err
	}()
	<-blocking.entered

	if _, err := h.orch.SyncAll(context.Background()); !errors.Is(err, ErrCycleInProgress) {
		t.Errorf("concurrent SyncAll() error = %v, want ErrCycleInProgress", err)
	}
	status, err := h.orch.Status(context.Background())
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if !status.InProgress {
		t.Errorf("Status().InProgress = false during a cycle")
	}

	close(blocking.release)
	if err := <-done; err != nil {
		t.Fatalf("first SyncAll() failed: %v", err)
	}
	if _, err := h.orch.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll() after cycle failed: %v", err)
	}
}

func TestSyncAll_RecoversPanic(t *testing.T) {
	h := newHarness(t)
	h.orch.remote = &panickingStore{Store: h.remote}

	res, err := h.orch.SyncAll(context.Background())
	if err == nil || res != nil {
		t.Fatalf("SyncAll() = %v, %v; want nil result and error", res, err)
	}

	h.orch.remote = h.remote
	if _, err := h.orch.SyncAll(context.Background()); err != nil {
		t.Fatalf("SyncAll() after panic failed: %v", err)
	}
}

func TestSyncAll_PanicDuringPushReleasesLocalStore(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.createTeam(t, "Sharks")
	h.orch.remote = &panickingPutStore{Store: h.remote}

	if _, err := h.orch.SyncAll(ctx); err == nil {
		t.Fatal("SyncAll() succeeded despite a panicking remote")
	}

	// Local writes keep working and the next cycle retries.
	h.createTeam(t, "Orcas")
	h.orch.remote = h.remote
	res := h.sync(t)
	if res.Pushed != 2 {
		t.Errorf("Pushed = %d, want 2", res.Pushed)
	}
}

func TestSyncAll_LocalWritesDuringSlowPush(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	team := h.createTeam(t, "Sharks")
	p := h.createPlayer(t, team.ID, "Ana")
	match := h.createMatch(t, team.ID)

	blocking := &blockingStore{Store: h.remote, entered: make(chan struct{}), release: make(chan struct{})}
	h.orch.remote = blocking

	done := make(chan error, 1)
	go func() {
		_, err := h.orch.SyncAll(ctx)
		done <- err
	}()
	<-blocking.entered

	// The cycle is parked inside a remote call; the UI must not see a locked store.
	h.clock.Advance(time.Second)
	name := "Orcas"
	if _, err := h.teams.Update(ctx, team.ID, teams.UpdateTeamRequest{Name: &name}); err != nil {
		t.Fatalf("Update() during push failed: %v", err)
	}
	h.addAction(t, match.ID, &p.ID, models.ActionSaque, 3)

	close(blocking.release)
	if err := <-done; err != nil {
		t.Fatalf("SyncAll() failed: %v", err)
	}

	got, err := h.teams.Get(ctx, team.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if got.Name != "Orcas" || got.SyncStatus != models.SyncPending {
		t.Fatalf("team = %+v, want the local edit still pending", got)
	}
	doc, err := h.remote.Get(ctx, remote.CollectionTeams, team.ID)
	if err != nil {
		t.Fatalf("remote Get() failed: %v", err)
	}
	if doc["name"] != "Sharks" {
		t.Errorf("remote name = %v, want the pushed value", doc["name"])
	}

	h.orch.remote = h.remote
	h.sync(t)
	doc, _ = h.remote.Get(ctx, remote.CollectionTeams, team.ID)
	if doc["name"] != "Orcas" {
		t.Errorf("remote name after retry = %v, want Orcas", doc["name"])
	}
	if status, _, _ := h.rowState(t, "teams", team.ID); status != "synced" {
		t.Errorf("team status after retry = %q, want synced", status)
	}
}

func TestSyncAll_PullKeepsEditMadeDuringCycle(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	team := h.createTeam(t, "Sharks")
	p := h.createPlayer(t, team.ID, "Ana")
	match := h.createMatch(t, team.ID)
	h.addAction(t, match.ID, &p.ID, models.ActionAtaque, 3)
	if _, err := h.matches.AdvanceSet(ctx, match.ID); err != nil {
		t.Fatalf("AdvanceSet() failed: %v", err)
	}
	h.addAction(t, match.ID, &p.ID, models.ActionAtaque, 3)

	// The coach finishes the match after the push committed, while the pull
	// is reading back the match this cycle just pushed.
	h.orch.remote = &hookStore{Store: h.remote, collection: remote.CollectionMatches, hook: func() {
		h.clock.Advance(time.Second)
		if _, err := h.matches.Finish(ctx, match.ID); err != nil {
			t.Errorf("Finish() failed: %v", err)
		}
	}}
	res := h.sync(t)
	if res.Shadowed == 0 {
		t.Errorf("Shadowed = 0, want the stale match document skipped")
	}

	got, err := h.matches.Get(ctx, match.ID)
	if err != nil {
		t.Fatalf("Get() failed: %v", err)
	}
	if !got.IsFinished || got.SyncStatus != models.SyncPending {
		t.Fatalf("match finished=%v status=%s, want finished and pending", got.IsFinished, got.SyncStatus)
	}

	h.sync(t)
	if n := h.remote.Len(remote.CollectionActions); n != 2 {
		t.Errorf("remote actions = %d, want 2", n)
	}
	doc, err := h.remote.Get(ctx, remote.CollectionMatches, match.ID)
	if err != nil {
		t.Fatalf("remote match missing: %v", err)
	}
	if doc["isFinished"] != true {
		t.Errorf("remote isFinished = %v, want true", doc["isFinished"])
	}
}

func TestSyncAll_NotifiesObservers(t *testing.T) {
	h := newHarness(t)

	var calls int32
	unsubscribe := h.orch.Subscribe(func() { atomic.AddInt32(&calls, 1) })

	h.sync(t)
	h.sync(t)
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Fatalf("calls = %d, want 2", got)
	}

	unsubscribe()
	unsubscribe()
	h.sync(t)
	if got := atomic.LoadInt32(&calls); got != 2 {
		t.Errorf("calls after unsubscribe = %d, want 2", got)
	}
}

func TestStatus_CountsPendingWork(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	team := h.createTeam(t, "Sharks")
	p := h.createPlayer(t, team.ID, "Ana")
	h.createPlayer(t, team.ID, "Bia")
	if err := h.players.SoftDelete(ctx, p.ID); err != nil {
		t.Fatalf("SoftDelete() failed: %v", err)
	}

	status, err := h.orch.Status(ctx)
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if c := status.Collections[remote.CollectionTeams]; c.Pending != 1 || c.Tombstoned != 0 {
		t.Errorf("teams counts = %+v", c)
	}
	if c := status.Collections[remote.CollectionPlayers]; c.Pending != 1 || c.Tombstoned != 1 {
		t.Errorf("players counts = %+v", c)
	}

	h.sync(t)
	status, err = h.orch.Status(ctx)
	if err != nil {
		t.Fatalf("Status() failed: %v", err)
	}
	if c := status.Collections[remote.CollectionPlayers]; c.Pending != 0 || c.Tombstoned != 0 {
		t.Errorf("players counts after sync = %+v", c)
	}
	if status.LastResult == nil || status.Watermark.IsZero() {
		t.Errorf("status missing last result or watermark: %+v", status)
	}
}

type blockingStore struct {
	remote.Store
	entered chan struct{}
	release chan struct{}
	once    atomic.Bool
}

func (s *blockingStore) PutMerge(ctx context.Context, collection, id string, doc remote.Document) error {
	if s.once.CompareAndSwap(false, true) {
		close(s.entered)
		<-s.release
	}
	return s.Store.PutMerge(ctx, collection, id, doc)
}

type panickingStore struct {
	remote.Store
}

func (s *panickingStore) QueryChangedSince(ctx context.Context, collection string, since time.Time) ([]remote.Document, error) {
	panic("remote exploded")
}

type panickingPutStore struct {
	remote.Store
}

func (s *panickingPutStore) PutMerge(ctx context.Context, collection, id string, doc remote.Document) error {
	panic("driver bug")
}

// hookStore runs hook once, just before the first query of collection
type hookStore struct {
	remote.Store
	collection string
	hook       func()
}

func (s *hookStore) QueryChangedSince(ctx context.Context, collection string, since time.Time) ([]remote.Document, error) {
	if collection == s.collection && s.hook != nil {
		hook := s.hook
		s.hook = nil
		hook()
	}
	return s.Store.QueryChangedSince(ctx, collection, since)
}

type queryFailingStore struct {
	remote.Store
	collection string
}

func (s *queryFailingStore) QueryChangedSince(ctx context.Context, collection string, since time.Time) ([]remote.Document, error) {
	if collection == s.collection {
		return nil, errors.New("query timeout")
	}
	return s.Store.QueryChangedSince(ctx, collection, since)
}
