package stats

import (
	"math"
	"testing"

	"github.com/mcdev12/scout/go/internal/models"
)

func strPtr(s string) *string { return &s }
func intPtr(i int) *int       { return &i }

func action(player string, set int, t models.ActionType, q int) models.MatchAction {
	var pid *string
	if player != "" {
		pid = strPtr(player)
	}
	return models.MatchAction{
		PlayerID:    pid,
		SetNumber:   set,
		ActionType:  t,
		Quality:     q,
		ScoreChange: models.ScoreChangeFor(t, q),
	}
}

func TestQualityHistogram(t *testing.T) {
	tests := []struct {
		name       string
		h          QualityHistogram
		efficiency float64
		positive   float64
	}{
		{name: "empty", h: QualityHistogram{}, efficiency: 0, positive: 0},
		{name: "all perfect", h: QualityHistogram{0, 0, 0, 4}, efficiency: 1, positive: 1},
		{name: "mixed", h: QualityHistogram{1, 1, 1, 1}, efficiency: 0, positive: 0.5},
		{name: "mostly errors", h: QualityHistogram{3, 0, 1, 0}, efficiency: -0.5, positive: 0.25},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.h.Efficiency(); math.Abs(got-tt.efficiency) > 1e-9 {
				t.Errorf("Efficiency() = %v, want %v", got, tt.efficiency)
			}
			if got := tt.h.PositiveRate(); math.Abs(got-tt.positive) > 1e-9 {
				t.Errorf("PositiveRate() = %v, want %v", got, tt.positive)
			}
		})
	}
}

func TestBuildMatchReport(t *testing.T) {
	match := &models.Match{ID: "m1", OpponentName: "Orcas"}
	players := []models.Player{
		{ID: "p1", Name: "Ana", Surname: strPtr("Silva"), Number: intPtr(7)},
		{ID: "p2", Name: "Bia"},
	}
	deleted := action("p2", 1, models.ActionAtaque, 3)
	deleted.Deleted = true

	actions := []models.MatchAction{
		action("p1", 1, models.ActionAtaque, 3),
		action("p1", 1, models.ActionAtaque, 0),
		action("p2", 1, models.ActionPasse, 2),
		action("", 1, models.ActionOpponentError, 0),
		action("", 2, models.ActionOpponentPoint, 0),
		action("p1", 2, models.ActionSaque, 3),
		action("ghost", 2, models.ActionDefesa, 1),
		deleted,
	}

	r := BuildMatchReport(match, actions, players)

	if r.Ours != 3 || r.Opponent != 2 {
		t.Errorf("score = %d-%d, want 3-2", r.Ours, r.Opponent)
	}
	if r.OpponentErrors != 1 || r.OpponentPoints != 1 {
		t.Errorf("opponent events = %d/%d, want 1/1", r.OpponentErrors, r.OpponentPoints)
	}

	wantSets := []SetScore{{Set: 1, Ours: 2, Opponent: 1}, {Set: 2, Ours: 1, Opponent: 1}}
	if len(r.Sets) != len(wantSets) {
		t.Fatalf("sets = %+v, want %+v", r.Sets, wantSets)
	}
	for i, s := range wantSets {
		if r.Sets[i] != s {
			t.Errorf("set[%d] = %+v, want %+v", i, r.Sets[i], s)
		}
	}

	if len(r.Fundamentals) != 4 {
		t.Fatalf("fundamentals = %d, want 4", len(r.Fundamentals))
	}
	if r.Fundamentals[0].ActionType != models.ActionSaque {
		t.Errorf("first fundamental = %s, want canonical order", r.Fundamentals[0].ActionType)
	}
	for _, f := range r.Fundamentals {
		if f.ActionType == models.ActionAtaque {
			if f.Total != 2 || f.Efficiency != 0 || f.PositiveRate != 0.5 {
				t.Errorf("attack stats = %+v", f)
			}
		}
	}

	if len(r.Players) != 3 {
		t.Fatalf("players = %d, want 3", len(r.Players))
	}
	top := r.Players[0]
	if top.PlayerID != "p1" || top.DisplayName != "Silva" || top.Points != 2 || top.Errors != 1 {
		t.Errorf("top player = %+v", top)
	}
	for _, p := range r.Players {
		if p.PlayerID == "ghost" && p.DisplayName != "ghost" {
			t.Errorf("unknown player display name = %q", p.DisplayName)
		}
	}
}

func TestBuildMatchReport_Empty(t *testing.T) {
	r := BuildMatchReport(&models.Match{ID: "m1"}, nil, nil)
	if r.Ours != 0 || len(r.Sets) != 0 || len(r.Players) != 0 || len(r.Fundamentals) != 0 {
		t.Errorf("empty report = %+v", r)
	}
}
