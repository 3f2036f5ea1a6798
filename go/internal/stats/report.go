package stats

import (
	"sort"

	"github.com/mcdev12/scout/go/internal/models"
)

// QualityHistogram counts touches per quality grade 0..3
type QualityHistogram [models.MaxQuality + 1]int

// Total returns the number of touches in the histogram
func (h QualityHistogram) Total() int {
	n := 0
	for _, c := range h {
		n += c
	}
	return n
}

// Efficiency is (q3 + q2 - q1 - q0) / total, zero when empty
func (h QualityHistogram) Efficiency() float64 {
	total := h.Total()
	if total == 0 {
		return 0
	}
	return float64(h[3]+h[2]-h[1]-h[0]) / float64(total)
}

// PositiveRate is the share of touches graded 2 or better, zero when empty
func (h QualityHistogram) PositiveRate() float64 {
	total := h.Total()
	if total == 0 {
		return 0
	}
	return float64(h[3]+h[2]) / float64(total)
}

// FundamentalStats summarizes one fundamental
type FundamentalStats struct {
	ActionType   models.ActionType `json:"action_type"`
	Histogram    QualityHistogram  `json:"histogram"`
	Total        int               `json:"total"`
	Efficiency   float64           `json:"efficiency"`
	PositiveRate float64           `json:"positive_rate"`
}

// SetScore is the scoreline of one set
type SetScore struct {
	Set      int `json:"set"`
	Ours     int `json:"ours"`
	Opponent int `json:"opponent"`
}

// PlayerStats is the per-fundamental breakdown of one player
type PlayerStats struct {
	PlayerID     string             `json:"player_id"`
	DisplayName  string             `json:"display_name"`
	Number       *int               `json:"number,omitempty"`
	Points       int                `json:"points"`
	Errors       int                `json:"errors"`
	Fundamentals []FundamentalStats `json:"fundamentals"`
}

// MatchReport holds the numbers behind a printed match sheet
type MatchReport struct {
	MatchID        string             `json:"match_id"`
	OpponentName   string             `json:"opponent_name"`
	Ours           int                `json:"ours"`
	Opponent       int                `json:"opponent"`
	OpponentErrors int                `json:"opponent_errors"`
	OpponentPoints int                `json:"opponent_points"`
	Sets           []SetScore         `json:"sets"`
	Fundamentals   []FundamentalStats `json:"fundamentals"`
	Players        []PlayerStats      `json:"players"`
}

type fundamentalTally map[models.ActionType]*QualityHistogram

func (t fundamentalTally) add(a models.MatchAction) {
	h, ok := t[a.ActionType]
	if !ok {
		h = &QualityHistogram{}
		t[a.ActionType] = h
	}
	if a.Quality >= models.MinQuality && a.Quality <= models.MaxQuality {
		h[a.Quality]++
	}
}

// stats lists fundamentals in canonical order, skipping unused ones
func (t fundamentalTally) stats() []FundamentalStats {
	out := make([]FundamentalStats, 0, len(t))
	for _, f := range models.Fundamentals {
		h, ok := t[f]
		if !ok {
			continue
		}
		out = append(out, FundamentalStats{
			ActionType:   f,
			Histogram:    *h,
			Total:        h.Total(),
			Efficiency:   h.Efficiency(),
			PositiveRate: h.PositiveRate(),
		})
	}
	return out
}

// BuildMatchReport aggregates live actions into a report.
// players resolves player ids to display names; actions from unknown
// players are still counted under their id.
func BuildMatchReport(match *models.Match, actions []models.MatchAction, players []models.Player) *MatchReport {
	report := &MatchReport{
		MatchID:      match.ID,
		OpponentName: match.OpponentName,
		Sets:         []SetScore{},
		Players:      []PlayerStats{},
	}

	byID := make(map[string]models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	sets := make(map[int]*SetScore)
	team := fundamentalTally{}
	perPlayer := make(map[string]fundamentalTally)
	playerTotals := make(map[string]*PlayerStats)

	for _, a := range actions {
		if a.Deleted {
			continue
		}

		s, ok := sets[a.SetNumber]
		if !ok {
			s = &SetScore{Set: a.SetNumber}
			sets[a.SetNumber] = s
		}
		switch a.ScoreChange {
		case 1:
			s.Ours++
			report.Ours++
		case -1:
			s.Opponent++
			report.Opponent++
		}

		switch a.ActionType {
		case models.ActionOpponentError:
			report.OpponentErrors++
			continue
		case models.ActionOpponentPoint:
			report.OpponentPoints++
			continue
		}
		if !a.ActionType.IsFundamental() || a.PlayerID == nil {
			continue
		}

		team.add(a)
		id := *a.PlayerID
		if _, ok := perPlayer[id]; !ok {
			perPlayer[id] = fundamentalTally{}
			ps := &PlayerStats{PlayerID: id, DisplayName: id}
			if p, known := byID[id]; known {
				ps.DisplayName = p.DisplayName()
				ps.Number = p.Number
			}
			playerTotals[id] = ps
		}
		perPlayer[id].add(a)
		switch a.ScoreChange {
		case 1:
			playerTotals[id].Points++
		case -1:
			playerTotals[id].Errors++
		}
	}

	for _, s := range sets {
		report.Sets = append(report.Sets, *s)
	}
	sort.Slice(report.Sets, func(i, j int) bool {
		return report.Sets[i].Set < report.Sets[j].Set
	})

	report.Fundamentals = team.stats()

	for id, ps := range playerTotals {
		ps.Fundamentals = perPlayer[id].stats()
		report.Players = append(report.Players, *ps)
	}
	sort.Slice(report.Players, func(i, j int) bool {
		a, b := report.Players[i], report.Players[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		return a.DisplayName < b.DisplayName
	})

	return report
}
