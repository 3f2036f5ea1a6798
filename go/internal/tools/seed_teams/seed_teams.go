package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/scout/go/internal/localstore"
	"github.com/mcdev12/scout/go/internal/player"
	"github.com/mcdev12/scout/go/internal/teams"
)

// Team mirrors the roster JSON structure
type Team struct {
	Name    string                       `json:"name"`
	Color   *string                      `json:"color,omitempty"`
	Players []player.CreatePlayerRequest `json:"players"`
}

type summary struct {
	teams   int
	players int
	skipped int
	errs    int
}

func main() {
	path := "go/internal/assets/teams.json"
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	dbPath := os.Getenv("SCOUT_DB_PATH")
	if dbPath == "" {
		dbPath = "scout.db"
	}

	// 1) Load the JSON snapshot
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "read JSON: %v\n", err)
		os.Exit(1)
	}
	var roster []Team
	if err := json.Unmarshal(data, &roster); err != nil {
		fmt.Fprintf(os.Stderr, "unmarshal JSON: %v\n", err)
		os.Exit(1)
	}

	// 2) Open the local store
	ctx := context.Background()
	store, err := localstore.Open(dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open store: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()
	if err := store.InitSchema(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "init schema: %v\n", err)
		os.Exit(1)
	}

	// 3) Create through the apps so rows are stamped pending for the next sync
	clock := clockwork.NewRealClock()
	playerRepo := player.NewRepository(store.DB())
	teamApp := teams.NewApp(store.DB(), playerRepo, clock)
	playerApp := player.NewApp(playerRepo, teamApp, clock)

	s, err := seed(ctx, teamApp, playerApp, roster)
	if err != nil {
		fmt.Fprintf(os.Stderr, "seed: %v\n", err)
		os.Exit(1)
	}

	// 4) Print summary
	fmt.Printf(
		"Teams seed complete: %d teams, %d players, %d skipped, %d errors\n",
		s.teams, s.players, s.skipped, s.errs,
	)
}

// seed creates every team not already present by exact name, then its players
func seed(ctx context.Context, teamApp *teams.App, playerApp *player.App, roster []Team) (summary, error) {
	var s summary

	existing, err := teamApp.ListActive(ctx, teams.TeamFilter{})
	if err != nil {
		return s, err
	}
	names := make(map[string]bool, len(existing))
	for _, t := range existing {
		names[t.Name] = true
	}

	for _, t := range roster {
		if names[t.Name] {
			s.skipped++
			continue
		}
		team, err := teamApp.Create(ctx, teams.CreateTeamRequest{Name: t.Name, Color: t.Color})
		if err != nil {
			fmt.Fprintf(os.Stderr, "error creating team %q: %v\n", t.Name, err)
			s.errs++
			continue
		}
		names[team.Name] = true
		s.teams++

		for _, p := range t.Players {
			p.TeamID = team.ID
			if _, err := playerApp.Create(ctx, p); err != nil {
				fmt.Fprintf(os.Stderr, "error creating player %q: %v\n", p.Name, err)
				s.errs++
				continue
			}
			s.players++
		}
	}
	return s, nil
}
