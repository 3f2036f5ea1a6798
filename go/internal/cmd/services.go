package main

import (
	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/scout/go/internal/localstore"
	"github.com/mcdev12/scout/go/internal/matches"
	"github.com/mcdev12/scout/go/internal/player"
	"github.com/mcdev12/scout/go/internal/reachability"
	"github.com/mcdev12/scout/go/internal/remote"
	"github.com/mcdev12/scout/go/internal/syncer"
	"github.com/mcdev12/scout/go/internal/teams"
)

type Services struct {
	Teams   *teams.Service
	Players *player.Service
	Matches *matches.Service

	Orchestrator *syncer.Orchestrator
	Trigger      *syncer.Trigger
}

func setupServices(store *localstore.Store, rs remote.Store, probe reachability.Probe, config *Config, clock clockwork.Clock) *Services {
	// Wire up dependency injection chain
	// Local store → Repository layer → App layer → Service layer
	database := store.DB()

	// Players are built first; team deletion cascades into them
	playerRepo := player.NewRepository(database)

	// Teams
	teamsApp := teams.NewApp(database, playerRepo, clock)
	teamsService := teams.NewService(teamsApp)

	// Players
	playerApp := player.NewApp(playerRepo, teamsApp, clock)
	playerService := player.NewService(playerApp)

	// Matches
	matchesApp := matches.NewApp(database, teamsApp, playerApp, clock)
	matchesService := matches.NewService(matchesApp, playerApp)

	// Sync
	orch := syncer.New(syncer.Deps{
		Local: store,
		Repos: syncer.Repos{
			Teams:   teamsApp.Repository(),
			Players: playerRepo,
			Matches: matchesApp.Repository(),
		},
		Remote: rs,
		Probe:  probe,
		Clock:  clock,
	}, syncer.Options{RecordTimeout: config.Sync.RecordTimeout})

	return &Services{
		Teams:        teamsService,
		Players:      playerService,
		Matches:      matchesService,
		Orchestrator: orch,
		Trigger:      syncer.NewTrigger(orch, clock, config.Sync.Interval),
	}
}
