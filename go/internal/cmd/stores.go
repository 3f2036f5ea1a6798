package main

import (
	"context"
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scout/go/internal/dbconfig"
	"github.com/mcdev12/scout/go/internal/localstore"
	"github.com/mcdev12/scout/go/internal/reachability"
	"github.com/mcdev12/scout/go/internal/remote"
)

func setupLocalStore(ctx context.Context, config *Config) (*localstore.Store, error) {
	store, err := localstore.Open(config.Local.Path)
	if err != nil {
		return nil, err
	}
	if err := store.InitSchema(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}

	log.Info().Str("path", store.Path()).Msg("opened local store")
	return store, nil
}

// setupRemote connects the configured document store behind a circuit
// breaker. The returned cleanup releases the connection.
func setupRemote(ctx context.Context, config *Config, clock clockwork.Clock) (remote.Store, func(), error) {
	var (
		store   remote.Store
		cleanup = func() {}
	)

	switch config.Remote.Driver {
	case driverMongo:
		client, err := remote.NewMongoClient(ctx, config.Remote.URL)
		if err != nil {
			return nil, nil, err
		}
		mongoStore := remote.NewMongoStore(client, config.Remote.Database, clock)
		if err := mongoStore.EnsureIndexes(ctx); err != nil {
			_ = mongoStore.Close(context.Background())
			return nil, nil, err
		}
		store = mongoStore
		cleanup = func() {
			if err := mongoStore.Close(context.Background()); err != nil {
				log.Warn().Err(err).Msg("failed to disconnect MongoDB")
			}
		}

	case driverPostgres:
		dbConfig := dbconfig.NewConfigFromEnv()
		if config.Remote.URL != "" {
			dbConfig.URL = config.Remote.URL
		}
		pgStore, err := remote.NewPostgresStore(ctx, dbConfig, clock)
		if err != nil {
			return nil, nil, err
		}
		store = pgStore
		cleanup = pgStore.Close

	case driverMemory:
		store = remote.NewMemoryStore(clock)

	default:
		return nil, nil, fmt.Errorf("unknown remote driver %q", config.Remote.Driver)
	}

	log.Info().Str("driver", config.Remote.Driver).Msg("connected remote store")
	return remote.NewBreakerStore(store, remote.DefaultBreakerConfig()), cleanup, nil
}

// setupProbe picks the reachability probe. The memory driver never needs
// the network, so it is always reachable unless forced offline.
func setupProbe(config *Config) reachability.Probe {
	if config.Sync.Offline {
		return reachability.NewStatic(false)
	}
	if config.Remote.Driver == driverMemory {
		return reachability.NewStatic(true)
	}
	return reachability.NewNetProbe(config.Sync.ProbeURL, config.Sync.ProbeTimeout)
}
