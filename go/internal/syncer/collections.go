package syncer

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/mcdev12/scout/go/internal/matches"
	"github.com/mcdev12/scout/go/internal/player"
	"github.com/mcdev12/scout/go/internal/remote"
	"github.com/mcdev12/scout/go/internal/teams"
)

// errMalformed marks pulled documents that fail strict decoding
var errMalformed = errors.New("malformed remote document")

// Repos bundles the entity repositories the engine reads and writes
type Repos struct {
	Teams   *teams.Repository
	Players *player.Repository
	Matches *matches.Repository
}

func (r Repos) withTx(tx *sql.Tx) Repos {
	return Repos{
		Teams:   r.Teams.WithTx(tx),
		Players: r.Players.WithTx(tx),
		Matches: r.Matches.WithTx(tx),
	}
}

// pendingDoc is a row read for push with the updated_at it was read at
type pendingDoc struct {
	id        string
	updatedAt time.Time
	doc       remote.Document
}

type settledScore struct {
	ours, opponent int
}

// collection binds one remote collection to its local table
type collection struct {
	name       string
	tombstoned func(ctx context.Context, r Repos) ([]string, error)
	purge      func(ctx context.Context, r Repos, id string) error
	pending    func(ctx context.Context, r Repos) ([]pendingDoc, error)
	// markSynced reports false when the row changed after it was read
	markSynced func(ctx context.Context, r Repos, row pendingDoc) (bool, error)
	// apply upserts a pulled document; false means a local tombstone kept it out
	apply func(ctx context.Context, r Repos, doc remote.Document) (bool, error)
}

// collections in dependency order: parents first
var collections = []collection{
	{
		name: remote.CollectionTeams,
		tombstoned: func(ctx context.Context, r Repos) ([]string, error) {
			return r.Teams.ListTombstonedTeamIDs(ctx)
		},
		purge: func(ctx context.Context, r Repos, id string) error {
			return r.Teams.PurgeTeam(ctx, id)
		},
		pending: func(ctx context.Context, r Repos) ([]pendingDoc, error) {
			rows, err := r.Teams.ListPendingTeams(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]pendingDoc, 0, len(rows))
			for _, t := range rows {
				out = append(out, pendingDoc{id: t.ID, updatedAt: t.UpdatedAt, doc: encodeTeam(t)})
			}
			return out, nil
		},
		markSynced: func(ctx context.Context, r Repos, row pendingDoc) (bool, error) {
			return r.Teams.MarkTeamSynced(ctx, row.id, row.updatedAt)
		},
		apply: func(ctx context.Context, r Repos, doc remote.Document) (bool, error) {
			t, err := decodeTeam(doc)
			if err != nil {
				return false, err
			}
			return r.Teams.UpsertSyncedTeam(ctx, t)
		},
	},
	{
		name: remote.CollectionPlayers,
		tombstoned: func(ctx context.Context, r Repos) ([]string, error) {
			return r.Players.ListTombstonedPlayerIDs(ctx)
		},
		purge: func(ctx context.Context, r Repos, id string) error {
			return r.Players.PurgePlayer(ctx, id)
		},
		pending: func(ctx context.Context, r Repos) ([]pendingDoc, error) {
			rows, err := r.Players.ListPendingPlayers(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]pendingDoc, 0, len(rows))
			for _, p := range rows {
				out = append(out, pendingDoc{id: p.ID, updatedAt: p.UpdatedAt, doc: encodePlayer(p)})
			}
			return out, nil
		},
		markSynced: func(ctx context.Context, r Repos, row pendingDoc) (bool, error) {
			return r.Players.MarkPlayerSynced(ctx, row.id, row.updatedAt)
		},
		apply: func(ctx context.Context, r Repos, doc remote.Document) (bool, error) {
			p, err := decodePlayer(doc)
			if err != nil {
				return false, err
			}
			return r.Players.UpsertSyncedPlayer(ctx, p)
		},
	},
	{
		name: remote.CollectionMatches,
		tombstoned: func(ctx context.Context, r Repos) ([]string, error) {
			return r.Matches.ListTombstonedMatchIDs(ctx)
		},
		purge: func(ctx context.Context, r Repos, id string) error {
			return r.Matches.PurgeMatch(ctx, id)
		},
		pending: func(ctx context.Context, r Repos) ([]pendingDoc, error) {
			rows, err := r.Matches.ListPendingMatches(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]pendingDoc, 0, len(rows))
			for _, m := range rows {
				score, err := settledScoreOf(ctx, r.Matches, m.ID, m.IsFinished)
				if err != nil {
					return nil, err
				}
				out = append(out, pendingDoc{id: m.ID, updatedAt: m.UpdatedAt, doc: encodeMatch(m, score)})
			}
			return out, nil
		},
		markSynced: func(ctx context.Context, r Repos, row pendingDoc) (bool, error) {
			return r.Matches.MarkMatchSynced(ctx, row.id, row.updatedAt)
		},
		apply: func(ctx context.Context, r Repos, doc remote.Document) (bool, error) {
			m, err := decodeMatch(doc)
			if err != nil {
				return false, err
			}
			return r.Matches.UpsertSyncedMatch(ctx, m)
		},
	},
	{
		name: remote.CollectionActions,
		tombstoned: func(ctx context.Context, r Repos) ([]string, error) {
			return r.Matches.ListTombstonedActionIDs(ctx)
		},
		purge: func(ctx context.Context, r Repos, id string) error {
			return r.Matches.PurgeAction(ctx, id)
		},
		// Only actions outside the active set of unfinished matches.
		pending: func(ctx context.Context, r Repos) ([]pendingDoc, error) {
			rows, err := r.Matches.ListEligibleActions(ctx)
			if err != nil {
				return nil, err
			}
			out := make([]pendingDoc, 0, len(rows))
			for _, a := range rows {
				out = append(out, pendingDoc{id: a.ID, doc: encodeAction(a)})
			}
			return out, nil
		},
		markSynced: func(ctx context.Context, r Repos, row pendingDoc) (bool, error) {
			return r.Matches.MarkActionSynced(ctx, row.id)
		},
		apply: func(ctx context.Context, r Repos, doc remote.Document) (bool, error) {
			a, err := decodeAction(doc)
			if err != nil {
				return false, err
			}
			return r.Matches.UpsertSyncedAction(ctx, a)
		},
	},
}

// settledScoreOf counts the sets whose actions are visible remotely: every
// set once finished, else the sets before the active one.
func settledScoreOf(ctx context.Context, repo *matches.Repository, matchID string, finished bool) (settledScore, error) {
	active, err := repo.ActiveSet(ctx, matchID)
	if err != nil {
		return settledScore{}, err
	}
	through := active - 1
	if finished {
		through = active
	}
	s, err := repo.ScoreThroughSet(ctx, matchID, through)
	if err != nil {
		return settledScore{}, err
	}
	return settledScore{ours: s.Ours, opponent: s.Opponent}, nil
}
