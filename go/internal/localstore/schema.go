package localstore

import (
	"context"
	"fmt"
)

// Referential checks live in the repositories: a team may be purged while
// its matches survive, and purges can land in any order across cycles.
const schema = `
CREATE TABLE IF NOT EXISTS teams (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	color TEXT NOT NULL DEFAULT '#2196F3',
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	sync_status TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('pending', 'synced')),
	deleted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS players (
	id TEXT PRIMARY KEY,
	team_id TEXT NOT NULL,
	name TEXT NOT NULL,
	surname TEXT,
	number INTEGER,
	position TEXT NOT NULL,
	rg TEXT,
	cpf TEXT,
	birthday TEXT,
	allergies TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	sync_status TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('pending', 'synced')),
	deleted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS matches (
	id TEXT PRIMARY KEY,
	team_id TEXT NOT NULL,
	opponent_name TEXT NOT NULL,
	date TEXT NOT NULL,
	location TEXT,
	current_set INTEGER NOT NULL DEFAULT 1,
	is_finished INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL,
	sync_status TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('pending', 'synced')),
	deleted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS match_actions (
	id TEXT PRIMARY KEY,
	match_id TEXT NOT NULL,
	player_id TEXT,
	set_number INTEGER NOT NULL CHECK (set_number >= 1),
	action_type TEXT NOT NULL,
	quality INTEGER NOT NULL CHECK (quality BETWEEN 0 AND 3),
	score_change INTEGER NOT NULL DEFAULT 0 CHECK (score_change IN (-1, 0, 1)),
	timestamp TEXT NOT NULL,
	sync_status TEXT NOT NULL DEFAULT 'pending' CHECK (sync_status IN ('pending', 'synced')),
	deleted INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS sync_state (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_teams_sync ON teams(sync_status, deleted);
CREATE INDEX IF NOT EXISTS idx_players_team ON players(team_id, deleted);
CREATE INDEX IF NOT EXISTS idx_players_sync ON players(sync_status, deleted);
CREATE INDEX IF NOT EXISTS idx_matches_team ON matches(team_id, deleted);
CREATE INDEX IF NOT EXISTS idx_matches_sync ON matches(sync_status, deleted);
CREATE INDEX IF NOT EXISTS idx_actions_match ON match_actions(match_id, deleted, set_number);
CREATE INDEX IF NOT EXISTS idx_actions_sync ON match_actions(sync_status, deleted);
`

// InitSchema creates the tables if they don't exist. Idempotent.
func (s *Store) InitSchema(ctx context.Context) error {
	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}
	return nil
}
