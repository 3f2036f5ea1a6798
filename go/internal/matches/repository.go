package matches

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/scout/go/internal/models"
	"github.com/mcdev12/scout/go/internal/sqlutil"
)

// Scores are never stored; they are counted from live actions on read.
const matchSelect = `SELECT m.id, m.team_id, m.opponent_name, m.date, m.location,
	m.current_set, m.is_finished, m.created_at, m.updated_at, m.sync_status, m.deleted,
	(SELECT COUNT(*) FROM match_actions a WHERE a.match_id = m.id AND a.deleted = 0 AND a.score_change = 1),
	(SELECT COUNT(*) FROM match_actions a WHERE a.match_id = m.id AND a.deleted = 0 AND a.score_change = -1)
	FROM matches m`

const actionColumns = `id, match_id, player_id, set_number, action_type, quality, score_change,
	timestamp, sync_status, deleted`

// Repository handles match and match action persistence
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new matches repository
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// CreateMatch inserts m as a pending row
func (r *Repository) CreateMatch(ctx context.Context, m models.Match) (*models.Match, error) {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO matches (id, team_id, opponent_name, date, location, current_set, is_finished,
		created_at, updated_at, sync_status, deleted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', 0)
	`, m.ID, m.TeamID, m.OpponentName, sqlutil.ToSqlTime(m.Date), sqlutil.ToSqlString(m.Location),
		m.CurrentSet, sqlutil.ToSqlBool(m.IsFinished),
		sqlutil.ToSqlTime(m.CreatedAt), sqlutil.ToSqlTime(m.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create match: %w", err)
	}
	return r.GetMatch(ctx, m.ID)
}

// GetMatch retrieves an active match with its aggregated score
func (r *Repository) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	row := r.db.QueryRowContext(ctx, matchSelect+` WHERE m.id = ? AND m.deleted = 0`, id)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get match: %w", err)
	}
	return m, nil
}

// ListActiveMatches lists non-deleted matches, most recent first
func (r *Repository) ListActiveMatches(ctx context.Context, filter MatchFilter) ([]models.Match, error) {
	query := matchSelect + ` WHERE m.deleted = 0`
	var args []any
	if filter.TeamID != nil {
		query += ` AND m.team_id = ?`
		args = append(args, *filter.TeamID)
	}
	if filter.IsFinished != nil {
		query += ` AND m.is_finished = ?`
		args = append(args, sqlutil.ToSqlBool(*filter.IsFinished))
	}
	query += ` ORDER BY m.date DESC`
	return r.queryMatches(ctx, query, args...)
}

// UpdateMatch overwrites the mutable fields of an active match and resets it to pending
func (r *Repository) UpdateMatch(ctx context.Context, m models.Match) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE matches SET
		opponent_name = ?, date = ?, location = ?, current_set = ?, is_finished = ?,
		updated_at = ?, sync_status = 'pending'
	WHERE id = ? AND deleted = 0
	`, m.OpponentName, sqlutil.ToSqlTime(m.Date), sqlutil.ToSqlString(m.Location),
		m.CurrentSet, sqlutil.ToSqlBool(m.IsFinished), sqlutil.ToSqlTime(m.UpdatedAt), m.ID)
	if err != nil {
		return fmt.Errorf("failed to update match: %w", err)
	}
	return requireRow(res, "match", m.ID)
}

// TouchMatch bumps updated_at and resets the match to pending
func (r *Repository) TouchMatch(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `
	UPDATE matches SET updated_at = ?, sync_status = 'pending' WHERE id = ? AND deleted = 0
	`, sqlutil.ToSqlTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to touch match: %w", err)
	}
	return nil
}

// SoftDeleteMatch tombstones a match
func (r *Repository) SoftDeleteMatch(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE matches SET deleted = 1, sync_status = 'pending', updated_at = ?
	WHERE id = ? AND deleted = 0
	`, sqlutil.ToSqlTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to delete match: %w", err)
	}
	return requireRow(res, "match", id)
}

// ActiveSet returns max(current_set, highest live action set) for a match
func (r *Repository) ActiveSet(ctx context.Context, matchID string) (int, error) {
	var set int
	err := r.db.QueryRowContext(ctx, `
	SELECT MAX(m.current_set, COALESCE(
		(SELECT MAX(a.set_number) FROM match_actions a WHERE a.match_id = m.id AND a.deleted = 0), 0))
	FROM matches m WHERE m.id = ?
	`, matchID).Scan(&set)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("match %s: %w", matchID, models.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to get active set: %w", err)
	}
	return set, nil
}

// ScoreThroughSet aggregates the score of live actions with set_number <= maxSet
func (r *Repository) ScoreThroughSet(ctx context.Context, matchID string, maxSet int) (Score, error) {
	var s Score
	err := r.db.QueryRowContext(ctx, `
	SELECT
		COALESCE(SUM(CASE WHEN score_change = 1 THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN score_change = -1 THEN 1 ELSE 0 END), 0)
	FROM match_actions
	WHERE match_id = ? AND deleted = 0 AND set_number <= ?
	`, matchID, maxSet).Scan(&s.Ours, &s.Opponent)
	if err != nil {
		return Score{}, fmt.Errorf("failed to aggregate score: %w", err)
	}
	return s, nil
}

// ListPendingMatches returns live matches awaiting push
func (r *Repository) ListPendingMatches(ctx context.Context) ([]models.Match, error) {
	return r.queryMatches(ctx, matchSelect+` WHERE m.sync_status = 'pending' AND m.deleted = 0 ORDER BY m.created_at`)
}

// ListTombstonedMatchIDs returns tombstoned matches awaiting remote deletion
func (r *Repository) ListTombstonedMatchIDs(ctx context.Context) ([]string, error) {
	return sqlutil.QueryIDs(ctx, r.db, `SELECT id FROM matches WHERE deleted = 1`)
}

// MarkMatchSynced flags a match as matching its remote document. The row
// must still carry the updated_at that was pushed; a later edit keeps it
// pending. It reports whether the row was marked.
func (r *Repository) MarkMatchSynced(ctx context.Context, id string, pushedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE matches SET sync_status = 'synced'
	WHERE id = ? AND updated_at = ? AND deleted = 0
	`, id, sqlutil.ToSqlTime(pushedAt))
	if err != nil {
		return false, fmt.Errorf("failed to mark match synced: %w", err)
	}
	return affected(res)
}

// PurgeMatch physically removes a tombstoned match row
func (r *Repository) PurgeMatch(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM matches WHERE id = ? AND deleted = 1`, id); err != nil {
		return fmt.Errorf("failed to purge match: %w", err)
	}
	return nil
}

// UpsertSyncedMatch stores a pulled match and marks it synced. Local rows
// that are tombstoned or still pending are left alone. Score fields are not
// stored.
func (r *Repository) UpsertSyncedMatch(ctx context.Context, m models.Match) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO matches (id, team_id, opponent_name, date, location, current_set, is_finished,
		created_at, updated_at, sync_status, deleted)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, 'synced', 0)
	ON CONFLICT(id) DO UPDATE SET
		team_id = excluded.team_id,
		opponent_name = excluded.opponent_name,
		date = excluded.date,
		location = excluded.location,
		current_set = excluded.current_set,
		is_finished = excluded.is_finished,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		sync_status = 'synced'
	WHERE matches.deleted = 0 AND matches.sync_status = 'synced'
	`, m.ID, m.TeamID, m.OpponentName, sqlutil.ToSqlTime(m.Date), sqlutil.ToSqlString(m.Location),
		m.CurrentSet, sqlutil.ToSqlBool(m.IsFinished),
		sqlutil.ToSqlTime(m.CreatedAt), sqlutil.ToSqlTime(m.UpdatedAt))
	if err != nil {
		return false, fmt.Errorf("failed to upsert match: %w", err)
	}
	return affected(res)
}

// CountMatches returns pending and tombstoned counts
func (r *Repository) CountMatches(ctx context.Context) (sqlutil.SyncCounts, error) {
	return sqlutil.CountSyncState(ctx, r.db, "matches")
}

// CreateAction inserts a pending action
func (r *Repository) CreateAction(ctx context.Context, a models.MatchAction) (*models.MatchAction, error) {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO match_actions (`+actionColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'pending', 0)
	`, a.ID, a.MatchID, sqlutil.ToSqlString(a.PlayerID), a.SetNumber, string(a.ActionType),
		a.Quality, a.ScoreChange, sqlutil.ToSqlTime(a.Timestamp))
	if err != nil {
		return nil, fmt.Errorf("failed to create action: %w", err)
	}
	a.SyncStatus = models.SyncPending
	return &a, nil
}

// ListActions lists the live actions of a match in recording order
func (r *Repository) ListActions(ctx context.Context, matchID string) ([]models.MatchAction, error) {
	return r.queryActions(ctx, `SELECT `+actionColumns+` FROM match_actions
	WHERE match_id = ? AND deleted = 0 ORDER BY timestamp, rowid`, matchID)
}

// LastAction returns the most recent live action of a match
func (r *Repository) LastAction(ctx context.Context, matchID string) (*models.MatchAction, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+actionColumns+` FROM match_actions
	WHERE match_id = ? AND deleted = 0 ORDER BY timestamp DESC, rowid DESC LIMIT 1`, matchID)
	a, err := scanAction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNoActions)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get last action: %w", err)
	}
	return a, nil
}

// SoftDeleteAction tombstones one action
func (r *Repository) SoftDeleteAction(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE match_actions SET deleted = 1, sync_status = 'pending' WHERE id = ? AND deleted = 0
	`, id)
	if err != nil {
		return fmt.Errorf("failed to delete action: %w", err)
	}
	return requireRow(res, "action", id)
}

// TombstoneActionsByMatch tombstones every live action of a match
func (r *Repository) TombstoneActionsByMatch(ctx context.Context, matchID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE match_actions SET deleted = 1, sync_status = 'pending' WHERE match_id = ? AND deleted = 0
	`, matchID)
	if err != nil {
		return 0, fmt.Errorf("failed to tombstone actions of match %s: %w", matchID, err)
	}
	return res.RowsAffected()
}

// ListEligibleActions returns pending actions that may be pushed. Actions of
// an unfinished match are held back while they belong to its active set,
// i.e. the larger of current_set and the highest recorded set.
func (r *Repository) ListEligibleActions(ctx context.Context) ([]models.MatchAction, error) {
	return r.queryActions(ctx, `SELECT a.id, a.match_id, a.player_id, a.set_number, a.action_type,
		a.quality, a.score_change, a.timestamp, a.sync_status, a.deleted
	FROM match_actions a
	JOIN matches m ON m.id = a.match_id AND m.deleted = 0
	WHERE a.sync_status = 'pending' AND a.deleted = 0
	AND (
		m.is_finished = 1
		OR a.set_number < MAX(m.current_set, COALESCE(
			(SELECT MAX(b.set_number) FROM match_actions b WHERE b.match_id = m.id AND b.deleted = 0), 0))
	)
	ORDER BY a.timestamp, a.rowid`)
}

// ListTombstonedActionIDs returns tombstoned actions awaiting remote deletion
func (r *Repository) ListTombstonedActionIDs(ctx context.Context) ([]string, error) {
	return sqlutil.QueryIDs(ctx, r.db, `SELECT id FROM match_actions WHERE deleted = 1`)
}

// MarkActionSynced flags an action as matching its remote document. Actions
// are immutable once recorded, so only a tombstone keeps one pending.
func (r *Repository) MarkActionSynced(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE match_actions SET sync_status = 'synced' WHERE id = ? AND deleted = 0
	`, id)
	if err != nil {
		return false, fmt.Errorf("failed to mark action synced: %w", err)
	}
	return affected(res)
}

// PurgeAction physically removes a tombstoned action row
func (r *Repository) PurgeAction(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM match_actions WHERE id = ? AND deleted = 1`, id); err != nil {
		return fmt.Errorf("failed to purge action: %w", err)
	}
	return nil
}

// UpsertSyncedAction stores a pulled action and marks it synced, skipping
// local rows that are tombstoned or still pending
func (r *Repository) UpsertSyncedAction(ctx context.Context, a models.MatchAction) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO match_actions (`+actionColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'synced', 0)
	ON CONFLICT(id) DO UPDATE SET
		match_id = excluded.match_id,
		player_id = excluded.player_id,
		set_number = excluded.set_number,
		action_type = excluded.action_type,
		quality = excluded.quality,
		score_change = excluded.score_change,
		timestamp = excluded.timestamp,
		sync_status = 'synced'
	WHERE match_actions.deleted = 0 AND match_actions.sync_status = 'synced'
	`, a.ID, a.MatchID, sqlutil.ToSqlString(a.PlayerID), a.SetNumber, string(a.ActionType),
		a.Quality, a.ScoreChange, sqlutil.ToSqlTime(a.Timestamp))
	if err != nil {
		return false, fmt.Errorf("failed to upsert action: %w", err)
	}
	return affected(res)
}

// CountActions returns pending and tombstoned counts
func (r *Repository) CountActions(ctx context.Context) (sqlutil.SyncCounts, error) {
	return sqlutil.CountSyncState(ctx, r.db, "match_actions")
}

func (r *Repository) queryMatches(ctx context.Context, query string, args ...any) ([]models.Match, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	defer rows.Close()

	var out []models.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan match: %w", err)
		}
		out = append(out, *m)
	}
	return out, rows.Err()
}

func (r *Repository) queryActions(ctx context.Context, query string, args ...any) ([]models.MatchAction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list actions: %w", err)
	}
	defer rows.Close()

	var out []models.MatchAction
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan action: %w", err)
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func scanMatch(s sqlutil.Scanner) (*models.Match, error) {
	var (
		m                          models.Match
		date, createdAt, updatedAt string
		location                   sql.NullString
		finished, deleted          int
		status                     string
	)
	if err := s.Scan(&m.ID, &m.TeamID, &m.OpponentName, &date, &location,
		&m.CurrentSet, &finished, &createdAt, &updatedAt, &status, &deleted,
		&m.OurScore, &m.OpponentScore); err != nil {
		return nil, err
	}
	m.Date = sqlutil.FromSqlTime(date)
	m.Location = sqlutil.FromSqlStringPtr(location)
	m.IsFinished = finished != 0
	m.CreatedAt = sqlutil.FromSqlTime(createdAt)
	m.UpdatedAt = sqlutil.FromSqlTime(updatedAt)
	m.SyncStatus = models.SyncStatus(status)
	m.Deleted = deleted != 0
	return &m, nil
}

func scanAction(s sqlutil.Scanner) (*models.MatchAction, error) {
	var (
		a          models.MatchAction
		playerID   sql.NullString
		actionType string
		timestamp  string
		status     string
		deleted    int
	)
	if err := s.Scan(&a.ID, &a.MatchID, &playerID, &a.SetNumber, &actionType,
		&a.Quality, &a.ScoreChange, &timestamp, &status, &deleted); err != nil {
		return nil, err
	}
	a.PlayerID = sqlutil.FromSqlStringPtr(playerID)
	a.ActionType = models.ActionType(actionType)
	a.Timestamp = sqlutil.FromSqlTime(timestamp)
	a.SyncStatus = models.SyncStatus(status)
	a.Deleted = deleted != 0
	return &a, nil
}

func requireRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, models.ErrNotFound)
	}
	return nil
}

func affected(res sql.Result) (bool, error) {
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
