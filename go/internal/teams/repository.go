package teams

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/scout/go/internal/models"
	"github.com/mcdev12/scout/go/internal/sqlutil"
)

const teamColumns = `id, name, color, created_at, updated_at, sync_status, deleted`

// Repository implements team data access operations
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new teams repository
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{
		db: db,
	}
}

// WithTx returns a repository bound to tx
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// CreateTeam inserts a new pending team
func (r *Repository) CreateTeam(ctx context.Context, p insertTeamParams) (*models.Team, error) {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO teams (id, name, color, created_at, updated_at, sync_status, deleted)
	VALUES (?, ?, ?, ?, ?, 'pending', 0)
	`, p.ID, p.Name, p.Color, sqlutil.ToSqlTime(p.CreatedAt), sqlutil.ToSqlTime(p.CreatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create team: %w", err)
	}

	return r.GetTeam(ctx, p.ID)
}

// GetTeam retrieves an active (not tombstoned) team by ID
func (r *Repository) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+teamColumns+` FROM teams WHERE id = ? AND deleted = 0`, id)
	team, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("team %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return team, nil
}

// ListActiveTeams retrieves all non-deleted teams, newest first
func (r *Repository) ListActiveTeams(ctx context.Context, filter TeamFilter) ([]models.Team, error) {
	query := `SELECT ` + teamColumns + ` FROM teams WHERE deleted = 0`
	var args []any
	if filter.NameContains != nil {
		query += ` AND name LIKE ?`
		args = append(args, "%"+*filter.NameContains+"%")
	}
	query += ` ORDER BY created_at DESC`

	return r.queryTeams(ctx, query, args...)
}

// UpdateTeam writes merged business fields and resets sync status
func (r *Repository) UpdateTeam(ctx context.Context, p updateTeamParams) (*models.Team, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE teams SET name = ?, color = ?, updated_at = ?, sync_status = 'pending'
	WHERE id = ? AND deleted = 0
	`, p.Name, p.Color, sqlutil.ToSqlTime(p.UpdatedAt), p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update team: %w", err)
	}
	if err := requireRow(res, p.ID); err != nil {
		return nil, err
	}
	return r.GetTeam(ctx, p.ID)
}

// SoftDeleteTeam tombstones a team; the row stays until remote deletion
func (r *Repository) SoftDeleteTeam(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE teams SET deleted = 1, sync_status = 'pending', updated_at = ?
	WHERE id = ? AND deleted = 0
	`, sqlutil.ToSqlTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to delete team: %w", err)
	}
	return requireRow(res, id)
}

// ListPendingTeams returns live teams awaiting push
func (r *Repository) ListPendingTeams(ctx context.Context) ([]models.Team, error) {
	return r.queryTeams(ctx, `SELECT `+teamColumns+` FROM teams WHERE sync_status = 'pending' AND deleted = 0 ORDER BY created_at`)
}

// ListTombstonedTeamIDs returns tombstoned teams awaiting remote deletion
func (r *Repository) ListTombstonedTeamIDs(ctx context.Context) ([]string, error) {
	return sqlutil.QueryIDs(ctx, r.db, `SELECT id FROM teams WHERE deleted = 1`)
}

// MarkTeamSynced flags a team as matching its remote document. The row
// must still carry the updated_at that was pushed; a later edit keeps it
// pending. It reports whether the row was marked.
func (r *Repository) MarkTeamSynced(ctx context.Context, id string, pushedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE teams SET sync_status = 'synced'
	WHERE id = ? AND updated_at = ? AND deleted = 0
	`, id, sqlutil.ToSqlTime(pushedAt))
	if err != nil {
		return false, fmt.Errorf("failed to mark team synced: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PurgeTeam physically removes a tombstoned team row
func (r *Repository) PurgeTeam(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM teams WHERE id = ? AND deleted = 1`, id); err != nil {
		return fmt.Errorf("failed to purge team: %w", err)
	}
	return nil
}

// UpsertSyncedTeam stores a pulled team verbatim and marks it synced.
// Pending rows are left alone so the local edit or delete still goes out.
// It reports whether the row was written.
func (r *Repository) UpsertSyncedTeam(ctx context.Context, t models.Team) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO teams (id, name, color, created_at, updated_at, sync_status, deleted)
	VALUES (?, ?, ?, ?, ?, 'synced', 0)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		color = excluded.color,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		sync_status = 'synced'
	WHERE teams.deleted = 0 AND teams.sync_status = 'synced'
	`, t.ID, t.Name, t.Color, sqlutil.ToSqlTime(t.CreatedAt), sqlutil.ToSqlTime(t.UpdatedAt))
	if err != nil {
		return false, fmt.Errorf("failed to upsert team: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountTeams returns pending and tombstoned counts
func (r *Repository) CountTeams(ctx context.Context) (sqlutil.SyncCounts, error) {
	return sqlutil.CountSyncState(ctx, r.db, "teams")
}

func (r *Repository) queryTeams(ctx context.Context, query string, args ...any) ([]models.Team, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list teams: %w", err)
	}
	defer rows.Close()

	var teams []models.Team
	for rows.Next() {
		team, err := scanTeam(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan team: %w", err)
		}
		teams = append(teams, *team)
	}
	return teams, rows.Err()
}

func scanTeam(s sqlutil.Scanner) (*models.Team, error) {
	var (
		t                    models.Team
		createdAt, updatedAt string
		status               string
		deleted              int
	)
	if err := s.Scan(&t.ID, &t.Name, &t.Color, &createdAt, &updatedAt, &status, &deleted); err != nil {
		return nil, err
	}
	t.CreatedAt = sqlutil.FromSqlTime(createdAt)
	t.UpdatedAt = sqlutil.FromSqlTime(updatedAt)
	t.SyncStatus = models.SyncStatus(status)
	t.Deleted = deleted != 0
	return &t, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("team %s: %w", id, models.ErrNotFound)
	}
	return nil
}
