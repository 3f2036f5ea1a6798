package player

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mcdev12/scout/go/internal/models"
	"github.com/mcdev12/scout/go/internal/sqlutil"
)

const playerColumns = `id, team_id, name, surname, number, position, rg, cpf, birthday, allergies,
	created_at, updated_at, sync_status, deleted`

// Repository handles all player-related database operations
type Repository struct {
	db sqlutil.DBTX
}

// NewRepository creates a new player repository
func NewRepository(db sqlutil.DBTX) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to tx
func (r *Repository) WithTx(tx *sql.Tx) *Repository {
	return &Repository{db: tx}
}

// CreatePlayer inserts p as a pending row
func (r *Repository) CreatePlayer(ctx context.Context, p models.Player) (*models.Player, error) {
	_, err := r.db.ExecContext(ctx, `
	INSERT INTO players (`+playerColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'pending', 0)
	`, p.ID, p.TeamID, p.Name,
		sqlutil.ToSqlString(p.Surname), sqlutil.ToSqlInt64(p.Number), string(p.Position),
		sqlutil.ToSqlString(p.RG), sqlutil.ToSqlString(p.CPF),
		sqlutil.ToSqlString(p.Birthday), sqlutil.ToSqlString(p.Allergies),
		sqlutil.ToSqlTime(p.CreatedAt), sqlutil.ToSqlTime(p.UpdatedAt))
	if err != nil {
		return nil, fmt.Errorf("failed to create player: %w", err)
	}
	return r.GetPlayer(ctx, p.ID)
}

// GetPlayer retrieves an active player by ID
func (r *Repository) GetPlayer(ctx context.Context, id string) (*models.Player, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+playerColumns+` FROM players WHERE id = ? AND deleted = 0`, id)
	p, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("player %s: %w", id, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get player: %w", err)
	}
	return p, nil
}

// UpdatePlayer overwrites business fields of an active player and resets it to pending
func (r *Repository) UpdatePlayer(ctx context.Context, p models.Player) (*models.Player, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE players SET
		name = ?, surname = ?, number = ?, position = ?, rg = ?, cpf = ?,
		birthday = ?, allergies = ?, updated_at = ?, sync_status = 'pending'
	WHERE id = ? AND deleted = 0
	`, p.Name, sqlutil.ToSqlString(p.Surname), sqlutil.ToSqlInt64(p.Number), string(p.Position),
		sqlutil.ToSqlString(p.RG), sqlutil.ToSqlString(p.CPF),
		sqlutil.ToSqlString(p.Birthday), sqlutil.ToSqlString(p.Allergies),
		sqlutil.ToSqlTime(p.UpdatedAt), p.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to update player: %w", err)
	}
	if err := requireRow(res, p.ID); err != nil {
		return nil, err
	}
	return r.GetPlayer(ctx, p.ID)
}

// SoftDeletePlayer tombstones one player
func (r *Repository) SoftDeletePlayer(ctx context.Context, id string, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
	UPDATE players SET deleted = 1, sync_status = 'pending', updated_at = ?
	WHERE id = ? AND deleted = 0
	`, sqlutil.ToSqlTime(at), id)
	if err != nil {
		return fmt.Errorf("failed to delete player: %w", err)
	}
	return requireRow(res, id)
}

// TombstoneByTeam tombstones every active player of a team using q,
// normally the caller's transaction. It returns the number of rows touched.
func (r *Repository) TombstoneByTeam(ctx context.Context, q sqlutil.DBTX, teamID string, at time.Time) (int64, error) {
	res, err := q.ExecContext(ctx, `
	UPDATE players SET deleted = 1, sync_status = 'pending', updated_at = ?
	WHERE team_id = ? AND deleted = 0
	`, sqlutil.ToSqlTime(at), teamID)
	if err != nil {
		return 0, fmt.Errorf("failed to tombstone players of team %s: %w", teamID, err)
	}
	return res.RowsAffected()
}

// ListActiveByTeam lists a team's roster ordered by number then name
func (r *Repository) ListActiveByTeam(ctx context.Context, teamID string) ([]models.Player, error) {
	return r.queryPlayers(ctx, `SELECT `+playerColumns+` FROM players
	WHERE team_id = ? AND deleted = 0
	ORDER BY number IS NULL, number, name`, teamID)
}

// ListActiveWithBirthday lists active players that have a birthday on file
func (r *Repository) ListActiveWithBirthday(ctx context.Context) ([]models.Player, error) {
	return r.queryPlayers(ctx, `SELECT `+playerColumns+` FROM players
	WHERE deleted = 0 AND birthday IS NOT NULL AND birthday != ''
	ORDER BY name`)
}

// ListPendingPlayers returns live players awaiting push
func (r *Repository) ListPendingPlayers(ctx context.Context) ([]models.Player, error) {
	return r.queryPlayers(ctx, `SELECT `+playerColumns+` FROM players
	WHERE sync_status = 'pending' AND deleted = 0 ORDER BY created_at`)
}

// ListTombstonedPlayerIDs returns tombstoned players awaiting remote deletion
func (r *Repository) ListTombstonedPlayerIDs(ctx context.Context) ([]string, error) {
	return sqlutil.QueryIDs(ctx, r.db, `SELECT id FROM players WHERE deleted = 1`)
}

// MarkPlayerSynced flags a player as matching its remote document. The row
// must still carry the updated_at that was pushed; a later edit keeps it
// pending. It reports whether the row was marked.
func (r *Repository) MarkPlayerSynced(ctx context.Context, id string, pushedAt time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	UPDATE players SET sync_status = 'synced'
	WHERE id = ? AND updated_at = ? AND deleted = 0
	`, id, sqlutil.ToSqlTime(pushedAt))
	if err != nil {
		return false, fmt.Errorf("failed to mark player synced: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// PurgePlayer physically removes a tombstoned player row
func (r *Repository) PurgePlayer(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM players WHERE id = ? AND deleted = 1`, id); err != nil {
		return fmt.Errorf("failed to purge player: %w", err)
	}
	return nil
}

// UpsertSyncedPlayer stores a pulled player and marks it synced, skipping
// local rows that are tombstoned or still pending. It reports whether the
// row was written.
func (r *Repository) UpsertSyncedPlayer(ctx context.Context, p models.Player) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
	INSERT INTO players (`+playerColumns+`)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 'synced', 0)
	ON CONFLICT(id) DO UPDATE SET
		team_id = excluded.team_id,
		name = excluded.name,
		surname = excluded.surname,
		number = excluded.number,
		position = excluded.position,
		rg = excluded.rg,
		cpf = excluded.cpf,
		birthday = excluded.birthday,
		allergies = excluded.allergies,
		created_at = excluded.created_at,
		updated_at = excluded.updated_at,
		sync_status = 'synced'
	WHERE players.deleted = 0 AND players.sync_status = 'synced'
	`, p.ID, p.TeamID, p.Name,
		sqlutil.ToSqlString(p.Surname), sqlutil.ToSqlInt64(p.Number), string(p.Position),
		sqlutil.ToSqlString(p.RG), sqlutil.ToSqlString(p.CPF),
		sqlutil.ToSqlString(p.Birthday), sqlutil.ToSqlString(p.Allergies),
		sqlutil.ToSqlTime(p.CreatedAt), sqlutil.ToSqlTime(p.UpdatedAt))
	if err != nil {
		return false, fmt.Errorf("failed to upsert player: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// CountPlayers returns pending and tombstoned counts
func (r *Repository) CountPlayers(ctx context.Context) (sqlutil.SyncCounts, error) {
	return sqlutil.CountSyncState(ctx, r.db, "players")
}

func (r *Repository) queryPlayers(ctx context.Context, query string, args ...any) ([]models.Player, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list players: %w", err)
	}
	defer rows.Close()

	var players []models.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan player: %w", err)
		}
		players = append(players, *p)
	}
	return players, rows.Err()
}

// scanPlayer converts a players row to the domain model
func scanPlayer(s sqlutil.Scanner) (*models.Player, error) {
	var (
		p                             models.Player
		surname, rg, cpf, bday, aller sql.NullString
		number                        sql.NullInt64
		position, status              string
		createdAt, updatedAt          string
		deleted                       int
	)
	if err := s.Scan(&p.ID, &p.TeamID, &p.Name, &surname, &number, &position,
		&rg, &cpf, &bday, &aller, &createdAt, &updatedAt, &status, &deleted); err != nil {
		return nil, err
	}
	p.Surname = sqlutil.FromSqlStringPtr(surname)
	p.Number = sqlutil.FromSqlInt64(number)
	p.Position = models.Position(position)
	p.RG = sqlutil.FromSqlStringPtr(rg)
	p.CPF = sqlutil.FromSqlStringPtr(cpf)
	p.Birthday = sqlutil.FromSqlStringPtr(bday)
	p.Allergies = sqlutil.FromSqlStringPtr(aller)
	p.CreatedAt = sqlutil.FromSqlTime(createdAt)
	p.UpdatedAt = sqlutil.FromSqlTime(updatedAt)
	p.SyncStatus = models.SyncStatus(status)
	p.Deleted = deleted != 0
	return &p, nil
}

func requireRow(res sql.Result, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("player %s: %w", id, models.ErrNotFound)
	}
	return nil
}
