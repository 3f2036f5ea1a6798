package sqlutil

import (
	"context"
	"fmt"
)

// Scanner is implemented by *sql.Row and *sql.Rows
type Scanner interface {
	Scan(dest ...any) error
}

// SyncCounts summarizes outstanding sync work for one table
type SyncCounts struct {
	Pending    int `json:"pending"`
	Tombstoned int `json:"tombstoned"`
}

// QueryIDs runs a single-column id query
func QueryIDs(ctx context.Context, q DBTX, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// CountSyncState counts live pending rows and tombstones in table.
// table must be a trusted identifier.
func CountSyncState(ctx context.Context, q DBTX, table string) (SyncCounts, error) {
	var c SyncCounts
	err := q.QueryRowContext(ctx, fmt.Sprintf(`
	SELECT
		COALESCE(SUM(CASE WHEN deleted = 0 AND sync_status = 'pending' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN deleted = 1 THEN 1 ELSE 0 END), 0)
	FROM %s`, table)).Scan(&c.Pending, &c.Tombstoned)
	if err != nil {
		return SyncCounts{}, fmt.Errorf("failed to count %s: %w", table, err)
	}
	return c, nil
}
