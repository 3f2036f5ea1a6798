package sqlutil

import (
	"database/sql"
	"time"

	"github.com/mcdev12/scout/go/internal/models"
)

// Helper functions for converting between Go types and sql.Null* types

// ToSqlInt64 converts a Go int pointer to sql.NullInt64
func ToSqlInt64(val *int) sql.NullInt64 {
	if val == nil {
		return sql.NullInt64{Valid: false}
	}
	return sql.NullInt64{Int64: int64(*val), Valid: true}
}

// ToSqlString converts a Go string pointer to sql.NullString
func ToSqlString(val *string) sql.NullString {
	if val == nil {
		return sql.NullString{Valid: false}
	}
	return sql.NullString{String: *val, Valid: true}
}

// FromSqlInt64 converts sql.NullInt64 to Go int pointer
func FromSqlInt64(val sql.NullInt64) *int {
	if !val.Valid {
		return nil
	}
	i := int(val.Int64)
	return &i
}

// FromSqlStringPtr converts sql.NullString to Go string pointer
func FromSqlStringPtr(val sql.NullString) *string {
	if !val.Valid {
		return nil
	}
	return &val.String
}

// ToSqlTime renders a time as the fixed-width TEXT stored in SQLite
func ToSqlTime(t time.Time) string {
	return models.FormatTime(t)
}

// FromSqlTime parses a TEXT timestamp; malformed values become the zero time
func FromSqlTime(val string) time.Time {
	t, err := models.ParseTime(val)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ToSqlBool maps a bool to SQLite's INTEGER convention
func ToSqlBool(b bool) int {
	if b {
		return 1
	}
	return 0
}
