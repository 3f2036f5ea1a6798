package models

import (
	"errors"
	"fmt"
	"time"
)

// SyncStatus tracks whether a row matches its remote document
type SyncStatus string

const (
	SyncPending SyncStatus = "pending"
	SyncSynced  SyncStatus = "synced"
)

var (
	// ErrNotFound is returned when an active row does not exist
	ErrNotFound = errors.New("not found")
	// ErrValidation is returned when input fails validation
	ErrValidation = errors.New("validation failed")
)

// TimeLayout is a fixed-width ISO-8601 UTC layout. Values formatted with it
// compare lexicographically in time order.
const TimeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime renders t in TimeLayout
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// ParseTime accepts TimeLayout and any RFC3339 variant
func ParseTime(s string) (time.Time, error) {
	if t, err := time.Parse(TimeLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t.UTC(), nil
}
