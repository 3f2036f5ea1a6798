package models

import (
	"time"
)

// DefaultTeamColor is used when a team is created without a color.
const DefaultTeamColor = "#2196F3"

// Team represents a volleyball team coached on this device
type Team struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Color      string     `json:"color"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	SyncStatus SyncStatus `json:"sync_status"`
	Deleted    bool       `json:"deleted"`
}
