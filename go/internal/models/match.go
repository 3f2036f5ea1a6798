package models

import (
	"time"
)

// Match represents a single game against an opponent.
// OurScore and OpponentScore are aggregated from actions at read time.
type Match struct {
	ID            string     `json:"id"`
	TeamID        string     `json:"team_id"`
	OpponentName  string     `json:"opponent_name"`
	Date          time.Time  `json:"date"`
	Location      *string    `json:"location,omitempty"`
	OurScore      int        `json:"our_score"`
	OpponentScore int        `json:"opponent_score"`
	CurrentSet    int        `json:"current_set"`
	IsFinished    bool       `json:"is_finished"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	SyncStatus    SyncStatus `json:"sync_status"`
	Deleted       bool       `json:"deleted"`
}
