package matches

import (
	"errors"
	"time"

	"github.com/mcdev12/scout/go/internal/models"
)

var (
	// ErrMatchFinished is returned when scouting a match that has ended
	ErrMatchFinished = errors.New("match is finished")
	// ErrSetRegression is returned when an action targets a set before the active one
	ErrSetRegression = errors.New("set number cannot go backwards")
	// ErrNoActions is returned by UndoLastAction on a match without actions
	ErrNoActions = errors.New("match has no actions")
)

// CreateMatchRequest contains the data needed to schedule a match
type CreateMatchRequest struct {
	TeamID       string    `json:"team_id"`
	OpponentName string    `json:"opponent_name"`
	Date         time.Time `json:"date"`
	Location     *string   `json:"location,omitempty"`
}

// UpdateMatchRequest holds the match fields to merge; nil means unchanged
type UpdateMatchRequest struct {
	OpponentName *string    `json:"opponent_name,omitempty"`
	Date         *time.Time `json:"date,omitempty"`
	Location     *string    `json:"location,omitempty"`
}

// MatchFilter narrows ListActive
type MatchFilter struct {
	TeamID     *string `json:"team_id,omitempty"`
	IsFinished *bool   `json:"is_finished,omitempty"`
}

// AddActionRequest records one scouted touch.
// SetNumber defaults to the match's current set and ScoreChange is derived
// from the action type and quality when nil.
type AddActionRequest struct {
	MatchID     string            `json:"match_id"`
	PlayerID    *string           `json:"player_id,omitempty"`
	SetNumber   *int              `json:"set_number,omitempty"`
	ActionType  models.ActionType `json:"action_type"`
	Quality     int               `json:"quality"`
	ScoreChange *int              `json:"score_change,omitempty"`
}

// Score is the aggregated scoreline of a match or set
type Score struct {
	Ours     int `json:"ours"`
	Opponent int `json:"opponent"`
}
