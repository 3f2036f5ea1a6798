package models

import (
	"fmt"
	"time"
)

// ActionType is a scouted fundamental or a synthetic opponent event
type ActionType string

const (
	ActionSaque        ActionType = "Saque"
	ActionPasse        ActionType = "Passe"
	ActionLevantamento ActionType = "Levantamento"
	ActionAtaque       ActionType = "Ataque"
	ActionBloqueio     ActionType = "Bloqueio"
	ActionDefesa       ActionType = "Defesa"

	// Generic events carry no player.
	ActionOpponentError ActionType = "Erro Adversário"
	ActionOpponentPoint ActionType = "Ponto Adversário"
)

// Fundamentals lists the player-attributed action types
var Fundamentals = []ActionType{
	ActionSaque,
	ActionPasse,
	ActionLevantamento,
	ActionAtaque,
	ActionBloqueio,
	ActionDefesa,
}

// IsFundamental reports whether t is attributed to a player
func (t ActionType) IsFundamental() bool {
	for _, f := range Fundamentals {
		if t == f {
			return true
		}
	}
	return false
}

// Valid reports whether t is a known action type
func (t ActionType) Valid() bool {
	return t.IsFundamental() || t == ActionOpponentError || t == ActionOpponentPoint
}

// ParseActionType converts a raw string into an ActionType
func ParseActionType(s string) (ActionType, error) {
	t := ActionType(s)
	if !t.Valid() {
		return "", fmt.Errorf("%w: unknown action type %q", ErrValidation, s)
	}
	return t, nil
}

const (
	MinQuality = 0
	MaxQuality = 3
)

// MatchAction is one scouted touch within a set
type MatchAction struct {
	ID          string     `json:"id"`
	MatchID     string     `json:"match_id"`
	PlayerID    *string    `json:"player_id,omitempty"`
	SetNumber   int        `json:"set_number"`
	ActionType  ActionType `json:"action_type"`
	Quality     int        `json:"quality"`
	ScoreChange int        `json:"score_change"`
	Timestamp   time.Time  `json:"timestamp"`
	SyncStatus  SyncStatus `json:"sync_status"`
	Deleted     bool       `json:"deleted"`
}

// ScoreChangeFor derives the point outcome of an action.
// A top quality attack, block or serve scores for us; a zero quality touch
// gives the point away. Opponent events are fixed.
func ScoreChangeFor(t ActionType, quality int) int {
	switch t {
	case ActionOpponentError:
		return 1
	case ActionOpponentPoint:
		return -1
	}
	if quality == MaxQuality && (t == ActionAtaque || t == ActionBloqueio || t == ActionSaque) {
		return 1
	}
	if quality == MinQuality {
		return -1
	}
	return 0
}
