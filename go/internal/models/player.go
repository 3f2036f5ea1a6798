package models

import (
	"fmt"
	"time"
)

// Position is one of the five fixed court positions
type Position string

const (
	PositionPonteiro   Position = "Ponteiro"
	PositionCentral    Position = "Central"
	PositionOposto     Position = "Oposto"
	PositionLevantador Position = "Levantador"
	PositionLibero     Position = "Líbero"
)

// Positions lists every valid position in roster order
var Positions = []Position{
	PositionPonteiro,
	PositionCentral,
	PositionOposto,
	PositionLevantador,
	PositionLibero,
}

// Valid reports whether p is one of the known positions
func (p Position) Valid() bool {
	for _, known := range Positions {
		if p == known {
			return true
		}
	}
	return false
}

// ParsePosition converts a raw string into a Position
func ParsePosition(s string) (Position, error) {
	p := Position(s)
	if !p.Valid() {
		return "", fmt.Errorf("%w: unknown position %q", ErrValidation, s)
	}
	return p, nil
}

// Player represents a team member
type Player struct {
	ID         string     `json:"id"`
	TeamID     string     `json:"team_id"`
	Name       string     `json:"name"`
	Surname    *string    `json:"surname,omitempty"`
	Number     *int       `json:"number,omitempty"`
	Position   Position   `json:"position"`
	RG         *string    `json:"rg,omitempty"`
	CPF        *string    `json:"cpf,omitempty"`
	Birthday   *string    `json:"birthday,omitempty"` // YYYY-MM-DD or DD/MM/YYYY as typed
	Allergies  *string    `json:"allergies,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
	SyncStatus SyncStatus `json:"sync_status"`
	Deleted    bool       `json:"deleted"`
}

// DisplayName returns the surname when present, else the name
func (p *Player) DisplayName() string {
	if p.Surname != nil && *p.Surname != "" {
		return *p.Surname
	}
	return p.Name
}
