package teams

import (
	"time"
)

// CreateTeamRequest represents the data needed to create a new team
type CreateTeamRequest struct {
	Name  string  `json:"name" validate:"required"`
	Color *string `json:"color,omitempty"`
}

// UpdateTeamRequest represents the data that can be updated for a team
type UpdateTeamRequest struct {
	Name  *string `json:"name,omitempty"`
	Color *string `json:"color,omitempty"`
}

// TeamFilter represents filtering options for active team listings
type TeamFilter struct {
	NameContains *string `json:"name_contains,omitempty"`
}

// insertTeamParams is the row written by Repository.CreateTeam
type insertTeamParams struct {
	ID        string
	Name      string
	Color     string
	CreatedAt time.Time
}

// updateTeamParams is the merged row written by Repository.UpdateTeam
type updateTeamParams struct {
	ID        string
	Name      string
	Color     string
	UpdatedAt time.Time
}
