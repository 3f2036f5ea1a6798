package player

import (
	"time"

	"github.com/mcdev12/scout/go/internal/models"
)

// CreatePlayerRequest contains all data needed to create a player
type CreatePlayerRequest struct {
	TeamID    string          `json:"team_id"`
	Name      string          `json:"name"`
	Surname   *string         `json:"surname,omitempty"`
	Number    *int            `json:"number,omitempty"`
	Position  models.Position `json:"position"`
	RG        *string         `json:"rg,omitempty"`
	CPF       *string         `json:"cpf,omitempty"`
	Birthday  *string         `json:"birthday,omitempty"`
	Allergies *string         `json:"allergies,omitempty"`
}

// UpdatePlayerRequest holds the fields to merge; nil means unchanged
type UpdatePlayerRequest struct {
	Name      *string          `json:"name,omitempty"`
	Surname   *string          `json:"surname,omitempty"`
	Number    *int             `json:"number,omitempty"`
	Position  *models.Position `json:"position,omitempty"`
	RG        *string          `json:"rg,omitempty"`
	CPF       *string          `json:"cpf,omitempty"`
	Birthday  *string          `json:"birthday,omitempty"`
	Allergies *string          `json:"allergies,omitempty"`
}

// BirthdayEntry is a player whose birthday falls in the queried month
type BirthdayEntry struct {
	Player models.Player `json:"player"`
	Day    int           `json:"day"`
}

// birthdayLayouts are the formats accepted from the roster form
var birthdayLayouts = []string{"2006-01-02", "02/01/2006"}

func parseBirthday(s string) (time.Time, bool) {
	for _, layout := range birthdayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
