package syncer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mcdev12/scout/go/internal/models"
	"github.com/mcdev12/scout/go/internal/remote"
)

// Wire shapes of the remote documents. Local-only fields (sync status,
// tombstone) never appear here; decoding rejects fields not listed.

type teamDoc struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type playerDoc struct {
	ID        string  `json:"id"`
	TeamID    string  `json:"teamId"`
	Name      string  `json:"name"`
	Surname   *string `json:"surname"`
	Number    *int    `json:"number"`
	Position  string  `json:"position"`
	RG        *string `json:"rg"`
	CPF       *string `json:"cpf"`
	Birthday  *string `json:"birthday"`
	Allergies *string `json:"allergies"`
	CreatedAt string  `json:"createdAt"`
	UpdatedAt string  `json:"updatedAt"`
}

type matchDoc struct {
	ID           string  `json:"id"`
	TeamID       string  `json:"teamId"`
	OpponentName string  `json:"opponentName"`
	Date         string  `json:"date"`
	Location     *string `json:"location"`
	// Scores are informational for remote viewers; local reads recount them.
	OurScore      int    `json:"ourScore"`
	OpponentScore int    `json:"opponentScore"`
	CurrentSet    int    `json:"currentSet"`
	IsFinished    bool   `json:"isFinished"`
	CreatedAt     string `json:"createdAt"`
	UpdatedAt     string `json:"updatedAt"`
}

type actionDoc struct {
	ID          string  `json:"id"`
	MatchID     string  `json:"matchId"`
	PlayerID    *string `json:"playerId"`
	SetNumber   int     `json:"setNumber"`
	ActionType  string  `json:"actionType"`
	Quality     int     `json:"quality"`
	ScoreChange int     `json:"scoreChange"`
	Timestamp   string  `json:"timestamp"`
}

func encodeTeam(t models.Team) remote.Document {
	return remote.Document{
		"id":        t.ID,
		"name":      t.Name,
		"color":     t.Color,
		"createdAt": models.FormatTime(t.CreatedAt),
		"updatedAt": models.FormatTime(t.UpdatedAt),
	}
}

func encodePlayer(p models.Player) remote.Document {
	return remote.Document{
		"id":        p.ID,
		"teamId":    p.TeamID,
		"name":      p.Name,
		"surname":   strOrNil(p.Surname),
		"number":    intOrNil(p.Number),
		"position":  string(p.Position),
		"rg":        strOrNil(p.RG),
		"cpf":       strOrNil(p.CPF),
		"birthday":  strOrNil(p.Birthday),
		"allergies": strOrNil(p.Allergies),
		"createdAt": models.FormatTime(p.CreatedAt),
		"updatedAt": models.FormatTime(p.UpdatedAt),
	}
}

// encodeMatch uses the settled score, not the live one
func encodeMatch(m models.Match, settled settledScore) remote.Document {
	return remote.Document{
		"id":            m.ID,
		"teamId":        m.TeamID,
		"opponentName":  m.OpponentName,
		"date":          models.FormatTime(m.Date),
		"location":      strOrNil(m.Location),
		"ourScore":      settled.ours,
		"opponentScore": settled.opponent,
		"currentSet":    m.CurrentSet,
		"isFinished":    m.IsFinished,
		"createdAt":     models.FormatTime(m.CreatedAt),
		"updatedAt":     models.FormatTime(m.UpdatedAt),
	}
}

func encodeAction(a models.MatchAction) remote.Document {
	return remote.Document{
		"id":          a.ID,
		"matchId":     a.MatchID,
		"playerId":    strOrNil(a.PlayerID),
		"setNumber":   a.SetNumber,
		"actionType":  string(a.ActionType),
		"quality":     a.Quality,
		"scoreChange": a.ScoreChange,
		"timestamp":   models.FormatTime(a.Timestamp),
	}
}

func decodeTeam(doc remote.Document) (models.Team, error) {
	var d teamDoc
	if err := decodeStrict(doc, &d); err != nil {
		return models.Team{}, err
	}
	if d.ID == "" || d.Name == "" {
		return models.Team{}, fmt.Errorf("%w: team document missing id or name", errMalformed)
	}
	createdAt, updatedAt, err := parseStamps(d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return models.Team{}, err
	}
	color := d.Color
	if color == "" {
		color = models.DefaultTeamColor
	}
	return models.Team{
		ID:        d.ID,
		Name:      d.Name,
		Color:     color,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func decodePlayer(doc remote.Document) (models.Player, error) {
	var d playerDoc
	if err := decodeStrict(doc, &d); err != nil {
		return models.Player{}, err
	}
	if d.ID == "" || d.TeamID == "" || d.Name == "" {
		return models.Player{}, fmt.Errorf("%w: player document missing id, teamId or name", errMalformed)
	}
	pos := models.Position(d.Position)
	if !pos.Valid() {
		return models.Player{}, fmt.Errorf("%w: unknown position %q", errMalformed, d.Position)
	}
	createdAt, updatedAt, err := parseStamps(d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return models.Player{}, err
	}
	return models.Player{
		ID:        d.ID,
		TeamID:    d.TeamID,
		Name:      d.Name,
		Surname:   d.Surname,
		Number:    d.Number,
		Position:  pos,
		RG:        d.RG,
		CPF:       d.CPF,
		Birthday:  d.Birthday,
		Allergies: d.Allergies,
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

func decodeMatch(doc remote.Document) (models.Match, error) {
	var d matchDoc
	if err := decodeStrict(doc, &d); err != nil {
		return models.Match{}, err
	}
	if d.ID == "" || d.TeamID == "" {
		return models.Match{}, fmt.Errorf("%w: match document missing id or teamId", errMalformed)
	}
	date, err := models.ParseTime(d.Date)
	if err != nil {
		return models.Match{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	createdAt, updatedAt, err := parseStamps(d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return models.Match{}, err
	}
	set := d.CurrentSet
	if set < 1 {
		set = 1
	}
	return models.Match{
		ID:           d.ID,
		TeamID:       d.TeamID,
		OpponentName: d.OpponentName,
		Date:         date,
		Location:     d.Location,
		CurrentSet:   set,
		IsFinished:   d.IsFinished,
		CreatedAt:    createdAt,
		UpdatedAt:    updatedAt,
	}, nil
}

func decodeAction(doc remote.Document) (models.MatchAction, error) {
	var d actionDoc
	if err := decodeStrict(doc, &d); err != nil {
		return models.MatchAction{}, err
	}
	if d.ID == "" || d.MatchID == "" {
		return models.MatchAction{}, fmt.Errorf("%w: action document missing id or matchId", errMalformed)
	}
	t := models.ActionType(d.ActionType)
	switch {
	case !t.Valid():
		return models.MatchAction{}, fmt.Errorf("%w: unknown action type %q", errMalformed, d.ActionType)
	case d.SetNumber < 1:
		return models.MatchAction{}, fmt.Errorf("%w: set number %d", errMalformed, d.SetNumber)
	case d.Quality < models.MinQuality || d.Quality > models.MaxQuality:
		return models.MatchAction{}, fmt.Errorf("%w: quality %d", errMalformed, d.Quality)
	case d.ScoreChange < -1 || d.ScoreChange > 1:
		return models.MatchAction{}, fmt.Errorf("%w: score change %d", errMalformed, d.ScoreChange)
	}
	ts, err := models.ParseTime(d.Timestamp)
	if err != nil {
		return models.MatchAction{}, fmt.Errorf("%w: %v", errMalformed, err)
	}
	return models.MatchAction{
		ID:          d.ID,
		MatchID:     d.MatchID,
		PlayerID:    d.PlayerID,
		SetNumber:   d.SetNumber,
		ActionType:  t,
		Quality:     d.Quality,
		ScoreChange: d.ScoreChange,
		Timestamp:   ts,
	}, nil
}

// decodeStrict decodes doc into out, failing on fields out does not declare.
// The store-managed change stamp and Mongo key are not business fields.
func decodeStrict(doc remote.Document, out any) error {
	body := make(map[string]any, len(doc))
	for k, v := range doc {
		if k == remote.ChangedAtField || k == "_id" {
			continue
		}
		body[k] = v
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", errMalformed, err)
	}
	return nil
}

func parseStamps(created, updated string) (time.Time, time.Time, error) {
	c, err := models.ParseTime(created)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: createdAt: %v", errMalformed, err)
	}
	if updated == "" {
		return c, c, nil
	}
	u, err := models.ParseTime(updated)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: updatedAt: %v", errMalformed, err)
	}
	return c, u, nil
}

func strOrNil(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func intOrNil(i *int) any {
	if i == nil {
		return nil
	}
	return *i
}
