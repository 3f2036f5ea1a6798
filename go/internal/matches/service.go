package matches

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/mcdev12/scout/go/internal/apiutil"
	"github.com/mcdev12/scout/go/internal/models"
	"github.com/mcdev12/scout/go/internal/stats"
)

// MatchApp defines what the service layer needs from the matches application
type MatchApp interface {
	Create(ctx context.Context, req CreateMatchRequest) (*models.Match, error)
	Get(ctx context.Context, id string) (*models.Match, error)
	ListActive(ctx context.Context, filter MatchFilter) ([]models.Match, error)
	Update(ctx context.Context, id string, req UpdateMatchRequest) (*models.Match, error)
	AdvanceSet(ctx context.Context, id string) (*models.Match, error)
	Finish(ctx context.Context, id string) (*models.Match, error)
	SoftDelete(ctx context.Context, id string) error
	AddAction(ctx context.Context, req AddActionRequest) (*models.MatchAction, error)
	UndoLastAction(ctx context.Context, matchID string) (*models.MatchAction, error)
	ListActions(ctx context.Context, matchID string) ([]models.MatchAction, error)
}

// RosterApp resolves the players named in a match report
type RosterApp interface {
	ListActiveByTeam(ctx context.Context, teamID string) ([]models.Player, error)
}

// Service exposes matches and scouting over JSON HTTP
type Service struct {
	app    MatchApp
	roster RosterApp
}

// NewService creates a new matches HTTP service
func NewService(app MatchApp, roster RosterApp) *Service {
	return &Service{app: app, roster: roster}
}

// scoutingConflicts map to 409
var scoutingConflicts = []error{ErrMatchFinished, ErrSetRegression, ErrNoActions}

// RegisterRoutes mounts the match endpoints on mux
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/matches", s.CreateMatch)
	mux.HandleFunc("GET /api/matches", s.ListMatches)
	mux.HandleFunc("GET /api/matches/{id}", s.GetMatch)
	mux.HandleFunc("PATCH /api/matches/{id}", s.UpdateMatch)
	mux.HandleFunc("DELETE /api/matches/{id}", s.DeleteMatch)
	mux.HandleFunc("POST /api/matches/{id}/advance-set", s.AdvanceSet)
	mux.HandleFunc("POST /api/matches/{id}/finish", s.FinishMatch)
	mux.HandleFunc("POST /api/matches/{id}/actions", s.AddAction)
	mux.HandleFunc("GET /api/matches/{id}/actions", s.ListActions)
	mux.HandleFunc("DELETE /api/matches/{id}/actions/last", s.UndoLastAction)
	mux.HandleFunc("GET /api/matches/{id}/report", s.GetReport)
}

// CreateMatch schedules a match
func (s *Service) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req CreateMatchRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}

	m, err := s.app.Create(r.Context(), req)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusCreated, m)
}

// ListMatches lists active matches, optionally by ?team_id= and ?finished=
func (s *Service) ListMatches(w http.ResponseWriter, r *http.Request) {
	var filter MatchFilter
	q := r.URL.Query()
	if teamID := q.Get("team_id"); teamID != "" {
		filter.TeamID = &teamID
	}
	if raw := q.Get("finished"); raw != "" {
		finished, err := strconv.ParseBool(raw)
		if err != nil {
			apiutil.WriteError(w, fmt.Errorf("%w: finished must be a boolean", models.ErrValidation))
			return
		}
		filter.IsFinished = &finished
	}

	list, err := s.app.ListActive(r.Context(), filter)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	if list == nil {
		list = []models.Match{}
	}
	apiutil.WriteJSON(w, http.StatusOK, list)
}

// GetMatch retrieves a match with its aggregated score
func (s *Service) GetMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.app.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, m)
}

// UpdateMatch merges the provided fields into a match
func (s *Service) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	var req UpdateMatchRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}

	m, err := s.app.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, m)
}

// DeleteMatch tombstones a match and its actions
func (s *Service) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := s.app.SoftDelete(r.Context(), r.PathValue("id")); err != nil {
		apiutil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AdvanceSet moves scouting to the next set
func (s *Service) AdvanceSet(w http.ResponseWriter, r *http.Request) {
	m, err := s.app.AdvanceSet(r.Context(), r.PathValue("id"))
	if err != nil {
		apiutil.WriteError(w, err, scoutingConflicts...)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, m)
}

// FinishMatch ends a match
func (s *Service) FinishMatch(w http.ResponseWriter, r *http.Request) {
	m, err := s.app.Finish(r.Context(), r.PathValue("id"))
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, m)
}

// AddAction records a scouted touch on the match in the path
func (s *Service) AddAction(w http.ResponseWriter, r *http.Request) {
	var req AddActionRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}
	req.MatchID = r.PathValue("id")

	a, err := s.app.AddAction(r.Context(), req)
	if err != nil {
		apiutil.WriteError(w, err, scoutingConflicts...)
		return
	}
	apiutil.WriteJSON(w, http.StatusCreated, a)
}

// ListActions lists the live actions of a match
func (s *Service) ListActions(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.app.Get(r.Context(), id); err != nil {
		apiutil.WriteError(w, err)
		return
	}

	actions, err := s.app.ListActions(r.Context(), id)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	if actions == nil {
		actions = []models.MatchAction{}
	}
	apiutil.WriteJSON(w, http.StatusOK, actions)
}

// UndoLastAction removes the most recent action
func (s *Service) UndoLastAction(w http.ResponseWriter, r *http.Request) {
	a, err := s.app.UndoLastAction(r.Context(), r.PathValue("id"))
	if err != nil {
		apiutil.WriteError(w, err, scoutingConflicts...)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, a)
}

// GetReport builds the scouting report of a match
func (s *Service) GetReport(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	m, err := s.app.Get(ctx, r.PathValue("id"))
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	actions, err := s.app.ListActions(ctx, m.ID)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	players, err := s.roster.ListActiveByTeam(ctx, m.TeamID)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, stats.BuildMatchReport(m, actions, players))
}
