package teams

import (
	"context"
	"net/http"

	"github.com/mcdev12/scout/go/internal/apiutil"
	"github.com/mcdev12/scout/go/internal/models"
)

// TeamsApp defines what the service layer needs from the teams application
type TeamsApp interface {
	Create(ctx context.Context, req CreateTeamRequest) (*models.Team, error)
	Get(ctx context.Context, id string) (*models.Team, error)
	ListActive(ctx context.Context, filter TeamFilter) ([]models.Team, error)
	Update(ctx context.Context, id string, req UpdateTeamRequest) (*models.Team, error)
	SoftDelete(ctx context.Context, id string) error
}

// Service exposes teams over JSON HTTP
type Service struct {
	app TeamsApp
}

// NewService creates a new teams HTTP service
func NewService(app TeamsApp) *Service {
	return &Service{
		app: app,
	}
}

// RegisterRoutes mounts the team endpoints on mux
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/teams", s.CreateTeam)
	mux.HandleFunc("GET /api/teams", s.ListTeams)
	mux.HandleFunc("GET /api/teams/{id}", s.GetTeam)
	mux.HandleFunc("PATCH /api/teams/{id}", s.UpdateTeam)
	mux.HandleFunc("DELETE /api/teams/{id}", s.DeleteTeam)
}

// CreateTeam creates a new team
func (s *Service) CreateTeam(w http.ResponseWriter, r *http.Request) {
	var req CreateTeamRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}

	team, err := s.app.Create(r.Context(), req)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusCreated, team)
}

// GetTeam retrieves a team by ID
func (s *Service) GetTeam(w http.ResponseWriter, r *http.Request) {
	team, err := s.app.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, team)
}

// ListTeams lists active teams, optionally filtered by ?name=
func (s *Service) ListTeams(w http.ResponseWriter, r *http.Request) {
	var filter TeamFilter
	if name := r.URL.Query().Get("name"); name != "" {
		filter.NameContains = &name
	}

	teams, err := s.app.ListActive(r.Context(), filter)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	if teams == nil {
		teams = []models.Team{}
	}
	apiutil.WriteJSON(w, http.StatusOK, teams)
}

// UpdateTeam merges the provided fields into a team
func (s *Service) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	var req UpdateTeamRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}

	team, err := s.app.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, team)
}

// DeleteTeam tombstones a team and its roster
func (s *Service) DeleteTeam(w http.ResponseWriter, r *http.Request) {
	if err := s.app.SoftDelete(r.Context(), r.PathValue("id")); err != nil {
		apiutil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
