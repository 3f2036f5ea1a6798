package player

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/mcdev12/scout/go/internal/apiutil"
	"github.com/mcdev12/scout/go/internal/models"
)

// PlayerApp defines what the service layer needs from the player application
type PlayerApp interface {
	Create(ctx context.Context, req CreatePlayerRequest) (*models.Player, error)
	Get(ctx context.Context, id string) (*models.Player, error)
	ListActiveByTeam(ctx context.Context, teamID string) ([]models.Player, error)
	Update(ctx context.Context, id string, req UpdatePlayerRequest) (*models.Player, error)
	SoftDelete(ctx context.Context, id string) error
	ListByBirthdayMonth(ctx context.Context, month time.Month) ([]BirthdayEntry, error)
}

// Service exposes players over JSON HTTP
type Service struct {
	app PlayerApp
}

// NewService creates a new player HTTP service
func NewService(app PlayerApp) *Service {
	return &Service{app: app}
}

// RegisterRoutes mounts the player endpoints on mux
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/players", s.CreatePlayer)
	mux.HandleFunc("GET /api/players/birthdays", s.ListBirthdays)
	mux.HandleFunc("GET /api/players/{id}", s.GetPlayer)
	mux.HandleFunc("PATCH /api/players/{id}", s.UpdatePlayer)
	mux.HandleFunc("DELETE /api/players/{id}", s.DeletePlayer)
	mux.HandleFunc("GET /api/teams/{id}/players", s.ListTeamPlayers)
}

// CreatePlayer adds a player to a team
func (s *Service) CreatePlayer(w http.ResponseWriter, r *http.Request) {
	var req CreatePlayerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}

	p, err := s.app.Create(r.Context(), req)
	if err != nil {
		apiutil.WriteError(w, err, ErrUnknownTeam)
		return
	}
	apiutil.WriteJSON(w, http.StatusCreated, p)
}

// GetPlayer retrieves a player by ID
func (s *Service) GetPlayer(w http.ResponseWriter, r *http.Request) {
	p, err := s.app.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, p)
}

// ListTeamPlayers lists the active roster of a team
func (s *Service) ListTeamPlayers(w http.ResponseWriter, r *http.Request) {
	players, err := s.app.ListActiveByTeam(r.Context(), r.PathValue("id"))
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	if players == nil {
		players = []models.Player{}
	}
	apiutil.WriteJSON(w, http.StatusOK, players)
}

// UpdatePlayer merges the provided fields into a player
func (s *Service) UpdatePlayer(w http.ResponseWriter, r *http.Request) {
	var req UpdatePlayerRequest
	if err := apiutil.DecodeJSON(r, &req); err != nil {
		apiutil.WriteError(w, err)
		return
	}

	p, err := s.app.Update(r.Context(), r.PathValue("id"), req)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	apiutil.WriteJSON(w, http.StatusOK, p)
}

// DeletePlayer tombstones a player
func (s *Service) DeletePlayer(w http.ResponseWriter, r *http.Request) {
	if err := s.app.SoftDelete(r.Context(), r.PathValue("id")); err != nil {
		apiutil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListBirthdays lists players born in ?month=1..12, defaulting to the current month
func (s *Service) ListBirthdays(w http.ResponseWriter, r *http.Request) {
	month := time.Now().Month()
	if raw := r.URL.Query().Get("month"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			apiutil.WriteError(w, fmt.Errorf("%w: month must be a number", models.ErrValidation))
			return
		}
		month = time.Month(n)
	}

	entries, err := s.app.ListByBirthdayMonth(r.Context(), month)
	if err != nil {
		apiutil.WriteError(w, err)
		return
	}
	if entries == nil {
		entries = []BirthdayEntry{}
	}
	apiutil.WriteJSON(w, http.StatusOK, entries)
}
