package player

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scout/go/internal/models"
)

// TeamApp is what the player app needs to check team references
type TeamApp interface {
	Get(ctx context.Context, id string) (*models.Team, error)
}

// App handles player business logic
type App struct {
	repo    *Repository
	teamApp TeamApp
	clock   clockwork.Clock
}

// NewApp creates a new player App
func NewApp(repo *Repository, teamApp TeamApp, clock clockwork.Clock) *App {
	return &App{
		repo:    repo,
		teamApp: teamApp,
		clock:   clock,
	}
}

// Create creates a new pending player on an active team
func (a *App) Create(ctx context.Context, req CreatePlayerRequest) (*models.Player, error) {
	if err := a.validateCreatePlayerRequest(req); err != nil {
		return nil, err
	}
	if err := a.requireTeam(ctx, req.TeamID); err != nil {
		return nil, err
	}

	now := a.clock.Now()
	player, err := a.repo.CreatePlayer(ctx, models.Player{
		ID:        uuid.NewString(),
		TeamID:    req.TeamID,
		Name:      strings.TrimSpace(req.Name),
		Surname:   req.Surname,
		Number:    req.Number,
		Position:  req.Position,
		RG:        req.RG,
		CPF:       req.CPF,
		Birthday:  req.Birthday,
		Allergies: req.Allergies,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Str("player_id", player.ID).Str("team_id", player.TeamID).Msg("created player")
	return player, nil
}

// Get retrieves an active player by ID
func (a *App) Get(ctx context.Context, id string) (*models.Player, error) {
	return a.repo.GetPlayer(ctx, id)
}

// ListActiveByTeam lists the active roster of a team
func (a *App) ListActiveByTeam(ctx context.Context, teamID string) ([]models.Player, error) {
	return a.repo.ListActiveByTeam(ctx, teamID)
}

// Update merges the non-nil fields of req into the player
func (a *App) Update(ctx context.Context, id string, req UpdatePlayerRequest) (*models.Player, error) {
	if err := a.validateUpdatePlayerRequest(req); err != nil {
		return nil, err
	}

	p, err := a.repo.GetPlayer(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Surname != nil {
		p.Surname = req.Surname
	}
	if req.Number != nil {
		p.Number = req.Number
	}
	if req.Position != nil {
		p.Position = *req.Position
	}
	if req.RG != nil {
		p.RG = req.RG
	}
	if req.CPF != nil {
		p.CPF = req.CPF
	}
	if req.Birthday != nil {
		p.Birthday = req.Birthday
	}
	if req.Allergies != nil {
		p.Allergies = req.Allergies
	}
	p.UpdatedAt = a.clock.Now()

	return a.repo.UpdatePlayer(ctx, *p)
}

// SoftDelete tombstones a player
func (a *App) SoftDelete(ctx context.Context, id string) error {
	if err := a.repo.SoftDeletePlayer(ctx, id, a.clock.Now()); err != nil {
		return err
	}
	log.Info().Str("player_id", id).Msg("deleted player")
	return nil
}

// ListByBirthdayMonth returns active players born in month, ordered by day.
// Birthdays that do not parse are skipped.
func (a *App) ListByBirthdayMonth(ctx context.Context, month time.Month) ([]BirthdayEntry, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month out of range: %d", models.ErrValidation, month)
	}

	players, err := a.repo.ListActiveWithBirthday(ctx)
	if err != nil {
		return nil, err
	}

	var entries []BirthdayEntry
	for _, p := range players {
		t, ok := parseBirthday(*p.Birthday)
		if !ok || t.Month() != month {
			continue
		}
		entries = append(entries, BirthdayEntry{Player: p, Day: t.Day()})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Day < entries[j].Day
	})
	return entries, nil
}

func (a *App) requireTeam(ctx context.Context, teamID string) error {
	if _, err := a.teamApp.Get(ctx, teamID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrUnknownTeam, teamID)
		}
		return err
	}
	return nil
}

// validateCreatePlayerRequest validates create player request
func (a *App) validateCreatePlayerRequest(req CreatePlayerRequest) error {
	if req.TeamID == "" {
		return fmt.Errorf("%w: team_id is required", models.ErrValidation)
	}
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	if !req.Position.Valid() {
		return fmt.Errorf("%w: unknown position %q", models.ErrValidation, req.Position)
	}
	return validateOptional(req.Number, req.Birthday)
}

func (a *App) validateUpdatePlayerRequest(req UpdatePlayerRequest) error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", models.ErrValidation)
	}
	if req.Position != nil && !req.Position.Valid() {
		return fmt.Errorf("%w: unknown position %q", models.ErrValidation, *req.Position)
	}
	return validateOptional(req.Number, req.Birthday)
}

func validateOptional(number *int, birthday *string) error {
	if number != nil && (*number < 0 || *number > 99) {
		return fmt.Errorf("%w: number must be between 0 and 99", models.ErrValidation)
	}
	if birthday != nil && *birthday != "" {
		if _, ok := parseBirthday(*birthday); !ok {
			return fmt.Errorf("%w: birthday must be YYYY-MM-DD or DD/MM/YYYY", models.ErrValidation)
		}
	}
	return nil
}
