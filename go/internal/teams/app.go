package teams

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scout/go/internal/models"
	"github.com/mcdev12/scout/go/internal/sqlutil"
)

var colorPattern = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// PlayerTombstoner cascades a team deletion onto its roster
type PlayerTombstoner interface {
	TombstoneByTeam(ctx context.Context, q sqlutil.DBTX, teamID string, at time.Time) (int64, error)
}

// App handles teams business logic
type App struct {
	db      *sql.DB
	repo    *Repository
	players PlayerTombstoner
	clock   clockwork.Clock
}

// NewApp creates a new teams App
func NewApp(db *sql.DB, players PlayerTombstoner, clock clockwork.Clock) *App {
	return &App{
		db:      db,
		repo:    NewRepository(db),
		players: players,
		clock:   clock,
	}
}

// Repository exposes the underlying repository for the sync engine
func (a *App) Repository() *Repository {
	return a.repo
}

// Create creates a new pending team
func (a *App) Create(ctx context.Context, req CreateTeamRequest) (*models.Team, error) {
	if err := a.validateCreateTeamRequest(req); err != nil {
		return nil, err
	}

	color := models.DefaultTeamColor
	if req.Color != nil {
		color = *req.Color
	}

	team, err := a.repo.CreateTeam(ctx, insertTeamParams{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(req.Name),
		Color:     color,
		CreatedAt: a.clock.Now(),
	})
	if err != nil {
		return nil, err
	}

	log.Debug().Str("team_id", team.ID).Str("name", team.Name).Msg("created team")
	return team, nil
}

// Get retrieves an active team by ID
func (a *App) Get(ctx context.Context, id string) (*models.Team, error) {
	return a.repo.GetTeam(ctx, id)
}

// ListActive retrieves non-deleted teams
func (a *App) ListActive(ctx context.Context, filter TeamFilter) ([]models.Team, error) {
	return a.repo.ListActiveTeams(ctx, filter)
}

// Update merges the non-nil fields of req into the team
func (a *App) Update(ctx context.Context, id string, req UpdateTeamRequest) (*models.Team, error) {
	if err := a.validateUpdateTeamRequest(req); err != nil {
		return nil, err
	}

	current, err := a.repo.GetTeam(ctx, id)
	if err != nil {
		return nil, err
	}

	params := updateTeamParams{
		ID:        id,
		Name:      current.Name,
		Color:     current.Color,
		UpdatedAt: a.clock.Now(),
	}
	if req.Name != nil {
		params.Name = strings.TrimSpace(*req.Name)
	}
	if req.Color != nil {
		params.Color = *req.Color
	}

	return a.repo.UpdateTeam(ctx, params)
}

// SoftDelete tombstones the team and every active player on it in one
// transaction. Matches are independent and untouched.
func (a *App) SoftDelete(ctx context.Context, id string) error {
	now := a.clock.Now()
	var cascaded int64

	err := sqlutil.Run(ctx, a.db, func(tx *sql.Tx) error {
		if err := a.repo.WithTx(tx).SoftDeleteTeam(ctx, id, now); err != nil {
			return err
		}
		n, err := a.players.TombstoneByTeam(ctx, tx, id, now)
		if err != nil {
			return fmt.Errorf("failed to cascade delete to players: %w", err)
		}
		cascaded = n
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().Str("team_id", id).Int64("players", cascaded).Msg("deleted team")
	return nil
}

func (a *App) validateCreateTeamRequest(req CreateTeamRequest) error {
	if strings.TrimSpace(req.Name) == "" {
		return fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	if req.Color != nil && !colorPattern.MatchString(*req.Color) {
		return fmt.Errorf("%w: color must be #RRGGBB, got %q", models.ErrValidation, *req.Color)
	}
	return nil
}

func (a *App) validateUpdateTeamRequest(req UpdateTeamRequest) error {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return fmt.Errorf("%w: name cannot be empty", models.ErrValidation)
	}
	if req.Color != nil && !colorPattern.MatchString(*req.Color) {
		return fmt.Errorf("%w: color must be #RRGGBB, got %q", models.ErrValidation, *req.Color)
	}
	return nil
}
