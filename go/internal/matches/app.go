package matches

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scout/go/internal/models"
	"github.com/mcdev12/scout/go/internal/sqlutil"
)

// TeamApp checks team references
type TeamApp interface {
	Get(ctx context.Context, id string) (*models.Team, error)
}

// PlayerApp checks player references
type PlayerApp interface {
	Get(ctx context.Context, id string) (*models.Player, error)
}

// App handles match scouting business logic
type App struct {
	db        *sql.DB
	repo      *Repository
	teamApp   TeamApp
	playerApp PlayerApp
	clock     clockwork.Clock
}

// NewApp creates a new matches App
func NewApp(db *sql.DB, teamApp TeamApp, playerApp PlayerApp, clock clockwork.Clock) *App {
	return &App{
		db:        db,
		repo:      NewRepository(db),
		teamApp:   teamApp,
		playerApp: playerApp,
		clock:     clock,
	}
}

// Repository exposes the underlying repository for the sync engine
func (a *App) Repository() *Repository {
	return a.repo
}

// Create schedules a new match starting on set 1
func (a *App) Create(ctx context.Context, req CreateMatchRequest) (*models.Match, error) {
	if strings.TrimSpace(req.OpponentName) == "" {
		return nil, fmt.Errorf("%w: opponent_name is required", models.ErrValidation)
	}
	if req.Date.IsZero() {
		return nil, fmt.Errorf("%w: date is required", models.ErrValidation)
	}
	if _, err := a.teamApp.Get(ctx, req.TeamID); err != nil {
		return nil, fmt.Errorf("failed to resolve team: %w", err)
	}

	now := a.clock.Now()
	match, err := a.repo.CreateMatch(ctx, models.Match{
		ID:           uuid.NewString(),
		TeamID:       req.TeamID,
		OpponentName: strings.TrimSpace(req.OpponentName),
		Date:         req.Date,
		Location:     req.Location,
		CurrentSet:   1,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("match_id", match.ID).Str("opponent", match.OpponentName).Msg("created match")
	return match, nil
}

// Get retrieves an active match with its score
func (a *App) Get(ctx context.Context, id string) (*models.Match, error) {
	return a.repo.GetMatch(ctx, id)
}

// ListActive lists non-deleted matches
func (a *App) ListActive(ctx context.Context, filter MatchFilter) ([]models.Match, error) {
	return a.repo.ListActiveMatches(ctx, filter)
}

// Update merges the non-nil fields of req into the match
func (a *App) Update(ctx context.Context, id string, req UpdateMatchRequest) (*models.Match, error) {
	if req.OpponentName != nil && strings.TrimSpace(*req.OpponentName) == "" {
		return nil, fmt.Errorf("%w: opponent_name cannot be empty", models.ErrValidation)
	}

	var updated *models.Match
	err := sqlutil.RunWith(ctx, a.db, a.repo.WithTx, func(q *Repository) error {
		m, err := q.GetMatch(ctx, id)
		if err != nil {
			return err
		}
		if req.OpponentName != nil {
			m.OpponentName = strings.TrimSpace(*req.OpponentName)
		}
		if req.Date != nil {
			m.Date = *req.Date
		}
		if req.Location != nil {
			m.Location = req.Location
		}
		m.UpdatedAt = a.clock.Now()
		if err := q.UpdateMatch(ctx, *m); err != nil {
			return err
		}
		updated, err = q.GetMatch(ctx, id)
		return err
	})
	return updated, err
}

// AdvanceSet closes the active set and moves scouting to the next one
func (a *App) AdvanceSet(ctx context.Context, id string) (*models.Match, error) {
	var updated *models.Match
	err := sqlutil.RunWith(ctx, a.db, a.repo.WithTx, func(q *Repository) error {
		m, err := q.GetMatch(ctx, id)
		if err != nil {
			return err
		}
		if m.IsFinished {
			return fmt.Errorf("match %s: %w", id, ErrMatchFinished)
		}
		active, err := q.ActiveSet(ctx, id)
		if err != nil {
			return err
		}
		m.CurrentSet = active + 1
		m.UpdatedAt = a.clock.Now()
		if err := q.UpdateMatch(ctx, *m); err != nil {
			return err
		}
		updated, err = q.GetMatch(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("match_id", id).Int("set", updated.CurrentSet).Msg("advanced set")
	return updated, nil
}

// Finish marks the match as over, releasing every set for sync
func (a *App) Finish(ctx context.Context, id string) (*models.Match, error) {
	var updated *models.Match
	err := sqlutil.RunWith(ctx, a.db, a.repo.WithTx, func(q *Repository) error {
		m, err := q.GetMatch(ctx, id)
		if err != nil {
			return err
		}
		if m.IsFinished {
			updated = m
			return nil
		}
		m.IsFinished = true
		m.UpdatedAt = a.clock.Now()
		if err := q.UpdateMatch(ctx, *m); err != nil {
			return err
		}
		updated, err = q.GetMatch(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Str("match_id", id).
		Int("our_score", updated.OurScore).
		Int("opponent_score", updated.OpponentScore).
		Msg("finished match")
	return updated, nil
}

// SoftDelete tombstones the match and all of its actions
func (a *App) SoftDelete(ctx context.Context, id string) error {
	var cascaded int64
	err := sqlutil.RunWith(ctx, a.db, a.repo.WithTx, func(q *Repository) error {
		if err := q.SoftDeleteMatch(ctx, id, a.clock.Now()); err != nil {
			return err
		}
		n, err := q.TombstoneActionsByMatch(ctx, id)
		cascaded = n
		return err
	})
	if err != nil {
		return err
	}

	log.Info().Str("match_id", id).Int64("actions", cascaded).Msg("deleted match")
	return nil
}

// AddAction records a scouted touch on an unfinished match
func (a *App) AddAction(ctx context.Context, req AddActionRequest) (*models.MatchAction, error) {
	if err := a.validateAddActionRequest(ctx, req); err != nil {
		return nil, err
	}

	scoreChange := models.ScoreChangeFor(req.ActionType, req.Quality)
	if req.ScoreChange != nil {
		scoreChange = *req.ScoreChange
	}

	var created *models.MatchAction
	err := sqlutil.RunWith(ctx, a.db, a.repo.WithTx, func(q *Repository) error {
		m, err := q.GetMatch(ctx, req.MatchID)
		if err != nil {
			return err
		}
		if m.IsFinished {
			return fmt.Errorf("match %s: %w", m.ID, ErrMatchFinished)
		}

		active, err := q.ActiveSet(ctx, m.ID)
		if err != nil {
			return err
		}
		set := active
		if req.SetNumber != nil {
			set = *req.SetNumber
		}
		if set < active {
			return fmt.Errorf("%w: set %d is before active set %d", ErrSetRegression, set, active)
		}
		now := a.clock.Now()
		if set > m.CurrentSet {
			m.CurrentSet = set
			m.UpdatedAt = now
			if err := q.UpdateMatch(ctx, *m); err != nil {
				return err
			}
		}

		created, err = q.CreateAction(ctx, models.MatchAction{
			ID:          uuid.NewString(),
			MatchID:     m.ID,
			PlayerID:    req.PlayerID,
			SetNumber:   set,
			ActionType:  req.ActionType,
			Quality:     req.Quality,
			ScoreChange: scoreChange,
			Timestamp:   now,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Debug().
		Str("match_id", created.MatchID).
		Str("action", string(created.ActionType)).
		Int("set", created.SetNumber).
		Int("score_change", created.ScoreChange).
		Msg("recorded action")
	return created, nil
}

// UndoLastAction tombstones the most recent live action of an unfinished match
func (a *App) UndoLastAction(ctx context.Context, matchID string) (*models.MatchAction, error) {
	var undone *models.MatchAction
	err := sqlutil.RunWith(ctx, a.db, a.repo.WithTx, func(q *Repository) error {
		m, err := q.GetMatch(ctx, matchID)
		if err != nil {
			return err
		}
		if m.IsFinished {
			return fmt.Errorf("match %s: %w", matchID, ErrMatchFinished)
		}
		last, err := q.LastAction(ctx, matchID)
		if err != nil {
			return err
		}
		if err := q.SoftDeleteAction(ctx, last.ID); err != nil {
			return err
		}
		// The settled score may include the undone action.
		if err := q.TouchMatch(ctx, matchID, a.clock.Now()); err != nil {
			return err
		}
		last.Deleted = true
		last.SyncStatus = models.SyncPending
		undone = last
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().Str("match_id", matchID).Str("action_id", undone.ID).Msg("undid action")
	return undone, nil
}

// ListActions lists the live actions of a match
func (a *App) ListActions(ctx context.Context, matchID string) ([]models.MatchAction, error) {
	return a.repo.ListActions(ctx, matchID)
}

// Score returns the aggregated score of an active match
func (a *App) Score(ctx context.Context, matchID string) (Score, error) {
	m, err := a.repo.GetMatch(ctx, matchID)
	if err != nil {
		return Score{}, err
	}
	return Score{Ours: m.OurScore, Opponent: m.OpponentScore}, nil
}

func (a *App) validateAddActionRequest(ctx context.Context, req AddActionRequest) error {
	if !req.ActionType.Valid() {
		return fmt.Errorf("%w: unknown action type %q", models.ErrValidation, req.ActionType)
	}
	if req.Quality < models.MinQuality || req.Quality > models.MaxQuality {
		return fmt.Errorf("%w: quality must be between %d and %d", models.ErrValidation, models.MinQuality, models.MaxQuality)
	}
	if req.SetNumber != nil && *req.SetNumber < 1 {
		return fmt.Errorf("%w: set_number must be at least 1", models.ErrValidation)
	}
	if req.ScoreChange != nil && (*req.ScoreChange < -1 || *req.ScoreChange > 1) {
		return fmt.Errorf("%w: score_change must be -1, 0 or 1", models.ErrValidation)
	}

	if !req.ActionType.IsFundamental() {
		if req.PlayerID != nil {
			return fmt.Errorf("%w: %s is not attributed to a player", models.ErrValidation, req.ActionType)
		}
		return nil
	}
	if req.PlayerID == nil {
		return fmt.Errorf("%w: %s requires a player", models.ErrValidation, req.ActionType)
	}
	if _, err := a.playerApp.Get(ctx, *req.PlayerID); err != nil {
		if errors.Is(err, models.ErrNotFound) {
			return fmt.Errorf("%w: unknown player %s", models.ErrValidation, *req.PlayerID)
		}
		return err
	}
	return nil
}
