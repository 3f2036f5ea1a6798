package syncer

import (
	"context"
	"errors"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"
)

// Syncer runs one reconciliation cycle
type Syncer interface {
	SyncAll(ctx context.Context) (*Result, error)
}

// Trigger runs cycles on a fixed interval and on demand
type Trigger struct {
	syncer   Syncer
	clock    clockwork.Clock
	interval time.Duration
}

// NewTrigger creates a Trigger firing every interval
func NewTrigger(s Syncer, clock clockwork.Clock, interval time.Duration) *Trigger {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Trigger{syncer: s, clock: clock, interval: interval}
}

// Run syncs immediately and then on every tick until ctx is done.
// Ticks that land while a cycle is running are dropped.
func (t *Trigger) Run(ctx context.Context) error {
	ticker := t.clock.NewTicker(t.interval)
	defer ticker.Stop()

	log.Info().Dur("interval", t.interval).Msg("sync trigger started")

	t.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("sync trigger stopped")
			return nil
		case <-ticker.Chan():
			t.tick(ctx)
		}
	}
}

// SyncNow runs a cycle for a user request. It returns ErrCycleInProgress
// instead of waiting when a cycle is already running.
func (t *Trigger) SyncNow(ctx context.Context) (*Result, error) {
	return t.syncer.SyncAll(ctx)
}

func (t *Trigger) tick(ctx context.Context) {
	_, err := t.syncer.SyncAll(ctx)
	switch {
	case errors.Is(err, ErrCycleInProgress):
		log.Debug().Msg("sync tick dropped, cycle in progress")
	case err != nil:
		log.Error().Err(err).Msg("periodic sync failed")
	}
}
