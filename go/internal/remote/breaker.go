package remote

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"
)

// BreakerConfig tunes the circuit around a remote store
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // allowed while half-open
	Interval         time.Duration // closed-state counter reset
	Timeout          time.Duration // open-state duration before half-open
	ConsecutiveFails uint32
}

// DefaultBreakerConfig returns settings suited to a periodic sync loop
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "remote-store",
		MaxRequests:      3,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		ConsecutiveFails: 5,
	}
}

// BreakerStore wraps a Store so a dead remote fails fast instead of
// timing out once per pending record
type BreakerStore struct {
	next Store
	cb   *gobreaker.CircuitBreaker
}

// NewBreakerStore wraps next with a circuit breaker
func NewBreakerStore(next Store, cfg BreakerConfig) *BreakerStore {
	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFails
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
		// A missing document is an answer, not an outage.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrNotFound) || errors.Is(err, context.Canceled)
		},
	}
	return &BreakerStore{next: next, cb: gobreaker.NewCircuitBreaker(settings)}
}

// State reports the breaker state
func (b *BreakerStore) State() gobreaker.State {
	return b.cb.State()
}

func (b *BreakerStore) Get(ctx context.Context, collection, id string) (Document, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.Get(ctx, collection, id)
	})
	if err != nil {
		return nil, err
	}
	return v.(Document), nil
}

func (b *BreakerStore) PutMerge(ctx context.Context, collection, id string, doc Document) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.PutMerge(ctx, collection, id, doc)
	})
	return err
}

func (b *BreakerStore) DeleteByID(ctx context.Context, collection, id string) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.DeleteByID(ctx, collection, id)
	})
	return err
}

func (b *BreakerStore) QueryChangedSince(ctx context.Context, collection string, since time.Time) ([]Document, error) {
	v, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.QueryChangedSince(ctx, collection, since)
	})
	if err != nil {
		return nil, err
	}
	docs, _ := v.([]Document)
	return docs, nil
}
