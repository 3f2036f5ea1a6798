// Package syncer reconciles the local store with the remote document store.
//
// One cycle runs, in order: reachability gate, deletion propagation
// (children first), push of pending rows (parents first), pull of remote
// changes since the watermark with one upsert per document, watermark
// persistence, observer notification.
//
// The push reads its rows in one local transaction, talks to the remote with
// no transaction open, then applies every purge and synced mark in a second
// transaction. The UI keeps writing while remote calls are in flight; a row
// edited in the meantime stays pending.
package syncer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/scout/go/internal/localstore"
	"github.com/mcdev12/scout/go/internal/reachability"
	"github.com/mcdev12/scout/go/internal/remote"
	"github.com/mcdev12/scout/go/internal/sqlutil"
)

// ErrCycleInProgress is returned when SyncAll is called during a cycle
var ErrCycleInProgress = errors.New("sync cycle already in progress")

// Deps are the collaborators of an Orchestrator
type Deps struct {
	Local  *localstore.Store
	Repos  Repos
	Remote remote.Store
	Probe  reachability.Probe
	Clock  clockwork.Clock
}

// Options tune an Orchestrator
type Options struct {
	// RecordTimeout bounds each remote call
	RecordTimeout time.Duration
}

// DefaultOptions returns the production settings
func DefaultOptions() Options {
	return Options{RecordTimeout: 15 * time.Second}
}

// Result summarizes one cycle
type Result struct {
	StartedAt  time.Time     `json:"started_at"`
	Duration   time.Duration `json:"duration"`
	Skipped    bool          `json:"skipped"`
	Deleted    int           `json:"deleted"`
	Pushed     int           `json:"pushed"`
	Pulled     int           `json:"pulled"`
	Shadowed   int           `json:"shadowed"`
	Failed     int           `json:"failed"`
	Watermark  time.Time     `json:"watermark"`
	Errors     []string      `json:"errors,omitempty"`
	PushFailed bool          `json:"push_failed"`
}

func (r *Result) fail(err error) {
	r.Failed++
	r.Errors = append(r.Errors, err.Error())
}

// StatusReport describes outstanding work
type StatusReport struct {
	Watermark   time.Time                     `json:"watermark"`
	InProgress  bool                          `json:"in_progress"`
	Collections map[string]sqlutil.SyncCounts `json:"collections"`
	LastResult  *Result                       `json:"last_result,omitempty"`
}

// Orchestrator runs sync cycles; at most one at a time
type Orchestrator struct {
	local  *localstore.Store
	repos  Repos
	remote remote.Store
	probe  reachability.Probe
	clock  clockwork.Clock
	opts   Options

	observers *Observers

	cycle  sync.Mutex
	mu     sync.Mutex
	active bool
	last   *Result
}

// New creates an Orchestrator
func New(deps Deps, opts Options) *Orchestrator {
	if deps.Clock == nil {
		deps.Clock = clockwork.NewRealClock()
	}
	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = DefaultOptions().RecordTimeout
	}
	return &Orchestrator{
		local:     deps.Local,
		repos:     deps.Repos,
		remote:    deps.Remote,
		probe:     deps.Probe,
		clock:     deps.Clock,
		opts:      opts,
		observers: NewObservers(),
	}
}

// Subscribe registers fn to run after every completed cycle
func (o *Orchestrator) Subscribe(fn func()) (unsubscribe func()) {
	return o.observers.Subscribe(fn)
}

// SyncAll runs one full cycle. An offline device yields a skipped result and
// no error. Per-record failures are counted in the result; the returned
// error is reserved for phase-level failures.
func (o *Orchestrator) SyncAll(ctx context.Context) (res *Result, err error) {
	if !o.cycle.TryLock() {
		return nil, ErrCycleInProgress
	}
	defer o.cycle.Unlock()

	o.setActive(true)
	defer o.setActive(false)

	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("sync cycle panicked")
			res = nil
			err = fmt.Errorf("sync cycle panicked: %v", r)
		}
	}()

	res, err = o.runCycle(ctx)
	if res != nil && !res.Skipped {
		o.mu.Lock()
		o.last = res
		o.mu.Unlock()
	}
	return res, err
}

func (o *Orchestrator) runCycle(ctx context.Context) (*Result, error) {
	res := &Result{StartedAt: o.clock.Now()}

	st, err := o.probe.Check(ctx)
	if err != nil {
		log.Debug().Err(err).Msg("reachability probe failed, skipping sync")
		res.Skipped = true
		return res, nil
	}
	if !st.Online() {
		log.Debug().
			Bool("connected", st.Connected).
			Bool("internet_reachable", st.InternetReachable).
			Msg("offline, skipping sync")
		res.Skipped = true
		return res, nil
	}

	var errs []error

	if pushErr := o.push(ctx, res); pushErr != nil {
		log.Error().Err(pushErr).Msg("push phase failed")
		res.PushFailed = true
		res.Errors = append(res.Errors, pushErr.Error())
		errs = append(errs, fmt.Errorf("push phase: %w", pushErr))
	}

	if err := o.pull(ctx, res); err != nil {
		errs = append(errs, fmt.Errorf("pull phase: %w", err))
	}

	res.Duration = o.clock.Since(res.StartedAt)
	o.observers.Notify()

	log.Info().
		Int("deleted", res.Deleted).
		Int("pushed", res.Pushed).
		Int("pulled", res.Pulled).
		Int("failed", res.Failed).
		Dur("duration", res.Duration).
		Msg("sync cycle completed")

	return res, errors.Join(errs...)
}

// pushBatch holds per-collection work, indexed like collections
type pushBatch struct {
	tombstoned [][]string
	pending    [][]pendingDoc
}

func newPushBatch() *pushBatch {
	return &pushBatch{
		tombstoned: make([][]string, len(collections)),
		pending:    make([][]pendingDoc, len(collections)),
	}
}

// push propagates deletions then pending rows. Nothing is purged or marked
// synced unless the final local transaction commits.
func (o *Orchestrator) push(ctx context.Context, res *Result) error {
	batch, err := o.readPushBatch(ctx)
	if err != nil {
		return err
	}

	confirmed := newPushBatch()
	o.pushDeletions(ctx, batch, confirmed, res)
	o.pushPending(ctx, batch, confirmed, res)

	var deleted, pushed, stale int
	err = o.local.RunAtomic(ctx, func(tx *sql.Tx) error {
		repos := o.repos.withTx(tx)
		deleted, pushed, stale = 0, 0, 0
		for i := len(collections) - 1; i >= 0; i-- {
			for _, id := range confirmed.tombstoned[i] {
				if err := collections[i].purge(ctx, repos, id); err != nil {
					return err
				}
				deleted++
			}
		}
		for i, col := range collections {
			for _, row := range confirmed.pending[i] {
				marked, err := col.markSynced(ctx, repos, row)
				if err != nil {
					return err
				}
				if !marked {
					stale++
				}
				pushed++
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	if stale > 0 {
		log.Debug().Int("rows", stale).Msg("rows edited during push stay pending")
	}
	res.Deleted += deleted
	res.Pushed += pushed
	return nil
}

// readPushBatch reads tombstones and pending rows in one transaction so the
// batch is a consistent snapshot.
func (o *Orchestrator) readPushBatch(ctx context.Context) (*pushBatch, error) {
	batch := newPushBatch()
	err := o.local.RunAtomic(ctx, func(tx *sql.Tx) error {
		repos := o.repos.withTx(tx)
		for i, col := range collections {
			ids, err := col.tombstoned(ctx, repos)
			if err != nil {
				return fmt.Errorf("failed to list tombstoned %s: %w", col.name, err)
			}
			rows, err := col.pending(ctx, repos)
			if err != nil {
				return fmt.Errorf("failed to list pending %s: %w", col.name, err)
			}
			batch.tombstoned[i] = ids
			batch.pending[i] = rows
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch, nil
}

// pushDeletions walks collections children first. A remote not-found counts
// as a confirmed delete.
func (o *Orchestrator) pushDeletions(ctx context.Context, batch, confirmed *pushBatch, res *Result) {
	for i := len(collections) - 1; i >= 0; i-- {
		col := collections[i]
		for _, id := range batch.tombstoned[i] {
			err := o.withRecordTimeout(ctx, func(ctx context.Context) error {
				return o.remote.DeleteByID(ctx, col.name, id)
			})
			if err != nil && !errors.Is(err, remote.ErrNotFound) {
				log.Warn().Err(err).Str("collection", col.name).Str("id", id).Msg("remote delete failed")
				res.fail(fmt.Errorf("delete %s/%s: %w", col.name, id, err))
				continue
			}
			confirmed.tombstoned[i] = append(confirmed.tombstoned[i], id)
		}
	}
}

// pushPending walks collections parents first
func (o *Orchestrator) pushPending(ctx context.Context, batch, confirmed *pushBatch, res *Result) {
	for i, col := range collections {
		for _, row := range batch.pending[i] {
			err := o.withRecordTimeout(ctx, func(ctx context.Context) error {
				return o.remote.PutMerge(ctx, col.name, row.id, row.doc)
			})
			if err != nil {
				log.Warn().Err(err).Str("collection", col.name).Str("id", row.id).Msg("remote put failed")
				res.fail(fmt.Errorf("put %s/%s: %w", col.name, row.id, err))
				continue
			}
			confirmed.pending[i] = append(confirmed.pending[i], row)
		}
	}
}

// pull fetches every collection against one watermark captured up front.
// The watermark only advances when every query and local write succeeded;
// malformed documents are skipped.
func (o *Orchestrator) pull(ctx context.Context, res *Result) error {
	prev, err := o.local.Watermark(ctx)
	if err != nil {
		res.fail(err)
		return err
	}
	captured := o.clock.Now()
	res.Watermark = prev

	complete := true
	for _, col := range collections {
		var docs []remote.Document
		err := o.withRecordTimeout(ctx, func(ctx context.Context) error {
			var err error
			docs, err = o.remote.QueryChangedSince(ctx, col.name, prev)
			return err
		})
		if err != nil {
			log.Warn().Err(err).Str("collection", col.name).Msg("remote query failed")
			res.fail(fmt.Errorf("query %s: %w", col.name, err))
			complete = false
			continue
		}

		for _, doc := range docs {
			written, err := col.apply(ctx, o.repos, doc)
			switch {
			case errors.Is(err, errMalformed):
				log.Warn().Err(err).Str("collection", col.name).Interface("id", doc["id"]).Msg("rejected remote document")
				res.fail(fmt.Errorf("decode %s/%v: %w", col.name, doc["id"], err))
			case err != nil:
				log.Error().Err(err).Str("collection", col.name).Interface("id", doc["id"]).Msg("local upsert failed")
				res.fail(fmt.Errorf("upsert %s/%v: %w", col.name, doc["id"], err))
				complete = false
			case written:
				res.Pulled++
			default:
				res.Shadowed++
			}
		}
	}

	if !complete {
		return nil
	}

	next := captured
	if prev.After(next) {
		next = prev
	}
	if err := o.local.SetWatermark(ctx, next); err != nil {
		res.fail(err)
		return err
	}
	res.Watermark = next
	return nil
}

func (o *Orchestrator) withRecordTimeout(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, o.opts.RecordTimeout)
	defer cancel()
	return fn(ctx)
}

// Status reports pending work per collection and the current watermark
func (o *Orchestrator) Status(ctx context.Context) (*StatusReport, error) {
	wm, err := o.local.Watermark(ctx)
	if err != nil {
		return nil, err
	}

	counters := map[string]func(context.Context) (sqlutil.SyncCounts, error){
		remote.CollectionTeams:   o.repos.Teams.CountTeams,
		remote.CollectionPlayers: o.repos.Players.CountPlayers,
		remote.CollectionMatches: o.repos.Matches.CountMatches,
		remote.CollectionActions: o.repos.Matches.CountActions,
	}
	report := &StatusReport{
		Watermark:   wm,
		Collections: make(map[string]sqlutil.SyncCounts, len(counters)),
	}
	for name, count := range counters {
		c, err := count(ctx)
		if err != nil {
			return nil, err
		}
		report.Collections[name] = c
	}

	o.mu.Lock()
	report.InProgress = o.active
	report.LastResult = o.last
	o.mu.Unlock()
	return report, nil
}

func (o *Orchestrator) setActive(v bool) {
	o.mu.Lock()
	o.active = v
	o.mu.Unlock()
}
