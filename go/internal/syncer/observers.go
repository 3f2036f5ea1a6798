package syncer

import (
	"slices"
	"sync"

	"github.com/rs/zerolog/log"
)

// Observers holds "data changed" callbacks
type Observers struct {
	mu     sync.Mutex
	nextID uint64
	subs   map[uint64]func()
}

// NewObservers creates an empty registry
func NewObservers() *Observers {
	return &Observers{subs: make(map[uint64]func())}
}

// Subscribe registers fn and returns a function removing it.
// Calling the returned function more than once is harmless.
func (o *Observers) Subscribe(fn func()) (unsubscribe func()) {
	o.mu.Lock()
	id := o.nextID
	o.nextID++
	o.subs[id] = fn
	o.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			o.mu.Lock()
			delete(o.subs, id)
			o.mu.Unlock()
		})
	}
}

// Len returns the number of subscribers
func (o *Observers) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.subs)
}

// Notify calls every subscriber synchronously in subscription order.
// A panicking subscriber is logged and does not stop the others.
func (o *Observers) Notify() {
	o.mu.Lock()
	ids := make([]uint64, 0, len(o.subs))
	for id := range o.subs {
		ids = append(ids, id)
	}
	fns := make([]func(), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, o.subs[id])
	}
	o.mu.Unlock()

	for _, fn := range fns {
		callObserver(fn)
	}
}

func callObserver(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("sync observer panicked")
		}
	}()
	fn()
}
