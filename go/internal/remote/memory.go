package remote

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/mcdev12/scout/go/internal/models"
)

// MemoryStore is an in-process Store used for tests and offline demos.
// Individual ids or the whole store can be made to fail.
type MemoryStore struct {
	mu      sync.RWMutex
	clock   clockwork.Clock
	docs    map[string]map[string]Document
	failing map[string]error
	down    error
}

// NewMemoryStore creates an empty MemoryStore
func NewMemoryStore(clock clockwork.Clock) *MemoryStore {
	return &MemoryStore{
		clock:   clock,
		docs:    make(map[string]map[string]Document),
		failing: make(map[string]error),
	}
}

// FailID makes every call touching id return err until cleared with a nil err
func (m *MemoryStore) FailID(id string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err == nil {
		delete(m.failing, id)
		return
	}
	m.failing[id] = err
}

// SetDown makes every call fail with err; nil brings the store back
func (m *MemoryStore) SetDown(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.down = err
}

// Put writes doc verbatim, including any ChangedAtField it carries.
// It simulates writes from another device.
func (m *MemoryStore) Put(collection, id string, doc Document) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.collection(collection)[id] = copyDoc(doc)
}

// IDs lists the ids present in collection, sorted
func (m *MemoryStore) IDs(collection string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.docs[collection]))
	for id := range m.docs[collection] {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of documents in collection
func (m *MemoryStore) Len(collection string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docs[collection])
}

func (m *MemoryStore) Get(ctx context.Context, collection, id string) (Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err := m.check(id); err != nil {
		return nil, err
	}
	doc, ok := m.docs[collection][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	return copyDoc(doc), nil
}

func (m *MemoryStore) PutMerge(ctx context.Context, collection, id string, doc Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(id); err != nil {
		return err
	}
	col := m.collection(collection)
	merged := col[id]
	if merged == nil {
		merged = make(Document)
	}
	for k, v := range withChangedAt(doc, models.FormatTime(m.clock.Now())) {
		merged[k] = v
	}
	col[id] = merged
	return nil
}

func (m *MemoryStore) DeleteByID(ctx context.Context, collection, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.check(id); err != nil {
		return err
	}
	if _, ok := m.docs[collection][id]; !ok {
		return fmt.Errorf("%s/%s: %w", collection, id, ErrNotFound)
	}
	delete(m.docs[collection], id)
	return nil
}

func (m *MemoryStore) QueryChangedSince(ctx context.Context, collection string, since time.Time) ([]Document, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.down != nil {
		return nil, m.down
	}

	after := models.FormatTime(since)
	var out []Document
	for _, doc := range m.docs[collection] {
		stamp, _ := doc[ChangedAtField].(string)
		if stamp > after {
			out = append(out, copyDoc(doc))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i][ChangedAtField].(string) < out[j][ChangedAtField].(string)
	})
	return out, nil
}

func (m *MemoryStore) check(id string) error {
	if m.down != nil {
		return m.down
	}
	return m.failing[id]
}

func (m *MemoryStore) collection(name string) map[string]Document {
	col, ok := m.docs[name]
	if !ok {
		col = make(map[string]Document)
		m.docs[name] = col
	}
	return col
}

func copyDoc(doc Document) Document {
	out := make(Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
