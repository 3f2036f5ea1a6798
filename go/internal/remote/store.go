// Package remote adapts shared document stores to the four sync collections.
package remote

import (
	"context"
	"errors"
	"time"
)

// Collection names as seen by every remote store
const (
	CollectionTeams   = "teams"
	CollectionPlayers = "players"
	CollectionMatches = "matches"
	CollectionActions = "matchActions"
)

// ChangedAtField is stamped by the store on every PutMerge.
// Its value is a models.TimeLayout string, so string order is time order.
const ChangedAtField = "syncedAt"

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("remote document not found")

// Document is a flat set of business fields keyed by field name
type Document map[string]any

// Store is the remote document API consumed by the sync engine
type Store interface {
	// Get returns the document with id or ErrNotFound
	Get(ctx context.Context, collection, id string) (Document, error)
	// PutMerge upserts doc, keeping fields absent from doc
	PutMerge(ctx context.Context, collection, id string, doc Document) error
	// DeleteByID removes a document; ErrNotFound when it was already gone
	DeleteByID(ctx context.Context, collection, id string) error
	// QueryChangedSince returns documents whose ChangedAtField is strictly after since
	QueryChangedSince(ctx context.Context, collection string, since time.Time) ([]Document, error)
}

// withChangedAt returns a copy of doc stamped with the change timestamp
func withChangedAt(doc Document, stamp string) Document {
	out := make(Document, len(doc)+1)
	for k, v := range doc {
		if k == ChangedAtField || k == "_id" {
			continue
		}
		out[k] = v
	}
	out[ChangedAtField] = stamp
	return out
}
