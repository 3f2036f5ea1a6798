// Package notify fans "data changed" notifications from the sync
// orchestrator out to other processes (NATS) and connected UIs (WebSocket).
package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventDataChanged is emitted after every completed sync cycle
const EventDataChanged = "data_changed"

// Event is the envelope sent to subscribers
type Event struct {
	ID        string    `json:"eventId"`
	Type      string    `json:"eventType"`
	Timestamp time.Time `json:"timestamp"`
}

func newEvent(now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      EventDataChanged,
		Timestamp: now.UTC(),
	}
}

func (e Event) marshal() ([]byte, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, fmt.Errorf("marshal event: %w", err)
	}
	return data, nil
}
