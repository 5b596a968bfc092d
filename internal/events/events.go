// Package events carries change notifications between the editor, the live
// preview and the public site.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Kind identifies what changed.
type Kind string

// Event kinds.
const (
	// KindPortfolioUpdated fires when the published document is written.
	KindPortfolioUpdated Kind = "portfolio.updated"
	// KindPalettesUpdated fires when the saved palette list is written.
	KindPalettesUpdated Kind = "palettes.updated"
	// KindDocumentChanged fires on every in-memory edit; the preview follows it.
	KindDocumentChanged Kind = "document.changed"
	KindDraftChanged    Kind = "draft.changed"
	KindAutosaveDone    Kind = "autosave.done"
	KindAutosaveFailed  Kind = "autosave.failed"
	KindSessionIdle     Kind = "session.idle"
)

// Event is a single notification. Payload is optional JSON.
type Event struct {
	ID      string          `json:"id"`
	Kind    Kind            `json:"kind"`
	Key     string          `json:"key,omitempty"`
	Message string          `json:"message,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
	At      time.Time       `json:"at"`
}

// New builds an event with a fresh id and timestamp.
func New(kind Kind, payload []byte) Event {
	return Event{
		ID:      uuid.NewString(),
		Kind:    kind,
		Payload: json.RawMessage(payload),
		At:      time.Now().UTC(),
	}
}

// Bus is a publish/subscribe channel for events.
type Bus interface {
	// Publish delivers e to current subscribers without blocking on slow ones.
	Publish(ctx context.Context, e Event) error
	// Subscribe returns a channel receiving events of the given kinds (all
	// kinds when none are given) and a function that ends the subscription.
	Subscribe(kinds ...Kind) (<-chan Event, func())
	Close() error
}
