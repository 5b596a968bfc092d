// Package preview pushes the document being edited to live-preview clients.
//
// A client connecting is the ready signal: it immediately receives the
// current document, then the full document again after every edit. Delivery
// is fire-and-forget; a client that falls behind only ever sees the newest
// update.
package preview

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-studio/internal/events"
	"github.com/jonathan/portfolio-studio/internal/portfolio"
)

// Source provides the current document.
type Source interface {
	Document() portfolio.Document
}

// Update is one push to a preview client. Document carries the full document;
// Section, when set, asks the preview to scroll to that site section.
type Update struct {
	Document json.RawMessage `json:"document,omitempty"`
	Section  string          `json:"section,omitempty"`
}

// Client is one connected preview.
type Client struct {
	ID string
	ch chan Update
}

// Updates delivers pushes for this client. It is closed on disconnect.
func (c *Client) Updates() <-chan Update {
	return c.ch
}

// offer delivers u, replacing an undelivered older update.
func (c *Client) offer(u Update) {
	for {
		select {
		case c.ch <- u:
			return
		default:
		}
		select {
		case <-c.ch:
		default:
		}
	}
}

// Hub fans document updates out to preview clients.
type Hub struct {
	src    Source
	bus    events.Bus
	logger *zap.Logger

	mu      sync.Mutex
	clients map[string]*Client
}

// NewHub creates a hub reading the current document from src.
func NewHub(src Source, bus events.Bus, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{src: src, bus: bus, logger: logger, clients: make(map[string]*Client)}
}

// Connect registers a client and queues the current document for it. The
// snapshot is read after registration so no relayed edit is missed. Call the
// returned function to disconnect.
func (h *Hub) Connect() (*Client, func()) {
	c := &Client{ID: uuid.NewString(), ch: make(chan Update, 1)}
	h.mu.Lock()
	h.clients[c.ID] = c
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("preview connected", zap.String("client", c.ID), zap.Int("clients", n))

	data, err := portfolio.Marshal(h.src.Document())
	if err != nil {
		h.logger.Warn("failed to encode preview document", zap.Error(err))
	} else {
		h.mu.Lock()
		c.offer(Update{Document: data})
		h.mu.Unlock()
	}

	var once sync.Once
	return c, func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.clients, c.ID)
			h.mu.Unlock()
			close(c.ch)
			h.logger.Debug("preview disconnected", zap.String("client", c.ID))
		})
	}
}

// Clients returns the number of connected previews.
func (h *Hub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast pushes u to every client.
func (h *Hub) Broadcast(u Update) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		c.offer(u)
	}
}

// Focus asks every preview to scroll to section. Empty sections are ignored.
func (h *Hub) Focus(section string) {
	if section == "" {
		return
	}
	h.Broadcast(Update{Section: section})
}

// Run relays document.changed events until ctx is done or the bus closes.
func (h *Hub) Run(ctx context.Context) error {
	ch, cancel := h.bus.Subscribe(events.KindDocumentChanged)
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case e, ok := <-ch:
			if !ok {
				return nil
			}
			if len(e.Payload) == 0 {
				continue
			}
			h.Broadcast(Update{Document: e.Payload})
		}
	}
}
