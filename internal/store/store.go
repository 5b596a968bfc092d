// Package store holds the portfolio document being edited. Every edit records
// an undo snapshot and schedules an autosave; explicit saves go through the
// draft/publish state machine.
package store

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-studio/internal/events"
	"github.com/jonathan/portfolio-studio/internal/portfolio"
	"github.com/jonathan/portfolio-studio/internal/storage"
	"github.com/jonathan/portfolio-studio/internal/types"
	"github.com/jonathan/portfolio-studio/internal/validation"
)

// Defaults for the editor session.
const (
	DefaultHistoryLimit    = 60
	DefaultAutosaveDelay   = 900 * time.Millisecond
	DefaultIdleTimeout     = 15 * time.Minute
	DefaultPersistTimeout  = 10 * time.Second
	fallbackPaletteAccent  = "#0ea5e9"
	fallbackPaletteAccent2 = "#2563eb"
)

// Target selects the storage slot an explicit save writes to.
type Target string

// Save targets.
const (
	TargetDraft     Target = "draft"
	TargetPublished Target = "published"
)

// State is the draft/publish state of the session.
type State string

// Session states.
const (
	StateNoDraft     State = "no_draft"
	StateDraftActive State = "draft_active"
)

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithHistoryLimit bounds the undo history.
func WithHistoryLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.historyLimit = n
		}
	}
}

// WithAutosaveDelay sets the autosave debounce. Zero disables autosave.
func WithAutosaveDelay(d time.Duration) Option {
	return func(s *Store) { s.autosaveDelay = d }
}

// WithIdleTimeout sets how long the session may go without Touch before it is
// force-saved and reported idle. Zero disables the idle watcher.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Store) { s.idleTimeout = d }
}

// OnIdle registers a callback run after the idle save. It must not call Close.
func OnIdle(fn func()) Option {
	return func(s *Store) { s.onIdle = fn }
}

// Store is the in-memory editing session for one portfolio document.
type Store struct {
	mu           sync.Mutex
	storage      storage.Storage
	bus          events.Bus
	logger       *zap.Logger
	doc          portfolio.Document
	history      []portfolio.Document
	historyLimit int
	state        State

	autosaveDelay time.Duration
	idleTimeout   time.Duration
	onIdle        func()
	autosave      *debouncer
	idle          *debouncer
}

// New creates a store over st. bus may be nil. The document starts as the
// default; call Open to load persisted state.
func New(st storage.Storage, bus events.Bus, opts ...Option) *Store {
	s := &Store{
		storage:       st,
		bus:           bus,
		logger:        zap.NewNop(),
		doc:           portfolio.Default(),
		historyLimit:  DefaultHistoryLimit,
		state:         StateNoDraft,
		autosaveDelay: DefaultAutosaveDelay,
		idleTimeout:   DefaultIdleTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.autosave = newDebouncer(s.autosaveDelay, s.runScheduledAutosave)
	s.idle = newDebouncer(s.idleTimeout, s.handleIdle)
	return s
}

// Open loads the session: an existing draft wins over the published document
// and puts the session in StateDraftActive. Unreadable or corrupt data falls
// back to the published document, then to the default.
func (s *Store) Open(ctx context.Context) error {
	doc, hasDraft := s.loadDraft(ctx)
	if !hasDraft {
		doc = LoadPublished(ctx, s.storage, s.logger)
	}

	s.mu.Lock()
	s.doc = doc
	s.history = nil
	if hasDraft {
		s.state = StateDraftActive
	} else {
		s.state = StateNoDraft
	}
	state := s.state
	s.mu.Unlock()

	s.logger.Info("editor session opened", zap.String("state", string(state)))
	s.idle.Schedule()
	return nil
}

func (s *Store) loadDraft(ctx context.Context) (portfolio.Document, bool) {
	data, ok, err := s.storage.Get(ctx, storage.KeyDraft)
	if err != nil {
		s.logger.Warn("failed to read draft", zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}
	doc, err := portfolio.Parse(data)
	if err != nil {
		s.logger.Warn("ignoring corrupt draft", zap.Error(err))
		return nil, false
	}
	return doc, true
}

// LoadPublished reads the published document. Missing, unreadable or corrupt
// data yields the default document.
func LoadPublished(ctx context.Context, st storage.Storage, logger *zap.Logger) portfolio.Document {
	if logger == nil {
		logger = zap.NewNop()
	}
	data, ok, err := st.Get(ctx, storage.KeyPublished)
	if err != nil {
		logger.Warn("failed to read published document, using defaults", zap.Error(err))
		return portfolio.Default()
	}
	if !ok {
		return portfolio.Default()
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		logger.Warn("published document is corrupt, using defaults", zap.Error(err))
		return portfolio.Default()
	}
	if _, isObject := raw.(map[string]any); !isObject {
		return portfolio.Default()
	}
	return portfolio.Normalize(raw)
}

// Document returns a copy of the current document.
func (s *Store) Document() portfolio.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	return portfolio.Clone(s.doc)
}

// Get reads the value at path in the current document.
func (s *Store) Get(path string) (any, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return portfolio.Get(s.doc, path)
}

// State reports the draft/publish state.
func (s *Store) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// DraftActive reports whether saves and autosaves go to the draft slot.
func (s *Store) DraftActive() bool {
	return s.State() == StateDraftActive
}

// UndoDepth is the number of snapshots Undo can restore.
func (s *Store) UndoDepth() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history)
}

// AutosavePending reports whether an autosave is scheduled.
func (s *Store) AutosavePending() bool {
	return s.autosave.Pending()
}

// SetPath writes value at a dot-delimited path. On error the document and the
// undo history are unchanged.
func (s *Store) SetPath(path string, value any) error {
	return s.mutate(func(next portfolio.Document) error {
		return portfolio.SetPath(next, path, value)
	})
}

// ReplaceWhole swaps in doc as an undoable edit.
func (s *Store) ReplaceWhole(doc portfolio.Document) {
	replacement := portfolio.Clone(doc)
	_ = s.mutate(func(next portfolio.Document) error {
		for k := range next {
			delete(next, k)
		}
		for k, v := range replacement {
			next[k] = v
		}
		return nil
	})
}

// Undo restores the most recent snapshot. It reports false when the history
// is empty. Undo itself is not recorded.
func (s *Store) Undo() bool {
	s.mu.Lock()
	n := len(s.history)
	if n == 0 {
		s.mu.Unlock()
		return false
	}
	s.doc = s.history[n-1]
	s.history[n-1] = nil
	s.history = s.history[:n-1]
	payload := s.encodeLocked()
	s.mu.Unlock()

	s.afterEdit(payload)
	return true
}

// mutate applies fn to a copy of the document. When fn succeeds the copy
// replaces the document and the previous one is pushed onto the history.
func (s *Store) mutate(fn func(next portfolio.Document) error) error {
	s.mu.Lock()
	next := portfolio.Clone(s.doc)
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.pushLocked(s.doc)
	s.doc = next
	payload := s.encodeLocked()
	s.mu.Unlock()

	s.afterEdit(payload)
	return nil
}

func (s *Store) pushLocked(snapshot portfolio.Document) {
	s.history = append(s.history, snapshot)
	if over := len(s.history) - s.historyLimit; over > 0 {
		for i := 0; i < over; i++ {
			s.history[i] = nil
		}
		s.history = append([]portfolio.Document(nil), s.history[over:]...)
	}
}

func (s *Store) encodeLocked() []byte {
	data, err := portfolio.Marshal(s.doc)
	if err != nil {
		s.logger.Warn("failed to encode document", zap.Error(err))
		return nil
	}
	return data
}

func (s *Store) afterEdit(payload []byte) {
	s.autosave.Schedule()
	s.idle.Schedule()
	s.publish(context.Background(), events.New(events.KindDocumentChanged, payload))
}

// Touch records user activity and restarts the idle countdown.
func (s *Store) Touch() {
	s.idle.Schedule()
}

// Validate returns the issues blocking a publish of the current document.
func (s *Store) Validate() []types.Issue {
	return validation.Validate(s.Document())
}

// Search looks q up in the current document's search index.
func (s *Store) Search(q string) []types.SearchEntry {
	return portfolio.Search(portfolio.BuildSearchIndex(s.Document()), q)
}

// Counts returns the number of entries per list field.
func (s *Store) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return portfolio.Counts(s.doc)
}

// Export encodes the current document as two-space indented JSON. The
// document is exported as-is, without normalization or validation.
func (s *Store) Export() ([]byte, error) {
	return portfolio.MarshalIndent(s.Document())
}

// Flush runs a pending autosave now.
func (s *Store) Flush(ctx context.Context) error {
	if !s.autosave.Cancel() {
		return nil
	}
	return s.autosaveNow(ctx)
}

// Close stops the autosave and idle timers, waiting for a run in progress.
// A pending autosave is dropped; call Flush first to keep it.
func (s *Store) Close() error {
	s.autosave.Stop()
	s.idle.Stop()
	return nil
}

func (s *Store) publish(ctx context.Context, e events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Publish(ctx, e); err != nil {
		s.logger.Warn("failed to publish event", zap.String("kind", string(e.Kind)), zap.Error(err))
	}
}
