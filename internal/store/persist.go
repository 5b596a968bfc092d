package store

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-studio/internal/events"
	"github.com/jonathan/portfolio-studio/internal/portfolio"
	"github.com/jonathan/portfolio-studio/internal/storage"
	"github.com/jonathan/portfolio-studio/internal/validation"
)

// Save writes the document to target. Draft saves skip validation; published
// saves require a document with no issues and leave any draft in place.
func (s *Store) Save(ctx context.Context, target Target) error {
	switch target {
	case TargetDraft:
		return s.SaveDraft(ctx)
	case TargetPublished:
		s.mu.Lock()
		defer s.mu.Unlock()
		if err := validation.Check(s.doc); err != nil {
			return err
		}
		s.autosave.Cancel()
		return s.writePublishedLocked(ctx)
	default:
		return fmt.Errorf("unknown save target %q", target)
	}
}

// SaveDraft stores the document, unvalidated, in the draft slot and makes the
// draft the autosave target.
func (s *Store) SaveDraft(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.autosave.Cancel()
	return s.writeDraftLocked(ctx)
}

// Publish validates the document, writes it to the published slot and clears
// the draft. On validation failure nothing is written.
func (s *Store) Publish(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := validation.Check(s.doc); err != nil {
		return err
	}
	s.autosave.Cancel()
	if err := s.writePublishedLocked(ctx); err != nil {
		return err
	}
	if err := s.storage.Remove(ctx, storage.KeyDraft); err != nil {
		s.logger.Warn("published but failed to clear draft", zap.Error(err))
	}
	s.state = StateNoDraft
	s.publish(ctx, newEvent(events.KindDraftChanged, storage.KeyDraft, "published"))
	s.logger.Info("portfolio published")
	return nil
}

// DiscardDraft removes the draft and reloads the published document. It is
// not recorded in the undo history.
func (s *Store) DiscardDraft(ctx context.Context) error {
	s.mu.Lock()
	s.autosave.Cancel()
	if err := s.storage.Remove(ctx, storage.KeyDraft); err != nil {
		s.mu.Unlock()
		return err
	}
	s.doc = LoadPublished(ctx, s.storage, s.logger)
	s.state = StateNoDraft
	payload := s.encodeLocked()
	s.mu.Unlock()

	s.publish(ctx, newEvent(events.KindDraftChanged, storage.KeyDraft, "discarded"))
	s.publish(ctx, events.New(events.KindDocumentChanged, payload))
	s.logger.Info("draft discarded")
	return nil
}

// Reset reverts the document to the default as an undoable edit and removes
// both the published document and the draft from storage.
func (s *Store) Reset(ctx context.Context) error {
	s.ReplaceWhole(portfolio.Default())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.autosave.Cancel()
	if err := s.storage.Remove(ctx, storage.KeyPublished); err != nil {
		return err
	}
	if err := s.storage.Remove(ctx, storage.KeyDraft); err != nil {
		return err
	}
	s.state = StateNoDraft
	s.publish(ctx, newEvent(events.KindPortfolioUpdated, storage.KeyPublished, "reset"))
	s.publish(ctx, newEvent(events.KindDraftChanged, storage.KeyDraft, "reset"))
	s.logger.Info("portfolio reset")
	return nil
}

// Import parses and normalizes data, replaces the document with it and stores
// it as a draft so the published site is untouched. Malformed JSON returns a
// *portfolio.ParseError and changes nothing.
func (s *Store) Import(ctx context.Context, data []byte) error {
	doc, err := portfolio.Parse(data)
	if err != nil {
		return err
	}
	s.ReplaceWhole(doc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.autosave.Cancel()
	return s.writeDraftLocked(ctx)
}

// Restore replaces the document with pasted JSON as an undoable edit. The
// content is applied as-is; it is normalized when next published.
func (s *Store) Restore(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return &portfolio.ParseError{Message: "invalid JSON", Cause: err}
	}
	obj, ok := raw.(map[string]any)
	if !ok {
		return &portfolio.ParseError{Message: "backup must be a JSON object"}
	}
	s.ReplaceWhole(portfolio.Document(obj))
	return nil
}

// writePublishedLocked stores the normalized document and broadcasts it.
func (s *Store) writePublishedLocked(ctx context.Context) error {
	data, err := portfolio.Marshal(portfolio.Normalize(s.doc))
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := s.storage.Set(ctx, storage.KeyPublished, data); err != nil {
		return err
	}
	e := events.New(events.KindPortfolioUpdated, data)
	e.Key = storage.KeyPublished
	s.publish(ctx, e)
	return nil
}

// writeDraftLocked stores the document as-is and activates the draft.
func (s *Store) writeDraftLocked(ctx context.Context) error {
	data, err := portfolio.Marshal(s.doc)
	if err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	if err := s.storage.Set(ctx, storage.KeyDraft, data); err != nil {
		return err
	}
	s.state = StateDraftActive
	s.publish(ctx, newEvent(events.KindDraftChanged, storage.KeyDraft, "saved"))
	return nil
}

// writeActiveLocked persists to whichever slot is active, without validation.
func (s *Store) writeActiveLocked(ctx context.Context) (Target, error) {
	if s.state == StateDraftActive {
		return TargetDraft, s.writeDraftLocked(ctx)
	}
	return TargetPublished, s.writePublishedLocked(ctx)
}

func (s *Store) runScheduledAutosave() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultPersistTimeout)
	defer cancel()
	_ = s.autosaveNow(ctx)
}

func (s *Store) autosaveNow(ctx context.Context) error {
	s.mu.Lock()
	target, err := s.writeActiveLocked(ctx)
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn("autosave failed", zap.String("target", string(target)), zap.Error(err))
		s.publish(ctx, newEvent(events.KindAutosaveFailed, "", err.Error()))
		return err
	}
	s.logger.Debug("autosaved", zap.String("target", string(target)))
	s.publish(ctx, newEvent(events.KindAutosaveDone, "", string(target)))
	return nil
}

// handleIdle force-saves the session to the active slot and reports it idle.
func (s *Store) handleIdle() {
	ctx, cancel := context.WithTimeout(context.Background(), DefaultPersistTimeout)
	defer cancel()

	s.autosave.Cancel()
	s.mu.Lock()
	target, err := s.writeActiveLocked(ctx)
	s.mu.Unlock()
	if err != nil {
		s.logger.Warn("idle save failed", zap.String("target", string(target)), zap.Error(err))
	}

	s.logger.Info("editor session idle", zap.String("target", string(target)))
	s.publish(ctx, newEvent(events.KindSessionIdle, "", string(target)))
	if s.onIdle != nil {
		s.onIdle()
	}
}

func newEvent(kind events.Kind, key, message string) events.Event {
	e := events.New(kind, nil)
	e.Key = key
	e.Message = message
	return e
}
