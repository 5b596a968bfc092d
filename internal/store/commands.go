package store

import (
	"context"
	"encoding/json"
	"strings"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-studio/internal/events"
	"github.com/jonathan/portfolio-studio/internal/portfolio"
	"github.com/jonathan/portfolio-studio/internal/storage"
	"github.com/jonathan/portfolio-studio/internal/types"
)

const (
	pathSectionOrder  = "siteTheme.sections.order"
	pathSectionHidden = "siteTheme.sections.hidden"
	pathPalette       = "siteTheme.palette"
	pathCustomAccent  = "siteTheme.custom.accent"
	pathCustomAccent2 = "siteTheme.custom.accent2"
)

// editList replaces the list stored at field with fn's result, as one undoable edit.
func (s *Store) editList(field string, fn func(list []any) ([]any, error)) error {
	if !portfolio.IsListField(field) {
		return &portfolio.ListError{Field: field, Index: -1, Message: "unknown list"}
	}
	return s.mutate(func(next portfolio.Document) error {
		out, err := fn(portfolio.List(next, field))
		if err != nil {
			if le, ok := err.(*portfolio.ListError); ok {
				le.Field = field
			}
			return err
		}
		return portfolio.SetPath(next, field, out)
	})
}

// AppendItem adds the blank record for field to the end of the list.
func (s *Store) AppendItem(field string) error {
	return s.editList(field, func(list []any) ([]any, error) {
		return append(list, portfolio.NewListItem(field)), nil
	})
}

// RemoveItem deletes the entry at idx.
func (s *Store) RemoveItem(field string, idx int) error {
	return s.editList(field, func(list []any) ([]any, error) {
		return portfolio.RemoveAt(list, idx)
	})
}

// MoveItem moves the entry at from to position to.
func (s *Store) MoveItem(field string, from, to int) error {
	return s.editList(field, func(list []any) ([]any, error) {
		return portfolio.Reorder(list, from, to)
	})
}

// PatchItem merges patch into the entry at idx.
func (s *Store) PatchItem(field string, idx int, patch map[string]any) error {
	return s.editList(field, func(list []any) ([]any, error) {
		return portfolio.PatchAt(list, idx, patch)
	})
}

// SetItemHidden toggles whether the entry at idx is shown on the public site.
func (s *Store) SetItemHidden(field string, idx int, hidden bool) error {
	return s.PatchItem(field, idx, map[string]any{"hidden": hidden})
}

// SetSectionOrder stores a new section order. Unknown and duplicate ids are
// dropped and missing ones appended, so the stored order stays complete.
func (s *Store) SetSectionOrder(order []string) error {
	raw := make([]any, len(order))
	for i, id := range order {
		raw[i] = id
	}
	return s.SetPath(pathSectionOrder, portfolio.NormalizeSectionOrder(raw))
}

// MoveSection moves the section at position from to position to.
func (s *Store) MoveSection(from, to int) error {
	return s.mutate(func(next portfolio.Document) error {
		current, _ := portfolio.Get(next, pathSectionOrder)
		moved, err := portfolio.Reorder(portfolio.NormalizeSectionOrder(current), from, to)
		if err != nil {
			if le, ok := err.(*portfolio.ListError); ok {
				le.Field = pathSectionOrder
			}
			return err
		}
		return portfolio.SetPath(next, pathSectionOrder, moved)
	})
}

// ResetSectionOrder restores the canonical section order.
func (s *Store) ResetSectionOrder() error {
	return s.SetSectionOrder(portfolio.KnownSectionIDs())
}

// SetSectionHidden shows or hides a known section.
func (s *Store) SetSectionHidden(id string, hidden bool) error {
	if !portfolio.IsKnownSection(id) {
		return &portfolio.PathError{Path: pathSectionHidden + "." + id, Message: "unknown section"}
	}
	return s.mutate(func(next portfolio.Document) error {
		current, _ := portfolio.Get(next, pathSectionHidden)
		flags, ok := current.(map[string]any)
		if !ok {
			flags = map[string]any{}
		}
		flags[id] = hidden
		return portfolio.SetPath(next, pathSectionHidden, flags)
	})
}

// ChoosePalette selects palette id. When both accents are given they are also
// stored as the custom colors. The whole choice is one undoable edit.
func (s *Store) ChoosePalette(id, accent, accent2 string) error {
	return s.mutate(func(next portfolio.Document) error {
		if err := portfolio.SetPath(next, pathPalette, id); err != nil {
			return err
		}
		if accent == "" || accent2 == "" {
			return nil
		}
		if err := portfolio.SetPath(next, pathCustomAccent, accent); err != nil {
			return err
		}
		return portfolio.SetPath(next, pathCustomAccent2, accent2)
	})
}

// SavedPalettes reads the saved palette list. Unreadable data yields an empty list.
func (s *Store) SavedPalettes(ctx context.Context) []types.SavedPalette {
	data, ok, err := s.storage.Get(ctx, storage.KeyPalettes)
	if err != nil {
		s.logger.Warn("failed to read saved palettes", zap.Error(err))
		return []types.SavedPalette{}
	}
	if !ok {
		return []types.SavedPalette{}
	}
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		s.logger.Warn("saved palettes are corrupt", zap.Error(err))
		return []types.SavedPalette{}
	}
	return portfolio.NormalizePalettes(raw)
}

// SavePalette stores p, replacing any palette with the same name ignoring
// case, and selects it.
func (s *Store) SavePalette(ctx context.Context, p types.SavedPalette) error {
	p = types.SavedPalette{
		Name:    strings.TrimSpace(p.Name),
		Accent:  strings.TrimSpace(p.Accent),
		Accent2: strings.TrimSpace(p.Accent2),
	}
	if err := p.Validate(); err != nil {
		return err
	}

	next := portfolio.UpsertPalette(s.SavedPalettes(ctx), p)
	if err := s.writePalettes(ctx, next); err != nil {
		return err
	}
	return s.ChoosePalette(portfolio.SavedPaletteID(p.Name), p.Accent, p.Accent2)
}

// DeletePalette removes the named palette, ignoring case. If the document
// uses it, the selection falls back to the default palette.
func (s *Store) DeletePalette(ctx context.Context, name string) error {
	next := portfolio.RemovePalette(s.SavedPalettes(ctx), name)
	if err := s.writePalettes(ctx, next); err != nil {
		return err
	}

	current, _ := s.Get(pathPalette)
	if selected, _ := current.(string); strings.EqualFold(selected, portfolio.SavedPaletteID(name)) {
		return s.ChoosePalette(portfolio.DefaultPaletteID, fallbackPaletteAccent, fallbackPaletteAccent2)
	}
	return nil
}

func (s *Store) writePalettes(ctx context.Context, palettes []types.SavedPalette) error {
	if palettes == nil {
		palettes = []types.SavedPalette{}
	}
	data, err := json.Marshal(palettes)
	if err != nil {
		return err
	}
	if err := s.storage.Set(ctx, storage.KeyPalettes, data); err != nil {
		return err
	}
	e := events.New(events.KindPalettesUpdated, data)
	e.Key = storage.KeyPalettes
	s.publish(ctx, e)
	return nil
}
