package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-studio/internal/media"
	"github.com/jonathan/portfolio-studio/internal/portfolio"
	"github.com/jonathan/portfolio-studio/internal/store"
	"github.com/jonathan/portfolio-studio/internal/types"
	"github.com/jonathan/portfolio-studio/internal/validation"
)

const (
	pathPalette       = "siteTheme.palette"
	pathCustom        = "siteTheme.custom"
	pathSectionOrder  = "siteTheme.sections.order"
	pathSectionHidden = "siteTheme.sections.hidden"

	// pathCV is the only asset that may hold a non-image file.
	pathCV = "assets.cv"
)

// PatchRequest sets one document path.
type PatchRequest struct {
	Path  string `json:"path"`
	Value any    `json:"value"`
}

// SaveRequest names the slot an explicit save writes to.
type SaveRequest struct {
	Target store.Target `json:"target"`
}

// MoveRequest reorders a list entry or section.
type MoveRequest struct {
	From int `json:"from"`
	To   int `json:"to"`
}

// HiddenRequest toggles public visibility.
type HiddenRequest struct {
	Hidden bool `json:"hidden"`
}

// SectionOrderRequest replaces the section order.
type SectionOrderRequest struct {
	Order []string `json:"order"`
}

// ChoosePaletteRequest selects a palette, optionally with custom accents.
type ChoosePaletteRequest struct {
	ID      string `json:"id"`
	Accent  string `json:"accent,omitempty"`
	Accent2 string `json:"accent2,omitempty"`
}

// FocusRequest scrolls connected previews to an editor location.
type FocusRequest struct {
	Tab    string `json:"tab"`
	SubTab string `json:"sub_tab,omitempty"`
}

// DraftStatus reports the editor session state.
type DraftStatus struct {
	State           store.State `json:"state"`
	UndoDepth       int         `json:"undo_depth"`
	AutosavePending bool        `json:"autosave_pending"`
}

// ValidateResponse lists blocking issues and where to fix the first one.
type ValidateResponse struct {
	Valid  bool             `json:"valid"`
	Issues []types.Issue    `json:"issues"`
	Nav    *types.NavTarget `json:"nav,omitempty"`
}

// UndoResponse reports whether a snapshot was restored.
type UndoResponse struct {
	Undone   bool            `json:"undone"`
	Document json.RawMessage `json:"document"`
}

// SectionsResponse describes the orderable site sections.
type SectionsResponse struct {
	Sections []types.SectionDef `json:"sections"`
	Order    any                `json:"order"`
	Hidden   any                `json:"hidden"`
}

// PalettesResponse lists every palette the editor can choose from.
type PalettesResponse struct {
	Presets  []types.Palette      `json:"presets"`
	Saved    []types.SavedPalette `json:"saved"`
	Selected string               `json:"selected"`
	Resolved types.Palette        `json:"resolved"`
}

// decodeJSON reads the request body into v.
func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &ErrBadRequest{Message: "invalid request body"}
	}
	return nil
}

// pathIndex parses the {index} route segment.
func pathIndex(r *http.Request) (int, error) {
	idx, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		return 0, &ErrBadRequest{Message: "index must be an integer"}
	}
	return idx, nil
}

// respondDocument writes the editor's current document.
func (s *Server) respondDocument(w http.ResponseWriter, status int) {
	s.documentResponse(w, status, s.store.Document())
}

// respondEdit writes the document after a successful edit, or the error.
func (s *Server) respondEdit(w http.ResponseWriter, err error) {
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondDocument(w, http.StatusOK)
}

func (s *Server) handleGetDocument(w http.ResponseWriter, _ *http.Request) {
	s.respondDocument(w, http.StatusOK)
}

func (s *Server) handlePatchDocument(w http.ResponseWriter, r *http.Request) {
	var req PatchRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondEdit(w, s.store.SetPath(req.Path, req.Value))
}

// handleReplaceDocument restores a pasted backup as-is.
func (s *Server) handleReplaceDocument(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondEdit(w, s.store.Restore(data))
}

func (s *Server) handleCounts(w http.ResponseWriter, _ *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.store.Counts())
}

func (s *Server) handleUndo(w http.ResponseWriter, _ *http.Request) {
	undone := s.store.Undo()
	data, err := portfolio.Marshal(s.store.Document())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, UndoResponse{Undone: undone, Document: data})
}

func (s *Server) handleValidate(w http.ResponseWriter, _ *http.Request) {
	issues := s.store.Validate()
	resp := ValidateResponse{Valid: len(issues) == 0, Issues: issues}
	if len(issues) > 0 {
		nav := validation.Route(issues[0].Key)
		resp.Nav = &nav
	}
	s.jsonResponse(w, http.StatusOK, resp)
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	var req SaveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	switch req.Target {
	case store.TargetDraft, store.TargetPublished:
	case "":
		req.Target = store.TargetPublished
	default:
		s.writeError(w, &ErrBadRequest{Message: "target must be draft or published"})
		return
	}
	if err := s.store.Save(r.Context(), req.Target); err != nil {
		s.writeError(w, err)
		return
	}
	s.draftStatus(w)
}

func (s *Server) handleDraftStatus(w http.ResponseWriter, _ *http.Request) {
	s.draftStatus(w)
}

func (s *Server) draftStatus(w http.ResponseWriter) {
	s.jsonResponse(w, http.StatusOK, DraftStatus{
		State:           s.store.State(),
		UndoDepth:       s.store.UndoDepth(),
		AutosavePending: s.store.AutosavePending(),
	})
}

func (s *Server) handleSaveDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.store.SaveDraft(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.draftStatus(w)
}

func (s *Server) handleDiscardDraft(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DiscardDraft(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondDocument(w, http.StatusOK)
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if err := s.store.Publish(r.Context()); err != nil {
		s.writeError(w, err)
		return
	}
	s.draftStatus(w)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	s.respondEdit(w, s.store.Reset(r.Context()))
}

// handleImport loads an exported file into the draft slot.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := s.readBody(w, r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondEdit(w, s.store.Import(r.Context(), data))
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	data, err := s.store.Export()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.attachment(w, "portfolio.json", data)
}

// handleExportPublish downloads the document under the name the public site
// loads it from. It is the same serialization as handleExport.
func (s *Server) handleExportPublish(w http.ResponseWriter, r *http.Request) {
	s.handleExport(w, r)
}

func (s *Server) attachment(w http.ResponseWriter, name string, data []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+name+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("failed to write export", zap.Error(err))
	}
}

// readBody reads at most maxUploadBytes of the request body.
func (s *Server) readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.maxUploadBytes))
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return nil, &media.TooLargeError{Limit: maxErr.Limit}
		}
		return nil, &ErrBadRequest{Message: "failed to read request body"}
	}
	return data, nil
}

func (s *Server) handleAppendItem(w http.ResponseWriter, r *http.Request) {
	s.respondEdit(w, s.store.AppendItem(r.PathValue("field")))
}

func (s *Server) handlePatchItem(w http.ResponseWriter, r *http.Request) {
	idx, err := pathIndex(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var patch map[string]any
	if err := decodeJSON(r, &patch); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondEdit(w, s.store.PatchItem(r.PathValue("field"), idx, patch))
}

func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	idx, err := pathIndex(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.respondEdit(w, s.store.RemoveItem(r.PathValue("field"), idx))
}

func (s *Server) handleMoveItem(w http.ResponseWriter, r *http.Request) {
	idx, err := pathIndex(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondEdit(w, s.store.MoveItem(r.PathValue("field"), idx, req.To))
}

func (s *Server) handleSetItemHidden(w http.ResponseWriter, r *http.Request) {
	idx, err := pathIndex(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var req HiddenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondEdit(w, s.store.SetItemHidden(r.PathValue("field"), idx, req.Hidden))
}

func (s *Server) handleGetSections(w http.ResponseWriter, _ *http.Request) {
	order, _ := s.store.Get(pathSectionOrder)
	hidden, _ := s.store.Get(pathSectionHidden)
	s.jsonResponse(w, http.StatusOK, SectionsResponse{
		Sections: portfolio.SectionDefs(),
		Order:    portfolio.NormalizeSectionOrder(order),
		Hidden:   hidden,
	})
}

func (s *Server) handleSetSectionOrder(w http.ResponseWriter, r *http.Request) {
	var req SectionOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondEdit(w, s.store.SetSectionOrder(req.Order))
}

func (s *Server) handleResetSectionOrder(w http.ResponseWriter, _ *http.Request) {
	s.respondEdit(w, s.store.ResetSectionOrder())
}

func (s *Server) handleMoveSection(w http.ResponseWriter, r *http.Request) {
	var req MoveRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondEdit(w, s.store.MoveSection(req.From, req.To))
}

func (s *Server) handleSetSectionHidden(w http.ResponseWriter, r *http.Request) {
	var req HiddenRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	s.respondEdit(w, s.store.SetSectionHidden(r.PathValue("id"), req.Hidden))
}

func (s *Server) handleListPalettes(w http.ResponseWriter, r *http.Request) {
	saved := s.store.SavedPalettes(r.Context())
	id, _ := s.store.Get(pathPalette)
	custom, _ := s.store.Get(pathCustom)
	selected, _ := id.(string)
	customMap, _ := custom.(map[string]any)

	s.jsonResponse(w, http.StatusOK, PalettesResponse{
		Presets:  portfolio.PresetPalettes(),
		Saved:    saved,
		Selected: selected,
		Resolved: portfolio.ResolvePalette(selected, customMap, saved),
	})
}

func (s *Server) handleChoosePalette(w http.ResponseWriter, r *http.Request) {
	var req ChoosePaletteRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if strings.TrimSpace(req.ID) == "" {
		s.writeError(w, &ErrBadRequest{Message: "palette id is required"})
		return
	}
	s.respondEdit(w, s.store.ChoosePalette(req.ID, req.Accent, req.Accent2))
}

func (s *Server) handleSavePalette(w http.ResponseWriter, r *http.Request) {
	var p types.SavedPalette
	if err := decodeJSON(r, &p); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.SavePalette(r.Context(), p); err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, s.store.SavedPalettes(r.Context()))
}

func (s *Server) handleDeletePalette(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePalette(r.Context(), r.PathValue("name")); err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, s.store.SavedPalettes(r.Context()))
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	s.jsonResponse(w, http.StatusOK, s.store.Search(r.URL.Query().Get("q")))
}

// handleMedia stores the uploaded file as a data URI at ?path=. Only the CV
// slot accepts files that are not images.
func (s *Server) handleMedia(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		s.writeError(w, &ErrBadRequest{Message: "path is required"})
		return
	}
	uri, err := media.EncodeDataURI(r.Body, s.maxUploadBytes)
	if err != nil {
		var tooLarge *media.TooLargeError
		if !errors.As(err, &tooLarge) {
			err = &ErrBadRequest{Message: err.Error()}
		}
		s.writeError(w, err)
		return
	}
	if path != pathCV {
		if _, data, err := media.DecodeDataURI(uri); err != nil || !media.IsImage(data) {
			s.writeError(w, &ErrBadRequest{Message: "upload must be an image"})
			return
		}
	}
	s.respondEdit(w, s.store.SetPath(path, uri))
}

// handlePreviewStream pushes the live document to an embedded preview.
func (s *Server) handlePreviewStream(w http.ResponseWriter, r *http.Request) {
	client, disconnect := s.hub.Connect()
	defer disconnect()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}
	if err := sse.WriteEvent("portfolio-preview-ready", map[string]string{"client": client.ID}); err != nil {
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case u, ok := <-client.Updates():
			if !ok {
				return
			}
			if err := sse.WriteEvent("portfolio-preview", u); err != nil {
				return
			}
		case <-ticker.C:
			if err := sse.WriteKeepAlive(); err != nil {
				return
			}
		}
	}
}

func (s *Server) handlePreviewFocus(w http.ResponseWriter, r *http.Request) {
	var req FocusRequest
	if err := decodeJSON(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	section := portfolio.PreviewSection(req.Tab, req.SubTab)
	s.hub.Focus(section)
	s.jsonResponse(w, http.StatusOK, map[string]string{"section": section})
}
