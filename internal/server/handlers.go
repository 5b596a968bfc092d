package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/jonathan/portfolio-studio/internal/contact"
	"github.com/jonathan/portfolio-studio/internal/events"
	"github.com/jonathan/portfolio-studio/internal/media"
	"github.com/jonathan/portfolio-studio/internal/portfolio"
	"github.com/jonathan/portfolio-studio/internal/storage"
	"github.com/jonathan/portfolio-studio/internal/store"
	"github.com/jonathan/portfolio-studio/internal/types"
	"github.com/jonathan/portfolio-studio/internal/validation"
)

// keepAliveInterval spaces comment lines on idle event streams.
var keepAliveInterval = 25 * time.Second

// maxContactBytes caps a visitor's contact form body.
const maxContactBytes int64 = 64 << 10

// handleSite returns the published document, normalized.
func (s *Server) handleSite(w http.ResponseWriter, r *http.Request) {
	doc := store.LoadPublished(r.Context(), s.storage, s.logger)
	s.documentResponse(w, http.StatusOK, doc)
}

// SitePaletteResponse is the accent pair the public site renders with.
type SitePaletteResponse struct {
	Palette types.Palette        `json:"palette"`
	Saved   []types.SavedPalette `json:"saved"`
}

// handleSitePalette resolves the published palette choice to concrete colors.
func (s *Server) handleSitePalette(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	doc := store.LoadPublished(ctx, s.storage, s.logger)
	saved := s.store.SavedPalettes(ctx)

	id, _ := portfolio.Get(doc, pathPalette)
	custom, _ := portfolio.Get(doc, pathCustom)
	idStr, _ := id.(string)
	customMap, _ := custom.(map[string]any)

	s.jsonResponse(w, http.StatusOK, SitePaletteResponse{
		Palette: portfolio.ResolvePalette(idStr, customMap, saved),
		Saved:   saved,
	})
}

// handleSiteEvents streams published-document and palette changes.
func (s *Server) handleSiteEvents(w http.ResponseWriter, r *http.Request) {
	sub, cancel := s.bus.Subscribe(events.KindPortfolioUpdated, events.KindPalettesUpdated)
	defer cancel()

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ticker := time.NewTicker(keepAliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case e, ok := <-sub:
			if !ok {
				return
			}
			if err := sse.WriteEvent(string(e.Kind), e); err != nil {
				s.logger.Debug("site event stream closed", zap.Error(err))
				return
			}
		case <-ticker.C:
			if err := sse.WriteKeepAlive(); err != nil {
				return
			}
		}
	}
}

// handleContact delivers a visitor message using the published contact settings.
func (s *Server) handleContact(w http.ResponseWriter, r *http.Request) {
	var msg contact.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxContactBytes)).Decode(&msg); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			s.writeError(w, &media.TooLargeError{Limit: maxErr.Limit})
			return
		}
		s.writeError(w, &ErrBadRequest{Message: "invalid request body"})
		return
	}

	form := contact.FormFromDocument(store.LoadPublished(r.Context(), s.storage, s.logger))
	result, err := s.contact.Submit(r.Context(), form, msg)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// documentResponse writes doc as the response body.
func (s *Server) documentResponse(w http.ResponseWriter, status int, doc portfolio.Document) {
	data, err := portfolio.Marshal(doc)
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.logger.Debug("failed to write document", zap.Error(err))
	}
}

// ErrorResponse is the body of every failed request. Validation failures also
// carry the issues and where the editor should navigate to fix the first one.
type ErrorResponse struct {
	Error   string           `json:"error"`
	Issues  []types.Issue    `json:"issues,omitempty"`
	Nav     *types.NavTarget `json:"nav,omitempty"`
	Pending *contact.Message `json:"pending,omitempty"`
}

// writeError maps err to its status code and writes an ErrorResponse.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := HTTPStatus(err)
	resp := ErrorResponse{Error: err.Error()}

	var validErr *validation.Error
	var deliveryErr *contact.DeliveryError
	var storageErr *storage.Error
	switch {
	case errors.As(err, &validErr):
		nav := validErr.Nav()
		resp.Error = validErr.First().Message
		resp.Issues = validErr.Issues
		resp.Nav = &nav
	case errors.As(err, &deliveryErr):
		pending := deliveryErr.Pending
		resp.Pending = &pending
	case errors.As(err, &storageErr):
		s.logger.Error("storage failure", zap.Error(err))
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.Error(err))
	}
	s.jsonResponse(w, status, resp)
}
