package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jonathan/portfolio-studio/internal/config"
	"github.com/jonathan/portfolio-studio/internal/events"
	"github.com/jonathan/portfolio-studio/internal/portfolio"
	"github.com/jonathan/portfolio-studio/internal/server/ratelimit"
	"github.com/jonathan/portfolio-studio/internal/storage"
	"github.com/jonathan/portfolio-studio/internal/store"
	"github.com/jonathan/portfolio-studio/internal/types"
)

const testPassword = "correct-horse"

type testEnv struct {
	srv     *Server
	store   *store.Store
	storage *storage.Memory
	handler http.Handler
}

type envOption func(*Config)

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()
	passwords := &config.PasswordConfig{BcryptCost: bcrypt.MinCost}
	hash, err := passwords.HashPassword(testPassword)
	require.NoError(t, err)

	cfg := Config{
		Port:         0,
		PasswordHash: hash,
		Password:     passwords,
		JWT:          testJWTConfig(),
		RateLimit:    &ratelimit.Config{Enabled: false},
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	st := storage.NewMemory()
	bus := events.NewLocalBus()
	s := store.New(st, bus, store.WithAutosaveDelay(0), store.WithIdleTimeout(0))
	require.NoError(t, s.Open(context.Background()))

	srv, err := New(cfg, Deps{Store: s, Storage: st, Bus: bus})
	require.NoError(t, err)
	t.Cleanup(func() {
		srv.Stop()
		_ = s.Close()
		_ = bus.Close()
	})
	return &testEnv{srv: srv, store: s, storage: st, handler: srv.Handler()}
}

func (e *testEnv) do(t *testing.T, method, target, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	case string:
		reader = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, reader)
	req.RemoteAddr = "192.0.2.1:1234"
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/auth/login", "", types.LoginRequest{Password: testPassword})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp types.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func (e *testEnv) fillValid(t *testing.T, token string) {
	t.Helper()
	for path, v := range map[string]string{
		"profile.name":              "Ada",
		"profile.title":             "Engineer",
		"profile.email":             "ada@example.com",
		"siteTheme.seo.siteTitle":   "Ada",
		"siteTheme.seo.description": "Portfolio",
		"assets.photo":              "/ada.png",
	} {
		rec := e.do(t, http.MethodPatch, "/admin/document", token, PatchRequest{Path: path, Value: v})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Config{}, Deps{})
	assert.Error(t, err)
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestCORSPreflight(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodOptions, "/admin/document", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestSite_ServesNormalizedDefaultWhenUnpublished(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/site", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	doc, err := portfolio.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	assert.True(t, portfolio.Equal(portfolio.Normalize(portfolio.Default()), doc))
}

func TestSitePalette(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/site/palette", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	resp := decode[SitePaletteResponse](t, rec)
	assert.Equal(t, portfolio.DefaultPaletteID, resp.Palette.ID)
	assert.Empty(t, resp.Saved)
}

func TestLogin(t *testing.T) {
	env := newTestEnv(t)

	t.Run("wrong password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", "", types.LoginRequest{Password: "nope"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing password", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", "", map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), "Password")
	})

	t.Run("malformed body", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/auth/login", "", "{")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("success", func(t *testing.T) {
		token := env.login(t)
		rec := env.do(t, http.MethodGet, "/admin/document", token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}

func TestAdmin_RequiresToken(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/admin/document", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodGet, "/admin/document", "garbage", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogout_EndsSession(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/admin/logout", token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/admin/document", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Session expired")
}

func TestEndSessions_SignsOutEveryone(t *testing.T) {
	env := newTestEnv(t)
	first, second := env.login(t), env.login(t)

	env.srv.EndSessions()

	for _, token := range []string{first, second} {
		rec := env.do(t, http.MethodGet, "/admin/document", token, nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	}
}

func TestPatchAndUndo(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPatch, "/admin/document", token, PatchRequest{Path: "profile.name", Value: "Ada"})
	require.Equal(t, http.StatusOK, rec.Code)
	doc, err := portfolio.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	name, _ := portfolio.Get(doc, "profile.name")
	assert.Equal(t, "Ada", name)

	rec = env.do(t, http.MethodPost, "/admin/undo", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	undo := decode[UndoResponse](t, rec)
	assert.True(t, undo.Undone)

	rec = env.do(t, http.MethodPost, "/admin/undo", token, nil)
	assert.False(t, decode[UndoResponse](t, rec).Undone, "empty history")
}

func TestPatchDocument_BadPath(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPatch, "/admin/document", token, PatchRequest{Path: "profile.name.first", Value: "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, 0, env.store.UndoDepth())
}

func TestReplaceDocument(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPut, "/admin/document", token, `{"profile":{"name":"Pasted"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	name, _ := env.store.Get("profile.name")
	assert.Equal(t, "Pasted", name)

	rec = env.do(t, http.MethodPut, "/admin/document", token, `[1,2]`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp := decode[ValidateResponse](t, env.do(t, http.MethodGet, "/admin/validate", token, nil))
	assert.False(t, resp.Valid)
	require.NotEmpty(t, resp.Issues)
	assert.Equal(t, "profile.name", resp.Issues[0].Key)
	require.NotNil(t, resp.Nav)
	assert.Equal(t, portfolio.TabProfile, resp.Nav.Tab)

	env.fillValid(t, token)
	resp = decode[ValidateResponse](t, env.do(t, http.MethodGet, "/admin/validate", token, nil))
	assert.True(t, resp.Valid)
	assert.Nil(t, resp.Nav)
}

func TestPublish(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	t.Run("invalid document is refused with issues", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/admin/publish", token, nil)
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		resp := decode[ErrorResponse](t, rec)
		assert.NotEmpty(t, resp.Issues)
		require.NotNil(t, resp.Nav)
		assert.Equal(t, portfolio.TabProfile, resp.Nav.Tab)
	})

	t.Run("valid document reaches the public site", func(t *testing.T) {
		env.fillValid(t, token)
		rec := env.do(t, http.MethodPost, "/admin/publish", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, store.StateNoDraft, decode[DraftStatus](t, rec).State)

		site, err := portfolio.Parse(env.do(t, http.MethodGet, "/site", "", nil).Body.Bytes())
		require.NoError(t, err)
		name, _ := portfolio.Get(site, "profile.name")
		assert.Equal(t, "Ada", name)
	})
}

func TestSave(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/admin/save", token, SaveRequest{Target: "elsewhere"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/admin/save", token, SaveRequest{Target: store.TargetDraft})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.StateDraftActive, decode[DraftStatus](t, rec).State)

	rec = env.do(t, http.MethodPost, "/admin/save", token, SaveRequest{})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, "empty target saves to published")
}

func TestDraftFlow(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	env.do(t, http.MethodPatch, "/admin/document", token, PatchRequest{Path: "profile.name", Value: "Draft"})
	rec := env.do(t, http.MethodPost, "/admin/draft", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	status := decode[DraftStatus](t, env.do(t, http.MethodGet, "/admin/draft", token, nil))
	assert.Equal(t, store.StateDraftActive, status.State)
	assert.Equal(t, 1, status.UndoDepth)

	_, ok, err := env.storage.Get(context.Background(), storage.KeyPublished)
	require.NoError(t, err)
	assert.False(t, ok, "draft does not touch the published slot")

	rec = env.do(t, http.MethodDelete, "/admin/draft", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	name, _ := env.store.Get("profile.name")
	assert.Equal(t, "", name)
	assert.Equal(t, store.StateNoDraft, env.store.State())
}

func TestReset(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	env.fillValid(t, token)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/admin/publish", token, nil).Code)

	rec := env.do(t, http.MethodPost, "/admin/reset", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	_, ok, err := env.storage.Get(context.Background(), storage.KeyPublished)
	require.NoError(t, err)
	assert.False(t, ok)
	name, _ := env.store.Get("profile.name")
	assert.Equal(t, "", name)
}

func TestImportExport(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/admin/import", token, "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPost, "/admin/import", token, `{"profile":{"name":"Imported"}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.StateDraftActive, env.store.State())

	rec = env.do(t, http.MethodGet, "/admin/export", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "portfolio.json")
	exported, err := portfolio.Parse(rec.Body.Bytes())
	require.NoError(t, err)
	name, _ := portfolio.Get(exported, "profile.name")
	assert.Equal(t, "Imported", name)

	plain := rec.Body.String()

	rec = env.do(t, http.MethodGet, "/admin/export/publish", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, "an invalid document still exports")
	assert.Equal(t, `attachment; filename="portfolio.json"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, plain, rec.Body.String(), "same serialization as a plain export")
}

func TestImport_TooLarge(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.MaxUploadBytes = 16 })
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/admin/import", token, `{"profile":{"name":"far too long"}}`)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLists(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/admin/lists/projects", token, nil).Code)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/admin/lists/projects", token, nil).Code)

	rec := env.do(t, http.MethodPatch, "/admin/lists/projects/1", token, map[string]any{"title": "Second"})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/admin/lists/projects/1/move", token, MoveRequest{To: 0})
	require.Equal(t, http.StatusOK, rec.Code)
	title, _ := env.store.Get("projects.0.title")
	assert.Equal(t, "Second", title)

	rec = env.do(t, http.MethodPut, "/admin/lists/projects/0/hidden", token, HiddenRequest{Hidden: true})
	require.Equal(t, http.StatusOK, rec.Code)
	hidden, _ := env.store.Get("projects.0.hidden")
	assert.Equal(t, true, hidden)

	rec = env.do(t, http.MethodDelete, "/admin/lists/projects/0", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	counts := decode[map[string]int](t, env.do(t, http.MethodGet, "/admin/counts", token, nil))
	assert.Equal(t, 1, counts[portfolio.FieldProjects])

	tests := []struct {
		name   string
		method string
		target string
	}{
		{"unknown list", http.MethodPost, "/admin/lists/hobbies"},
		{"non-numeric index", http.MethodDelete, "/admin/lists/projects/x"},
		{"index out of range", http.MethodDelete, "/admin/lists/projects/5"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, tt.method, tt.target, token, nil)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestSections(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp := decode[SectionsResponse](t, env.do(t, http.MethodGet, "/admin/sections", token, nil))
	assert.Len(t, resp.Sections, len(portfolio.KnownSectionIDs()))

	rec := env.do(t, http.MethodPut, "/admin/sections/order", token, SectionOrderRequest{Order: []string{"contact"}})
	require.Equal(t, http.StatusOK, rec.Code)
	order, _ := env.store.Get(pathSectionOrder)
	assert.Equal(t, "contact", order.([]any)[0])

	rec = env.do(t, http.MethodPost, "/admin/sections/move", token, MoveRequest{From: 0, To: 1})
	require.Equal(t, http.StatusOK, rec.Code)
	order, _ = env.store.Get(pathSectionOrder)
	assert.Equal(t, "contact", order.([]any)[1])

	rec = env.do(t, http.MethodDelete, "/admin/sections/order", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	order, _ = env.store.Get(pathSectionOrder)
	assert.Equal(t, "home", order.([]any)[0])

	rec = env.do(t, http.MethodPut, "/admin/sections/projects/hidden", token, HiddenRequest{Hidden: true})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPut, "/admin/sections/blog/hidden", token, HiddenRequest{Hidden: true})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestPalettes(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	resp := decode[PalettesResponse](t, env.do(t, http.MethodGet, "/admin/palettes", token, nil))
	assert.NotEmpty(t, resp.Presets)
	assert.Equal(t, portfolio.DefaultPaletteID, resp.Selected)

	rec := env.do(t, http.MethodPost, "/admin/palettes", token, types.SavedPalette{Name: "Sunset", Accent: "#f97316", Accent2: "#db2777"})
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, decode[[]types.SavedPalette](t, rec), 1)

	resp = decode[PalettesResponse](t, env.do(t, http.MethodGet, "/admin/palettes", token, nil))
	assert.Equal(t, "saved:Sunset", resp.Selected)
	assert.Equal(t, "#f97316", resp.Resolved.Accent)

	rec = env.do(t, http.MethodPost, "/admin/palettes", token, types.SavedPalette{Name: "Incomplete"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodPut, "/admin/palettes/selected", token, ChoosePaletteRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = env.do(t, http.MethodDelete, "/admin/palettes/Sunset", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	selected, _ := env.store.Get(pathPalette)
	assert.Equal(t, portfolio.DefaultPaletteID, selected)

	rec = env.do(t, http.MethodPut, "/admin/palettes/selected", token, ChoosePaletteRequest{ID: "custom", Accent: "#111111", Accent2: "#222222"})
	require.Equal(t, http.StatusOK, rec.Code)
	accent, _ := env.store.Get("siteTheme.custom.accent")
	assert.Equal(t, "#111111", accent)
}

func TestSearch(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	env.do(t, http.MethodPatch, "/admin/document", token, PatchRequest{Path: "profile.name", Value: "Grace Hopper"})

	results := decode[[]types.SearchEntry](t, env.do(t, http.MethodGet, "/admin/search?q=hopper", token, nil))
	require.NotEmpty(t, results)
	assert.Equal(t, "Grace Hopper", results[0].Value)
}

// onePixelPNG is a valid 1x1 PNG.
var onePixelPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestMedia(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	t.Run("image upload sets the field", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/admin/media?path=assets.photo", token, onePixelPNG)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		photo, _ := env.store.Get("assets.photo")
		assert.True(t, strings.HasPrefix(photo.(string), "data:image/png;base64,"))
	})

	t.Run("non-image rejected for image slots", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/admin/media?path=assets.ogImage", token, "plain text")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("cv accepts any file", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/admin/media?path=assets.cv", token, "plain text")
		require.Equal(t, http.StatusOK, rec.Code)
		cv, _ := env.store.Get("assets.cv")
		assert.True(t, strings.HasPrefix(cv.(string), "data:text/plain;base64,"))
	})

	t.Run("path required", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/admin/media", token, onePixelPNG)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestMedia_TooLarge(t *testing.T) {
	env := newTestEnv(t, func(c *Config) { c.MaxUploadBytes = 8 })
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/admin/media?path=assets.photo", token, onePixelPNG)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestContact_MailtoMode(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/contact", "", contactMessage())
	assert.Equal(t, http.StatusBadRequest, rec.Code, "no recipient before publishing")

	env.fillValid(t, token)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/admin/publish", token, nil).Code)

	rec = env.do(t, http.MethodPost, "/contact", "", contactMessage())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var result struct {
		Mode      string `json:"mode"`
		MailtoURL string `json:"mailto_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.Equal(t, "mailto", result.Mode)
	assert.True(t, strings.HasPrefix(result.MailtoURL, "mailto:ada%40example.com?"))
}

func TestContact_BodyTooLarge(t *testing.T) {
	env := newTestEnv(t)

	body := `{"name":"Ada","email":"ada@example.com","message":"` + strings.Repeat("x", int(maxContactBytes)) + `"}`
	rec := env.do(t, http.MethodPost, "/contact", "", body)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestContact_FormspreeFailureReturnsPending(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer upstream.Close()

	env := newTestEnv(t)
	token := env.login(t)
	env.fillValid(t, token)
	env.do(t, http.MethodPatch, "/admin/document", token, PatchRequest{Path: "siteTheme.contactForm.mode", Value: "formspree"})
	env.do(t, http.MethodPatch, "/admin/document", token, PatchRequest{Path: "siteTheme.contactForm.formspreeEndpoint", Value: upstream.URL})
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/admin/publish", token, nil).Code)

	rec := env.do(t, http.MethodPost, "/contact", "", contactMessage())
	require.Equal(t, http.StatusBadGateway, rec.Code)
	resp := decode[ErrorResponse](t, rec)
	require.NotNil(t, resp.Pending)
	assert.Equal(t, "Hello there", resp.Pending.Message)
}

func contactMessage() map[string]string {
	return map[string]string{"name": "Visitor", "email": "v@example.com", "message": "Hello there"}
}

func TestRateLimit(t *testing.T) {
	env := newTestEnv(t, func(c *Config) {
		c.RateLimit = &ratelimit.Config{
			Enabled:       true,
			DefaultLimit:  100,
			DefaultWindow: time.Minute,
			EndpointConfigs: []ratelimit.EndpointConfig{
				{Path: "/contact", Method: "POST", Limit: 1, Window: time.Hour, Burst: 1},
			},
		}
	})

	first := env.do(t, http.MethodPost, "/contact", "", contactMessage())
	assert.NotEqual(t, http.StatusTooManyRequests, first.Code)
	assert.Equal(t, "1", first.Header().Get("X-RateLimit-Limit"))

	second := env.do(t, http.MethodPost, "/contact", "", contactMessage())
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	assert.Contains(t, second.Body.String(), "rate_limit_exceeded")

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health", "", nil).Code, "health is never limited")
}

func TestPreviewFocus(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)

	rec := env.do(t, http.MethodPost, "/admin/preview/focus", token, FocusRequest{Tab: portfolio.TabCareer, SubTab: portfolio.SubTabProjects})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, portfolio.PreviewSection(portfolio.TabCareer, portfolio.SubTabProjects), decode[map[string]string](t, rec)["section"])
}

// readEvent returns the name and data of the next SSE event, skipping comments.
func readEvent(t *testing.T, r *bufio.Reader) (string, string) {
	t.Helper()
	var name, data string
	for {
		line, err := r.ReadString('\n')
		require.NoError(t, err)
		line = strings.TrimRight(line, "\n")
		switch {
		case strings.HasPrefix(line, "event: "):
			name = strings.TrimPrefix(line, "event: ")
		case strings.HasPrefix(line, "data: "):
			data = strings.TrimPrefix(line, "data: ")
		case line == "" && name != "":
			return name, data
		}
	}
}

func TestSiteEvents_StreamsPublishes(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/site/events", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	token := env.login(t)
	env.fillValid(t, token)
	require.Equal(t, http.StatusOK, env.do(t, http.MethodPost, "/admin/publish", token, nil).Code)

	name, data := readEvent(t, bufio.NewReader(resp.Body))
	assert.Equal(t, string(events.KindPortfolioUpdated), name)
	var e events.Event
	require.NoError(t, json.Unmarshal([]byte(data), &e))
	assert.Equal(t, storage.KeyPublished, e.Key)
	assert.Contains(t, string(e.Payload), "Ada")
}

func TestPreviewStream_SendsReadyThenDocument(t *testing.T) {
	env := newTestEnv(t)
	token := env.login(t)
	ts := httptest.NewServer(env.handler)
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/admin/preview/stream?access_token="+token, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	reader := bufio.NewReader(resp.Body)
	name, _ := readEvent(t, reader)
	assert.Equal(t, "portfolio-preview-ready", name)

	name, data := readEvent(t, reader)
	assert.Equal(t, "portfolio-preview", name)
	assert.Contains(t, data, `"document"`)
}
