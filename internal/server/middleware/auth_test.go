package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testTokenValidator accepts a fixed set of tokens.
type testTokenValidator struct {
	validTokens map[string]uuid.UUID
}

func (v *testTokenValidator) ValidateToken(tokenString string) (SessionIDGetter, error) {
	sessionID, ok := v.validTokens[tokenString]
	if !ok {
		return nil, fmt.Errorf("invalid token")
	}
	return testClaims(sessionID), nil
}

type testClaims uuid.UUID

func (c testClaims) GetSessionID() uuid.UUID {
	return uuid.UUID(c)
}

type testSessions map[uuid.UUID]bool

func (s testSessions) Active(id uuid.UUID) bool {
	return s[id]
}

func setup(t *testing.T) (http.Handler, string, uuid.UUID, testSessions) {
	t.Helper()
	sessionID := uuid.New()
	token := "valid-test-token"
	sessions := testSessions{sessionID: true}
	validator := &testTokenValidator{validTokens: map[string]uuid.UUID{token: sessionID}}

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := GetSessionID(r)
		require.NoError(t, err)
		_, _ = w.Write([]byte(id.String()))
	})
	return AuthMiddleware(validator, sessions)(next), token, sessionID, sessions
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	handler, token, sessionID, _ := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/document", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, sessionID.String(), w.Body.String())
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	handler, token, _, _ := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/preview/stream?access_token="+token, nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_Rejects(t *testing.T) {
	handler, token, _, _ := setup(t)

	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic " + token},
		{"no token", "Bearer"},
		{"extra parts", "Bearer " + token + " extra"},
		{"unknown token", "Bearer nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/admin/document", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestAuthMiddleware_CaseInsensitiveScheme(t *testing.T) {
	handler, token, _, _ := setup(t)

	req := httptest.NewRequest(http.MethodGet, "/admin/document", nil)
	req.Header.Set("Authorization", "bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestAuthMiddleware_EndedSession(t *testing.T) {
	handler, token, sessionID, sessions := setup(t)
	sessions[sessionID] = false

	req := httptest.NewRequest(http.MethodGet, "/admin/document", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "Session expired")
}

func TestGetSessionID_Missing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	_, err := GetSessionID(req)
	assert.Error(t, err)
}
