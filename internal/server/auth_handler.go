package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jonathan/portfolio-studio/internal/config"
	"github.com/jonathan/portfolio-studio/internal/server/middleware"
	"github.com/jonathan/portfolio-studio/internal/types"
)

// AuthHandler handles admin login and logout.
type AuthHandler struct {
	passwords    *config.PasswordConfig
	passwordHash string
	jwtService   *JWTService
	sessions     *sessionRegistry
	logger       *zap.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(passwords *config.PasswordConfig, passwordHash string, jwtService *JWTService, sessions *sessionRegistry, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		passwords:    passwords,
		passwordHash: passwordHash,
		jwtService:   jwtService,
		sessions:     sessions,
		logger:       logger,
	}
}

// Login checks the admin password and starts a session.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req types.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := req.Validate(); err != nil {
		http.Error(w, extractValidationErrors(err), http.StatusBadRequest)
		return
	}

	if !h.passwords.VerifyPassword(req.Password, h.passwordHash) {
		err := &ErrInvalidCredentials{}
		h.logger.Warn("admin login failed", zap.String("remote", r.RemoteAddr))
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	sessionID := uuid.New()
	token, expiresAt, err := h.jwtService.GenerateToken(sessionID)
	if err != nil {
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	h.sessions.Start(sessionID, expiresAt)
	h.logger.Info("admin session started", zap.String("session", sessionID.String()))

	response := types.LoginResponse{
		Token:     token,
		SessionID: sessionID,
		ExpiresAt: expiresAt,
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		return
	}
}

// Logout ends the caller's session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sessionID, err := middleware.GetSessionID(r)
	if err != nil {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	h.sessions.End(sessionID)
	h.logger.Info("admin session ended", zap.String("session", sessionID.String()))
	w.WriteHeader(http.StatusNoContent)
}

// extractValidationErrors formats the first validator error.
func extractValidationErrors(err error) string {
	if validationErrors, ok := err.(validator.ValidationErrors); ok && len(validationErrors) > 0 {
		ve := validationErrors[0]
		return fmt.Sprintf("validation error: %s - %s", ve.Field(), ve.Tag())
	}
	return "validation error: invalid request"
}
