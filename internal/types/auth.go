// Package types provides type definitions for structured data shared across the portfolio-studio system.
package types

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// LoginRequest represents the admin login request.
type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

// LoginResponse represents the login response with the bearer token for the admin session.
type LoginResponse struct {
	Token     string    `json:"token"`
	SessionID uuid.UUID `json:"session_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Validate validates the LoginRequest using the validator.
func (r *LoginRequest) Validate() error {
	validate := validator.New()
	return validate.Struct(r)
}

// Validate validates the SavedPalette using the validator.
func (p *SavedPalette) Validate() error {
	validate := validator.New()
	return validate.Struct(p)
}
