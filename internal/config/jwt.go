package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// MinSecretLength is the shortest accepted JWT signing secret.
const MinSecretLength = 16

// JWTConfig holds configuration for admin session tokens.
type JWTConfig struct {
	Secret          string
	ExpirationHours int
}

// NewJWTConfig reads PORTFOLIO_JWT_SECRET (required) and
// PORTFOLIO_SESSION_HOURS (default 12).
func NewJWTConfig() (*JWTConfig, error) {
	secret := os.Getenv(envPrefix + "JWT_SECRET")
	if secret == "" {
		return nil, fmt.Errorf("%sJWT_SECRET is required but not set", envPrefix)
	}

	hoursStr := os.Getenv(envPrefix + "SESSION_HOURS")
	if hoursStr == "" {
		hoursStr = "12"
	}
	hours, err := strconv.Atoi(hoursStr)
	if err != nil {
		return nil, fmt.Errorf("invalid %sSESSION_HOURS: %v", envPrefix, err)
	}

	cfg := &JWTConfig{Secret: secret, ExpirationHours: hours}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *JWTConfig) normalize() error {
	if len(c.Secret) < MinSecretLength {
		return fmt.Errorf("%sJWT_SECRET must be at least %d characters", envPrefix, MinSecretLength)
	}
	if c.ExpirationHours < 1 {
		return fmt.Errorf("%sSESSION_HOURS must be at least 1 hour, got: %d", envPrefix, c.ExpirationHours)
	}
	return nil
}

// Expiration returns the token lifetime.
func (c *JWTConfig) Expiration() time.Duration {
	return time.Duration(c.ExpirationHours) * time.Hour
}
