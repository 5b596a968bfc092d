package ratelimit

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// EndpointConfig represents rate limiting configuration for a specific endpoint.
type EndpointConfig struct {
	Path   string        // Endpoint path pattern (a trailing "/" matches by prefix)
	Method string        // HTTP method (GET, POST, etc.)
	Limit  int           // Maximum requests per window
	Window time.Duration // Time window
	Burst  int           // Burst capacity (defaults to Limit if 0)
}

// LoadConfig loads rate limiting configuration from PORTFOLIO_RATE_LIMIT_* variables.
func LoadConfig() *Config {
	if !getEnvBool("PORTFOLIO_RATE_LIMIT_ENABLED", true) {
		return &Config{Enabled: false}
	}

	return &Config{
		Enabled:         true,
		DefaultLimit:    getEnvInt("PORTFOLIO_RATE_LIMIT_DEFAULT_LIMIT", 600),
		DefaultWindow:   getEnvDuration("PORTFOLIO_RATE_LIMIT_DEFAULT_WINDOW", time.Minute),
		CleanupInterval: getEnvDuration("PORTFOLIO_RATE_LIMIT_CLEANUP_INTERVAL", 5*time.Minute),
		Whitelist:       parseIPList(os.Getenv("PORTFOLIO_RATE_LIMIT_WHITELIST")),
		Blacklist:       parseIPList(os.Getenv("PORTFOLIO_RATE_LIMIT_BLACKLIST")),
		EndpointConfigs: DefaultEndpointConfigs(),
	}
}

// DefaultEndpointConfigs returns the default endpoint-specific configurations.
func DefaultEndpointConfigs() []EndpointConfig {
	return []EndpointConfig{
		// Public writes reachable by any visitor
		{Path: "/contact", Method: "POST", Limit: 5, Window: time.Hour, Burst: 2},
		{Path: "/auth/login", Method: "POST", Limit: 10, Window: 15 * time.Minute, Burst: 5},

		// Admin operations that touch storage
		{Path: "/admin/publish", Method: "POST", Limit: 60, Window: time.Minute, Burst: 10},
		{Path: "/admin/import", Method: "POST", Limit: 20, Window: time.Minute, Burst: 5},
		{Path: "/admin/media", Method: "POST", Limit: 30, Window: time.Minute, Burst: 5},

		// Editing is chatty; reads fall through to the default limit
		{Path: "/admin/", Method: "PATCH", Limit: 1200, Window: time.Minute, Burst: 120},
		{Path: "/admin/", Method: "POST", Limit: 600, Window: time.Minute, Burst: 60},
		{Path: "/admin/", Method: "PUT", Limit: 600, Window: time.Minute, Burst: 60},
		{Path: "/admin/", Method: "DELETE", Limit: 300, Window: time.Minute, Burst: 30},
	}
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// parseIPList parses a comma-separated list of IP addresses into a set.
func parseIPList(list string) map[string]bool {
	result := make(map[string]bool)
	for _, ip := range strings.Split(list, ",") {
		if ip = strings.TrimSpace(ip); ip != "" {
			result[ip] = true
		}
	}
	return result
}
