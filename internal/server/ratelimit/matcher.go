package ratelimit

import (
	"strings"
)

// unlimited marks endpoints that are never rate limited: the health check and
// the long-lived event streams, which hold one connection per client.
var unlimited = map[string]bool{
	"GET /health":               true,
	"GET /site/events":          true,
	"GET /admin/preview/stream": true,
}

// MatchEndpoint matches a request path and method to an endpoint configuration.
// Exact paths win over prefix patterns; among prefixes the longest wins.
// Returns nil when nothing matches.
func MatchEndpoint(path string, method string, configs []EndpointConfig) *EndpointConfig {
	if unlimited[method+" "+path] {
		return &EndpointConfig{Path: path, Method: method}
	}

	for i := range configs {
		if configs[i].Path == path && configs[i].Method == method {
			return &configs[i]
		}
	}

	var best *EndpointConfig
	for i := range configs {
		c := &configs[i]
		if c.Method != method || !strings.HasSuffix(c.Path, "/") || !strings.HasPrefix(path, c.Path) {
			continue
		}
		if best == nil || len(c.Path) > len(best.Path) {
			best = c
		}
	}
	return best
}
