package proxy

import (
	"net/http"
	"strings"
)

// handleHTTP is the single entry point for every accepted connection. It
// extracts the requested hostname, resolves it against the cached route
// table, and dispatches to the WebSocket tunnel or the plain HTTP
// forwarder accordingly.
func (s *Server) handleHTTP(w http.ResponseWriter, r *http.Request) {
	host := extractHostname(r.Host)
	if host == "" {
		writeBadRequest(w, "Missing Host header")
		return
	}

	route, ok := s.findRoute(host)
	if !ok {
		s.serveNotFound(w, host)
		return
	}

	if isWebSocketUpgrade(r) {
		s.handleWebSocket(w, r, route.Port)
		return
	}

	s.forwardHTTP(w, r, route.Port)
}

// extractHostname strips any :port suffix from the Host header and
// lowercases what remains. An empty or missing Host yields "".
func extractHostname(host string) string {
	if idx := strings.IndexByte(host, ':'); idx >= 0 {
		host = host[:idx]
	}
	return strings.ToLower(host)
}

func isWebSocketUpgrade(r *http.Request) bool {
	return strings.EqualFold(r.Header.Get("Upgrade"), "websocket")
}
