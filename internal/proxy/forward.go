package proxy

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/http/httputil"
	"strconv"
	"strings"
)

// backendTransport dials via dialBackend's IPv4-then-IPv6 fallback instead
// of letting net/http resolve "localhost" itself, since that resolution is
// platform-dependent and can land on a loopback address the backend isn't
// listening on.
var backendTransport = &http.Transport{
	DialContext: func(ctx context.Context, network, addr string) (net.Conn, error) {
		_, portStr, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, err
		}
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, err
		}
		return dialBackend(port)
	},
}

// forwardHTTP proxies a plain (non-WebSocket) request to the backend
// listening on port, rewriting Host and the X-Forwarded-* headers per
// spec before dispatch, and tagging the response with x-portless so a
// client (or the readiness probe) can recognize a portless-fronted
// response.
func (s *Server) forwardHTTP(w http.ResponseWriter, r *http.Request, port int) {
	originalHost := r.Host

	proxy := &httputil.ReverseProxy{
		Transport: backendTransport,
		// Rewrite (rather than the legacy Director) is required here:
		// ReverseProxy's Director path unconditionally appends the
		// inbound RemoteAddr to X-Forwarded-For after Director runs,
		// even when Director already set the header, which would
		// double the client IP. Rewrite leaves XFF entirely to us, but
		// it strips the client's X-Forwarded-For/-Host/-Proto from
		// pr.Out before calling us, so existing values are read from
		// pr.In.
		Rewrite: func(pr *httputil.ProxyRequest) {
			req := pr.Out
			in := pr.In.Header

			clientIP := pr.In.RemoteAddr
			if idx := strings.LastIndexByte(clientIP, ':'); idx >= 0 {
				clientIP = clientIP[:idx]
			}

			req.URL.Scheme = "http"
			req.URL.Host = fmt.Sprintf("localhost:%d", port)
			req.Host = req.URL.Host

			if existing := in.Get("X-Forwarded-For"); existing != "" {
				req.Header.Set("X-Forwarded-For", existing+", "+clientIP)
			} else {
				req.Header.Set("X-Forwarded-For", clientIP)
			}

			if existing := in.Get("X-Forwarded-Proto"); existing != "" {
				req.Header.Set("X-Forwarded-Proto", existing)
			} else {
				req.Header.Set("X-Forwarded-Proto", "http")
			}

			if existing := in.Get("X-Forwarded-Host"); existing != "" {
				req.Header.Set("X-Forwarded-Host", existing)
			} else {
				req.Header.Set("X-Forwarded-Host", originalHost)
			}

			if req.Header.Get("X-Forwarded-Port") == "" {
				req.Header.Set("X-Forwarded-Port", forwardedPort(originalHost))
			}
		},
		ModifyResponse: func(resp *http.Response) error {
			resp.Header.Set("x-portless", "1")
			return nil
		},
		ErrorHandler: func(w http.ResponseWriter, r *http.Request, err error) {
			log.Printf("proxy error [%s -> localhost:%d]: %v", originalHost, port, err)
			writeBadGateway(w)
		},
	}

	proxy.ServeHTTP(w, r)
}

// forwardedPort extracts the port component of a Host header, defaulting
// to "80" when the header carries no explicit port.
func forwardedPort(host string) string {
	if idx := strings.LastIndexByte(host, ':'); idx >= 0 {
		return host[idx+1:]
	}
	return "80"
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("x-portless", "1")
	w.WriteHeader(http.StatusBadRequest)
	w.Write([]byte(msg))
}

func writeBadGateway(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("x-portless", "1")
	w.WriteHeader(http.StatusBadGateway)
	w.Write([]byte("Bad Gateway: the target app may not be running."))
}
