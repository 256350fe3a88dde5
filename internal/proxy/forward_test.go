package proxy

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/portless-rs/portless/internal/registry"
)

func backendPort(t *testing.T, url string) int {
	t.Helper()
	idx := strings.LastIndexByte(url, ':')
	port, err := strconv.Atoi(url[idx+1:])
	if err != nil {
		t.Fatalf("parse backend port from %q: %v", url, err)
	}
	return port
}

func TestForwardHTTPRewritesHeaders(t *testing.T) {
	var gotHost, gotXFProto, gotXFHost, gotXFPort, gotXFFor string

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHost = r.Host
		gotXFProto = r.Header.Get("X-Forwarded-Proto")
		gotXFHost = r.Header.Get("X-Forwarded-Host")
		gotXFPort = r.Header.Get("X-Forwarded-Port")
		gotXFFor = r.Header.Get("X-Forwarded-For")
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	port := backendPort(t, backend.URL)

	s := newTestServer(1355)
	s.setCachedRoutes([]registry.Route{{Hostname: "app.localhost", Port: port, PID: 1}})

	proxySrv := httptest.NewServer(http.HandlerFunc(s.handleHTTP))
	defer proxySrv.Close()

	req, _ := http.NewRequest("GET", proxySrv.URL+"/", nil)
	req.Host = "app.localhost:1355"
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	if resp.Header.Get("x-portless") != "1" {
		t.Fatal("expected x-portless marker on response")
	}
	if gotHost != "localhost:"+strconv.Itoa(port) {
		t.Fatalf("backend saw Host=%q, want localhost:%d", gotHost, port)
	}
	if gotXFProto != "http" {
		t.Fatalf("X-Forwarded-Proto = %q, want http", gotXFProto)
	}
	if gotXFHost != "app.localhost:1355" {
		t.Fatalf("X-Forwarded-Host = %q, want app.localhost:1355", gotXFHost)
	}
	if gotXFPort != "1355" {
		t.Fatalf("X-Forwarded-Port = %q, want 1355", gotXFPort)
	}
	if gotXFFor != "127.0.0.1" {
		t.Fatalf("X-Forwarded-For = %q, want 127.0.0.1", gotXFFor)
	}
}

func TestForwardHTTPPreservesExistingForwardedHeaders(t *testing.T) {
	var gotXFProto, gotXFFor string

	backend := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotXFProto = r.Header.Get("X-Forwarded-Proto")
		gotXFFor = r.Header.Get("X-Forwarded-For")
		w.WriteHeader(http.StatusOK)
	}))
	defer backend.Close()

	port := backendPort(t, backend.URL)

	s := newTestServer(1355)
	s.setCachedRoutes([]registry.Route{{Hostname: "app.localhost", Port: port, PID: 1}})

	proxySrv := httptest.NewServer(http.HandlerFunc(s.handleHTTP))
	defer proxySrv.Close()

	req, _ := http.NewRequest("GET", proxySrv.URL+"/", nil)
	req.Host = "app.localhost:1355"
	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-For", "203.0.113.5")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if gotXFProto != "https" {
		t.Fatalf("X-Forwarded-Proto = %q, want preserved https", gotXFProto)
	}
	if gotXFFor != "203.0.113.5, 127.0.0.1" {
		t.Fatalf("X-Forwarded-For = %q, want 203.0.113.5, 127.0.0.1", gotXFFor)
	}
}

func TestForwardHTTPBadGatewayWhenBackendDown(t *testing.T) {
	s := newTestServer(1355)
	s.setCachedRoutes([]registry.Route{{Hostname: "app.localhost", Port: 1, PID: 1}})

	proxySrv := httptest.NewServer(http.HandlerFunc(s.handleHTTP))
	defer proxySrv.Close()

	req, _ := http.NewRequest("GET", proxySrv.URL+"/", nil)
	req.Host = "app.localhost:1355"
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)

	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", resp.StatusCode)
	}
	if resp.Header.Get("x-portless") != "1" {
		t.Fatal("expected x-portless marker on bad gateway response")
	}
	if !strings.Contains(string(body), "Bad Gateway") {
		t.Fatalf("body = %q, want it to mention Bad Gateway", body)
	}
}
