// Package proxy implements the portless reverse proxy: a single HTTP
// listener that dispatches requests to backend processes by Host header,
// using a route table refreshed from the shared registry.
package proxy

import (
	"context"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/portless-rs/portless/internal/registry"
)

const (
	// routeReloadInterval is the polling cadence for refreshing the
	// in-memory route cache from routes.json.
	routeReloadInterval = 100 * time.Millisecond
	// idleGrace is how long the proxy waits after startup before the
	// idle-shutdown watcher is armed, giving the first app time to register.
	idleGrace = 10 * time.Second
	// idleShutdownDelay is how long the proxy waits, once every route has
	// disappeared, before it shuts itself down.
	idleShutdownDelay = 5 * time.Second

	shutdownTimeout = 10 * time.Second
)

// Options configures a Server.
type Options struct {
	Port     int
	StateDir string
}

// Server is the portless reverse proxy.
type Server struct {
	port     int
	stateDir string
	store    *registry.Store

	mu           sync.RWMutex
	cachedRoutes []registry.Route

	hasRoutes atomic.Bool // route-reloader -> idle watcher

	httpServer *http.Server
}

// New creates a Server for the given options.
func New(opts Options) *Server {
	s := &Server{
		port:     opts.Port,
		stateDir: opts.StateDir,
		store:    registry.NewStore(opts.StateDir),
	}
	s.hasRoutes.Store(true)
	return s
}

// Run binds the listener, publishes the PID/port files, starts the route
// reloader and idle-shutdown watcher, and serves until a termination
// signal arrives or the listener fails. It is the sole writer of
// proxy.pid/proxy.port: the daemonizing CLI path never pre-writes them,
// it only polls the readiness probe until the proxy answers.
func (s *Server) Run() error {
	if err := os.MkdirAll(s.stateDir, 0755); err != nil {
		return fmt.Errorf("proxy: create state dir: %w", err)
	}

	routes, err := s.store.LoadRaw()
	if err != nil {
		log.Printf("warning: failed to load routes: %v", err)
	}
	s.setCachedRoutes(routes)

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: http.HandlerFunc(s.handleHTTP),
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("proxy: listen: %w", err)
	}

	if err := s.writePIDAndPort(); err != nil {
		ln.Close()
		return fmt.Errorf("proxy: publish pid/port: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("portless proxy listening on port %d", s.port)
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	go s.watchRoutes()
	go s.watchIdle()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Printf("received %v, shutting down", sig)
	case err := <-errCh:
		return err
	}

	return s.shutdown()
}

func (s *Server) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(ctx); err != nil {
		s.httpServer.Close()
	}
	return nil
}

func (s *Server) writePIDAndPort() error {
	pidPath := s.stateDir + "/proxy.pid"
	portPath := s.stateDir + "/proxy.port"

	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(os.Getpid())), 0644); err != nil {
		return err
	}
	return os.WriteFile(portPath, []byte(strconv.Itoa(s.port)), 0644)
}

func (s *Server) setCachedRoutes(routes []registry.Route) {
	s.mu.Lock()
	s.cachedRoutes = routes
	s.mu.Unlock()
}

// routesSnapshot returns a copy of the cached route table, safe to read
// without holding the lock for the duration of request handling.
func (s *Server) routesSnapshot() []registry.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	routes := make([]registry.Route, len(s.cachedRoutes))
	copy(routes, s.cachedRoutes)
	return routes
}

func (s *Server) findRoute(host string) (registry.Route, bool) {
	for _, r := range s.routesSnapshot() {
		if r.Hostname == host {
			return r, true
		}
	}
	return registry.Route{}, false
}
