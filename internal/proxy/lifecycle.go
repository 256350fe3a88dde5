package proxy

import (
	"log"
	"os"
	"time"
)

// watchRoutes re-reads routes.json every routeReloadInterval, refreshing
// the display/dispatch cache from the unfiltered list (a fast path with no
// per-route liveness check) and separately updating the liveness-filtered
// has-routes flag the idle watcher polls.
func (s *Server) watchRoutes() {
	ticker := time.NewTicker(routeReloadInterval)
	defer ticker.Stop()

	for range ticker.C {
		if routes, err := s.store.LoadRaw(); err == nil {
			s.setCachedRoutes(routes)
		}

		if alive, err := s.store.Load(false); err == nil {
			s.hasRoutes.Store(len(alive) > 0)
		}
	}
}

// watchIdle shuts the process down after idleShutdownDelay of having no
// live routes, but never before idleGrace has elapsed since startup (so
// the first app has time to register before the proxy considers itself
// idle). A route reappearing before the deadline cancels the shutdown,
// and the deadline is re-armed from scratch on every
// empty-to-nonempty-to-empty transition; the grace period applies only
// once, at startup.
func (s *Server) watchIdle() {
	time.Sleep(idleGrace)

	ticker := time.NewTicker(routeReloadInterval)
	defer ticker.Stop()

	var deadline time.Time
	armed := false

	for range ticker.C {
		if s.hasRoutes.Load() {
			armed = false
			continue
		}

		if !armed {
			deadline = time.Now().Add(idleShutdownDelay)
			armed = true
			continue
		}

		if time.Now().After(deadline) {
			log.Printf("portless proxy: no active routes, shutting down")
			os.Exit(0)
		}
	}
}
