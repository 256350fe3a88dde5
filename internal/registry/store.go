package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Store manages routes.json and routes.lock under a state directory.
// Mutating operations (Add, Remove) hold the advisory filesystem lock for
// the duration of their critical section; Load and LoadRaw do not and must
// tolerate torn reads.
type Store struct {
	stateDir string
}

// NewStore returns a Store rooted at stateDir. It does not create the
// directory; callers create it once on startup.
func NewStore(stateDir string) *Store {
	return &Store{stateDir: stateDir}
}

func (s *Store) routesPath() string {
	return filepath.Join(s.stateDir, "routes.json")
}

func (s *Store) lockPath() string {
	return filepath.Join(s.stateDir, "routes.lock")
}

// parse reads and decodes routes.json, tolerating every form of torn or
// absent file: missing, empty/whitespace, or malformed JSON all yield an
// empty list rather than an error. This absorbs races between a writer
// truncating the file and a concurrent reader.
func (s *Store) parse() []Route {
	data, err := os.ReadFile(s.routesPath())
	if err != nil {
		return nil
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var routes []Route
	if err := json.Unmarshal(data, &routes); err != nil {
		return nil
	}
	return routes
}

// LoadRaw parses routes.json without liveness filtering. Used by the
// proxy's cache-refresh fast path, where a liveness signal per route on
// every poll tick would be wasted work.
func (s *Store) LoadRaw() ([]Route, error) {
	return s.parse(), nil
}

// Load parses routes.json and returns only routes whose PID is alive.
// When persistCleanup is true, the filtered list is written back to disk;
// the caller MUST hold the lock in that case, since Load itself does not
// acquire it.
func (s *Store) Load(persistCleanup bool) ([]Route, error) {
	routes := s.parse()

	alive := make([]Route, 0, len(routes))
	for _, r := range routes {
		if IsAlive(r.PID) {
			alive = append(alive, r)
		}
	}

	if persistCleanup {
		if err := s.Save(alive); err != nil {
			return alive, err
		}
	}

	return alive, nil
}

// Save serializes routes as pretty JSON and replaces routes.json entirely.
func (s *Store) Save(routes []Route) error {
	if routes == nil {
		routes = []Route{}
	}

	data, err := json.MarshalIndent(routes, "", "  ")
	if err != nil {
		return fmt.Errorf("registry: marshal routes: %w", err)
	}

	if err := os.MkdirAll(s.stateDir, 0755); err != nil {
		return fmt.Errorf("registry: create state dir: %w", err)
	}

	return os.WriteFile(s.routesPath(), data, 0644)
}

// Add loads the current list with live-PID filtering and write-back, drops
// any entry with the same hostname, appends route, and saves, all under
// the advisory lock.
func (s *Store) Add(route Route) error {
	if err := s.acquireLock(); err != nil {
		return err
	}
	defer s.releaseLock()

	routes, err := s.Load(true)
	if err != nil {
		return err
	}

	filtered := routes[:0:0]
	for _, r := range routes {
		if r.Hostname != route.Hostname {
			filtered = append(filtered, r)
		}
	}
	filtered = append(filtered, route)

	return s.Save(filtered)
}

// Remove drops the entry matching hostname, under the advisory lock.
func (s *Store) Remove(hostname string) error {
	if err := s.acquireLock(); err != nil {
		return err
	}
	defer s.releaseLock()

	routes, err := s.Load(true)
	if err != nil {
		return err
	}

	filtered := routes[:0:0]
	for _, r := range routes {
		if r.Hostname != hostname {
			filtered = append(filtered, r)
		}
	}

	return s.Save(filtered)
}

// Find returns the route for hostname from an unfiltered read, or false if
// none exists. Used by callers that need a quick existence check without
// paying the lock/filter cost of Add/Remove.
func (s *Store) Find(hostname string) (Route, bool) {
	for _, r := range s.parse() {
		if r.Hostname == hostname {
			return r, true
		}
	}
	return Route{}, false
}

// Clear removes every route, under the advisory lock.
func (s *Store) Clear() error {
	if err := s.acquireLock(); err != nil {
		return err
	}
	defer s.releaseLock()

	return s.Save(nil)
}
