// Package portscan finds an unclaimed backend port for a new service,
// checking both OS bindability and the ports already recorded in the
// route registry.
package portscan

import (
	"fmt"
	"math/rand"
	"net"

	"github.com/portless-rs/portless/internal/registry"
)

const (
	MinPort        = 4000
	MaxPort        = 4999
	randomAttempts = 50
)

// Find returns a port in [MinPort, MaxPort] that is both free to bind on
// 127.0.0.1 and not already claimed by a live route in store. It tries
// randomAttempts random candidates first, then falls back to a linear
// scan of the whole range: random probing is fast in the common case,
// and the linear scan guarantees termination when the range is nearly
// exhausted.
func Find(store *registry.Store) (int, error) {
	claimed, err := claimedPorts(store)
	if err != nil {
		return 0, err
	}

	for i := 0; i < randomAttempts; i++ {
		port := MinPort + rand.Intn(MaxPort-MinPort+1)
		if !claimed[port] && isFree(port) {
			return port, nil
		}
	}

	for port := MinPort; port <= MaxPort; port++ {
		if !claimed[port] && isFree(port) {
			return port, nil
		}
	}

	return 0, fmt.Errorf("portscan: no free port in range %d-%d", MinPort, MaxPort)
}

func claimedPorts(store *registry.Store) (map[int]bool, error) {
	routes, err := store.Load(false)
	if err != nil {
		return nil, err
	}

	claimed := make(map[int]bool, len(routes))
	for _, r := range routes {
		claimed[r.Port] = true
	}
	return claimed, nil
}

func isFree(port int) bool {
	ln, err := net.Listen("tcp", fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		return false
	}
	ln.Close()
	return true
}
