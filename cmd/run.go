package cmd

import (
	"fmt"

	"github.com/portless-rs/portless/internal/hostname"
	"github.com/portless-rs/portless/internal/portscan"
	"github.com/portless-rs/portless/internal/process"
	"github.com/portless-rs/portless/internal/registry"
	"github.com/portless-rs/portless/internal/statedir"
)

// RunOptions configures `portless <name> <cmd...>`.
type RunOptions struct {
	Name    string
	Command string
	Port    int
}

// Run parses the requested name into a canonical hostname, picks a free
// backend port (or uses the one the caller pinned as given, without
// checking that it is free), auto-starts the
// proxy if it isn't already listening, and supervises the command until
// it exits.
func Run(opts RunOptions) (int, error) {
	host, err := hostname.Parse(opts.Name)
	if err != nil {
		return 1, fmt.Errorf("run: %w", err)
	}

	proxyPort := statedir.DefaultPort()
	stateDir := statedir.Resolve(proxyPort)
	store := registry.NewStore(stateDir)

	if !statedir.IsRunning(proxyPort) {
		if err := ProxyStart(ProxyOptions{Port: proxyPort, Detach: true}); err != nil {
			return 1, fmt.Errorf("run: auto-start proxy: %w", err)
		}
	}

	port := opts.Port
	if port == 0 {
		port, err = portscan.Find(store)
		if err != nil {
			return 1, fmt.Errorf("run: %w", err)
		}
	}

	fmt.Printf("%s -> localhost:%d (auto-resolves to 127.0.0.1)\n", host, port)

	return process.Run(opts.Command, host, port, store, stateDir), nil
}
