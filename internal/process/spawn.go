// Package process implements the supervisor side of portless: spawning a
// user command behind a registered hostname, keeping the registry in
// sync with the child's lifetime, and forwarding signals.
package process

import (
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/portless-rs/portless/internal/registry"
)

// signalExitCode maps a received signal to the 128+N convention shells
// use for signal-terminated exit status.
func signalExitCode(sig os.Signal) int {
	switch sig {
	case syscall.SIGHUP:
		return 128 + 1
	case syscall.SIGINT:
		return 128 + 2
	case syscall.SIGQUIT:
		return 128 + 3
	case syscall.SIGABRT:
		return 128 + 6
	case syscall.SIGKILL:
		return 128 + 9
	case syscall.SIGTERM:
		return 128 + 15
	default:
		return 128 + 15
	}
}

// Run registers hostname -> port in store, spawns cmdStr as a child with
// PORT/HOST injected into its environment, and blocks until the child
// exits or a termination signal arrives. On any exit path the route is
// removed; if that leaves the registry empty, it signals the proxy to
// shut down early rather than wait out its own idle timer.
func Run(cmdStr, hostname string, port int, store *registry.Store, stateDir string) int {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	// The registered PID is this supervisor's own, not the child's: the
	// registry's liveness filter tracks how long the supervisor (and
	// thus its ownership of the route) lasts, and the route must exist
	// before the child is spawned so a request arriving the instant it
	// starts listening already finds a route.
	if err := store.Add(registry.Route{Hostname: hostname, Port: port, PID: os.Getpid()}); err != nil {
		fmt.Fprintf(os.Stderr, "portless: failed to register route: %v\n", err)
	}

	cmd := exec.Command("sh", "-c", cmdStr)
	cmd.Env = append(os.Environ(),
		fmt.Sprintf("PORT=%d", port),
		"HOST=127.0.0.1",
	)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Start(); err != nil {
		fmt.Fprintf(os.Stderr, "portless: failed to start command: %v\n", err)
		store.Remove(hostname)
		return 1
	}

	cleanup := func() {
		if err := store.Remove(hostname); err != nil {
			fmt.Fprintf(os.Stderr, "portless: warning: failed to remove route: %v\n", err)
			return
		}
		stopProxyIfIdle(store, stateDir)
	}
	defer cleanup()

	done := make(chan error, 1)
	go func() {
		done <- cmd.Wait()
	}()

	select {
	case sig := <-sigCh:
		cmd.Process.Signal(sig)

		select {
		case second := <-sigCh:
			cmd.Process.Kill()
			<-done
			return signalExitCode(second)
		case <-done:
			return signalExitCode(sig)
		}

	case err := <-done:
		if err == nil {
			return 0
		}
		if exitErr, ok := err.(*exec.ExitError); ok {
			return exitErr.ExitCode()
		}
		return 1
	}
}

// stopProxyIfIdle signals the proxy process to exit if this was the last
// live route, rather than waiting for its own idle-shutdown timer.
func stopProxyIfIdle(store *registry.Store, stateDir string) {
	routes, err := store.Load(false)
	if err != nil || len(routes) > 0 {
		return
	}

	data, err := os.ReadFile(stateDir + "/proxy.pid")
	if err != nil {
		return
	}

	pid := 0
	for _, c := range data {
		if c < '0' || c > '9' {
			break
		}
		pid = pid*10 + int(c-'0')
	}
	if pid == 0 {
		return
	}

	if proc, err := os.FindProcess(pid); err == nil {
		proc.Signal(syscall.SIGTERM)
	}
}
