package cmd

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/portless-rs/portless/internal/proxy"
	"github.com/portless-rs/portless/internal/registry"
	"github.com/portless-rs/portless/internal/statedir"
)

const (
	proxyStartRetries       = 20
	proxyStartRetryInterval = 250 * time.Millisecond
)

// ProxyOptions configures `portless proxy start`.
type ProxyOptions struct {
	Port   int
	Detach bool
}

// ProxyStart launches the proxy, daemonized unless opts.Detach is false.
func ProxyStart(opts ProxyOptions) error {
	port := resolvePort(opts.Port)
	stateDir := statedir.Resolve(port)

	if statedir.IsRunning(port) {
		fmt.Println("proxy is already running")
		return nil
	}

	if port < statedir.PrivilegedPortThreshold && os.Geteuid() != 0 {
		return fmt.Errorf("port %d requires root\n"+
			"either run with sudo:\n  sudo portless proxy start -p %d\n"+
			"or use the default port (no sudo needed):\n  portless proxy start", port, port)
	}

	if !opts.Detach {
		return proxy.New(proxy.Options{Port: port, StateDir: stateDir}).Run()
	}

	return proxyStartDaemon(port, stateDir)
}

// proxyStartDaemon re-execs the binary in foreground ("proxy start
// --no-detach") as a detached session leader, redirecting its output to
// proxy.log, then polls readiness instead of trusting the fork to
// succeed silently. The daemonized process itself is the sole writer
// of proxy.pid/proxy.port, never this launcher.
func proxyStartDaemon(port int, stateDir string) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("proxy: create state dir: %w", err)
	}

	logPath := filepath.Join(stateDir, "proxy.log")
	logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("proxy: open log file: %w", err)
	}
	defer logFile.Close()

	exePath, err := os.Executable()
	if err != nil {
		return fmt.Errorf("proxy: locate executable: %w", err)
	}

	child := exec.Command(exePath, "proxy", "start", "--no-detach", "-p", fmt.Sprintf("%d", port))
	child.Stdout = logFile
	child.Stderr = logFile
	child.SysProcAttr = &syscall.SysProcAttr{Setsid: true}

	if err := child.Start(); err != nil {
		return fmt.Errorf("proxy: start daemon: %w", err)
	}

	for i := 0; i < proxyStartRetries; i++ {
		if statedir.IsRunning(port) {
			fmt.Printf("proxy started on port %d\n", port)
			return nil
		}
		time.Sleep(proxyStartRetryInterval)
	}

	return fmt.Errorf("proxy: did not become ready within %v", time.Duration(proxyStartRetries)*proxyStartRetryInterval)
}

// ProxyStop reads the PID file, verifies the proxy is actually reachable
// with a readiness probe rather than just a signal-0 check (a recycled
// PID could otherwise belong to an unrelated process), then signals it.
func ProxyStop(requestedPort int) error {
	port := resolvePort(requestedPort)
	stateDir := statedir.Resolve(port)

	if !statedir.IsRunning(port) {
		fmt.Println("proxy is not running")
		return nil
	}

	pidData, err := os.ReadFile(filepath.Join(stateDir, "proxy.pid"))
	if err != nil {
		return fmt.Errorf("proxy: read pid file: %w", err)
	}

	pid := 0
	for _, c := range pidData {
		if c < '0' || c > '9' {
			break
		}
		pid = pid*10 + int(c-'0')
	}
	if pid == 0 {
		return fmt.Errorf("proxy: malformed pid file")
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("proxy: find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("proxy: signal process %d: %w", pid, err)
	}

	os.Remove(filepath.Join(stateDir, "proxy.pid"))
	os.Remove(filepath.Join(stateDir, "proxy.port"))

	fmt.Println("proxy stopped")
	return nil
}

// ProxyStatus reports whether the proxy is running and, if so, its PID,
// port, and route count.
func ProxyStatus(requestedPort int) error {
	port := resolvePort(requestedPort)
	stateDir := statedir.Resolve(port)

	if !statedir.IsRunning(port) {
		fmt.Println("proxy is not running")
		return nil
	}

	store := registry.NewStore(stateDir)
	routes, err := store.Load(false)
	if err != nil {
		return fmt.Errorf("proxy: load routes: %w", err)
	}

	pid := "unknown"
	if pidData, err := os.ReadFile(filepath.Join(stateDir, "proxy.pid")); err == nil {
		pid = string(pidData)
	}

	fmt.Printf("proxy running on port %d, pid %s (%d active routes)\n", port, pid, len(routes))
	return nil
}

func resolvePort(requested int) int {
	if requested != 0 {
		return requested
	}
	return statedir.DefaultPort()
}
