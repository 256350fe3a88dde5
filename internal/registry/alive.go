package registry

import (
	"errors"
	"os"
	"syscall"
)

// IsAlive reports whether pid refers to a running process. It signals 0
// (no-op) and treats "no such process" as dead and anything else,
// including permission denied, as alive: another user's process is
// still a process. The current process is always alive.
func IsAlive(pid int) bool {
	if pid == os.Getpid() {
		return true
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}
	return !errors.Is(err, syscall.ESRCH) && !errors.Is(err, os.ErrProcessDone)
}
