package registry

import (
	"fmt"
	"os"
	"time"
)

const (
	lockMaxRetries    = 20
	lockRetryInterval = 50 * time.Millisecond
	staleLockAge      = 10 * time.Second
)

// acquireLock claims routes.lock by attempting to create it as a directory;
// mkdir is atomic, so the creator is the sole holder. A lock directory whose
// mtime is older than staleLockAge is assumed abandoned by a crashed holder
// and is removed without consuming a retry.
func (s *Store) acquireLock() error {
	path := s.lockPath()

	attempt := 0
	for attempt < lockMaxRetries {
		err := os.Mkdir(path, 0700)
		if err == nil {
			return nil
		}

		if info, statErr := os.Stat(path); statErr == nil && time.Since(info.ModTime()) > staleLockAge {
			os.RemoveAll(path)
			continue // stale holder crashed; retry immediately, no slot consumed
		}

		attempt++
		time.Sleep(lockRetryInterval)
	}

	return fmt.Errorf("registry: lock contention on %s after %d retries", path, lockMaxRetries)
}

func (s *Store) releaseLock() {
	os.RemoveAll(s.lockPath())
}
