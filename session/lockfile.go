package session

import (
	"fmt"
	"os"
	"time"
)

const (
	lockRetries    = 50
	lockRetryDelay = 100 * time.Millisecond
	lockStaleAfter = 30 * time.Second
)

// fileLock coordinates token-file writes across processes via an exclusive
// sibling lock file.
type fileLock struct {
	file *os.File
	path string
}

// acquireLock takes the lock for the session file at path, waiting for a
// concurrent holder and breaking locks older than lockStaleAfter (a crashed
// process never releases its lock file).
func acquireLock(path string) (*fileLock, error) {
	lockPath := path + ".lock"

	for i := 0; i < lockRetries; i++ {
		f, err := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			// PID in the lock file helps debug an abandoned lock.
			fmt.Fprintf(f, "%d", os.Getpid())
			return &fileLock{file: f, path: lockPath}, nil
		}

		if os.IsExist(err) {
			if info, statErr := os.Stat(lockPath); statErr == nil {
				if time.Since(info.ModTime()) > lockStaleAfter {
					if remErr := os.Remove(lockPath); remErr != nil && !os.IsNotExist(remErr) {
						return nil, fmt.Errorf("failed to remove stale lock file %s: %w", lockPath, remErr)
					}
					continue
				}
			}
			time.Sleep(lockRetryDelay)
			continue
		}

		return nil, fmt.Errorf("failed to acquire session file lock: %w", err)
	}

	return nil, fmt.Errorf(
		"timeout waiting for session file lock after %v",
		time.Duration(lockRetries)*lockRetryDelay,
	)
}

func (l *fileLock) release() error {
	if l.file != nil {
		l.file.Close()
	}
	return os.Remove(l.path)
}
