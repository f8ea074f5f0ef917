package history

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/brightai/refcheck/internal/project"
)

// LockFileName is the run lock inside project.StateDir.
const LockFileName = "run.lock"

// ErrLocked indicates another refcheck process is fixing the same tree.
var ErrLocked = errors.New("another fix run holds the project lock")

// Lock is an exclusive advisory lock on a project.
type Lock struct {
	file *os.File
}

// AcquireLock takes the project's run lock without blocking.
func AcquireLock(root string) (*Lock, error) {
	dir := filepath.Join(root, project.StateDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s directory: %w", project.StateDir, err)
	}

	lockFile, err := os.OpenFile(filepath.Join(dir, LockFileName), os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open run lock: %w", err)
	}

	if err := lockFileExclusiveNonBlocking(lockFile); err != nil {
		lockFile.Close()
		if isWouldBlockError(err) {
			return nil, ErrLocked
		}
		return nil, fmt.Errorf("failed to acquire run lock: %w", err)
	}
	return &Lock{file: lockFile}, nil
}

// Release unlocks and closes the lock file. It is safe on a nil Lock.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	unlockErr := unlockFile(l.file)
	closeErr := l.file.Close()
	l.file = nil
	if unlockErr != nil {
		return unlockErr
	}
	return closeErr
}
