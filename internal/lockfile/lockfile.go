// Package lockfile keeps a single long-running cadence process per config
// directory.
package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/mitchellh/go-ps"

	"github.com/julianstephens/cadence/internal/constants"
	"github.com/julianstephens/cadence/internal/logger"
)

var (
	findProcessFunc = ps.FindProcess
	getpidFunc      = os.Getpid
)

// HeldError reports a lock owned by another live cadence process.
type HeldError struct {
	PID    int
	Target string
}

func (e *HeldError) Error() string {
	return fmt.Sprintf("another %s process (PID %d) is already watching %s", constants.AppName, e.PID, e.Target)
}

// Lock is a held lockfile. The file holds "pid|target".
type Lock struct {
	path string
	pid  int
}

// Acquire takes the lock at path for target. A lock left behind by a process
// that is gone, or that is not cadence, is taken over.
func Acquire(path, target string) (*Lock, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create lock directory: %w", err)
	}

	if pid, owner, err := read(path); err == nil {
		if alive(pid) {
			return nil, &HeldError{PID: pid, Target: owner}
		}
		logger.Debug("Taking over stale lock", "path", path, "pid", pid)
	} else if !errors.Is(err, os.ErrNotExist) {
		logger.Warn("Ignoring unreadable lockfile", "path", path, "error", err)
	}

	pid := getpidFunc()
	content := fmt.Sprintf("%d|%s", pid, target)
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return nil, fmt.Errorf("failed to write lockfile: %w", err)
	}
	return &Lock{path: path, pid: pid}, nil
}

// Release removes the lockfile if this process still owns it.
func (l *Lock) Release() error {
	pid, _, err := read(l.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if pid != l.pid {
		return nil
	}
	return os.Remove(l.path)
}

func read(path string) (int, string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return 0, "", err
	}

	parts := strings.SplitN(strings.TrimSpace(string(content)), "|", 2)
	if len(parts) != 2 {
		return 0, "", errors.New("lockfile is malformed")
	}
	pid, err := strconv.Atoi(parts[0])
	if err != nil || pid <= 0 {
		return 0, "", errors.New("invalid process ID in lockfile")
	}
	return pid, parts[1], nil
}

func alive(pid int) bool {
	if pid == getpidFunc() {
		return false
	}
	process, err := findProcessFunc(pid)
	if err != nil || process == nil {
		return false
	}
	return strings.HasPrefix(process.Executable(), constants.AppName)
}
