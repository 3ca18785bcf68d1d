package pidfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// ErrAlreadyRunning is returned by Acquire when a live process owns the file
var ErrAlreadyRunning = errors.New("daemon is already running")

// PIDFile enforces a single daemon instance
type PIDFile struct {
	path string
}

// New creates a new PIDFile manager
func New(path string) *PIDFile {
	return &PIDFile{path: path}
}

// Path returns the file location
func (p *PIDFile) Path() string {
	return p.path
}

// Acquire writes the current PID. A file left by a dead process or holding
// garbage is replaced; a live owner makes Acquire fail with ErrAlreadyRunning.
func (p *PIDFile) Acquire() error {
	pid, err := p.ReadPID()
	switch {
	case err == nil && pid != os.Getpid() && isProcessRunning(pid):
		return fmt.Errorf("%w (PID %d)", ErrAlreadyRunning, pid)
	case err != nil && !os.IsNotExist(err):
		// Unreadable or malformed; treat as stale
		_ = os.Remove(p.path)
	}

	if err := os.MkdirAll(filepath.Dir(p.path), 0755); err != nil {
		return fmt.Errorf("failed to create PID directory: %w", err)
	}
	if err := os.WriteFile(p.path, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644); err != nil {
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	return nil
}

// ReadPID returns the PID stored in the file
func (p *PIDFile) ReadPID() (int, error) {
	data, err := os.ReadFile(p.path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("malformed PID file %s", p.path)
	}
	return pid, nil
}

// KillExisting terminates the process named in the file, if alive:
// SIGTERM first, SIGKILL once timeout passes. Returns the PID signalled, or 0.
func (p *PIDFile) KillExisting(timeout time.Duration) (int, error) {
	pid, err := p.ReadPID()
	if err != nil || pid == os.Getpid() || !isProcessRunning(pid) {
		return 0, nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return pid, fmt.Errorf("failed to signal process %d: %w", pid, err)
	}

	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if !isProcessRunning(pid) {
			return pid, nil
		}
		time.Sleep(100 * time.Millisecond)
	}

	if err := process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return pid, fmt.Errorf("failed to kill process %d: %w", pid, err)
	}
	return pid, nil
}

// Release removes the PID file if this process owns it
func (p *PIDFile) Release() error {
	if pid, err := p.ReadPID(); err == nil && pid != os.Getpid() {
		return nil
	}
	if err := os.Remove(p.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	return nil
}

// isProcessRunning checks if a process with the given PID is running
func isProcessRunning(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	// Signal 0 only checks existence and permissions
	err = process.Signal(syscall.Signal(0))
	switch {
	case err == nil:
		return true
	case errors.Is(err, syscall.EPERM):
		// Exists but belongs to someone else
		return true
	default:
		return false
	}
}
