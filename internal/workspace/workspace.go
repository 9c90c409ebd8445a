package workspace

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"git.home.luguber.info/inful/bookbuilder/internal/logfields"
)

// ErrBusy reports that another run holds the working-area lock.
var ErrBusy = errors.New("another build is running in this project")

const lockName = ".bookbuilder.lock"

// Manager handles the working area of one project.
type Manager struct {
	siteDir   string
	outputDir string
	lockPath  string
	lock      *flock.Flock
}

// NewManager creates a manager for the given site and output folders. The
// lock file lives in root.
func NewManager(root, siteDir, outputDir string) *Manager {
	lockPath := filepath.Join(root, lockName)
	return &Manager{
		siteDir:   siteDir,
		outputDir: outputDir,
		lockPath:  lockPath,
		lock:      flock.New(lockPath),
	}
}

// Acquire takes the working-area lock without waiting.
func (m *Manager) Acquire() error {
	ok, err := m.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock %s)", ErrBusy, m.lockPath)
	}
	slog.Debug("Acquired project lock", logfields.Path(m.lockPath))
	return nil
}

// Release drops the lock. It is safe to call when the lock is not held.
func (m *Manager) Release() error {
	if !m.lock.Locked() {
		return nil
	}
	if err := m.lock.Unlock(); err != nil {
		return fmt.Errorf("release lock: %w", err)
	}
	return nil
}

// ClearSite empties the site folder, creating it if needed. The folder itself
// is kept so tools watching it keep their handle.
func (m *Manager) ClearSite() error {
	entries, err := os.ReadDir(m.siteDir)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to read site directory: %w", err)
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(m.siteDir, e.Name())); err != nil {
			return fmt.Errorf("failed to clear site directory: %w", err)
		}
	}
	if err := os.MkdirAll(m.siteDir, 0o750); err != nil {
		return fmt.Errorf("failed to create site directory: %w", err)
	}
	slog.Info("Cleared site directory", logfields.Path(m.siteDir), logfields.Count(len(entries)))
	return nil
}

// EnsureOutput creates the output folder.
func (m *Manager) EnsureOutput() error {
	if err := os.MkdirAll(m.outputDir, 0o750); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	return nil
}
