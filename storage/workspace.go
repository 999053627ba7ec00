package storage

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

// Workspace owns the on-disk directory layout for training artifacts. It is
// created once at run start and cleaned up on every exit path.
type Workspace struct {
	root    string
	logFile *os.File
}

// NewWorkspace creates the artifact directories under root
func NewWorkspace(root string) (*Workspace, error) {
	for _, name := range []string{"models", "logs", "plots", "reports"} {
		if err := os.MkdirAll(filepath.Join(root, name), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s directory: %w", name, err)
		}
	}
	return &Workspace{root: root}, nil
}

// Root returns the workspace root directory
func (w *Workspace) Root() string { return w.root }

// ModelsDir returns the snapshot directory
func (w *Workspace) ModelsDir() string { return filepath.Join(w.root, "models") }

// LogsDir returns the log directory
func (w *Workspace) LogsDir() string { return filepath.Join(w.root, "logs") }

// PlotsDir returns the plot directory
func (w *Workspace) PlotsDir() string { return filepath.Join(w.root, "plots") }

// ReportsDir returns the evaluation report directory
func (w *Workspace) ReportsDir() string { return filepath.Join(w.root, "reports") }

// OpenRunLog tees the standard logger into logs/<runName>.log for the
// duration of the run.
func (w *Workspace) OpenRunLog(runName string) error {
	path := filepath.Join(w.LogsDir(), runName+".log")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open run log: %w", err)
	}
	w.logFile = f
	log.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

// Close releases the run log and restores stderr-only logging
func (w *Workspace) Close() error {
	if w.logFile == nil {
		return nil
	}
	log.SetOutput(os.Stderr)
	err := w.logFile.Close()
	w.logFile = nil
	return err
}
