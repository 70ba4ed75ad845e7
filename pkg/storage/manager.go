package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// WorkDirPattern is the os.MkdirTemp pattern for per-job working directories
const WorkDirPattern = "ninlil-"

// NewWorkDir creates a fresh, uniquely named directory under base (the system
// temp directory when base is empty). Every archive job gets its own.
func NewWorkDir(base string) (string, error) {
	if base != "" {
		if err := os.MkdirAll(base, 0755); err != nil {
			return "", fmt.Errorf("failed to create work directory root: %w", err)
		}
	}
	dir, err := os.MkdirTemp(base, WorkDirPattern)
	if err != nil {
		return "", fmt.Errorf("failed to create work directory: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve work directory: %w", err)
	}
	return abs, nil
}

// Cleanup removes a job's working directory and everything in it
func Cleanup(dir string) error {
	if dir == "" {
		return nil
	}
	return os.RemoveAll(dir)
}

// Manager moves finished archives into the output directory
type Manager struct {
	outputDir string
	// mu serializes name selection so two relocations never pick the same target
	mu sync.Mutex
}

// NewManager creates a storage manager rooted at outputDir
func NewManager(outputDir string) (*Manager, error) {
	if outputDir == "" {
		return nil, errors.New("output directory is required")
	}
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}
	return &Manager{outputDir: outputDir}, nil
}

// OutputDir returns the output directory path
func (m *Manager) OutputDir() string {
	return m.outputDir
}

// Relocate moves the archive at src into the output directory and removes
// src's now-empty working directory. An existing file of the same name is
// kept and the new one gets a numeric suffix. Returns the final path.
func (m *Manager) Relocate(src string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	dst := m.availableName(filepath.Base(src))

	if err := os.Rename(src, dst); err != nil {
		// Rename fails across filesystems; fall back to copy and remove.
		if err := copyFile(src, dst); err != nil {
			return "", fmt.Errorf("failed to move archive: %w", err)
		}
		if err := os.Remove(src); err != nil {
			return "", fmt.Errorf("failed to remove source archive: %w", err)
		}
	}

	// The working directory only ever holds this archive.
	_ = os.Remove(filepath.Dir(src))
	return dst, nil
}

// availableName returns a path in the output directory that does not exist yet
func (m *Manager) availableName(name string) string {
	ext := filepath.Ext(name)
	stem := strings.TrimSuffix(name, ext)

	candidate := filepath.Join(m.outputDir, name)
	for i := 1; fileExists(candidate); i++ {
		candidate = filepath.Join(m.outputDir, fmt.Sprintf("%s-%d%s", stem, i, ext))
	}
	return candidate
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// copyFile writes src to dst through a temporary file and an atomic rename
func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	tmp := dst + ".tmp"
	out, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	_, err = io.Copy(out, in)
	closeErr := out.Close()
	if err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to copy archive: %w", err)
	}
	if closeErr != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tmp, dst); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
