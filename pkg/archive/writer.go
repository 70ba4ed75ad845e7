package archive

import (
	"archive/zip"
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrClosed is returned when writing to a finalized or aborted archive
var ErrClosed = errors.New("archive is closed")

// Writer appends photo entries to a zip file on disk. It is not safe for
// concurrent use; one goroutine owns it for the life of a job.
type Writer struct {
	path    string
	file    *os.File
	zw      *zip.Writer
	entries int
	closed  bool
}

// Create opens a new archive at path. An existing file is never overwritten.
func Create(path string) (*Writer, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to create archive: %w", err)
	}
	return &Writer{
		path: path,
		file: file,
		zw:   zip.NewWriter(file),
	}, nil
}

// Path returns the archive file path
func (w *Writer) Path() string {
	return w.path
}

// Entries returns the number of entries written so far
func (w *Writer) Entries() int {
	return w.entries
}

// WriteEntry appends data as a member named name, stamped with modified in UTC.
// Photos are already compressed so members are stored, not deflated. Writing
// the same name twice produces two members.
func (w *Writer) WriteEntry(name string, data []byte, modified time.Time) error {
	if w.closed {
		return ErrClosed
	}

	header := &zip.FileHeader{
		Name:     name,
		Method:   zip.Store,
		Modified: modified.UTC(),
	}
	header.SetMode(0644)

	dst, err := w.zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("failed to add %s to archive: %w", name, err)
	}
	if _, err := dst.Write(data); err != nil {
		return fmt.Errorf("failed to write %s to archive: %w", name, err)
	}

	w.entries++
	return nil
}

// Close writes the central directory and closes the file. The archive is
// only valid once Close has returned nil.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	if err := w.zw.Close(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := w.file.Sync(); err != nil {
		w.file.Close()
		return fmt.Errorf("failed to flush archive: %w", err)
	}
	if err := w.file.Close(); err != nil {
		return fmt.Errorf("failed to close archive: %w", err)
	}
	return nil
}

// Abort closes the file without finalizing it and removes it
func (w *Writer) Abort() error {
	if w.closed {
		return nil
	}
	w.closed = true

	w.file.Close()
	if err := os.Remove(w.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove partial archive: %w", err)
	}
	return nil
}
