// Package pidfile reads and writes single-line PID files.
//
// A PID file holds one decimal integer followed by a newline. Writes use an
// exclusive create so an existing record is never clobbered; reads never
// trust malformed content.
package pidfile

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// filePermissions is owner rw, group/other r.
const filePermissions = 0o644

// File is a PID file at a fixed path.
type File struct {
	path string
}

// New returns a File for path. The path is not touched.
func New(path string) *File {
	return &File{path: path}
}

// Path returns the file location.
func (f *File) Path() string {
	return f.path
}

// Exists reports whether the file is present.
func (f *File) Exists() bool {
	_, err := os.Lstat(f.path)
	return err == nil
}

// ReadPID returns the recorded PID. Open failures, parse failures, and
// negative values all report false.
func (f *File) ReadPID() (int, bool) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return 0, false
	}
	return Parse(string(data))
}

// Parse decodes PID file content.
func Parse(content string) (int, bool) {
	pid, err := strconv.Atoi(strings.TrimSpace(content))
	if err != nil || pid < 0 {
		return 0, false
	}
	return pid, true
}

// WritePID creates the file and records pid. It fails with an error wrapping
// os.ErrExist when the file is already present.
func (f *File) WritePID(pid int) error {
	fh, err := os.OpenFile(f.path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, filePermissions)
	if err != nil {
		return fmt.Errorf("create pid file: %w", err)
	}

	if _, err := fmt.Fprintf(fh, "%d\n", pid); err != nil {
		_ = fh.Close()
		_ = os.Remove(f.path)
		return fmt.Errorf("write pid file: %w", err)
	}
	if err := fh.Sync(); err != nil {
		_ = fh.Close()
		_ = os.Remove(f.path)
		return fmt.Errorf("sync pid file: %w", err)
	}
	if err := fh.Close(); err != nil {
		_ = os.Remove(f.path)
		return fmt.Errorf("close pid file: %w", err)
	}
	return nil
}

// Remove deletes the file. A missing file is already the desired state.
func (f *File) Remove() error {
	if err := os.Remove(f.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove pid file: %w", err)
	}
	return nil
}
