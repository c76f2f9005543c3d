package writers

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// StdoutName selects standard output instead of a file.
const StdoutName = "-"

// AtomicFile writes to a temporary file next to path and renames it into place
// on Close, so readers never see a partly written document.
type AtomicFile struct {
	path string
	tmp  *os.File
	err  error
}

// NewAtomicFile creates the temporary file for path.
func NewAtomicFile(path string, perm os.FileMode) (*AtomicFile, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	if err := tmp.Chmod(perm); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return nil, fmt.Errorf("chmod temp file: %w", err)
	}
	return &AtomicFile{path: path, tmp: tmp}, nil
}

func (f *AtomicFile) Write(p []byte) (int, error) {
	n, err := f.tmp.Write(p)
	if err != nil && f.err == nil {
		f.err = err
	}
	return n, err
}

// Close moves the file into place, or removes it if any write failed.
func (f *AtomicFile) Close() error {
	if f.tmp == nil {
		return nil
	}
	tmpName := f.tmp.Name()
	closeErr := f.tmp.Close()
	f.tmp = nil
	if f.err != nil || closeErr != nil {
		_ = os.Remove(tmpName)
		if f.err != nil {
			return fmt.Errorf("write %s: %w", f.path, f.err)
		}
		return fmt.Errorf("close %s: %w", f.path, closeErr)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename into %s: %w", f.path, err)
	}
	return nil
}

// Abort discards everything written so far.
func (f *AtomicFile) Abort() {
	if f.tmp == nil {
		return
	}
	tmpName := f.tmp.Name()
	_ = f.tmp.Close()
	_ = os.Remove(tmpName)
	f.tmp = nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

// Output returns a writer for a command's output location: standard output for
// "-" or an empty location, otherwise a file created atomically on first write.
func Output(location string, stdout io.Writer) io.WriteCloser {
	if location == "" || location == StdoutName {
		return nopCloser{stdout}
	}
	return NewLazyWriteCloser(func() (io.WriteCloser, error) {
		return NewAtomicFile(location, 0o644)
	})
}
