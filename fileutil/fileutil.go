package fileutil

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
)

// FilesystemError indicates a failure to create a directory or write a file.
type FilesystemError struct {
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("filesystem error: path=%s: %v", e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// IsDir returns true if a directory with the given path exists.
func IsDir(filename string) bool {
	info, err := os.Stat(filename)
	return err == nil && info.IsDir()
}

// CreateFrom streams r into a new file at path. The parent directory is
// created if necessary. The data is written to a temporary file next to path
// and renamed into place only once the copy has completed, so path never
// holds a partial file. An existing file at path is replaced.
//
// Errors returned by r are passed through unchanged. Every other failure is a
// *FilesystemError.
func CreateFrom(path string, r io.Reader) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return &FilesystemError{Path: dir, Err: err}
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return &FilesystemError{Path: path, Err: err}
	}
	tmpName := tmp.Name()
	defer func() {
		tmp.Close()
		os.Remove(tmpName)
	}()

	tr := &trackingReader{r: r}
	if _, err := io.Copy(tmp, tr); err != nil {
		if tr.err != nil {
			return tr.err
		}
		return &FilesystemError{Path: path, Err: err}
	}
	if err := tmp.Chmod(0644); err != nil {
		return &FilesystemError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &FilesystemError{Path: path, Err: err}
	}

	log.Debugf("renaming: %s --> %s", tmpName, path)
	if err := os.Rename(tmpName, path); err != nil {
		return &FilesystemError{Path: path, Err: err}
	}

	return nil
}

// WriteFile writes b to path the same way CreateFrom does.
func WriteFile(path string, b []byte) error {
	return CreateFrom(path, bytes.NewReader(b))
}

// trackingReader remembers the last non-EOF error of the underlying reader so
// that a failed copy can be blamed on the right side.
type trackingReader struct {
	r   io.Reader
	err error
}

func (tr *trackingReader) Read(p []byte) (int, error) {
	n, err := tr.r.Read(p)
	if err != nil && err != io.EOF {
		tr.err = err
	}
	return n, err
}
