// Package document reads and writes the markdown documents mdlocal processes.
package document

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ccollins476ad/mdlocal/fileutil"
	"github.com/flytam/filenamify"
	log "github.com/sirupsen/logrus"
)

// InputError indicates a source document could not be read.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("failed to read document: path=%s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// Document is a text document read from disk.
type Document struct {
	Path string // Path the document was read from.
	Name string // Normalized base name, see NormalizeName.
	Stem string // Name without its extension.
	Ext  string // Extension of Name, including the dot.
	Text string
}

// Read loads the document at path.
func Read(path string) (*Document, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}

	name := NormalizeName(filepath.Base(path))
	ext := filepath.Ext(name)

	return &Document{
		Path: path,
		Name: name,
		Stem: strings.TrimSuffix(name, ext),
		Ext:  ext,
		Text: string(b),
	}, nil
}

// Write saves text at path, creating parent directories as needed. The file
// is replaced atomically.
func Write(path string, text string) error {
	return fileutil.WriteFile(path, []byte(text))
}

// NormalizeName collapses each run of whitespace in a file name to a single
// underscore and replaces characters that are unsafe in file names.
func NormalizeName(name string) string {
	collapsed := strings.Join(strings.Fields(name), "_")

	safe, err := filenamify.Filenamify(collapsed, filenamify.Options{Replacement: "_"})
	if err != nil {
		log.WithError(err).Debugf("failed to sanitize file name: name=%s", collapsed)
		return collapsed
	}
	return safe
}
