// Package output writes processing results to disk: one file per output
// name, or a single file for one-file results.
package output

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/KaiSD/att/pkg/atg"
	"github.com/KaiSD/att/pkg/atg/textenc"
)

// Sentinel errors for programmatic error handling.
var (
	ErrPathEscape = errors.New("output path escapes the output directory")
	ErrNoName     = errors.New("no name for one-file output")
)

// DefaultPerm is used for files when Writer.Perm is zero.
const DefaultPerm os.FileMode = 0o644

// Writer places generated texts under Dir. Output names may contain '/' or
// '\' to create nested directories.
type Writer struct {
	Dir string
	// Extension is appended to every name. A leading dot is optional.
	Extension string
	// Encoding of the written bytes; empty means UTF-8.
	Encoding string
	Perm     os.FileMode
	// DryRun resolves paths and encodes text without touching the disk.
	DryRun bool
}

// NewWriter creates a writer for res using the extension and encoding the
// template declared.
func NewWriter(dir string, res *atg.Result) *Writer {
	return &Writer{
		Dir:       dir,
		Extension: res.Extension,
		Encoding:  res.Encoding,
	}
}

// Path returns the file path name is written to.
func (w *Writer) Path(name string) (string, error) {
	name = strings.ReplaceAll(name, `\`, "/")
	if ext := strings.TrimPrefix(w.Extension, "."); ext != "" {
		name += "." + ext
	}

	dir := w.Dir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, filepath.FromSlash(name))

	rel, err := filepath.Rel(dir, path)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathEscape, name)
	}
	return path, nil
}

// WriteFile encodes text and writes it under name, creating parent
// directories as needed. It returns the written path.
func (w *Writer) WriteFile(name, text string) (string, error) {
	path, err := w.Path(name)
	if err != nil {
		return "", err
	}
	data, err := textenc.Encode(text, w.Encoding)
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", name, err)
	}

	logger := atg.WithFields(atg.Fields{"path": path, "bytes": len(data)})
	if w.DryRun {
		logger.Info("Dry run, not saving %s", name)
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create directory for %s: %w", name, err)
	}
	perm := w.Perm
	if perm == 0 {
		perm = DefaultPerm
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return "", fmt.Errorf("write %s: %w", name, err)
	}
	logger.Info("Saved %s", name)
	return path, nil
}

// WriteResult writes every output of res and returns the paths in row
// order. A one-file result is written under oneFileName. When several rows
// share a name only the last one is written.
func (w *Writer) WriteResult(res *atg.Result, oneFileName string) ([]string, error) {
	if res.OneFile {
		if oneFileName == "" {
			return nil, ErrNoName
		}
		path, err := w.WriteFile(oneFileName, res.Text)
		if err != nil {
			return nil, err
		}
		return []string{path}, nil
	}

	texts := res.Map()
	last := make(map[string]int, len(res.Files))
	for i, f := range res.Files {
		last[f.Name] = i
	}

	var paths []string
	for i, f := range res.Files {
		if last[f.Name] != i {
			continue
		}
		path, err := w.WriteFile(f.Name, texts[f.Name])
		if err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}
