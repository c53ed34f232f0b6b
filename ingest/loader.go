package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Document is a stored upload.
type Document struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Path string `json:"path"`
	Size int64  `json:"size"`
}

// Loader stores uploaded brochures under <root>/pdfs. Files are kept after
// ingestion.
type Loader struct {
	root string
}

func NewLoader(mediaRoot string) *Loader {
	return &Loader{root: mediaRoot}
}

// Dir is the directory uploads are written to.
func (l *Loader) Dir() string {
	return filepath.Join(l.root, "pdfs")
}

// Save writes the payload to a new file named after a fresh id and the
// base name of the upload.
func (l *Loader) Save(name string, r io.Reader) (*Document, error) {
	dir := l.Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}

	id := uuid.New().String()
	path := filepath.Join(dir, id+"-"+safeBase(name))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create upload file: %w", err)
	}
	size, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("write upload %s: %w", path, err)
	}

	return &Document{ID: id, Name: name, Path: path, Size: size}, nil
}

func safeBase(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == ".." || base == "/" {
		return "upload"
	}
	return base
}
