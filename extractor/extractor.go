// Package extractor turns a stored brochure into per-page plain text.
package extractor

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// ErrUnsupportedFormat is returned for file types we cannot read.
var ErrUnsupportedFormat = errors.New("unsupported document format")

// Extract returns the text of every page of the document at path, in order.
// The format is chosen from the file extension.
func Extract(path string) ([]string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".pdf":
		return ExtractPDF(path)
	case ".html", ".htm":
		return ExtractHTML(path)
	case ".txt":
		return ExtractPlainText(path)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
}

// Supported reports whether Extract can handle the given file name.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf", ".html", ".htm", ".txt":
		return true
	}
	return false
}

// Join concatenates pages into the single raw text stream fed to the chunker.
func Join(pages []string) string {
	return strings.Join(pages, "\n")
}
