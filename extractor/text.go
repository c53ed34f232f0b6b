package extractor

import (
	"fmt"
	"os"
	"strings"
)

// ExtractPlainText reads a text file, splitting pages on form feeds the way
// pdftotext output does.
func ExtractPlainText(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read text %s: %w", path, err)
	}
	return strings.Split(string(data), "\f"), nil
}
