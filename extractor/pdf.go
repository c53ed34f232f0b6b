package extractor

import (
	"fmt"

	"github.com/ledongthuc/pdf"
)

// ExtractPDF reads the plain text of each page. Null pages are skipped.
// The pdf package panics on some malformed files, so panics are turned into
// errors here.
func ExtractPDF(path string) (pages []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("read pdf %s: %v", path, r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf %s: %w", path, err)
	}
	defer f.Close()

	totalPage := r.NumPage()
	pages = make([]string, 0, totalPage)

	for i := 1; i <= totalPage; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}

		text, err := p.GetPlainText(nil)
		if err != nil {
			return nil, fmt.Errorf("read pdf page %d: %w", i, err)
		}
		pages = append(pages, text)
	}

	return pages, nil
}
