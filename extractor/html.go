package extractor

import (
	"fmt"
	"os"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// ExtractHTML reads a web brochure. Each <section> or <article> counts as a
// page; documents without them are a single page made of the <body> text.
func ExtractHTML(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open html %s: %w", path, err)
	}
	defer f.Close()

	doc, err := goquery.NewDocumentFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("parse html %s: %w", path, err)
	}
	doc.Find("script, style, noscript").Remove()

	var pages []string
	doc.Find("section, article").Each(func(_ int, s *goquery.Selection) {
		// nested sections are read as part of their parent
		if s.ParentsFiltered("section, article").Length() > 0 {
			return
		}
		if text := collapseLines(blockText(s)); text != "" {
			pages = append(pages, text)
		}
	})
	if len(pages) > 0 {
		return pages, nil
	}

	if text := collapseLines(blockText(doc.Find("body"))); text != "" {
		return []string{text}, nil
	}
	return []string{}, nil
}

// blockText is like Selection.Text but puts every text node on its own line,
// so adjacent elements do not run together.
func blockText(s *goquery.Selection) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			b.WriteByte('\n')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range s.Nodes {
		walk(n)
	}
	return b.String()
}

// collapseLines trims every line and drops the blank ones.
func collapseLines(s string) string {
	var lines []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}
