package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

const (
	DefaultProductName     = "Unknown Product"
	DefaultCategory        = "Uncategorized"
	DefaultSupermarketName = "Unknown Supermarket"
)

var (
	// ErrNotARecord means a candidate was not a JSON object.
	ErrNotARecord = errors.New("candidate is not a key-value record")
	// ErrPriceOutOfRange means the price cannot be stored as numeric(6,2).
	ErrPriceOutOfRange = errors.New("price out of range")
)

// maxPrice is the smallest value numeric(6,2) cannot hold.
var maxPrice = decimal.NewFromInt(10000)

// Record is a candidate after defaults and type coercion.
type Record struct {
	Name        string
	Category    string
	Supermarket string
	Price       decimal.Decimal
	ObservedAt  time.Time
}

// NormalizeRecord turns one decoded element of a model reply into a Record.
// Missing or unusable fields fall back to their defaults; only a non-object
// element or an unstorable price is rejected.
func NormalizeRecord(raw json.RawMessage, now time.Time) (Record, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return Record{}, fmt.Errorf("%w: %s", ErrNotARecord, truncate(string(trimmed), 80))
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var fields map[string]any
	if err := dec.Decode(&fields); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrNotARecord, err)
	}

	rec := Record{
		Name:        textField(fields["name"], DefaultProductName),
		Category:    textField(fields["category"], DefaultCategory),
		Supermarket: textField(fields["supermarket"], DefaultSupermarketName),
		Price:       priceField(fields["price"]).Round(2),
		ObservedAt:  dateField(fields["date"], now),
	}
	if rec.Price.IsNegative() || rec.Price.GreaterThanOrEqual(maxPrice) {
		return Record{}, fmt.Errorf("%w: %s", ErrPriceOutOfRange, rec.Price.String())
	}
	return rec, nil
}

func textField(v any, def string) string {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	}
	if s == "" {
		return def
	}
	return s
}

func priceField(v any) decimal.Decimal {
	var s string
	switch t := v.(type) {
	case json.Number:
		s = t.String()
	case string:
		s = cleanPrice(t)
	default:
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// cleanPrice keeps digits, sign and separators, so "€ 2,49" becomes "2.49".
// With both separators present the comma is taken as a thousands mark.
func cleanPrice(s string) string {
	var b strings.Builder
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == '.' || r == ',' || r == '-' {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if strings.Contains(out, ".") {
		return strings.ReplaceAll(out, ",", "")
	}
	return strings.ReplaceAll(out, ",", ".")
}

func dateField(v any, now time.Time) time.Time {
	s, ok := v.(string)
	if !ok {
		return now
	}
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.DateOnly, time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return now
}

// truncate shortens s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
