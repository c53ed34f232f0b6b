package export

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/Vazimax/BuyMin/logger"
	"github.com/Vazimax/BuyMin/repository"
)

// SheetName is the worksheet holding exported prices.
const SheetName = "Prices"

var headers = []string{"Product", "Category", "Supermarket", "Price", "Observed"}

// Searcher returns every product matching a listing query.
type Searcher interface {
	SearchAll(ctx context.Context, q repository.SearchQuery) ([]repository.ProductPrices, error)
}

// Service produces XLSX workbooks from listing queries.
type Service struct {
	search Searcher
	log    *slog.Logger
}

func NewService(search Searcher, log *slog.Logger) *Service {
	return &Service{search: search, log: logger.Or(log)}
}

// ExportXLSX writes one row per price matching q, across all pages. The
// page number in q is ignored.
func (s *Service) ExportXLSX(ctx context.Context, q repository.SearchQuery) ([]byte, error) {
	start := time.Now()

	items, err := s.search.SearchAll(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return nil, err
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(SheetName, cell, h)
	}

	row := 2
	for _, item := range items {
		for _, p := range item.Prices {
			supermarket := ""
			if p.Supermarket != nil {
				supermarket = p.Supermarket.Name
			}
			values := []any{
				item.Product.Name,
				item.Product.Category,
				supermarket,
				p.Price.InexactFloat64(),
				p.ObservedAt.Format(time.DateOnly),
			}
			cell, _ := excelize.CoordinatesToCellName(1, row)
			if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
				return nil, fmt.Errorf("write row %d: %w", row, err)
			}
			row++
		}
	}

	_ = f.SetColWidth(SheetName, "A", "A", 32)
	_ = f.SetColWidth(SheetName, "B", "C", 22)
	_ = f.SetColWidth(SheetName, "D", "E", 12)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("xlsx write: %w", err)
	}

	s.log.Info("Price export written",
		"query", q.Query,
		"rows", row-2,
		"elapsed_ms", time.Since(start).Milliseconds(),
	)
	return buf.Bytes(), nil
}
