package controllers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Vazimax/BuyMin/logger"
	"github.com/Vazimax/BuyMin/models"
	"github.com/Vazimax/BuyMin/repository"
)

// Lister is the read side of the price store.
type Lister interface {
	Search(ctx context.Context, q repository.SearchQuery) (*repository.Page, error)
	ListSupermarkets(ctx context.Context) ([]models.Supermarket, error)
}

// Exporter renders a listing query as a workbook.
type Exporter interface {
	ExportXLSX(ctx context.Context, q repository.SearchQuery) ([]byte, error)
}

// ProductController serves the price listing.
type ProductController struct {
	Store    Lister
	Exporter Exporter
}

// ListProducts handles GET /products.
func (c *ProductController) ListProducts(w http.ResponseWriter, r *http.Request) {
	q, err := ParseSearchQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := c.Store.Search(r.Context(), q)
	if err != nil {
		logger.Error("Failed to search products", "query", q.Query, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to search products")
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ExportProducts handles GET /products/export.xlsx with the same filters as
// ListProducts, ignoring pagination.
func (c *ProductController) ExportProducts(w http.ResponseWriter, r *http.Request) {
	q, err := ParseSearchQuery(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := c.Exporter.ExportXLSX(r.Context(), q)
	if err != nil {
		logger.Error("Failed to export products", "query", q.Query, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to export products")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="prices.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// ListSupermarkets handles GET /supermarkets.
func (c *ProductController) ListSupermarkets(w http.ResponseWriter, r *http.Request) {
	supermarkets, err := c.Store.ListSupermarkets(r.Context())
	if err != nil {
		logger.Error("Failed to list supermarkets", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list supermarkets")
		return
	}
	if supermarkets == nil {
		supermarkets = []models.Supermarket{}
	}
	writeJSON(w, http.StatusOK, supermarkets)
}

// ParseSearchQuery reads the listing filters from the query string.
// An unparsable page number means the first page.
func ParseSearchQuery(r *http.Request) (repository.SearchQuery, error) {
	values := r.URL.Query()
	q := repository.SearchQuery{
		Query: strings.TrimSpace(values.Get("search")),
		Sort:  repository.NormalizeSort(values.Get("sort_by")),
		Page:  1,
	}

	if s := strings.TrimSpace(values.Get("supermarket")); s != "" {
		id, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return q, fmt.Errorf("invalid supermarket %q", s)
		}
		sid := uint(id)
		q.SupermarketID = &sid
	}

	var err error
	if q.MinPrice, err = parsePrice(values.Get("min_price")); err != nil {
		return q, fmt.Errorf("invalid min_price: %w", err)
	}
	if q.MaxPrice, err = parsePrice(values.Get("max_price")); err != nil {
		return q, fmt.Errorf("invalid max_price: %w", err)
	}

	if n, err := strconv.Atoi(values.Get("page")); err == nil {
		q.Page = n
	}
	return q, nil
}

func parsePrice(s string) (*decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
