package repository

import (
	"context"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Vazimax/BuyMin/models"
)

// PageSize is the fixed number of products per listing page.
const PageSize = 5

const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// SearchQuery holds the listing filters. Nil pointers mean "no filter".
type SearchQuery struct {
	Query         string
	SupermarketID *uint
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	Sort          string // "asc" (default) or anything else for descending
	Page          int
}

// ProductPrices is a product annotated with its matching price observations.
type ProductPrices struct {
	Product models.Product `json:"product"`
	Prices  []models.Price `json:"prices"`
}

// Page is one page of listing results.
type Page struct {
	Items       []ProductPrices `json:"results"`
	Number      int             `json:"page"`
	PageSize    int             `json:"page_size"`
	TotalItems  int             `json:"total_items"`
	TotalPages  int             `json:"total_pages"`
	HasPrevious bool            `json:"has_previous"`
	HasNext     bool            `json:"has_next"`
}

// Search runs the listing query and returns the requested page.
// Out-of-range page numbers are clamped to the first or last page.
func (r *PriceRepository) Search(ctx context.Context, q SearchQuery) (*Page, error) {
	results, err := r.SearchAll(ctx, q)
	if err != nil {
		return nil, err
	}
	return Paginate(results, q.Page, PageSize), nil
}

// SearchAll returns every product whose name contains the query, each with
// its prices filtered by supermarket, then by price bounds, then sorted by
// price. Products left without prices are dropped. An empty query matches
// nothing.
func (r *PriceRepository) SearchAll(ctx context.Context, q SearchQuery) ([]ProductPrices, error) {
	term := strings.TrimSpace(q.Query)
	if term == "" {
		return nil, nil
	}

	var products []models.Product
	if err := r.DB.WithContext(ctx).
		Where(`name_key LIKE ? ESCAPE '\'`, "%"+escapeLike(models.FoldName(term))+"%").
		Order("id").
		Find(&products).Error; err != nil {
		return nil, err
	}
	if len(products) == 0 {
		return nil, nil
	}

	ids := make([]uint, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}

	prices := r.DB.WithContext(ctx).Where("product_id IN ?", ids)
	if q.SupermarketID != nil {
		prices = prices.Where("supermarket_id = ?", *q.SupermarketID)
	}
	if q.MinPrice != nil {
		prices = prices.Where("price >= ?", *q.MinPrice)
	}
	if q.MaxPrice != nil {
		prices = prices.Where("price <= ?", *q.MaxPrice)
	}
	if NormalizeSort(q.Sort) == SortAsc {
		prices = prices.Order("price ASC").Order("id ASC")
	} else {
		prices = prices.Order("price DESC").Order("id ASC")
	}

	var rows []models.Price
	if err := prices.
		Preload("Supermarket").
		Preload("Offers", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Find(&rows).Error; err != nil {
		return nil, err
	}

	byProduct := make(map[uint][]models.Price, len(products))
	for _, row := range rows {
		byProduct[row.ProductID] = append(byProduct[row.ProductID], row)
	}

	results := make([]ProductPrices, 0, len(products))
	for _, p := range products {
		matched := byProduct[p.ID]
		if len(matched) == 0 {
			continue
		}
		results = append(results, ProductPrices{Product: p, Prices: matched})
	}
	return results, nil
}

// NormalizeSort maps a requested sort direction onto asc/desc. Only an exact
// "asc" (or empty, the default) sorts ascending.
func NormalizeSort(sort string) string {
	if sort == "" || sort == SortAsc {
		return SortAsc
	}
	return SortDesc
}

// Paginate slices items into fixed-size pages. A page below 1 yields the first
// page and one past the end yields the last page.
func Paginate(items []ProductPrices, number, size int) *Page {
	if size <= 0 {
		size = PageSize
	}
	total := len(items)
	pages := (total + size - 1) / size
	if pages == 0 {
		pages = 1
	}
	if number < 1 {
		number = 1
	}
	if number > pages {
		number = pages
	}

	start := (number - 1) * size
	end := min(start+size, total)

	page := &Page{
		Items:       items[start:end],
		Number:      number,
		PageSize:    size,
		TotalItems:  total,
		TotalPages:  pages,
		HasPrevious: number > 1,
		HasNext:     number < pages,
	}
	if page.Items == nil {
		page.Items = []ProductPrices{}
	}
	return page
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
