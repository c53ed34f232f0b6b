package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Supermarket is a store chain whose prices we track. Identified by name.
type Supermarket struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Location  string    `gorm:"size:100" json:"location,omitempty"` // optional branch/location
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Product is a brand-agnostic grocery product.
// A (name, category) pair maps to at most one row.
type Product struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:200;not null;uniqueIndex:idx_product_name_category" json:"name"`
	Category  string    `gorm:"size:100;not null;uniqueIndex:idx_product_name_category" json:"category"` // e.g. Dairy, Meat, Produce
	NameKey   string    `gorm:"size:200;not null;default:'';index" json:"-"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Prices []Price `json:"prices,omitempty"`
}

// BeforeSave keeps NameKey in step with Name. Folding happens in Go so that
// every driver sees the same lowercase form, SQLite's LOWER being ASCII-only.
func (p *Product) BeforeSave(*gorm.DB) error {
	p.NameKey = FoldName(p.Name)
	return nil
}

// FoldName is the case folding applied to product names and search terms.
func FoldName(s string) string {
	return strings.ToLower(s)
}

// Price is a single observation: this product cost this much at this supermarket.
// Observations are append-only; several may exist for the same pair over time.
type Price struct {
	ID            uint            `gorm:"primaryKey" json:"id"`
	ProductID     uint            `gorm:"not null;index" json:"product_id"`
	SupermarketID uint            `gorm:"not null;index" json:"supermarket_id"`
	Price         decimal.Decimal `gorm:"type:numeric(6,2);not null" json:"price"`
	ObservedAt    time.Time       `gorm:"not null;index" json:"observed_at"`
	CreatedAt     time.Time       `json:"created_at"`

	Product     *Product     `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE" json:"product,omitempty"`
	Supermarket *Supermarket `gorm:"foreignKey:SupermarketID;constraint:OnDelete:CASCADE" json:"supermarket,omitempty"`
	Offers      []Offer      `gorm:"foreignKey:PriceID;constraint:OnDelete:CASCADE" json:"offers,omitempty"`
}

// Offer enriches a price observation with a discount and free-text details.
type Offer struct {
	ID        uint                `gorm:"primaryKey" json:"id"`
	PriceID   uint                `gorm:"not null;index" json:"price_id"`
	Discount  decimal.NullDecimal `gorm:"type:numeric(5,2)" json:"discount"`
	Details   string              `gorm:"type:text" json:"details,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
}

// All lists every model in migration order.
func All() []any {
	return []any{
		&Supermarket{},
		&Product{},
		&Price{},
		&Offer{},
	}
}
