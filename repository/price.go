package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Vazimax/BuyMin/models"
)

// ErrNotFound is returned when a referenced row does not exist.
var ErrNotFound = errors.New("record not found")

// PriceStore is the persistence boundary used by ingestion and the listing API.
type PriceStore interface {
	FindOrCreateProduct(ctx context.Context, name, category string) (uint, error)
	FindOrCreateSupermarket(ctx context.Context, name string) (uint, error)
	CreatePriceObservation(ctx context.Context, productID, supermarketID uint, price decimal.Decimal, observedAt time.Time) (uint, error)
	Search(ctx context.Context, q SearchQuery) (*Page, error)
	SearchAll(ctx context.Context, q SearchQuery) ([]ProductPrices, error)
	ListSupermarkets(ctx context.Context) ([]models.Supermarket, error)
	CreateOffer(ctx context.Context, priceID uint, discount *decimal.Decimal, details string) (*models.Offer, error)
}

// PriceRepository implements PriceStore on top of GORM.
type PriceRepository struct {
	DB *gorm.DB
}

// NewPriceRepository creates and returns a new PriceRepository.
func NewPriceRepository(db *gorm.DB) *PriceRepository {
	return &PriceRepository{
		DB: db,
	}
}

// FindOrCreateProduct returns the id of the product keyed by (name, category),
// inserting it first if needed. The insert relies on the unique index, so
// concurrent callers converge on a single row.
func (r *PriceRepository) FindOrCreateProduct(ctx context.Context, name, category string) (uint, error) {
	product := models.Product{Name: name, Category: category}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}, {Name: "category"}},
		DoNothing: true,
	}).Create(&product).Error
	if err != nil {
		return 0, fmt.Errorf("insert product %q/%q: %w", name, category, err)
	}

	var existing models.Product
	if err := r.DB.WithContext(ctx).
		Where("name = ? AND category = ?", name, category).
		First(&existing).Error; err != nil {
		return 0, fmt.Errorf("fetch product %q/%q: %w", name, category, err)
	}
	return existing.ID, nil
}

// FindOrCreateSupermarket returns the id of the supermarket keyed by name,
// inserting it first if needed.
func (r *PriceRepository) FindOrCreateSupermarket(ctx context.Context, name string) (uint, error) {
	supermarket := models.Supermarket{Name: name}
	err := r.DB.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "name"}},
		DoNothing: true,
	}).Create(&supermarket).Error
	if err != nil {
		return 0, fmt.Errorf("insert supermarket %q: %w", name, err)
	}

	var existing models.Supermarket
	if err := r.DB.WithContext(ctx).Where("name = ?", name).First(&existing).Error; err != nil {
		return 0, fmt.Errorf("fetch supermarket %q: %w", name, err)
	}
	return existing.ID, nil
}

// CreatePriceObservation appends a price history entry.
func (r *PriceRepository) CreatePriceObservation(ctx context.Context, productID, supermarketID uint, price decimal.Decimal, observedAt time.Time) (uint, error) {
	row := models.Price{
		ProductID:     productID,
		SupermarketID: supermarketID,
		Price:         price.Round(2),
		ObservedAt:    observedAt,
	}
	if err := r.DB.WithContext(ctx).Create(&row).Error; err != nil {
		return 0, fmt.Errorf("insert price: %w", err)
	}
	return row.ID, nil
}

// ListSupermarkets returns every supermarket ordered by name.
func (r *PriceRepository) ListSupermarkets(ctx context.Context) ([]models.Supermarket, error) {
	var supermarkets []models.Supermarket
	if err := r.DB.WithContext(ctx).Order("name").Find(&supermarkets).Error; err != nil {
		return nil, err
	}
	return supermarkets, nil
}

// CreateOffer attaches an offer to an existing price observation.
func (r *PriceRepository) CreateOffer(ctx context.Context, priceID uint, discount *decimal.Decimal, details string) (*models.Offer, error) {
	var price models.Price
	if err := r.DB.WithContext(ctx).First(&price, priceID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("price %d: %w", priceID, ErrNotFound)
		}
		return nil, err
	}

	offer := models.Offer{PriceID: price.ID, Details: details}
	if discount != nil {
		offer.Discount = decimal.NewNullDecimal(discount.Round(2))
	}
	if err := r.DB.WithContext(ctx).Create(&offer).Error; err != nil {
		return nil, fmt.Errorf("insert offer: %w", err)
	}
	return &offer, nil
}
