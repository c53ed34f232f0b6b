package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Vazimax/BuyMin/llm"
	"github.com/Vazimax/BuyMin/logger"
)

// Store is the part of repository.PriceStore the upserter writes through.
type Store interface {
	FindOrCreateProduct(ctx context.Context, name, category string) (uint, error)
	FindOrCreateSupermarket(ctx context.Context, name string) (uint, error)
	CreatePriceObservation(ctx context.Context, productID, supermarketID uint, price decimal.Decimal, observedAt time.Time) (uint, error)
}

// UpsertResult counts what happened to a candidate list.
type UpsertResult struct {
	Applied int `json:"applied"`
	Skipped int `json:"skipped"`
}

// Upserter merges candidate records into the store. Products and supermarkets
// are found or created by key; every valid record appends a price observation.
type Upserter struct {
	store Store
	log   *slog.Logger
	now   func() time.Time
}

func NewUpserter(store Store, log *slog.Logger) *Upserter {
	return &Upserter{
		store: store,
		log:   logger.Or(log).With("component", "upserter"),
		now:   time.Now,
	}
}

// Apply writes candidates in order. Malformed candidates are logged and
// skipped. A store error stops the run; records written before it stay.
func (u *Upserter) Apply(ctx context.Context, candidates []llm.Candidate) (UpsertResult, error) {
	var res UpsertResult
	now := u.now()

	for i, raw := range candidates {
		rec, err := NormalizeRecord(raw, now)
		if err != nil {
			u.log.Warn("Skipping candidate", "index", i, "error", err)
			res.Skipped++
			continue
		}

		productID, err := u.store.FindOrCreateProduct(ctx, rec.Name, rec.Category)
		if err != nil {
			return res, fmt.Errorf("record %d: %w", i, err)
		}
		supermarketID, err := u.store.FindOrCreateSupermarket(ctx, rec.Supermarket)
		if err != nil {
			return res, fmt.Errorf("record %d: %w", i, err)
		}
		priceID, err := u.store.CreatePriceObservation(ctx, productID, supermarketID, rec.Price, rec.ObservedAt)
		if err != nil {
			return res, fmt.Errorf("record %d: %w", i, err)
		}

		u.log.Debug("Price recorded", "price_id", priceID, "product", rec.Name,
			"supermarket", rec.Supermarket, "price", rec.Price.StringFixed(2))
		res.Applied++
	}
	return res, nil
}
