package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Vazimax/BuyMin/logger"
	"github.com/Vazimax/BuyMin/models"
	"github.com/Vazimax/BuyMin/repository"
)

// OfferCreator attaches offers to price observations.
type OfferCreator interface {
	CreateOffer(ctx context.Context, priceID uint, discount *decimal.Decimal, details string) (*models.Offer, error)
}

type CreateOfferRequest struct {
	Discount *decimal.Decimal `json:"discount"`
	Details  string           `json:"details"`
}

// numeric(5,2) upper bound
var maxDiscount = decimal.NewFromInt(1000)

// OfferController handles offers on price observations.
type OfferController struct {
	Store OfferCreator
}

// CreateOffer handles POST /prices/{price_id}/offers.
func (c *OfferController) CreateOffer(w http.ResponseWriter, r *http.Request) {
	priceID, err := strconv.ParseUint(chi.URLParam(r, "price_id"), 10, 64)
	if err != nil || priceID == 0 {
		writeError(w, http.StatusBadRequest, "Invalid price_id")
		return
	}

	var req CreateOfferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Discount != nil && (req.Discount.IsNegative() || req.Discount.GreaterThanOrEqual(maxDiscount)) {
		writeError(w, http.StatusBadRequest, "Discount out of range")
		return
	}

	offer, err := c.Store.CreateOffer(r.Context(), uint(priceID), req.Discount, req.Details)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Price not found")
			return
		}
		logger.Error("Failed to create offer", "price_id", priceID, "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to create offer")
		return
	}

	logger.Info("Offer created", "offer_id", offer.ID, "price_id", priceID)
	writeJSON(w, http.StatusCreated, offer)
}
