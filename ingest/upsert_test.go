package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/Vazimax/BuyMin/database"
	"github.com/Vazimax/BuyMin/llm"
	"github.com/Vazimax/BuyMin/models"
	"github.com/Vazimax/BuyMin/repository"
)

func candidates(items ...string) []llm.Candidate {
	out := make([]llm.Candidate, len(items))
	for i, s := range items {
		out[i] = json.RawMessage(s)
	}
	return out
}

func setupUpserter(t *testing.T) (*Upserter, *gorm.DB) {
	t.Helper()
	db := database.OpenTestDB(t)
	u := NewUpserter(repository.NewPriceRepository(db), nil)
	u.now = func() time.Time { return testNow }
	return u, db
}

func count(t *testing.T, db *gorm.DB, model any) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(model).Count(&n).Error)
	return n
}

const milk = `{"name":"Milk","category":"Dairy","price":2.5,"supermarket":"Acme"}`

func TestUpserter_SkipsNonRecords(t *testing.T) {
	u, db := setupUpserter(t)

	res, err := u.Apply(context.Background(), candidates(milk, `"not a dict"`))
	require.NoError(t, err)
	assert.Equal(t, UpsertResult{Applied: 1, Skipped: 1}, res)

	var prices []models.Price
	require.NoError(t, db.Preload("Product").Preload("Supermarket").Find(&prices).Error)
	require.Len(t, prices, 1)
	assert.Equal(t, "Milk", prices[0].Product.Name)
	assert.Equal(t, "Dairy", prices[0].Product.Category)
	assert.Equal(t, "Acme", prices[0].Supermarket.Name)
	assert.True(t, decimal.RequireFromString("2.5").Equal(prices[0].Price))
}

func TestUpserter_RerunAppendsPricesOnly(t *testing.T) {
	u, db := setupUpserter(t)
	batch := candidates(milk)

	for i := 0; i < 2; i++ {
		_, err := u.Apply(context.Background(), batch)
		require.NoError(t, err)
	}

	assert.Equal(t, int64(1), count(t, db, &models.Product{}))
	assert.Equal(t, int64(1), count(t, db, &models.Supermarket{}))
	assert.Equal(t, int64(2), count(t, db, &models.Price{}))
}

func TestUpserter_EmptyRecordUsesDefaults(t *testing.T) {
	u, db := setupUpserter(t)

	res, err := u.Apply(context.Background(), candidates(`{}`))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Applied)

	var price models.Price
	require.NoError(t, db.Preload("Product").Preload("Supermarket").First(&price).Error)
	assert.Equal(t, DefaultProductName, price.Product.Name)
	assert.Equal(t, DefaultCategory, price.Product.Category)
	assert.Equal(t, DefaultSupermarketName, price.Supermarket.Name)
	assert.True(t, price.Price.IsZero())
	assert.True(t, testNow.Equal(price.ObservedAt))
}

func TestUpserter_SameNameDifferentCategory(t *testing.T) {
	u, db := setupUpserter(t)

	_, err := u.Apply(context.Background(), candidates(
		`{"name":"Cream","category":"Dairy","price":1,"supermarket":"Acme"}`,
		`{"name":"Cream","category":"Cosmetics","price":7,"supermarket":"Acme"}`,
		`{"name":"Cream","category":"Dairy","price":1.1,"supermarket":"Budget"}`,
	))
	require.NoError(t, err)

	assert.Equal(t, int64(2), count(t, db, &models.Product{}))
	assert.Equal(t, int64(2), count(t, db, &models.Supermarket{}))
	assert.Equal(t, int64(3), count(t, db, &models.Price{}))
}

func TestUpserter_EmptyList(t *testing.T) {
	u, _ := setupUpserter(t)

	res, err := u.Apply(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, res)
}

type failingStore struct {
	Store
	failOn string
}

func (s failingStore) FindOrCreateSupermarket(ctx context.Context, name string) (uint, error) {
	if name == s.failOn {
		return 0, errors.New("connection reset")
	}
	return s.Store.FindOrCreateSupermarket(ctx, name)
}

func TestUpserter_StoreErrorStopsRun(t *testing.T) {
	db := database.OpenTestDB(t)
	store := failingStore{Store: repository.NewPriceRepository(db), failOn: "Broken"}
	u := NewUpserter(store, nil)

	res, err := u.Apply(context.Background(), candidates(
		milk,
		`{"name":"Bread","supermarket":"Broken"}`,
		`{"name":"Eggs","supermarket":"Acme"}`,
	))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "record 1")
	assert.Equal(t, 1, res.Applied)

	// the first record stays committed
	assert.Equal(t, int64(1), count(t, db, &models.Price{}))
}
