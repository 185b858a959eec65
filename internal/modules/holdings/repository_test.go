package holdings

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kwchan/folio/internal/domain"
	testhelper "github.com/kwchan/folio/internal/testing"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func newTestRepo(t *testing.T) *Repository {
	t.Helper()

	db, cleanup := testhelper.NewTestDB(t, "portfolio")
	t.Cleanup(cleanup)

	return NewRepository(db.Conn(), zerolog.Nop())
}

func stockHolding(ticker string) *domain.Holding {
	return &domain.Holding{
		AssetType:    domain.AssetStock,
		Market:       domain.MarketUS,
		Ticker:       ticker,
		CompanyName:  ticker + " Inc",
		CustomSector: "Information Technology",
		Quantity:     10,
		CostBasis:    100,
	}
}

func TestCreateAssignsID(t *testing.T) {
	repo := newTestRepo(t)

	h := stockHolding("AAPL")
	h.ID = "client-supplied"

	require.NoError(t, repo.Create(h))
	assert.NotEqual(t, "client-supplied", h.ID)
	assert.NotEmpty(t, h.ID)

	stored, err := repo.GetByID(h.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "AAPL", stored.Ticker)
}

func TestGetAll(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(stockHolding("AAPL")))
	require.NoError(t, repo.Create(stockHolding("TSLA")))

	all, err := repo.GetAll()
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestGetByID_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	h, err := repo.GetByID("nonexistent")
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestOptionFieldsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	h := &domain.Holding{
		AssetType:   domain.AssetOption,
		Market:      domain.MarketUS,
		Ticker:      "TSLA",
		Quantity:    -1,
		CostBasis:   5.5,
		OptionType:  strPtr(domain.OptionPut),
		StrikePrice: f64Ptr(200),
		ExpiryDate:  strPtr("2026-12-18"),
		Side:        strPtr(domain.SideShort),
	}
	require.NoError(t, repo.Create(h))

	stored, err := repo.GetByID(h.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	require.NotNil(t, stored.OptionType)
	assert.Equal(t, domain.OptionPut, *stored.OptionType)
	require.NotNil(t, stored.StrikePrice)
	assert.Equal(t, 200.0, *stored.StrikePrice)
	require.NotNil(t, stored.ExpiryDate)
	assert.Equal(t, "2026-12-18", *stored.ExpiryDate)
	require.NotNil(t, stored.Side)
	assert.Equal(t, domain.SideShort, *stored.Side)
}

func TestNullOptionFieldsRoundTrip(t *testing.T) {
	repo := newTestRepo(t)

	h := stockHolding("AAPL")
	require.NoError(t, repo.Create(h))

	stored, err := repo.GetByID(h.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)

	assert.Nil(t, stored.OptionType)
	assert.Nil(t, stored.StrikePrice)
	assert.Nil(t, stored.ExpiryDate)
	assert.Nil(t, stored.Side)
}

func TestUpdate(t *testing.T) {
	repo := newTestRepo(t)

	h := stockHolding("AAPL")
	require.NoError(t, repo.Create(h))

	h.Quantity = 25
	h.CompanyName = "Apple Inc."
	found, err := repo.Update(h)
	require.NoError(t, err)
	assert.True(t, found)

	stored, err := repo.GetByID(h.ID)
	require.NoError(t, err)
	assert.Equal(t, 25.0, stored.Quantity)
	assert.Equal(t, "Apple Inc.", stored.CompanyName)
}

func TestUpdate_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	h := stockHolding("AAPL")
	h.ID = "nonexistent"

	found, err := repo.Update(h)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDelete(t *testing.T) {
	repo := newTestRepo(t)

	h := stockHolding("AAPL")
	require.NoError(t, repo.Create(h))

	found, err := repo.Delete(h.ID)
	require.NoError(t, err)
	assert.True(t, found)

	stored, err := repo.GetByID(h.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)
}

func TestDelete_NotFound(t *testing.T) {
	repo := newTestRepo(t)

	found, err := repo.Delete("nonexistent")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestReplaceAll(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(stockHolding("AAPL")))
	require.NoError(t, repo.Create(stockHolding("TSLA")))

	replacement := []domain.Holding{
		*stockHolding("NVDA"),
		{AssetType: domain.AssetCash, Market: domain.MarketHK, Quantity: 10000},
	}
	require.NoError(t, repo.ReplaceAll(replacement))

	all, err := repo.GetAll()
	require.NoError(t, err)
	require.Len(t, all, 2)

	tickers := []string{all[0].Ticker, all[1].Ticker}
	assert.Contains(t, tickers, "NVDA")

	// Replacement holdings without ids got fresh uuids
	for _, h := range all {
		assert.NotEmpty(t, h.ID)
	}

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, count)
}

func TestReplaceAll_Empty(t *testing.T) {
	repo := newTestRepo(t)

	require.NoError(t, repo.Create(stockHolding("AAPL")))
	require.NoError(t, repo.ReplaceAll(nil))

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}
