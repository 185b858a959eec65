package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string   { return &s }
func f64Ptr(f float64) *float64 { return &f }

func TestNormalize_ShortOptionQuantityNegated(t *testing.T) {
	h := &Holding{
		AssetType:   AssetOption,
		Market:      MarketUS,
		Ticker:      "TSLA",
		Quantity:    2,
		OptionType:  strPtr(OptionPut),
		StrikePrice: f64Ptr(200),
		Side:        strPtr(SideShort),
	}

	Normalize(h)
	assert.Equal(t, -2.0, h.Quantity)

	// Already-negative quantity must not be negated again
	Normalize(h)
	assert.Equal(t, -2.0, h.Quantity)
}

func TestNormalize_LongOptionQuantityUntouched(t *testing.T) {
	h := &Holding{
		AssetType:   AssetOption,
		Market:      MarketUS,
		Ticker:      "AAPL",
		Quantity:    3,
		OptionType:  strPtr(OptionCall),
		StrikePrice: f64Ptr(150),
		Side:        strPtr(SideLong),
	}

	Normalize(h)
	assert.Equal(t, 3.0, h.Quantity)
}

func TestNormalize_NonOptionFieldsCleared(t *testing.T) {
	h := &Holding{
		AssetType:   AssetStock,
		Market:      MarketHK,
		Ticker:      "700",
		Quantity:    100,
		OptionType:  strPtr(OptionCall),
		StrikePrice: f64Ptr(300),
		ExpiryDate:  strPtr("2026-12-18"),
		Side:        strPtr(SideLong),
	}

	Normalize(h)

	assert.Nil(t, h.OptionType)
	assert.Nil(t, h.StrikePrice)
	assert.Nil(t, h.ExpiryDate)
	assert.Nil(t, h.Side)
	assert.Equal(t, 100.0, h.Quantity)
}

func TestNormalize_EmptyExpiryBecomesNull(t *testing.T) {
	h := &Holding{
		AssetType:   AssetOption,
		Market:      MarketUS,
		Ticker:      "NVDA",
		Quantity:    1,
		OptionType:  strPtr(OptionCall),
		StrikePrice: f64Ptr(100),
		ExpiryDate:  strPtr(""),
		Side:        strPtr(SideLong),
	}

	Normalize(h)
	assert.Nil(t, h.ExpiryDate)
}

func TestNormalize_TickerUppercased(t *testing.T) {
	h := &Holding{AssetType: AssetStock, Market: MarketUS, Ticker: " aapl "}
	Normalize(h)
	assert.Equal(t, "AAPL", h.Ticker)
}

func TestValidate(t *testing.T) {
	t.Run("valid stock", func(t *testing.T) {
		h := &Holding{AssetType: AssetStock, Market: MarketUS, Ticker: "AAPL", Quantity: 10}
		require.NoError(t, h.Validate())
	})

	t.Run("valid cash", func(t *testing.T) {
		h := &Holding{AssetType: AssetCash, Market: MarketHK, Quantity: 1000}
		require.NoError(t, h.Validate())
	})

	t.Run("bad asset type", func(t *testing.T) {
		h := &Holding{AssetType: "Bond", Market: MarketUS, Ticker: "X"}
		assert.Error(t, h.Validate())
	})

	t.Run("bad market", func(t *testing.T) {
		h := &Holding{AssetType: AssetStock, Market: "JP", Ticker: "X"}
		assert.Error(t, h.Validate())
	})

	t.Run("stock without ticker", func(t *testing.T) {
		h := &Holding{AssetType: AssetStock, Market: MarketUS}
		assert.Error(t, h.Validate())
	})

	t.Run("option missing contract fields", func(t *testing.T) {
		h := &Holding{AssetType: AssetOption, Market: MarketUS, Ticker: "TSLA", Quantity: 1}
		assert.Error(t, h.Validate())
	})

	t.Run("option complete", func(t *testing.T) {
		h := &Holding{
			AssetType:   AssetOption,
			Market:      MarketUS,
			Ticker:      "TSLA",
			Quantity:    -1,
			OptionType:  strPtr(OptionPut),
			StrikePrice: f64Ptr(200),
			Side:        strPtr(SideShort),
		}
		require.NoError(t, h.Validate())
	})
}
