package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/kwchan/folio/internal/domain"
)

func valuedStock(ticker, sector string, marketValue float64) domain.ValuedHolding {
	return domain.ValuedHolding{
		Holding: domain.Holding{
			AssetType: domain.AssetStock,
			Market:    domain.MarketUS,
			Ticker:    ticker,
		},
		Sector:         sector,
		MarketValueHKD: marketValue,
	}
}

func TestAggregate_EmptyPortfolio(t *testing.T) {
	dist := Aggregate(nil)

	// Market map is always zero-filled so charts stay stable
	assert.Equal(t, map[string]float64{"US": 0, "HK": 0, "CN": 0, "Cash": 0}, dist.Market)
	assert.Empty(t, dist.Sector)
	assert.Empty(t, dist.Ticker)
}

func TestAggregate_MixedPortfolio(t *testing.T) {
	holdings := []domain.ValuedHolding{
		{
			Holding:        domain.Holding{AssetType: domain.AssetCash, Market: domain.MarketHK},
			Sector:         "Cash",
			MarketValueHKD: 1000,
		},
		valuedStock("AAPL", "Information Technology", 5000),
		{
			Holding: domain.Holding{
				AssetType: domain.AssetOption,
				Market:    domain.MarketUS,
				Ticker:    "TSLA",
			},
			Sector:           "Option",
			MarketValueHKD:   -200,
			ExposureValueHKD: 3000,
		},
	}

	dist := Aggregate(holdings)

	// Option contributes market value to the market bucket but
	// exposure to sector and ticker
	assert.Equal(t, map[string]float64{"US": 4800, "HK": 0, "CN": 0, "Cash": 1000}, dist.Market)
	assert.Equal(t, map[string]float64{"Information Technology": 5000, "Option": 3000}, dist.Sector)
	assert.Equal(t, map[string]float64{"AAPL": 5000, "TSLA": 3000}, dist.Ticker)
}

func TestAggregate_CashOnlyTouchesCashBucket(t *testing.T) {
	holdings := []domain.ValuedHolding{
		{
			Holding:        domain.Holding{AssetType: domain.AssetCash, Market: domain.MarketUS, Quantity: 100},
			Sector:         "Cash",
			MarketValueHKD: 780,
		},
	}

	dist := Aggregate(holdings)

	assert.Equal(t, 780.0, dist.Market["Cash"])
	assert.Equal(t, 0.0, dist.Market["US"], "cash must not count towards its market bucket")
	assert.Empty(t, dist.Sector)
	assert.Empty(t, dist.Ticker)
}

func TestAggregate_BlankSectorFallbacks(t *testing.T) {
	holdings := []domain.ValuedHolding{
		valuedStock("AAPL", "", 100),
		{
			Holding: domain.Holding{
				AssetType: domain.AssetOption,
				Market:    domain.MarketUS,
				Ticker:    "TSLA",
			},
			MarketValueHKD:   -50,
			ExposureValueHKD: 1500,
		},
	}

	dist := Aggregate(holdings)

	assert.Equal(t, 100.0, dist.Sector["Unknown"])
	assert.Equal(t, 1500.0, dist.Sector["Option"])
}

func TestAggregate_ZeroEntriesFiltered(t *testing.T) {
	holdings := []domain.ValuedHolding{
		valuedStock("ZERO", "Energy", 0),
		valuedStock("AAPL", "Information Technology", 100),
		{
			// Long call with zero exposure leaves no sector/ticker trace
			Holding: domain.Holding{
				AssetType: domain.AssetOption,
				Market:    domain.MarketUS,
				Ticker:    "NVDA",
			},
			Sector:           "Option",
			MarketValueHKD:   250,
			ExposureValueHKD: 0,
		},
	}

	dist := Aggregate(holdings)

	assert.NotContains(t, dist.Sector, "Energy")
	assert.NotContains(t, dist.Ticker, "ZERO")
	assert.NotContains(t, dist.Sector, "Option")
	assert.NotContains(t, dist.Ticker, "NVDA")

	// Market map keeps zero buckets
	assert.Contains(t, dist.Market, "HK")

	// The long call's market value still counts towards its market
	assert.Equal(t, 350.0, dist.Market["US"])
}

func TestAggregate_SameTickerStockAndOptionCombine(t *testing.T) {
	holdings := []domain.ValuedHolding{
		valuedStock("TSLA", "Consumer Discretionary", 2000),
		{
			Holding: domain.Holding{
				AssetType: domain.AssetOption,
				Market:    domain.MarketUS,
				Ticker:    "TSLA",
			},
			Sector:           "Option",
			MarketValueHKD:   -100,
			ExposureValueHKD: 1560,
		},
	}

	dist := Aggregate(holdings)

	assert.Equal(t, 3560.0, dist.Ticker["TSLA"])
	assert.Equal(t, 1900.0, dist.Market["US"])
}

func TestAggregate_NegativeSectorSurvivesFilter(t *testing.T) {
	// Filtering removes exact zeroes only; negative market values are real
	holdings := []domain.ValuedHolding{
		valuedStock("SHRT", "Energy", -500),
	}

	dist := Aggregate(holdings)
	assert.Equal(t, -500.0, dist.Sector["Energy"])
	assert.Equal(t, -500.0, dist.Ticker["SHRT"])
}
