// Package portfolio computes portfolio valuations and distributions.
// The aggregation core is a pure function over valued holdings so the
// same logic serves both the live summary and historical snapshot views.
package portfolio

import (
	"github.com/kwchan/folio/internal/domain"
)

// Aggregate computes the market, sector, and ticker distributions for a
// set of valued holdings.
//
// Rules:
//   - the market map starts zero-filled with US/HK/CN/Cash so the
//     market chart is stable even for empty portfolios
//   - Cash contributes its market value to the "Cash" market bucket only
//   - Stocks contribute market value to their market, their sector
//     ("Unknown" when blank), and their ticker
//   - Options contribute market value to their market, but exposure
//     value to their sector ("Option" when blank) and ticker; this keeps
//     net worth honest while showing what a short put would really cost
//   - zero entries are filtered from the sector and ticker maps, never
//     from the market map
func Aggregate(holdings []domain.ValuedHolding) domain.Distributions {
	market := map[string]float64{"US": 0, "HK": 0, "CN": 0, "Cash": 0}
	sector := make(map[string]float64)
	ticker := make(map[string]float64)

	for i := range holdings {
		h := &holdings[i]

		switch h.AssetType {
		case domain.AssetCash:
			market["Cash"] += h.MarketValueHKD

		case domain.AssetStock:
			market[string(h.Market)] += h.MarketValueHKD

			s := h.Sector
			if s == "" {
				s = "Unknown"
			}
			sector[s] += h.MarketValueHKD
			ticker[h.Ticker] += h.MarketValueHKD

		case domain.AssetOption:
			market[string(h.Market)] += h.MarketValueHKD

			s := h.Sector
			if s == "" {
				s = "Option"
			}
			sector[s] += h.ExposureValueHKD
			ticker[h.Ticker] += h.ExposureValueHKD
		}
	}

	dropZeroes(sector)
	dropZeroes(ticker)

	return domain.Distributions{
		Market: market,
		Sector: sector,
		Ticker: ticker,
	}
}

func dropZeroes(m map[string]float64) {
	for k, v := range m {
		if v == 0 {
			delete(m, k)
		}
	}
}
