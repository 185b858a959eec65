package domain

import (
	"fmt"
	"strings"
)

// Normalize rewrites a holding into canonical stored form:
//   - a Short option entered with a positive quantity is negated; an
//     already-negative quantity is left alone
//   - non-option holdings never carry option fields, whatever the
//     client sent
//   - an empty expiry date becomes null
//   - tickers are stored upper-cased and trimmed
func Normalize(h *Holding) {
	h.Ticker = strings.ToUpper(strings.TrimSpace(h.Ticker))

	if h.AssetType != AssetOption {
		h.OptionType = nil
		h.StrikePrice = nil
		h.ExpiryDate = nil
		h.Side = nil
		return
	}

	if h.Side != nil && *h.Side == SideShort && h.Quantity > 0 {
		h.Quantity = -h.Quantity
	}

	if h.ExpiryDate != nil && strings.TrimSpace(*h.ExpiryDate) == "" {
		h.ExpiryDate = nil
	}
}

// Validate checks the holding's enum fields. It is applied after
// Normalize on create and update.
func (h *Holding) Validate() error {
	switch h.AssetType {
	case AssetStock, AssetOption, AssetCash:
	default:
		return fmt.Errorf("invalid asset_type: %q", h.AssetType)
	}

	switch h.Market {
	case MarketUS, MarketHK, MarketCN:
	default:
		return fmt.Errorf("invalid market: %q", h.Market)
	}

	if h.AssetType != AssetCash && h.Ticker == "" {
		return fmt.Errorf("ticker is required for %s holdings", h.AssetType)
	}

	if h.AssetType == AssetOption {
		if h.OptionType == nil || (*h.OptionType != OptionCall && *h.OptionType != OptionPut) {
			return fmt.Errorf("option holdings require option_type Call or Put")
		}
		if h.Side == nil || (*h.Side != SideLong && *h.Side != SideShort) {
			return fmt.Errorf("option holdings require side Long or Short")
		}
		if h.StrikePrice == nil || *h.StrikePrice <= 0 {
			return fmt.Errorf("option holdings require a positive strike_price")
		}
	}

	return nil
}
