// Package domain defines the core portfolio types shared across modules.
package domain

// AssetType identifies the kind of holding.
type AssetType string

const (
	AssetStock  AssetType = "Stock"
	AssetOption AssetType = "Option"
	AssetCash   AssetType = "Cash"
)

// Market identifies the exchange region of a holding.
type Market string

const (
	MarketUS Market = "US"
	MarketHK Market = "HK"
	MarketCN Market = "CN"
)

// Option contract fields.
const (
	OptionCall = "Call"
	OptionPut  = "Put"

	SideLong  = "Long"
	SideShort = "Short"
)

// Holding is a single portfolio position as entered by the user.
// Option fields are pointers so they round-trip as JSON null for
// non-option holdings.
type Holding struct {
	ID           string    `json:"id"`
	AssetType    AssetType `json:"asset_type"`
	Market       Market    `json:"market"`
	Ticker       string    `json:"ticker"`
	CompanyName  string    `json:"company_name"`
	CustomSector string    `json:"custom_sector"`
	Quantity     float64   `json:"quantity"`
	CostBasis    float64   `json:"cost_basis"`
	OptionType   *string   `json:"option_type"`
	StrikePrice  *float64  `json:"strike_price"`
	ExpiryDate   *string   `json:"expiry_date"`
	Side         *string   `json:"side"`
}

// IsShortOption reports whether the holding is an option written short.
func (h *Holding) IsShortOption() bool {
	return h.AssetType == AssetOption && h.Side != nil && *h.Side == SideShort
}

// ValuedHolding is a holding enriched with market data and HKD values.
// This is what summaries return and what snapshots capture.
type ValuedHolding struct {
	Holding

	CurrentPrice     float64 `json:"current_price"`
	Sector           string  `json:"sector"`
	MarketValueHKD   float64 `json:"market_value_hkd"`
	CostValueHKD     float64 `json:"cost_value_hkd"`
	ExposureValueHKD float64 `json:"exposure_value_hkd"`
}

// Snapshot is an immutable capture of the portfolio at a point in time.
// The stored total is trusted as-is on read; it is never re-derived from
// the captured holdings.
type Snapshot struct {
	ID               string          `json:"id"`
	Date             string          `json:"date"`
	TotalNetWorthHKD float64         `json:"total_net_worth_hkd"`
	Holdings         []ValuedHolding `json:"holdings_snapshot"`
}

// Distributions holds the three HKD breakdowns of a portfolio.
// The market map is always zero-filled with US/HK/CN/Cash; sector and
// ticker maps carry only non-zero entries.
type Distributions struct {
	Market map[string]float64 `json:"market_distribution"`
	Sector map[string]float64 `json:"sector_distribution"`
	Ticker map[string]float64 `json:"ticker_distribution"`
}

// Summary is the full dashboard payload for a portfolio state, current
// or historical.
type Summary struct {
	TotalNetWorthHKD float64         `json:"total_net_worth_hkd"`
	Holdings         []ValuedHolding `json:"holdings"`
	Distributions
}

// Dataset is the import/export payload: the entire application state.
type Dataset struct {
	Holdings  []Holding  `json:"holdings"`
	Snapshots []Snapshot `json:"snapshots"`
}
