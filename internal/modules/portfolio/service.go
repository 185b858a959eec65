package portfolio

import (
	"context"
	"fmt"
	"math"

	"github.com/rs/zerolog"

	"github.com/kwchan/folio/internal/domain"
)

// optionMultiplier is the contract size for equity options.
const optionMultiplier = 100

// MarketData is the market data surface the valuation needs.
// The Tencent client satisfies it; tests substitute a mock.
type MarketData interface {
	GetPrice(ctx context.Context, market domain.Market, ticker string) float64
	GetCompanyName(ctx context.Context, market domain.Market, ticker string) string
	GetFXRate(ctx context.Context, from, to string) float64
}

// HoldingSource provides the current holdings to value.
type HoldingSource interface {
	GetAll() ([]domain.Holding, error)
}

// Service values holdings in HKD and assembles dashboard summaries.
type Service struct {
	holdings HoldingSource
	market   MarketData
	log      zerolog.Logger
}

// NewService creates a new portfolio valuation service.
func NewService(holdings HoldingSource, market MarketData, log zerolog.Logger) *Service {
	return &Service{
		holdings: holdings,
		market:   market,
		log:      log.With().Str("component", "portfolio").Logger(),
	}
}

// CurrencyForMarket maps a market to its trading currency.
func CurrencyForMarket(m domain.Market) string {
	switch m {
	case domain.MarketUS:
		return "USD"
	case domain.MarketCN:
		return "CNY"
	default:
		return "HKD"
	}
}

// Value computes the HKD valuation of a single holding.
func (s *Service) Value(ctx context.Context, h domain.Holding) domain.ValuedHolding {
	v := domain.ValuedHolding{Holding: h}

	currency := CurrencyForMarket(h.Market)
	fx := s.market.GetFXRate(ctx, currency, "HKD")

	switch h.AssetType {
	case domain.AssetCash:
		v.CurrentPrice = 1.0
		v.Sector = "Cash"
		v.MarketValueHKD = h.Quantity * fx
		v.CostValueHKD = h.CostBasis * h.Quantity * fx

	case domain.AssetStock:
		price := s.market.GetPrice(ctx, h.Market, h.Ticker)
		if price == 0 {
			s.log.Warn().Str("ticker", h.Ticker).Str("market", string(h.Market)).Msg("No price available")
		}

		v.CurrentPrice = price
		v.MarketValueHKD = h.Quantity * price * fx
		v.CostValueHKD = h.CostBasis * h.Quantity * fx

		v.Sector = h.CustomSector
		if v.Sector == "" {
			v.Sector = "Unknown"
		}

		if h.CompanyName == "" {
			v.CompanyName = s.market.GetCompanyName(ctx, h.Market, h.Ticker)
		}

	case domain.AssetOption:
		// Free data sources carry no option quotes, so the premium is
		// estimated as intrinsic value from the underlying.
		underlying := s.market.GetPrice(ctx, h.Market, h.Ticker)
		price := intrinsicValue(h, underlying)

		v.CurrentPrice = price
		v.Sector = "Option"
		v.MarketValueHKD = h.Quantity * price * optionMultiplier * fx
		v.CostValueHKD = h.CostBasis * math.Abs(h.Quantity) * optionMultiplier * fx

		// A short put may be assigned: its exposure is what buying the
		// shares at strike would cost.
		if h.OptionType != nil && *h.OptionType == domain.OptionPut &&
			h.Quantity < 0 && h.StrikePrice != nil {
			v.ExposureValueHKD = math.Abs(h.Quantity) * *h.StrikePrice * optionMultiplier * fx
		}
	}

	return v
}

// intrinsicValue estimates an option premium from the underlying price.
func intrinsicValue(h domain.Holding, underlying float64) float64 {
	if h.StrikePrice == nil || h.OptionType == nil || underlying <= 0 {
		return 0
	}

	strike := *h.StrikePrice
	if *h.OptionType == domain.OptionCall {
		return math.Max(0, underlying-strike)
	}
	return math.Max(0, strike-underlying)
}

// ValueAll values every holding in the list.
func (s *Service) ValueAll(ctx context.Context, hs []domain.Holding) []domain.ValuedHolding {
	valued := make([]domain.ValuedHolding, 0, len(hs))
	for _, h := range hs {
		valued = append(valued, s.Value(ctx, h))
	}
	return valued
}

// Summary values the current holdings and assembles the full dashboard
// payload. Net worth is the sum of every holding's market value, cash
// included.
func (s *Service) Summary(ctx context.Context) (*domain.Summary, error) {
	hs, err := s.holdings.GetAll()
	if err != nil {
		return nil, fmt.Errorf("failed to load holdings: %w", err)
	}

	valued := s.ValueAll(ctx, hs)
	return SummarizeValued(valued), nil
}

// SummarizeValued builds a summary from already-valued holdings with a
// freshly computed total. Used for the live summary; snapshot views keep
// their stored total instead.
func SummarizeValued(valued []domain.ValuedHolding) *domain.Summary {
	var total float64
	for i := range valued {
		total += valued[i].MarketValueHKD
	}

	if valued == nil {
		valued = []domain.ValuedHolding{}
	}

	return &domain.Summary{
		TotalNetWorthHKD: total,
		Holdings:         valued,
		Distributions:    Aggregate(valued),
	}
}
