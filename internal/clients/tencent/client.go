// Package tencent provides quote, company name, and FX rate fetching from
// the Tencent Finance API with layered caching.
package tencent

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/rs/zerolog"

	"github.com/kwchan/folio/internal/clientdata"
	"github.com/kwchan/folio/internal/domain"
)

// DefaultBaseURL is the public Tencent Finance quote endpoint.
const DefaultBaseURL = "http://qt.gtimg.cn"

// fallbackFXRates are approximate rates used when the API is unreachable
// and no cached rate exists.
var fallbackFXRates = map[string]float64{
	"USDHKD": 7.8,
	"USDCNY": 7.2,
	"CNYHKD": 1.08,
	"HKDUSD": 0.128,
	"HKDCNY": 0.92,
	"CNYUSD": 0.139,
}

// Client fetches market data from the Tencent Finance API.
// Two cache layers sit in front of the network: an in-process hot cache
// for batch valuations, and the persistent client data cache which also
// serves stale values when the API fails.
type Client struct {
	baseURL   string
	client    *http.Client
	log       zerolog.Logger
	hot       *gocache.Cache
	cacheRepo *clientdata.Repository
}

// NewClient creates a new Tencent Finance client.
// cacheRepo is optional - if nil, persistent caching is disabled.
func NewClient(baseURL string, cacheRepo *clientdata.Repository, log zerolog.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		client:    &http.Client{Timeout: 5 * time.Second},
		log:       log.With().Str("client", "tencent").Logger(),
		hot:       gocache.New(clientdata.TTLQuote, 30*time.Minute),
		cacheRepo: cacheRepo,
	}
}

// MapSymbol converts a user ticker to Tencent Finance format.
// Format: sh600519, sz000001, hk00700, usAAPL (US must be uppercase).
func MapSymbol(market domain.Market, ticker string) string {
	switch market {
	case domain.MarketUS:
		return "us" + strings.ToUpper(ticker)
	case domain.MarketHK:
		// HK stocks need a 5-digit code: 0700 -> hk00700
		padded := ticker
		for len(padded) < 5 {
			padded = "0" + padded
		}
		return "hk" + padded
	case domain.MarketCN:
		// 6-prefix trades in Shanghai, 0/3-prefix in Shenzhen
		if strings.HasPrefix(ticker, "0") || strings.HasPrefix(ticker, "3") {
			return "sz" + ticker
		}
		return "sh" + ticker
	}
	return ticker
}

// quoteRecord is the structure stored in the persistent cache.
type quoteRecord struct {
	Price float64 `msgpack:"price"`
}

// GetPrice fetches the current price for a ticker.
// Returns 0 when no usable price is available, mirroring how the summary
// treats unpriceable holdings.
func (c *Client) GetPrice(ctx context.Context, market domain.Market, ticker string) float64 {
	symbol := MapSymbol(market, ticker)

	if v, ok := c.hot.Get(symbol); ok {
		return v.(float64)
	}

	if c.cacheRepo != nil {
		var cached quoteRecord
		found, err := c.cacheRepo.GetIfFresh("quotes", symbol, &cached)
		if err == nil && found {
			c.hot.SetDefault(symbol, cached.Price)
			return cached.Price
		}
	}

	parts, err := c.fetchParts(ctx, symbol)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Quote fetch failed")
		return c.stalePrice(symbol)
	}

	price := parsePrice(parts)
	if price <= 0 {
		return c.stalePrice(symbol)
	}

	c.hot.SetDefault(symbol, price)
	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("quotes", symbol, quoteRecord{Price: price}, clientdata.TTLQuote); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache quote")
		}
	}

	c.log.Debug().Str("symbol", symbol).Float64("price", price).Msg("Fetched quote")
	return price
}

// stalePrice retrieves a cached price even if expired.
// Stale data is better than no data when the API fails.
func (c *Client) stalePrice(symbol string) float64 {
	if c.cacheRepo == nil {
		return 0
	}

	var cached quoteRecord
	found, err := c.cacheRepo.Get("quotes", symbol, &cached)
	if err != nil || !found {
		return 0
	}

	c.log.Warn().Str("symbol", symbol).Float64("price", cached.Price).Msg("Using stale cached price")
	return cached.Price
}

// GetCompanyName fetches the company name for a ticker.
// US stocks carry an English name at field 46; CN/HK stocks carry the
// name at field 1. Falls back to the ticker itself.
func (c *Client) GetCompanyName(ctx context.Context, market domain.Market, ticker string) string {
	symbol := MapSymbol(market, ticker)

	if c.cacheRepo != nil {
		var cached string
		found, err := c.cacheRepo.GetIfFresh("company_names", symbol, &cached)
		if err == nil && found && cached != "" {
			return cached
		}
	}

	parts, err := c.fetchParts(ctx, symbol)
	if err != nil {
		c.log.Warn().Err(err).Str("symbol", symbol).Msg("Company name fetch failed")
		return ticker
	}

	name := parseCompanyName(parts, market)
	if name == "" {
		return ticker
	}

	if c.cacheRepo != nil {
		if err := c.cacheRepo.Store("company_names", symbol, name, clientdata.TTLCompanyName); err != nil {
			c.log.Warn().Err(err).Str("symbol", symbol).Msg("Failed to cache company name")
		}
	}

	return name
}

// GetFXRate fetches the exchange rate between two currencies.
// Never fails: when the API and cache both miss, an approximate
// hardcoded rate is used (1.0 for unknown pairs).
func (c *Client) GetFXRate(ctx context.Context, from, to string) float64 {
	if from == to {
		return 1.0
	}

	pair := from + to

	if v, ok := c.hot.Get("fx:" + pair); ok {
		return v.(float64)
	}

	if c.cacheRepo != nil {
		var cached float64
		found, err := c.cacheRepo.GetIfFresh("fx_rates", pair, &cached)
		if err == nil && found && cached > 0 {
			c.hot.SetDefault("fx:"+pair, cached)
			return cached
		}
	}

	// Tencent FX format: fx_susdhkd
	symbol := "fx_s" + strings.ToLower(from) + strings.ToLower(to)
	parts, err := c.fetchParts(ctx, symbol)
	if err == nil && len(parts) > 1 {
		if rate, parseErr := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64); parseErr == nil && rate > 0 {
			c.hot.SetDefault("fx:"+pair, rate)
			if c.cacheRepo != nil {
				if storeErr := c.cacheRepo.Store("fx_rates", pair, rate, clientdata.TTLFXRate); storeErr != nil {
					c.log.Warn().Err(storeErr).Str("pair", pair).Msg("Failed to cache FX rate")
				}
			}
			c.log.Debug().Str("pair", pair).Float64("rate", rate).Msg("Fetched FX rate")
			return rate
		}
	}
	if err != nil {
		c.log.Warn().Err(err).Str("pair", pair).Msg("FX fetch failed")
	}

	// Stale cache beats the hardcoded table
	if c.cacheRepo != nil {
		var cached float64
		found, getErr := c.cacheRepo.Get("fx_rates", pair, &cached)
		if getErr == nil && found && cached > 0 {
			c.log.Warn().Str("pair", pair).Float64("rate", cached).Msg("Using stale cached FX rate")
			return cached
		}
	}

	if rate, ok := fallbackFXRates[pair]; ok {
		return rate
	}
	return 1.0
}

// fetchParts performs a quote request and splits the response record.
// The API returns lines like: v_usAAPL="200~Apple Inc~AAPL~187.44~...";
func (c *Client) fetchParts(ctx context.Context, symbol string) ([]string, error) {
	url := fmt.Sprintf("%s/q=%s", c.baseURL, symbol)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	content := strings.TrimSpace(string(body))
	idx := strings.Index(content, `="`)
	if idx < 0 {
		return nil, fmt.Errorf("unexpected response format for %s", symbol)
	}

	record := strings.TrimRight(content[idx+2:], `";`)
	return strings.Split(record, "~"), nil
}

// parsePrice extracts the price from field 3 of a quote record.
func parsePrice(parts []string) float64 {
	if len(parts) <= 3 {
		return 0
	}
	price, err := strconv.ParseFloat(strings.TrimSpace(parts[3]), 64)
	if err != nil || price <= 0 {
		return 0
	}
	return price
}

// parseCompanyName extracts the company name from a quote record.
func parseCompanyName(parts []string, market domain.Market) string {
	if market == domain.MarketUS && len(parts) > 46 {
		if name := strings.TrimSpace(parts[46]); name != "" {
			return name
		}
	}
	if len(parts) > 1 {
		return strings.TrimSpace(parts[1])
	}
	return ""
}
