package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Very stable data (rarely changes)
	TTLCompanyName = 30 * 24 * time.Hour // 30 days - company names are static

	// Short-lived data (changes frequently)
	TTLFXRate = time.Hour        // 1 hour - currency exchange rates
	TTLQuote  = 10 * time.Minute // 10 minutes - quote cache for batch valuations
)
