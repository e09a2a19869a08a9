package clientdata

import "time"

// TTL constants for different data types.
// These are added to time.Now() when storing to calculate expires_at.
const (
	// Weekly-ish data (changes with corporate actions, not critical)
	TTLDividendData = 7 * 24 * time.Hour // 7 days - dividend history per ticker

	// Short-lived data (changes frequently)
	TTLFXRate = time.Hour        // 1 hour - spot FX rates
	TTLQuote  = 10 * time.Minute // 10 minutes - market quotes

	// Ceremony state must outlive one round-trip to the browser, nothing more
	TTLWebAuthnCeremony = 5 * time.Minute
)
