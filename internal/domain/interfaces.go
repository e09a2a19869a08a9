package domain

// FXRateProvider resolves a spot rate between two currencies.
// Implemented by the fx client; consumed by funding and positions handlers.
type FXRateProvider interface {
	GetSpotRate(fromCurrency, toCurrency string) (float64, error)
}

// SessionResolver resolves a session token to a user ID.
// Implemented by the auth service; consumed by the session middleware.
type SessionResolver interface {
	ResolveSession(token string) (int64, error)
}
