package positions

import "time"

// Position is a user's holding in one ticker. AssetClass and AssetType come
// from the classification join and are empty when the ticker is unclassified.
type Position struct {
	ID            int64      `json:"id"`
	UserID        int64      `json:"user_id"`
	Ticker        string     `json:"ticker"`
	Exchange      string     `json:"exchange"`
	Quantity      float64    `json:"quantity"`
	AvgCost       float64    `json:"avg_cost"`
	MarketValue   float64    `json:"market_value"`
	UnrealizedPnL float64    `json:"unrealized_pnl"`
	Currency      string     `json:"currency"`
	IsActive      bool       `json:"is_active"`
	AssetClass    string     `json:"asset_class,omitempty"`
	AssetType     string     `json:"asset_type,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     *time.Time `json:"updated_at,omitempty"`
}

// PositionInput is the POST/PUT body for a position.
type PositionInput struct {
	Ticker        string  `json:"ticker"`
	Exchange      string  `json:"exchange"`
	Quantity      float64 `json:"quantity"`
	AvgCost       float64 `json:"avg_cost"`
	MarketValue   float64 `json:"market_value"`
	UnrealizedPnL float64 `json:"unrealized_pnl"`
	Currency      string  `json:"currency"`
	IsActive      *bool   `json:"is_active"`
}
