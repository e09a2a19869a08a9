package classifications

import "time"

// Classification maps a (user, ticker, exchange) to an asset class and type
// for grouping and reporting. One row per ticker per exchange.
type Classification struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Ticker     string    `json:"ticker"`
	Exchange   string    `json:"exchange"`
	AssetClass string    `json:"asset_class"`
	AssetType  string    `json:"asset_type"`
	CreatedAt  time.Time `json:"created_at"`
}

// ClassificationInput is the PUT body for assigning a classification.
type ClassificationInput struct {
	Ticker     string `json:"ticker"`
	Exchange   string `json:"exchange"`
	AssetClass string `json:"asset_class"`
	AssetType  string `json:"asset_type"`
}
